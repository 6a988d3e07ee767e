package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-service/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new user --> /register
func (h *UserHandler) Register(c echo.Context) error {
	creds := credentials{}
	if err := c.Bind(&creds); err != nil {
		return sendStatus(c, http.StatusBadRequest)
	}

	if _, err := h.userService.Register(c.Request().Context(), creds.Username, creds.Password); err != nil {
		return sendStatus(c, http.StatusInternalServerError)
	}

	return sendStatus(c, http.StatusCreated)
}

// Login issues a token for valid credentials --> /login
func (h *UserHandler) Login(c echo.Context) error {
	creds := credentials{}
	if err := c.Bind(&creds); err != nil {
		return sendStatus(c, http.StatusBadRequest)
	}

	token, err := h.userService.Login(c.Request().Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return sendStatus(c, http.StatusUnauthorized)
		}
		return sendStatus(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// sendStatus answers with the status code and its standard text as the
// only body. 204 has no body.
func sendStatus(c echo.Context, code int) error {
	if code == http.StatusNoContent {
		return c.NoContent(code)
	}
	return c.String(code, http.StatusText(code))
}
