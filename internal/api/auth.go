package api

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const contextKeyUser = "user"

// tokenMethods are the HMAC algorithms a token may be signed with.
var tokenMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// NewAuthMiddleware gates a route on a token signed with secret. The token
// is the raw Authorization header value; a "Bearer " prefix is not
// stripped and fails verification.
//
// A missing header answers 401 and any token that fails to parse or verify
// answers 403. Claims are decoded into a jwt.MapClaims and never checked
// for shape, only exp and nbf are honoured when present.
func NewAuthMiddleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  contextKeyUser,
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return parseToken(auth, secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return sendStatus(c, http.StatusUnauthorized)
			}
			return sendStatus(c, http.StatusForbidden)
		},
	})
}

func parseToken(auth string, secret []byte) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(auth, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods(tokenMethods))
	if err != nil {
		return nil, err
	}
	return token, nil
}
