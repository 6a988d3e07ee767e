package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the public auth routes and the token gated task
// routes on e.
func RegisterRoutes(e *echo.Echo, users *UserHandler, tasks *TaskHandler, auth echo.MiddlewareFunc) {
	e.POST("/register", users.Register)
	e.POST("/login", users.Login)

	g := e.Group("/tasks", auth)
	g.GET("", tasks.ListTasks)
	g.POST("", tasks.CreateTask)
	g.PUT("/:id", tasks.UpdateTask)
	g.DELETE("/:id", tasks.DeleteTask)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "task-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
}
