package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/globely/globely-api/internal/api/middleware"
)

// ctxUserID returns the user id injected by the Auth middleware. An empty id
// means the route was reached without the guard and is rejected with 401.
func ctxUserID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return id, nil
}
