package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/globely/globely-api/internal/api/metrics"
	"github.com/globely/globely-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

const (
	msgNoToken      = "no token provided"
	msgInvalidToken = "invalid token"
)

// Auth validates the bearer token and injects the caller's identity into the
// echo context. Tokens are accepted until they expire; there is no session
// store behind this check.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if authHeader == "" {
				return reject("no_token", msgNoToken)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if !strings.EqualFold(parts[0], "bearer") {
				return reject("invalid_token", msgInvalidToken)
			}
			if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
				return reject("no_token", msgNoToken)
			}

			identity, ok := verifier.Verify(strings.TrimSpace(parts[1]))
			if !ok {
				return reject("invalid_token", msgInvalidToken)
			}

			c.Set(ContextUserID, identity.UserID)
			c.Set(ContextEmail, identity.Email)

			return next(c)
		}
	}
}

func reject(reason, msg string) error {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
