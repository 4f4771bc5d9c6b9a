package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/usecase"
)

const (
	userContextKey   = "user"
	userIDContextKey = "user_id"
)

// JWTAuth resolves the bearer token to a user and stores it on the echo
// context for downstream handlers.
func JWTAuth(authUsecase *usecase.AuthUseCase) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			ctx := c.Request().Context()
			user, err := authUsecase.ValidateToken(ctx, tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(userContextKey, user)
			c.Set(userIDContextKey, user.ID.Hex())
			return next(c)
		}
	}
}

// GetUser returns the authenticated user set by JWTAuth. It panics when
// called from an unprotected route, which is a wiring bug.
func GetUser(c echo.Context) *models.User {
	return c.Get(userContextKey).(*models.User)
}

func GetUserID(c echo.Context) string {
	if id, ok := c.Get(userIDContextKey).(string); ok {
		return id
	}
	return ""
}
