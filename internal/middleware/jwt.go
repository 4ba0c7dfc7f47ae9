package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/utils"
)

// Context keys set by JWTAuth.
const (
    ContextUserID   = "user_id"
    ContextUsername = "username"
)

// JWTAuth validates a Bearer access token and stores the user id
// (uint64) and username in the echo context.  Handlers read them back
// with UserID.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(ContextUserID, claims.UserID)
            c.Set(ContextUsername, claims.Username)
            return next(c)
        }
    }
}
