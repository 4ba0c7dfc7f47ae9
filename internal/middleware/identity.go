package middleware

// identity.go holds the helpers that read the authenticated user back out
// of the echo context.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the id stored by JWTAuth.  ok is false on public routes
// or when the value is missing.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ContextUserID).(uint64)
    return id, ok && id != 0
}

// Username returns the username claim, or "" when absent.
func Username(c echo.Context) string {
    s, _ := c.Get(ContextUsername).(string)
    return s
}

// userKey is the user part of rate limit keys; "anon" for guests.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
