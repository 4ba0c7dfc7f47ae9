package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/floradex/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/floradex/internal/imagestore" // URL prefix of stored photos
)

// RegisterRoutes registers routes that do not require authentication:
// the welcome message, the health check, Prometheus metrics and the
// stored plant photos.  metrics may be nil.
func RegisterRoutes(e *echo.Echo, metrics http.Handler, staticDir string) {
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	if staticDir != "" {
		e.Static(imagestore.URLPrefix, staticDir)
	}
}

// RegisterAuth registers the session endpoints under /api/auth.  None of
// them needs an access token; logout reads one when present.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}
