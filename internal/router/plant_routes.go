package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/floradex/internal/handler"
	"github.com/iliyamo/floradex/internal/middleware"
)

// protected builds a group that requires a valid access token.  The
// rate limiter runs after JWTAuth so per-user keys see the user id.
func protected(e *echo.Echo, prefix, jwtSecret string, limit echo.MiddlewareFunc) *echo.Group {
	return e.Group(prefix, middleware.JWTAuth(jwtSecret), limit)
}

// RegisterUsers registers the account endpoints of the signed-in user.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := protected(e, "/api/users", jwtSecret, limit)
	g.GET("/me", h.Me)
	g.PUT("/me", h.Update)
	g.DELETE("/me", h.Delete)
}

// RegisterPlants registers the plant collection.  Records are always
// scoped to the caller; another user's id answers 404.
func RegisterPlants(e *echo.Echo, h *handler.PlantHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := protected(e, "/api/plants", jwtSecret, limit)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

// RegisterIdentify registers photo identification and the follow-up
// that saves a confirmed result.
func RegisterIdentify(e *echo.Echo, h *handler.IdentifyHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := protected(e, "/api/identify", jwtSecret, limit)
	g.POST("", h.Identify)
	g.POST("/add-to-collection", h.AddToCollection)
}
