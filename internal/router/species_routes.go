package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/floradex/internal/handler"
)

// RegisterSpecies registers the catalog and care lookups.  cache applies
// to the catalog list only.
func RegisterSpecies(e *echo.Echo, h *handler.SpeciesHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := protected(e, "/api/species", jwtSecret, limit)
	g.GET("", h.List, cache)
	g.GET("/lookup/:name", h.Lookup)
	g.GET("/care/:external_id", h.CareByExternalID)
	g.GET("/:id", h.Get)
}
