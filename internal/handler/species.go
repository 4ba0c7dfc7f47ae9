package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/logging"
    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/perenual"
    "github.com/iliyamo/floradex/internal/repository"
)

// CareLookup resolves care details from the external care API.
type CareLookup interface {
    CareByName(ctx context.Context, name string) (model.CareInfo, error)
    Details(ctx context.Context, id int64) (model.CareInfo, error)
}

// Care record sources reported by Lookup and CareByExternalID.
const (
    SourceCatalog = "catalog"
    SourceCareAPI = "care_api"
    SourceDefault = "default"
)

// SpeciesHandler exposes the read-only species catalog and the care API.
type SpeciesHandler struct {
    Species SpeciesStore
    Care    CareLookup
    Log     *logging.Logger
}

func NewSpeciesHandler(s SpeciesStore, care CareLookup, log *logging.Logger) *SpeciesHandler {
    if log == nil {
        log = logging.Nop()
    }
    return &SpeciesHandler{Species: s, Care: care, Log: log}
}

type careResp struct {
    Source   string         `json:"source"`
    CareInfo model.CareInfo `json:"care_info"`
}

// List handles GET /api/species?name=... with a case-insensitive
// substring filter.
func (h *SpeciesHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    list, err := h.Species.List(ctx, c.QueryParam("name"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/species/:id.
func (h *SpeciesHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid species id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    s, err := h.Species.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrSpeciesNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plant species not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, s)
}

// Lookup handles GET /api/species/lookup/:name.  The local catalog wins;
// otherwise the care API is searched by name.
func (h *SpeciesHandler) Lookup(c echo.Context) error {
    name := strings.TrimSpace(c.Param("name"))
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    s, err := h.Species.GetByName(ctx, name)
    cancel()
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, careResp{Source: SourceCatalog, CareInfo: model.CareFromSpecies(*s)})
    case !errors.Is(err, repository.ErrSpeciesNotFound):
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    care, err := h.Care.CareByName(c.Request().Context(), name)
    if err != nil {
        return h.careError(c, name, err)
    }
    return c.JSON(http.StatusOK, careResp{Source: sourceOf(care), CareInfo: care})
}

// CareByExternalID handles GET /api/species/care/:external_id.
func (h *SpeciesHandler) CareByExternalID(c echo.Context) error {
    id, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
    if err != nil || id <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid external id"})
    }
    care, err := h.Care.Details(c.Request().Context(), id)
    if err != nil {
        return h.careError(c, c.Param("external_id"), err)
    }
    return c.JSON(http.StatusOK, careResp{Source: sourceOf(care), CareInfo: care})
}

func (h *SpeciesHandler) careError(c echo.Context, query string, err error) error {
    h.Log.Warn("care lookup failed", "query", query, "error", err)
    if errors.Is(err, perenual.ErrNotConfigured) {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "care API is not configured"})
    }
    return c.JSON(http.StatusBadGateway, echo.Map{"error": "care lookup failed"})
}

func sourceOf(care model.CareInfo) string {
    if care.IsDefault {
        return SourceDefault
    }
    return SourceCareAPI
}
