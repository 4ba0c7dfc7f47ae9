package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/logging"
    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/repository"
)

// PlantHandler serves the caller's plant collection.  Every query is
// scoped by the user id from the access token.
type PlantHandler struct {
    Plants PlantStore
    Images ImageStore
    Log    *logging.Logger
}

func NewPlantHandler(p PlantStore, images ImageStore, log *logging.Logger) *PlantHandler {
    if log == nil {
        log = logging.Nop()
    }
    return &PlantHandler{Plants: p, Images: images, Log: log}
}

// plantReq is the body of POST /api/plants.  Name defaults to Type.
type plantReq struct {
    Type           string             `json:"type"`
    Name           string             `json:"name"`
    Nickname       string             `json:"nickname"`
    Confidence     float64            `json:"confidence"`
    Predictions    []model.Prediction `json:"all_predictions"`
    ScientificName *string            `json:"scientific_name"`
    SpeciesID      *uint64            `json:"species_id"`
    ImageURL       *string            `json:"image_url"`
    CareInfo       *model.CareInfo    `json:"care_info"`
}

// validate trims the request and reports the first problem found.
func (r *plantReq) validate() string {
    r.Type = strings.TrimSpace(r.Type)
    r.Name = strings.TrimSpace(r.Name)
    if r.Type == "" {
        return "type is required"
    }
    if r.Name == "" {
        r.Name = r.Type
    }
    if r.Confidence < 0 || r.Confidence > 1 {
        return "confidence must be between 0 and 1"
    }
    for _, p := range r.Predictions {
        if p.Confidence < 0 || p.Confidence > 1 {
            return "prediction confidence must be between 0 and 1"
        }
    }
    return ""
}

func (r plantReq) toModel(userID uint64) *model.UserPlant {
    return &model.UserPlant{
        Type:           r.Type,
        UserID:         userID,
        Name:           r.Name,
        Nickname:       strings.TrimSpace(r.Nickname),
        Confidence:     r.Confidence,
        Predictions:    r.Predictions,
        ScientificName: r.ScientificName,
        SpeciesID:      r.SpeciesID,
        ImageURL:       r.ImageURL,
        CareInfo:       r.CareInfo,
    }
}

// List handles GET /api/plants.
func (h *PlantHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    plants, err := h.Plants.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, plants)
}

// Create handles POST /api/plants.
func (h *PlantHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req plantReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p := req.toModel(uid)
    if err := h.Plants.Create(ctx, p); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create plant failed"})
    }
    return c.JSON(http.StatusCreated, p)
}

// Get handles GET /api/plants/:id.
func (h *PlantHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plant id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p, err := h.Plants.GetByIDAndUser(ctx, id, uid)
    if err != nil {
        if errors.Is(err, repository.ErrPlantNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plant not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/plants/:id and drops the stored photo.
func (h *PlantHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plant id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p, err := h.Plants.GetByIDAndUser(ctx, id, uid)
    if err == nil {
        err = h.Plants.DeleteByIDAndUser(ctx, id, uid)
    }
    if err != nil {
        if errors.Is(err, repository.ErrPlantNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plant not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    if p.ImageURL != nil {
        releaseImage(ctx, h.Plants, h.Images, h.Log, *p.ImageURL)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// releaseImage removes a stored photo once no plant record of any user
// points at it.  Image URLs come from clients, so several records may
// share one file.
func releaseImage(ctx context.Context, plants PlantStore, images ImageStore, log *logging.Logger, url string) {
    if images == nil || url == "" {
        return
    }
    n, err := plants.CountByImageURL(ctx, url)
    if err != nil {
        log.Warn("count image references failed", "url", url, "error", err)
        return
    }
    if n > 0 {
        return
    }
    if err := images.Remove(url); err != nil {
        log.Warn("remove plant image failed", "url", url, "error", err)
    }
}
