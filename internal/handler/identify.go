package handler

import (
    "context"
    "encoding/base64"
    "errors"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/identify"
    "github.com/iliyamo/floradex/internal/imagestore"
    "github.com/iliyamo/floradex/internal/logging"
    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/queue"
    "github.com/iliyamo/floradex/internal/repository"
)

// publishTimeout bounds a single best-effort event publish.
const publishTimeout = 3 * time.Second

// Identifier runs the recognition and care pipeline on one photo.
type Identifier interface {
    Run(ctx context.Context, image []byte, filename string) (model.IdentificationResult, error)
}

// IdentifyHandler serves /api/identify.  Events may be nil.
type IdentifyHandler struct {
    Pipeline Identifier
    Plants   PlantStore
    Images   ImageStore
    Events   EventPublisher
    Log      *logging.Logger
}

func NewIdentifyHandler(p Identifier, plants PlantStore, images ImageStore, events EventPublisher, log *logging.Logger) *IdentifyHandler {
    if log == nil {
        log = logging.Nop()
    }
    return &IdentifyHandler{Pipeline: p, Plants: plants, Images: images, Events: events, Log: log}
}

type identifyResp struct {
    Success        bool                       `json:"success"`
    Identification model.IdentificationResult `json:"identification"`
    ImageURL       string                     `json:"image_url,omitempty"`
}

// addToCollectionReq mirrors what the mobile client posts after the
// user confirms a result.  Only plant_type is required.
type addToCollectionReq struct {
    PlantType      string             `json:"plant_type"`
    Name           string             `json:"name"`
    Nickname       string             `json:"nickname"`
    ImageURL       string             `json:"image_url"`
    Confidence     float64            `json:"confidence"`
    Predictions    []model.Prediction `json:"all_predictions"`
    ScientificName string             `json:"scientific_name"`
    SpeciesID      *uint64            `json:"species_id"`
    CareInfo       *model.CareInfo    `json:"care_info"`
}

// Identify handles POST /api/identify.  The photo may arrive as a
// multipart "file" part, as JSON {"image": "<base64>"} or as the raw
// request body.
func (h *IdentifyHandler) Identify(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    data, filename, err := readImage(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if _, err := h.Images.Check(data); err != nil {
        return imageError(c, err)
    }

    result, err := h.Pipeline.Run(c.Request().Context(), data, filename)
    if err != nil {
        var idErr *identify.IdentificationError
        if errors.As(err, &idErr) {
            return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to identify plant: " + idErr.Err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to identify plant"})
    }

    url, err := h.Images.Save(data)
    if err != nil {
        h.Log.Warn("store identified image failed", "user_id", uid, "error", err)
        url = ""
    }

    h.publish(c.Request().Context(), "plant identified", func(ctx context.Context) error {
        return h.Events.PlantIdentified(ctx, queue.PlantIdentifiedEvent{
            UserID:            uid,
            Name:              result.Name,
            ScientificName:    result.ScientificName,
            Confidence:        result.Confidence,
            SearchTermMatched: result.SearchTermMatched,
            DefaultCare:       result.CareInfo.IsDefault,
            ImageURL:          url,
            IdentifiedAt:      time.Now().UTC().Format(time.RFC3339),
        })
    })

    return c.JSON(http.StatusOK, identifyResp{Success: true, Identification: result, ImageURL: url})
}

// AddToCollection handles POST /api/identify/add-to-collection.
func (h *IdentifyHandler) AddToCollection(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req addToCollectionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    plant := plantReq{
        Type:        req.PlantType,
        Name:        req.Name,
        Nickname:    req.Nickname,
        Confidence:  req.Confidence,
        Predictions: req.Predictions,
        SpeciesID:   req.SpeciesID,
        CareInfo:    req.CareInfo,
    }
    if s := strings.TrimSpace(req.ScientificName); s != "" {
        plant.ScientificName = &s
    }
    if u := strings.TrimSpace(req.ImageURL); u != "" {
        plant.ImageURL = &u
    }
    if strings.TrimSpace(plant.Type) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "plant type is required"})
    }
    if msg := plant.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p := plant.toModel(uid)
    if err := h.Plants.Create(ctx, p); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        h.Log.Error("add to collection failed", "user_id", uid, "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add plant to collection"})
    }

    h.publish(c.Request().Context(), "plant added", func(ctx context.Context) error {
        return h.Events.PlantAdded(ctx, queue.PlantAddedEvent{
            PlantID: p.ID,
            UserID:  uid,
            Type:    p.Type,
            Name:    p.Name,
            AddedAt: p.DateAdded.UTC().Format(time.RFC3339),
        })
    })

    return c.JSON(http.StatusCreated, echo.Map{"success": true, "plant_id": p.ID})
}

// publish sends an event when a publisher is configured.  Failures are
// logged only.
func (h *IdentifyHandler) publish(parent context.Context, what string, send func(context.Context) error) {
    if h.Events == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), publishTimeout)
    defer cancel()
    if err := send(ctx); err != nil {
        h.Log.Debug("publish event failed", "event", what, "error", err)
    }
}

// readImage extracts the uploaded photo and a file name for it.
func readImage(c echo.Context) ([]byte, string, error) {
    req := c.Request()
    ctype := req.Header.Get(echo.HeaderContentType)

    switch {
    case strings.HasPrefix(ctype, echo.MIMEMultipartForm):
        fh, err := c.FormFile("file")
        if err != nil {
            return nil, "", errors.New("file is required")
        }
        f, err := fh.Open()
        if err != nil {
            return nil, "", errors.New("could not read file")
        }
        defer f.Close()
        data, err := io.ReadAll(f)
        if err != nil {
            return nil, "", errors.New("could not read file")
        }
        return data, fh.Filename, nil

    case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
        var body struct {
            Image string `json:"image"`
        }
        if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Image) == "" {
            return nil, "", errors.New("image is required")
        }
        encoded := body.Image
        // data:image/jpeg;base64,....
        if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i > 0 {
            encoded = encoded[i+1:]
        }
        data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
        if err != nil {
            return nil, "", errors.New("image is not valid base64")
        }
        return data, "upload.jpg", nil
    }

    data, err := io.ReadAll(req.Body)
    if err != nil {
        return nil, "", errors.New("could not read request body")
    }
    return data, "upload.jpg", nil
}

func imageError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, imagestore.ErrEmpty):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, imagestore.ErrTooLarge):
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
    case errors.Is(err, imagestore.ErrUnsupported):
        return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "image check failed"})
}
