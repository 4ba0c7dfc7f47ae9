package handler // handler defines http handlers

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/middleware"
    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/queue"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

// UserStore is the subset of repository.UserRepo used by handlers.
type UserStore interface {
    Create(ctx context.Context, username, password string, cost int) (uint64, error)
    GetByUsername(ctx context.Context, username string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    UpdateUsername(ctx context.Context, id uint64, username string) error
    UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
    Delete(ctx context.Context, id uint64) (int64, error)
}

// TokenStore is the subset of repository.TokenRepo used by handlers.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// PlantStore is the subset of repository.PlantRepo used by handlers.
type PlantStore interface {
    Create(ctx context.Context, p *model.UserPlant) error
    ListByUser(ctx context.Context, userID uint64) ([]model.UserPlant, error)
    GetByIDAndUser(ctx context.Context, id, userID uint64) (*model.UserPlant, error)
    DeleteByIDAndUser(ctx context.Context, id, userID uint64) error
    ImageURLsByUser(ctx context.Context, userID uint64) ([]string, error)
    CountByImageURL(ctx context.Context, url string) (int, error)
}

// SpeciesStore is the read side of repository.SpeciesRepo.
type SpeciesStore interface {
    List(ctx context.Context, filter string) ([]model.PlantSpecies, error)
    GetByID(ctx context.Context, id uint64) (*model.PlantSpecies, error)
    GetByName(ctx context.Context, name string) (*model.PlantSpecies, error)
}

// ImageStore saves uploaded photos and removes them again.
type ImageStore interface {
    Check(data []byte) (string, error)
    Save(data []byte) (string, error)
    Remove(url string) error
}

// EventPublisher emits plant events.  Errors are logged by the caller
// and never fail a request.
type EventPublisher interface {
    PlantIdentified(ctx context.Context, ev queue.PlantIdentifiedEvent) error
    PlantAdded(ctx context.Context, ev queue.PlantAddedEvent) error
}

// getUserID reads the id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, echo.ErrUnauthorized
    }
    return id, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
