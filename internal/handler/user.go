package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/floradex/internal/config"
    "github.com/iliyamo/floradex/internal/logging"
    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/repository"
)

// UserHandler serves the /api/users/me endpoints.  All methods expect
// JWTAuth to have run.
type UserHandler struct {
    Cfg    config.Config
    Users  UserStore
    Plants PlantStore
    Images ImageStore
    Log    *logging.Logger
}

func NewUserHandler(cfg config.Config, u UserStore, p PlantStore, images ImageStore, log *logging.Logger) *UserHandler {
    if log == nil {
        log = logging.Nop()
    }
    return &UserHandler{Cfg: cfg, Users: u, Plants: p, Images: images, Log: log}
}

type userResp struct {
    ID        uint64    `json:"id"`
    Username  string    `json:"username"`
    Plants    []uint64  `json:"plants"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toUserResp(u model.User) userResp {
    plants := u.PlantIDs
    if plants == nil {
        plants = []uint64{}
    }
    return userResp{ID: u.ID, Username: u.Username, Plants: plants, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type updateUserReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// Update handles PUT /api/users/me.  Empty fields are left unchanged.
func (h *UserHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var req updateUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    if req.Username != "" && req.Username != u.Username {
        if err := h.Users.UpdateUsername(ctx, uid, req.Username); err != nil {
            if errors.Is(err, repository.ErrUsernameExists) {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already taken"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
        }
    }
    if req.Password != "" {
        if err := h.Users.UpdatePassword(ctx, uid, req.Password, h.Cfg.BcryptCost); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
        }
    }

    u, err = h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

// Delete handles DELETE /api/users/me.  Plants, refresh tokens and the
// account go in that order.  Stored photos no other plant uses are
// removed afterwards and a failure there is only logged.
func (h *UserHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    images, err := h.Plants.ImageURLsByUser(ctx, uid)
    if err != nil {
        h.Log.Warn("list plant images failed", "user_id", uid, "error", err)
    }

    removed, err := h.Users.Delete(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        h.Log.Error("delete account failed", "user_id", uid, "plants_deleted", removed, "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error deleting account"})
    }
    h.Log.Info("account deleted", "user_id", uid, "plants_deleted", removed)

    for _, url := range images {
        releaseImage(ctx, h.Plants, h.Images, h.Log, url)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":        true,
        "message":        "Account deleted successfully",
        "plants_deleted": removed,
    })
}
