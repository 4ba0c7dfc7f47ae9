package handler

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/floradex/internal/model"
    "github.com/iliyamo/floradex/internal/perenual"
    "github.com/iliyamo/floradex/internal/queue"
    "github.com/iliyamo/floradex/internal/repository"
    "github.com/iliyamo/floradex/internal/utils"
)

// memDB backs the in-memory stores below.  It follows the repository
// contracts closely enough for handler tests.
type memDB struct {
    mu      sync.Mutex
    nextID  uint64
    users   map[uint64]model.User
    plants  map[uint64]model.UserPlant
    tokens  map[string]memToken
    species []model.PlantSpecies
}

type memToken struct {
    userID  uint64
    exp     time.Time
    revoked bool
}

func newMemDB() *memDB {
    return &memDB{
        users:  map[uint64]model.User{},
        plants: map[uint64]model.UserPlant{},
        tokens: map[string]memToken{},
    }
}

func (db *memDB) id() uint64 { db.nextID++; return db.nextID }

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, username, password string, cost int) (uint64, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for _, u := range s.db.users {
        if u.Username == username {
            return 0, repository.ErrUsernameExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    id := s.db.id()
    now := time.Now().UTC()
    s.db.users[id] = model.User{ID: id, Username: username, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
    return id, nil
}

func (s memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for _, u := range s.db.users {
        if u.Username == username {
            return u, nil
        }
    }
    return model.User{}, repository.ErrUserNotFound
}

func (s memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    u, ok := s.db.users[id]
    if !ok {
        return model.User{}, repository.ErrUserNotFound
    }
    u.PlantIDs = []uint64{}
    for pid, p := range s.db.plants {
        if p.UserID == id {
            u.PlantIDs = append(u.PlantIDs, pid)
        }
    }
    sort.Slice(u.PlantIDs, func(i, j int) bool { return u.PlantIDs[i] < u.PlantIDs[j] })
    return u, nil
}

func (s memUsers) UpdateUsername(_ context.Context, id uint64, username string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for uid, u := range s.db.users {
        if u.Username == username && uid != id {
            return repository.ErrUsernameExists
        }
    }
    u := s.db.users[id]
    u.Username = username
    s.db.users[id] = u
    return nil
}

func (s memUsers) UpdatePassword(_ context.Context, id uint64, password string, cost int) error {
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return err
    }
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    u := s.db.users[id]
    u.PasswordHash = hash
    s.db.users[id] = u
    return nil
}

func (s memUsers) Delete(_ context.Context, id uint64) (int64, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var n int64
    for pid, p := range s.db.plants {
        if p.UserID == id {
            delete(s.db.plants, pid)
            n++
        }
    }
    for h, t := range s.db.tokens {
        if t.userID == id {
            delete(s.db.tokens, h)
        }
    }
    if _, ok := s.db.users[id]; !ok {
        return n, repository.ErrUserNotFound
    }
    delete(s.db.users, id)
    return n, nil
}

type memTokens struct{ db *memDB }

func (s memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    s.db.tokens[hash] = memToken{userID: userID, exp: exp}
    return nil
}

func (s memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    t, ok := s.db.tokens[hash]
    if !ok || t.revoked || time.Now().After(t.exp) {
        return 0, repository.ErrTokenInvalid
    }
    return t.userID, nil
}

func (s memTokens) RevokeByHash(_ context.Context, hash string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    if t, ok := s.db.tokens[hash]; ok {
        t.revoked = true
        s.db.tokens[hash] = t
    }
    return nil
}

func (s memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for h, t := range s.db.tokens {
        if t.userID == userID {
            t.revoked = true
            s.db.tokens[h] = t
        }
    }
    return nil
}

type memPlants struct{ db *memDB }

func (s memPlants) Create(_ context.Context, p *model.UserPlant) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    if _, ok := s.db.users[p.UserID]; !ok {
        return repository.ErrUserNotFound
    }
    p.ID = s.db.id()
    p.DateAdded = time.Now().UTC()
    if p.Predictions == nil {
        p.Predictions = []model.Prediction{}
    }
    s.db.plants[p.ID] = *p
    return nil
}

func (s memPlants) ListByUser(_ context.Context, userID uint64) ([]model.UserPlant, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    out := []model.UserPlant{}
    for _, p := range s.db.plants {
        if p.UserID == userID {
            out = append(out, p)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s memPlants) GetByIDAndUser(_ context.Context, id, userID uint64) (*model.UserPlant, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    p, ok := s.db.plants[id]
    if !ok || p.UserID != userID {
        return nil, repository.ErrPlantNotFound
    }
    return &p, nil
}

func (s memPlants) DeleteByIDAndUser(_ context.Context, id, userID uint64) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    p, ok := s.db.plants[id]
    if !ok || p.UserID != userID {
        return repository.ErrPlantNotFound
    }
    delete(s.db.plants, id)
    return nil
}

func (s memPlants) ImageURLsByUser(_ context.Context, userID uint64) ([]string, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var out []string
    for _, p := range s.db.plants {
        if p.UserID == userID && p.ImageURL != nil && *p.ImageURL != "" {
            out = append(out, *p.ImageURL)
        }
    }
    return out, nil
}

func (s memPlants) CountByImageURL(_ context.Context, url string) (int, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    n := 0
    for _, p := range s.db.plants {
        if p.ImageURL != nil && *p.ImageURL == url {
            n++
        }
    }
    return n, nil
}

type memSpecies struct{ db *memDB }

func (s memSpecies) List(_ context.Context, filter string) ([]model.PlantSpecies, error) {
    out := []model.PlantSpecies{}
    for _, sp := range s.db.species {
        if strings.Contains(strings.ToLower(sp.Name), strings.ToLower(filter)) {
            out = append(out, sp)
        }
    }
    return out, nil
}

func (s memSpecies) GetByID(_ context.Context, id uint64) (*model.PlantSpecies, error) {
    for _, sp := range s.db.species {
        if sp.ID == id {
            return &sp, nil
        }
    }
    return nil, repository.ErrSpeciesNotFound
}

func (s memSpecies) GetByName(_ context.Context, name string) (*model.PlantSpecies, error) {
    for _, sp := range s.db.species {
        if strings.EqualFold(sp.Name, name) {
            return &sp, nil
        }
    }
    return nil, repository.ErrSpeciesNotFound
}

// stubPipeline returns a canned result or error.
type stubPipeline struct {
    result model.IdentificationResult
    err    error
    calls  int
}

func (p *stubPipeline) Run(context.Context, []byte, string) (model.IdentificationResult, error) {
    p.calls++
    return p.result, p.err
}

// stubCare answers by name from a map; unknown names get the default.
type stubCare struct {
    byName map[string]model.CareInfo
    err    error
}

func (s stubCare) CareByName(_ context.Context, name string) (model.CareInfo, error) {
    if s.err != nil {
        return model.CareInfo{}, s.err
    }
    if c, ok := s.byName[name]; ok {
        return c, nil
    }
    return perenual.Default(name), nil
}

func (s stubCare) Details(_ context.Context, id int64) (model.CareInfo, error) {
    if s.err != nil {
        return model.CareInfo{}, s.err
    }
    return model.CareInfo{Name: "Fiddle Leaf Fig", ExternalID: id}, nil
}

// recordingEvents keeps every event it is given.
type recordingEvents struct {
    mu         sync.Mutex
    identified []queue.PlantIdentifiedEvent
    added      []queue.PlantAddedEvent
}

func (r *recordingEvents) PlantIdentified(_ context.Context, ev queue.PlantIdentifiedEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.identified = append(r.identified, ev)
    return nil
}

func (r *recordingEvents) PlantAdded(_ context.Context, ev queue.PlantAddedEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.added = append(r.added, ev)
    return nil
}
