package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/floradex/internal/database"
	"github.com/iliyamo/floradex/internal/model"
)

// setupMySQL starts a disposable MySQL server, applies the schema and
// returns a connected pool.
func setupMySQL(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("floradex"),
		tcmysql.WithUsername("flora"),
		tcmysql.WithPassword("flora"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true", "loc=UTC", "charset=utf8mb4")
	require.NoError(t, err)

	db, err := database.OpenDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	return db
}

func TestRepositories_MySQL(t *testing.T) {
	db := setupMySQL(t)
	ctx := context.Background()

	users := NewUserRepo(db)
	plants := NewPlantRepo(db)
	species := NewSpeciesRepo(db)
	tokens := NewTokenRepo(db)

	t.Run("migrate is idempotent and seeds the catalog", func(t *testing.T) {
		inserted, err := database.Migrate(ctx, db)
		require.NoError(t, err)
		assert.Zero(t, inserted)

		all, err := species.List(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, all)

		s, err := species.GetByName(ctx, "monstera deliciosa")
		require.NoError(t, err)
		assert.Equal(t, "Monstera Deliciosa", s.Name)

		filtered, err := species.List(ctx, "SNAKE")
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "Snake Plant (Sansevieria)", filtered[0].Name)

		_, err = species.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, ErrSpeciesNotFound)

		err = species.Create(ctx, &model.PlantSpecies{Name: "Monstera Deliciosa", CareInstructions: "x", WateringFrequency: "x", SunlightRequirements: "x"})
		assert.ErrorIs(t, err, ErrSpeciesExists)
	})

	t.Run("usernames are unique", func(t *testing.T) {
		_, err := users.Create(ctx, "ivy", "pw-ivy", 4)
		require.NoError(t, err)
		_, err = users.Create(ctx, "ivy", "other", 4)
		assert.ErrorIs(t, err, ErrUsernameExists)
	})

	t.Run("plants require an existing owner", func(t *testing.T) {
		err := plants.Create(ctx, &model.UserPlant{UserID: 424242, Type: "Fern", Name: "Fern"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("deleting a user removes all of its plants", func(t *testing.T) {
		uid, err := users.Create(ctx, "fern", "pw-fern", 4)
		require.NoError(t, err)
		other, err := users.Create(ctx, "moss", "pw-moss", 4)
		require.NoError(t, err)

		sci := "Monstera deliciosa"
		img := "/static/a.jpg"
		p1 := &model.UserPlant{
			UserID: uid, Type: "Monstera Deliciosa", Name: "Monstera Deliciosa", Confidence: 0.95,
			Predictions:    []model.Prediction{{Name: "Monstera Deliciosa", Confidence: 0.95}, {Name: "Pothos", Confidence: 0.03}},
			ScientificName: &sci, ImageURL: &img,
			CareInfo: &model.CareInfo{Name: "Monstera", WateringFrequency: "Weekly"},
		}
		require.NoError(t, plants.Create(ctx, p1))
		assert.NotZero(t, p1.ID)
		assert.False(t, p1.DateAdded.IsZero())
		require.NotNil(t, p1.CareInfo)
		assert.Equal(t, "Weekly", p1.CareInfo.WateringFrequency)
		assert.Len(t, p1.Predictions, 2)

		p2 := &model.UserPlant{UserID: uid, Type: "Pothos", Name: "Pothos", Confidence: 0.5}
		require.NoError(t, plants.Create(ctx, p2))
		p3 := &model.UserPlant{UserID: other, Type: "Cactus", Name: "Cactus", Confidence: 0.7}
		require.NoError(t, plants.Create(ctx, p3))

		u, err := users.GetByID(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, []uint64{p1.ID, p2.ID}, u.PlantIDs)

		urls, err := plants.ImageURLsByUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, []string{"/static/a.jpg"}, urls)

		require.NoError(t, tokens.StoreRefresh(ctx, uid, "deadbeef", time.Now().UTC().Add(time.Hour)))

		removed, err := users.Delete(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		for _, id := range []uint64{p1.ID, p2.ID} {
			_, err := plants.GetByIDAndUser(ctx, id, uid)
			assert.ErrorIs(t, err, ErrPlantNotFound)
		}
		_, err = users.GetByID(ctx, uid)
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = tokens.ValidateRefresh(ctx, "deadbeef")
		assert.ErrorIs(t, err, ErrTokenInvalid)

		// the other user's plant is untouched
		kept, err := plants.GetByIDAndUser(ctx, p3.ID, other)
		require.NoError(t, err)
		assert.Equal(t, "Cactus", kept.Name)

		_, err = users.Delete(ctx, uid)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("plants are scoped by owner", func(t *testing.T) {
		a, err := users.Create(ctx, "rose", "pw", 4)
		require.NoError(t, err)
		b, err := users.Create(ctx, "thorn", "pw", 4)
		require.NoError(t, err)

		shared := "/static/shared.png"
		p := &model.UserPlant{UserID: a, Type: "Rose", Name: "Rose", ImageURL: &shared}
		require.NoError(t, plants.Create(ctx, p))
		require.NoError(t, plants.Create(ctx, &model.UserPlant{UserID: b, Type: "Rose", Name: "Rose", ImageURL: &shared}))

		n, err := plants.CountByImageURL(ctx, shared)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = plants.GetByIDAndUser(ctx, p.ID, b)
		assert.ErrorIs(t, err, ErrPlantNotFound)
		assert.ErrorIs(t, plants.DeleteByIDAndUser(ctx, p.ID, b), ErrPlantNotFound)

		list, err := plants.ListByUser(ctx, b)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.NotEqual(t, p.ID, list[0].ID)

		require.NoError(t, plants.DeleteByIDAndUser(ctx, p.ID, a))
		_, err = plants.GetByIDAndUser(ctx, p.ID, a)
		assert.ErrorIs(t, err, ErrPlantNotFound)

		n, err = plants.CountByImageURL(ctx, shared)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("refresh tokens can be revoked", func(t *testing.T) {
		uid, err := users.Create(ctx, "sage", "pw", 4)
		require.NoError(t, err)
		require.NoError(t, tokens.StoreRefresh(ctx, uid, "cafebabe", time.Now().UTC().Add(time.Hour)))

		got, err := tokens.ValidateRefresh(ctx, "cafebabe")
		require.NoError(t, err)
		assert.Equal(t, uid, got)

		require.NoError(t, tokens.RevokeAllForUser(ctx, uid))
		_, err = tokens.ValidateRefresh(ctx, "cafebabe")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
