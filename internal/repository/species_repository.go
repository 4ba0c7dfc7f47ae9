package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/floradex/internal/database"
	"github.com/iliyamo/floradex/internal/model"
)

// SpeciesRepo reads and writes the plant species catalog.
type SpeciesRepo struct {
	db *sql.DB
}

func NewSpeciesRepo(db *sql.DB) *SpeciesRepo {
	return &SpeciesRepo{db: db}
}

const speciesColumns = `id, name, care_instructions, watering_frequency, sunlight_requirements,
	humidity, temperature, fertilization, created_at`

// Create inserts a catalog entry and fills in its ID and CreatedAt.
func (r *SpeciesRepo) Create(ctx context.Context, s *model.PlantSpecies) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO plant_species
		 (name, care_instructions, watering_frequency, sunlight_requirements, humidity, temperature, fertilization)
		 VALUES (?,?,?,?,?,?,?)`,
		s.Name, s.CareInstructions, s.WateringFrequency, s.SunlightRequirements, s.Humidity, s.Temperature, s.Fertilization)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrSpeciesExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

// GetByID fetches a catalog species by id.
func (r *SpeciesRepo) GetByID(ctx context.Context, id uint64) (*model.PlantSpecies, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+speciesColumns+" FROM plant_species WHERE id = ?", id)
	return scanSpeciesRow(row)
}

// GetByName matches the full name case-insensitively.
func (r *SpeciesRepo) GetByName(ctx context.Context, name string) (*model.PlantSpecies, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+speciesColumns+" FROM plant_species WHERE LOWER(name) = LOWER(?) LIMIT 1",
		strings.TrimSpace(name))
	return scanSpeciesRow(row)
}

// List returns the catalog ordered by name.  A non-empty filter keeps
// only species whose name contains it, ignoring case.
func (r *SpeciesRepo) List(ctx context.Context, filter string) ([]model.PlantSpecies, error) {
	q := "SELECT " + speciesColumns + " FROM plant_species"
	var args []any
	if f := strings.TrimSpace(filter); f != "" {
		q += ` WHERE LOWER(name) LIKE ? ESCAPE '\\'`
		args = append(args, "%"+escapeLike(strings.ToLower(f))+"%")
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PlantSpecies{}
	for rows.Next() {
		var s model.PlantSpecies
		if err := rows.Scan(&s.ID, &s.Name, &s.CareInstructions, &s.WateringFrequency, &s.SunlightRequirements,
			&s.Humidity, &s.Temperature, &s.Fertilization, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSpeciesRow(row *sql.Row) (*model.PlantSpecies, error) {
	var s model.PlantSpecies
	err := row.Scan(&s.ID, &s.Name, &s.CareInstructions, &s.WateringFrequency, &s.SunlightRequirements,
		&s.Humidity, &s.Temperature, &s.Fertilization, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpeciesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
