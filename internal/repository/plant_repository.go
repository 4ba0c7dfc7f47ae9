// Package repository contains data access logic separated from HTTP handlers.
// This file holds the user plant collection.  Every query is scoped by the
// owning user so one user can never read or delete another user's plants.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/floradex/internal/model"
)

// PlantRepo encapsulates all database queries related to user plants.
type PlantRepo struct {
	db *sql.DB
}

// NewPlantRepo constructs a PlantRepo with the provided DB handle.
func NewPlantRepo(db *sql.DB) *PlantRepo {
	return &PlantRepo{db: db}
}

const plantColumns = `id, user_id, type, name, nickname, confidence, predictions,
	scientific_name, species_id, image_url, care_info, date_added`

// Create inserts a plant for p.UserID.  The owner must exist; otherwise
// ErrUserNotFound is returned and nothing is written.  On success p is
// refreshed from the stored row (ID, DateAdded).
func (r *PlantRepo) Create(ctx context.Context, p *model.UserPlant) error {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", p.UserID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	predictions := p.Predictions
	if predictions == nil {
		predictions = []model.Prediction{}
	}
	predJSON, err := json.Marshal(predictions)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	var careJSON []byte
	if p.CareInfo != nil {
		if careJSON, err = json.Marshal(p.CareInfo); err != nil {
			return fmt.Errorf("encode care info: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_plants
		 (user_id, type, name, nickname, confidence, predictions, scientific_name, species_id, image_url, care_info)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.UserID, p.Type, p.Name, p.Nickname, p.Confidence, string(predJSON),
		p.ScientificName, p.SpeciesID, p.ImageURL, nullableJSON(careJSON))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByIDAndUser(ctx, uint64(id), p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// ListByUser returns all plants of a user ordered by id.
func (r *PlantRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserPlant, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+plantColumns+" FROM user_plants WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserPlant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndUser fetches a plant only if it belongs to userID.
func (r *PlantRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (*model.UserPlant, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+plantColumns+" FROM user_plants WHERE id = ? AND user_id = ?", id, userID)
	p, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlantNotFound
	}
	return p, err
}

// DeleteByIDAndUser removes a plant owned by userID.
func (r *PlantRepo) DeleteByIDAndUser(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_plants WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlantNotFound
	}
	return nil
}

// ImageURLsByUser lists the stored image paths of a user's plants.
func (r *PlantRepo) ImageURLsByUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT image_url FROM user_plants WHERE user_id = ? AND image_url IS NOT NULL AND image_url <> ''", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountByImageURL counts the plants of any user that reference url.
func (r *PlantRepo) CountByImageURL(ctx context.Context, url string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_plants WHERE image_url = ?", url).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(s rowScanner) (*model.UserPlant, error) {
	var (
		p          model.UserPlant
		predJSON   []byte
		careJSON   []byte
		scientific sql.NullString
		speciesID  sql.NullInt64
		imageURL   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Type, &p.Name, &p.Nickname, &p.Confidence, &predJSON,
		&scientific, &speciesID, &imageURL, &careJSON, &p.DateAdded); err != nil {
		return nil, err
	}
	p.Predictions = []model.Prediction{}
	if len(predJSON) > 0 {
		if err := json.Unmarshal(predJSON, &p.Predictions); err != nil {
			return nil, fmt.Errorf("decode predictions of plant %d: %w", p.ID, err)
		}
	}
	if len(careJSON) > 0 {
		var care model.CareInfo
		if err := json.Unmarshal(careJSON, &care); err != nil {
			return nil, fmt.Errorf("decode care info of plant %d: %w", p.ID, err)
		}
		p.CareInfo = &care
	}
	if scientific.Valid {
		p.ScientificName = &scientific.String
	}
	if speciesID.Valid {
		id := uint64(speciesID.Int64)
		p.SpeciesID = &id
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	return &p, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
