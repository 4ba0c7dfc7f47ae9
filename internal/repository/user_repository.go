package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/floradex/internal/database"
	"github.com/iliyamo/floradex/internal/model"
	"github.com/iliyamo/floradex/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		username, hash)
	if err != nil {
		if database.IsDuplicate(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by trimmed username.  PlantIDs is not loaded.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id together with the ids of its plants.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, err
	}

	rows, err := r.DB.QueryContext(ctx, "SELECT id FROM user_plants WHERE user_id=? ORDER BY id", id)
	if err != nil {
		return u, err
	}
	defer rows.Close()
	u.PlantIDs = []uint64{}
	for rows.Next() {
		var pid uint64
		if err := rows.Scan(&pid); err != nil {
			return u, err
		}
		u.PlantIDs = append(u.PlantIDs, pid)
	}
	return u, rows.Err()
}

// UpdateUsername renames a user.  A taken name yields ErrUsernameExists.
func (r *UserRepo) UpdateUsername(ctx context.Context, id uint64, username string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		strings.TrimSpace(username), id)
	if database.IsDuplicate(err) {
		return ErrUsernameExists
	}
	return err
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		hash, id)
	return err
}

// Delete removes the user's plants, refresh tokens and finally the user
// row.  The deletes run one after another without a transaction; a
// failure part way leaves the earlier deletes applied.  It returns the
// number of plant records removed.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_plants WHERE user_id=?", id)
	if err != nil {
		return 0, err
	}
	plants, _ := res.RowsAffected()

	if _, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", id); err != nil {
		return plants, err
	}

	res, err = r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return plants, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return plants, ErrUserNotFound
	}
	return plants, nil
}
