package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/floradex/internal/model"
)

// schema creates every table the service uses.  Statements are idempotent
// so Migrate can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(191) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS plant_species (
		id                    BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name                  VARCHAR(191) NOT NULL,
		care_instructions     TEXT NOT NULL,
		watering_frequency    VARCHAR(255) NOT NULL,
		sunlight_requirements VARCHAR(255) NOT NULL,
		humidity              VARCHAR(255) NOT NULL DEFAULT 'Medium',
		temperature           VARCHAR(255) NOT NULL DEFAULT '18-24°C (65-75°F)',
		fertilization         VARCHAR(255) NOT NULL DEFAULT 'As needed',
		created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_plant_species_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_plants (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id         BIGINT UNSIGNED NOT NULL,
		type            VARCHAR(255) NOT NULL,
		name            VARCHAR(255) NOT NULL,
		nickname        VARCHAR(255) NOT NULL DEFAULT '',
		confidence      DOUBLE NOT NULL DEFAULT 0,
		predictions     JSON NULL,
		scientific_name VARCHAR(255) NULL,
		species_id      BIGINT UNSIGNED NULL,
		image_url       VARCHAR(512) NULL,
		care_info       JSON NULL,
		date_added      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_user_plants_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

//go:embed seed/species.yaml
var speciesSeed []byte

// SeedSpecies parses the embedded catalog seed.
func SeedSpecies() ([]model.PlantSpecies, error) {
	var out []model.PlantSpecies
	if err := yaml.Unmarshal(speciesSeed, &out); err != nil {
		return nil, fmt.Errorf("parse species seed: %w", err)
	}
	return out, nil
}

// Migrate creates the schema and inserts the catalog seed.  Existing
// species rows are left as they are.  It returns the number of species
// rows inserted.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("apply schema: %w", err)
		}
	}
	species, err := SeedSpecies()
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, s := range species {
		res, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO plant_species
			 (name, care_instructions, watering_frequency, sunlight_requirements, humidity, temperature, fertilization)
			 VALUES (?,?,?,?,?,?,?)`,
			s.Name, s.CareInstructions, s.WateringFrequency, s.SunlightRequirements, s.Humidity, s.Temperature, s.Fertilization)
		if err != nil {
			return inserted, fmt.Errorf("seed species %q: %w", s.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
