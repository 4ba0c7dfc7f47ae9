package model

import "time"

// Prediction is one ranked alternative kept on a plant record.
type Prediction struct {
    Name           string  `json:"name"`
    ScientificName string  `json:"scientific_name,omitempty"`
    Confidence     float64 `json:"confidence"`
}

// UserPlant represents a plant in a user's collection, stored in the
// `user_plants` table.  Predictions and CareInfo are nested documents
// kept in JSON columns.  A record is owned by exactly one user and is
// never updated after creation; it can only be deleted.
//
// Fields:
//  ID             – primary key identifier.
//  Type           – identification type (usually the identified species name).
//  UserID         – owning user.
//  DateAdded      – creation timestamp.
//  Name           – display name.
//  Nickname       – optional user supplied nickname.
//  Confidence     – recognition confidence in [0,1].
//  Predictions    – ranked alternative predictions.
//  ScientificName – optional scientific name.
//  SpeciesID      – optional reference into plant_species.
//  ImageURL       – optional URL path of the stored photo.
//  CareInfo       – optional care snapshot taken at identification time.
type UserPlant struct {
    ID             uint64       `json:"id"`
    Type           string       `json:"type"`
    UserID         uint64       `json:"user_id"`
    DateAdded      time.Time    `json:"date_added"`
    Name           string       `json:"name"`
    Nickname       string       `json:"nickname,omitempty"`
    Confidence     float64      `json:"confidence"`
    Predictions    []Prediction `json:"all_predictions"`
    ScientificName *string      `json:"scientific_name,omitempty"`
    SpeciesID      *uint64      `json:"species_id,omitempty"`
    ImageURL       *string      `json:"image_url,omitempty"`
    CareInfo       *CareInfo    `json:"care_info,omitempty"`
}
