package model

import "time"

// PlantSpecies is a catalog entry in the `plant_species` table.  The
// catalog is seeded by the migrate command and is read-only for API
// clients.
type PlantSpecies struct {
    ID                   uint64    `json:"id" yaml:"-"`
    Name                 string    `json:"name" yaml:"name"`
    CareInstructions     string    `json:"care_instructions" yaml:"care_instructions"`
    WateringFrequency    string    `json:"watering_frequency" yaml:"watering_frequency"`
    SunlightRequirements string    `json:"sunlight_requirements" yaml:"sunlight_requirements"`
    Humidity             string    `json:"humidity" yaml:"humidity"`
    Temperature          string    `json:"temperature" yaml:"temperature"`
    Fertilization        string    `json:"fertilization" yaml:"fertilization"`
    CreatedAt            time.Time `json:"created_at" yaml:"-"`
}

// CareInfo is the normalized care record produced by the care-info
// client.  IsDefault marks the hard-coded fallback record so callers
// never have to compare strings to detect it.  MatchedQuery is the
// search string that resolved the record, empty for the default record
// and for identifier lookups.
type CareInfo struct {
    Name                 string  `json:"name"`
    ScientificName       string  `json:"scientific_name"`
    CareInstructions     string  `json:"care_instructions"`
    WateringFrequency    string  `json:"watering_frequency"`
    SunlightRequirements string  `json:"sunlight_requirements"`
    Humidity             string  `json:"humidity"`
    Temperature          string  `json:"temperature"`
    Fertilization        string  `json:"fertilization"`
    Description          string  `json:"description"`
    ImageURL             *string `json:"image_url"`
    ExternalID           int64   `json:"external_id,omitempty"`
    IsDefault            bool    `json:"is_default"`
    MatchedQuery         string  `json:"-"`
}

// CareFromSpecies converts a catalog entry into a care record.
func CareFromSpecies(s PlantSpecies) CareInfo {
    return CareInfo{
        Name:                 s.Name,
        ScientificName:       "Unknown",
        CareInstructions:     s.CareInstructions,
        WateringFrequency:    s.WateringFrequency,
        SunlightRequirements: s.SunlightRequirements,
        Humidity:             s.Humidity,
        Temperature:          s.Temperature,
        Fertilization:        s.Fertilization,
        Description:          "No description available",
    }
}
