// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Queue names.  Both are durable and use the default exchange.
const (
	PlantIdentifiedQueue = "plant.identified"
	PlantAddedQueue      = "plant.added"
)

// PlantIdentifiedEvent is published after a successful identification.
// It carries enough to audit usage without reading the database.
type PlantIdentifiedEvent struct {
	UserID            uint64  `json:"user_id"`
	Name              string  `json:"name"`
	ScientificName    string  `json:"scientific_name"`
	Confidence        float64 `json:"confidence"`
	SearchTermMatched string  `json:"search_term_matched"`
	DefaultCare       bool    `json:"default_care"`
	ImageURL          string  `json:"image_url,omitempty"`
	IdentifiedAt      string  `json:"identified_at"`
}

// PlantAddedEvent is published when a plant enters a user's collection.
type PlantAddedEvent struct {
	PlantID uint64 `json:"plant_id"`
	UserID  uint64 `json:"user_id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	AddedAt string `json:"added_at"`
}
