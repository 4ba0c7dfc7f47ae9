package plantnet

import (
	"errors"
	"fmt"
	"time"
)

// Default endpoint values.
const (
	DefaultBaseURL = "https://my-api.plantnet.org"
	DefaultProject = "all"
	DefaultTimeout = 15 * time.Second
)

// Config holds the recognition service settings.
type Config struct {
	APIKey  string
	BaseURL string
	Project string
	Timeout time.Duration
}

// DefaultConfig returns the public endpoint with the default timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Project: DefaultProject,
		Timeout: DefaultTimeout,
	}
}

var (
	// ErrNoResults is returned when the service answers but suggests nothing.
	ErrNoResults = errors.New("no species candidates returned")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("recognition API key not configured")
	// ErrEmptyImage is returned for a zero-length upload.
	ErrEmptyImage = errors.New("empty image")
)

// StatusError carries a non-success HTTP status from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("recognition service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("recognition service returned status %d: %s", e.StatusCode, e.Body)
}

// identifyResponse mirrors the subset of the v2 identify payload we read.
type identifyResponse struct {
	Results []result `json:"results"`
}

type result struct {
	Score   float64 `json:"score"`
	Species species `json:"species"`
}

type species struct {
	ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
	ScientificNameAuthorship    string   `json:"scientificNameAuthorship"`
	ScientificName              string   `json:"scientificName"`
	Genus                       taxon    `json:"genus"`
	Family                      taxon    `json:"family"`
	CommonNames                 []string `json:"commonNames"`
}

type taxon struct {
	ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
}
