package perenual

import (
	"errors"
	"fmt"
	"time"
)

// Default endpoint values.
const (
	DefaultBaseURL = "https://perenual.com/api"
	DefaultTimeout = 15 * time.Second
)

// Fallback values used field by field when the API omits something, and
// as the whole record when no lookup succeeds.
const (
	DefaultName             = "Unknown Plant"
	DefaultScientificName   = "Unknown"
	DefaultCareInstructions = "General care instructions for this plant"
	DefaultWatering         = "Check specific requirements for this species"
	DefaultSunlight         = "Medium indirect light"
	DefaultHumidity         = "Average"
	DefaultTemperature      = "18-24°C (65-75°F)"
	DefaultFertilization    = "As needed during growing season"
	DefaultDescription      = "No description available"
)

// Config holds the care API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

var (
	// ErrNotConfigured is returned by every lookup when no key is set.
	ErrNotConfigured = errors.New("care API key not configured")
	// ErrInvalidAPIKey is returned when the API rejects the configured key.
	ErrInvalidAPIKey = errors.New("invalid or missing care API key")
)

// LookupError wraps a failed name lookup.  It is logged by callers and
// never shown to API clients as such.
type LookupError struct {
	Query string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("care lookup for %q: %v", e.Query, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type searchResponse struct {
	Data []searchEntry `json:"data"`
}

type searchEntry struct {
	ID flexNumber `json:"id"`
}
