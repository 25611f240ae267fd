package morphosource

import (
	"time"

	"github.com/morphotools/morphoverify/internal/specimen"
)

// Config holds MorphoSource client configuration
type Config struct {
	APIKey    string        // bearer token for the registry API
	BaseURL   string        // media search endpoint
	Timeout   time.Duration // HTTP request timeout
	RateLimit time.Duration // mandatory pause between successive searches
	PerPage   int           // search page size
}

// DefaultConfig returns the default MorphoSource client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://www.morphosource.org/catalog/media",
		Timeout:   30 * time.Second,
		RateLimit: 500 * time.Millisecond,
		PerPage:   100,
	}
}

// Media is one candidate record from a registry search, with whatever voxel
// spacing metadata the record carried.
type Media struct {
	ID      string
	Title   string
	Spacing specimen.SpacingTriple
}
