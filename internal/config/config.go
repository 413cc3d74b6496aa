// Package config holds the configuration for the wait-times tracker:
// the tracked park set, API endpoint, and database settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mpetrov/wait-times-bot/internal/entities"
)

const (
	// DefaultAPIBaseURL is the base URL for the Queue-Times API.
	// The full endpoint is <base>/<parkID>/queue_times.json
	DefaultAPIBaseURL = "https://queue-times.com/en-US/parks"

	// DefaultDatabasePath is where the SQLite database lives by default.
	DefaultDatabasePath = "data/wait_times.db"

	// RequestTimeout bounds each HTTP request to the API.
	RequestTimeout = 30 * time.Second

	// MaxRetries is how many attempts are made for transient failures.
	MaxRetries = 3

	// CollectionInterval is the daemon-mode collection cadence.
	CollectionInterval = 30 * time.Minute
)

// ErrUnknownPark is returned when a park id is not in the tracked set.
// This is a configuration problem and aborts before any network call.
var ErrUnknownPark = errors.New("unknown park id")

// DefaultParks are the Universal Orlando parks we track, keyed by their
// Queue-Times API ids.
var DefaultParks = []entities.Park{
	{ID: 64, Name: "Islands of Adventure"},
	{ID: 65, Name: "Universal Studios Florida"},
	{ID: 334, Name: "Epic Universe"},
}

// Config carries the runtime settings for the collector and bot.
type Config struct {
	APIBaseURL   string
	DatabasePath string
	Parks        []entities.Park
}

// Load builds a Config from defaults and environment overrides.
// QUEUE_TIMES_API_BASE overrides the API base URL (used by tests and
// mirrors), WAIT_TIMES_DB overrides the database path.
func Load() *Config {
	cfg := &Config{
		APIBaseURL:   DefaultAPIBaseURL,
		DatabasePath: DefaultDatabasePath,
		Parks:        DefaultParks,
	}

	if base := os.Getenv("QUEUE_TIMES_API_BASE"); base != "" {
		cfg.APIBaseURL = base
	}
	if dbPath := os.Getenv("WAIT_TIMES_DB"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	return cfg
}

// ParkName resolves a park id against the tracked set.
func (c *Config) ParkName(id int64) (string, error) {
	for _, p := range c.Parks {
		if p.ID == id {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownPark, id)
}
