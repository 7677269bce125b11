package metro

import (
	"context"
	"time"

	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/internal/movgr"
)

// Client defines the interface for accessing Granada light-rail data.
// Abstracts the live MovGR-backed source behind a common interface so
// the bot, the ops API and the CLI can share one consumer surface.
type Client interface {
	Stops() []models.Stop
	ReversedStops() []models.Stop
	StopName(id string) string
	GetStop(id string) (models.Stop, error)

	Arrivals(ctx context.Context, stopID string) ([]models.Arrival, error)
	AllArrivals(ctx context.Context) ([]models.StopArrivals, error)

	LastUpdate() time.Time
}

// Config holds configuration for the metro client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

// DefaultConfig returns default configuration. A 30-second cache TTL
// keeps bursts of chat traffic off the upstream without serving stale
// predictions; the stop list itself barely ever changes.
func DefaultConfig() Config {
	return Config{
		BaseURL:         movgr.DefaultBaseURL,
		Timeout:         10 * time.Second,
		CacheTTL:        30 * time.Second,
		RefreshInterval: 6 * time.Hour,
	}
}
