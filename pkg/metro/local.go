package metro

import (
	"context"
	"log/slog"
	"time"

	"github.com/granametro/metrobot/internal/feed"
	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/internal/movgr"
	"github.com/granametro/metrobot/internal/store"
)

// LocalClient implements the Client interface over a live MovGR client
// plus an in-memory stop registry kept fresh by a background refresher.
type LocalClient struct {
	store       *store.Store
	api         *movgr.Client
	feedManager *feed.Manager
}

// NewLocal creates a local metro client and performs the initial stop
// load synchronously, so callers see a populated line immediately.
func NewLocal(config Config, logger *slog.Logger) (*LocalClient, error) {
	s := store.NewStore()
	api := movgr.NewClient(config.BaseURL, config.Timeout, config.CacheTTL, logger)

	fm := feed.NewManager(api, s, config.RefreshInterval, logger)
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := fm.Refresh(ctx); err != nil {
		return nil, err
	}
	fm.Start()

	return &LocalClient{
		store:       s,
		api:         api,
		feedManager: fm,
	}, nil
}

// Close gracefully shuts down the local client.
// Must be called to stop background goroutines and prevent leaks.
func (c *LocalClient) Close() {
	c.feedManager.Stop()
}

func (c *LocalClient) Stops() []models.Stop {
	return c.store.Ordered()
}

func (c *LocalClient) ReversedStops() []models.Stop {
	return c.store.Reversed()
}

func (c *LocalClient) StopName(id string) string {
	return c.store.Name(id)
}

func (c *LocalClient) GetStop(id string) (models.Stop, error) {
	return c.store.Get(id)
}

func (c *LocalClient) Arrivals(ctx context.Context, stopID string) ([]models.Arrival, error) {
	return c.api.Arrivals(ctx, stopID)
}

func (c *LocalClient) AllArrivals(ctx context.Context) ([]models.StopArrivals, error) {
	return c.api.AllArrivals(ctx)
}

func (c *LocalClient) LastUpdate() time.Time {
	return c.store.LastUpdate()
}
