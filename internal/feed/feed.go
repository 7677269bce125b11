// Package feed keeps the stop registry fresh by polling the MovGR
// stop-list endpoint in the background. The line layout changes rarely,
// so the refresh interval is measured in hours.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/internal/store"
)

// StopSource is the subset of the MovGR client the refresher needs.
type StopSource interface {
	Stops(ctx context.Context) ([]models.Stop, error)
}

// Manager handles stop-registry fetching and refreshing.
type Manager struct {
	source          StopSource
	store           *store.Store
	refreshInterval time.Duration
	logger          *slog.Logger
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewManager creates a new feed manager.
func NewManager(source StopSource, store *store.Store, refreshInterval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		source:          source,
		store:           store,
		refreshInterval: refreshInterval,
		logger:          logger,
		stopCh:          make(chan struct{}),
	}
}

// Start begins the refresh loop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.refreshLoop()
}

// Stop stops the refresh loop.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// Refresh fetches the stop list once and replaces the registry. On
// failure the previous snapshot stays live.
func (m *Manager) Refresh(ctx context.Context) error {
	stops, err := m.source.Stops(ctx)
	if err != nil {
		return err
	}
	m.store.UpdateStops(stops)
	m.logger.Info("stop registry refreshed", "stops", len(stops))
	return nil
}

func (m *Manager) refreshLoop() {
	defer m.wg.Done()

	if err := m.Refresh(context.Background()); err != nil {
		m.logger.Error("initial stop refresh failed", "error", err)
	}

	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Refresh(context.Background()); err != nil {
				m.logger.Warn("stop refresh failed", "error", err)
			}
		case <-m.stopCh:
			return
		}
	}
}
