package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/granametro/metrobot/internal/models"
)

// ArrivalSource is the subset of the transit client the sweeper needs.
type ArrivalSource interface {
	AllArrivals(ctx context.Context) ([]models.StopArrivals, error)
}

// Notifier delivers a fired alert to the user.
type Notifier interface {
	AlertFired(ctx context.Context, sub Subscription, minutes int) error
}

// Sweeper polls the whole-line arrivals feed on a fixed interval and
// fires subscriptions whose condition is met.
type Sweeper struct {
	store    *Store
	source   ArrivalSource
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store *Store, source ArrivalSource, notifier Notifier, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("alert sweeper stopped")
			return ctx.Err()
		}
	}
}

// Sweep runs one matching pass. A subscription fires when the soonest
// arrival at its stop in its direction is within the threshold; it is
// then removed, even if delivery fails.
func (s *Sweeper) Sweep(ctx context.Context) {
	subs := s.store.All()
	if len(subs) == 0 {
		return
	}

	line, err := s.source.AllArrivals(ctx)
	if err != nil {
		s.logger.Warn("alert sweep fetch failed", "error", err)
		return
	}

	byStop := make(map[string][]models.Arrival, len(line))
	for _, sa := range line {
		byStop[sa.Stop.ID] = sa.Upcoming
	}

	for _, sub := range subs {
		minutes, ok := models.NextInDirection(byStop[sub.StopID], sub.Direction)
		if !ok || minutes > sub.ThresholdMinutes {
			continue
		}

		if err := s.store.Remove(sub.ID); err != nil {
			s.logger.Error("remove fired alert", "id", sub.ID, "error", err)
		}
		if err := s.notifier.AlertFired(ctx, sub, minutes); err != nil {
			s.logger.Warn("alert delivery failed", "id", sub.ID, "chat", sub.ChatID, "error", err)
			continue
		}
		s.logger.Info("alert fired", "stop", sub.StopID, "direction", sub.Direction, "minutes", minutes)
	}
}
