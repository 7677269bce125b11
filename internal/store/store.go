package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/granametro/metrobot/internal/models"
)

// ErrStopUnknown is returned when an ID is not part of the line.
var ErrStopUnknown = fmt.Errorf("unknown stop")

// Store manages the in-memory stop registry. The slice order is the
// order the API publishes, which is the physical line layout with the
// Albolote terminus first; the two-column board depends on it.
type Store struct {
	mu         sync.RWMutex
	order      []models.Stop
	byID       map[string]models.Stop
	lastUpdate time.Time
}

// NewStore creates an empty store instance.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]models.Stop),
	}
}

// UpdateStops replaces the registry with a fresh snapshot.
func (s *Store) UpdateStops(stops []models.Stop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]models.Stop, len(stops))
	copy(s.order, stops)

	s.byID = make(map[string]models.Stop, len(stops))
	for _, stop := range stops {
		s.byID[stop.ID] = stop
	}

	s.lastUpdate = time.Now()
}

// Ordered returns the stops in line order.
func (s *Store) Ordered() []models.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Stop, len(s.order))
	copy(result, s.order)
	return result
}

// Reversed returns the stops in reverse line order, the walk the board's
// right column takes.
func (s *Store) Reversed() []models.Stop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Stop, len(s.order))
	for i, stop := range s.order {
		result[len(s.order)-1-i] = stop
	}
	return result
}

// Get returns the stop with the given ID.
func (s *Store) Get(id string) (models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stop, ok := s.byID[id]
	if !ok {
		return models.Stop{}, fmt.Errorf("%w: %s", ErrStopUnknown, id)
	}
	return stop, nil
}

// Name returns the display name for a stop ID, falling back to the ID
// itself so renderers never show an empty label.
func (s *Store) Name(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stop, ok := s.byID[id]; ok {
		return stop.Name
	}
	return id
}

// Len returns the number of stops on the line.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// LastUpdate returns the time of the last successful refresh.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
