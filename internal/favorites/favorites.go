// Package favorites persists per-user favorite stop sets to a JSON file.
package favorites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

// DefaultLimit is how many stops a user may mark as favorite.
const DefaultLimit = 5

// Status is the outcome of a Toggle call.
type Status int

const (
	StatusAdded Status = iota
	StatusRemoved
	StatusLimit
)

// Store manages per-user favorite stops backed by a JSON file.
// Favorites keep insertion order so a user's list renders stably.
type Store struct {
	mu    sync.Mutex
	path  string
	limit int
	users map[int64][]string
}

// NewStore loads the favorites file if it exists. A missing file means
// empty state, not an error.
func NewStore(path string, limit int) (*Store, error) {
	s := &Store{
		path:  path,
		limit: limit,
		users: make(map[int64][]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read favorites file: %w", err)
	}

	// The on-disk format keys users by decimal string, matching what
	// earlier deployments wrote.
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse favorites file: %w", err)
	}
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse user id %q: %w", k, err)
		}
		s.users[id] = v
	}
	return s, nil
}

// List returns the user's favorite stop IDs in insertion order.
func (s *Store) List(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]string, len(s.users[userID]))
	copy(result, s.users[userID])
	return result
}

// Contains reports whether the stop is among the user's favorites.
func (s *Store) Contains(userID int64, stopID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.users[userID], stopID)
}

// Toggle adds the stop to the user's favorites, or removes it if
// already present. Adding past the limit returns StatusLimit and
// mutates nothing.
func (s *Store) Toggle(userID int64, stopID string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.users[userID]
	if i := slices.Index(favs, stopID); i >= 0 {
		s.users[userID] = slices.Delete(favs, i, i+1)
		if err := s.save(); err != nil {
			return StatusRemoved, err
		}
		return StatusRemoved, nil
	}

	if len(favs) >= s.limit {
		return StatusLimit, nil
	}

	s.users[userID] = append(favs, stopID)
	if err := s.save(); err != nil {
		return StatusAdded, err
	}
	return StatusAdded, nil
}

// Remove deletes the stop from the user's favorites. Removing a stop
// that is not present is a no-op.
func (s *Store) Remove(userID int64, stopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.users[userID]
	i := slices.Index(favs, stopID)
	if i < 0 {
		return nil
	}
	s.users[userID] = slices.Delete(favs, i, i+1)
	return s.save()
}

// save writes the state atomically. Callers hold s.mu.
func (s *Store) save() error {
	raw := make(map[string][]string, len(s.users))
	for id, favs := range s.users {
		if len(favs) == 0 {
			continue
		}
		raw[strconv.FormatInt(id, 10)] = favs
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write favorites file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace favorites file: %w", err)
	}
	return nil
}
