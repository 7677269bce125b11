// Package alerts manages approach-alert subscriptions: a user asks to
// be told when the next train toward a direction is within a minute
// threshold of their stop. Subscriptions fire once and are removed.
package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription is one pending approach alert.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"user_id"`
	ChatID           int64     `json:"chat_id"`
	StopID           string    `json:"stop_id"`
	Direction        string    `json:"direction"`
	ThresholdMinutes int       `json:"threshold_minutes"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store manages alert subscriptions backed by a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	subs []Subscription
}

// NewStore loads the alerts file if it exists. A missing file means
// empty state, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read alerts file: %w", err)
	}
	if err := json.Unmarshal(data, &s.subs); err != nil {
		return nil, fmt.Errorf("parse alerts file: %w", err)
	}
	return s, nil
}

// Add registers a subscription. A second subscription for the same
// (user, stop, direction) replaces the previous threshold instead of
// stacking alerts.
func (s *Store) Add(userID, chatID int64, stopID, direction string, thresholdMinutes int) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		ChatID:           chatID,
		StopID:           stopID,
		Direction:        direction,
		ThresholdMinutes: thresholdMinutes,
		CreatedAt:        time.Now(),
	}

	kept := s.subs[:0]
	for _, existing := range s.subs {
		if existing.UserID == userID && existing.StopID == stopID && existing.Direction == direction {
			continue
		}
		kept = append(kept, existing)
	}
	s.subs = append(kept, sub)

	if err := s.save(); err != nil {
		return sub, err
	}
	return sub, nil
}

// Remove deletes a subscription by ID. Unknown IDs are a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id string) error {
	kept := s.subs[:0]
	removed := false
	for _, sub := range s.subs {
		if sub.ID == id {
			removed = true
			continue
		}
		kept = append(kept, sub)
	}
	s.subs = kept
	if !removed {
		return nil
	}
	return s.save()
}

// ListByUser returns the user's subscriptions, oldest first.
func (s *Store) ListByUser(userID int64) []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			result = append(result, sub)
		}
	}
	return result
}

// All returns a snapshot of every subscription.
func (s *Store) All() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Subscription, len(s.subs))
	copy(result, s.subs)
	return result
}

// save writes the state atomically. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write alerts file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace alerts file: %w", err)
	}
	return nil
}
