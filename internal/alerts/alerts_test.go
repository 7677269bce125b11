package alerts

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "alerts.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestAddAndList(t *testing.T) {
	s := newTestStore(t)

	sub, err := s.Add(42, 100, "p03", "Armilla", 5)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sub.ID == "" {
		t.Error("subscription should get an ID")
	}

	subs := s.ListByUser(42)
	if len(subs) != 1 {
		t.Fatalf("ListByUser = %d subs, want 1", len(subs))
	}
	if subs[0].StopID != "p03" || subs[0].ThresholdMinutes != 5 {
		t.Errorf("sub = %+v", subs[0])
	}

	if got := s.ListByUser(7); got != nil {
		t.Errorf("other user should have no subs, got %v", got)
	}
}

func TestAddReplacesSameTarget(t *testing.T) {
	s := newTestStore(t)

	s.Add(42, 100, "p03", "Armilla", 5)
	s.Add(42, 100, "p03", "Armilla", 2)

	subs := s.ListByUser(42)
	if len(subs) != 1 {
		t.Fatalf("same (user, stop, direction) should replace, got %d subs", len(subs))
	}
	if subs[0].ThresholdMinutes != 2 {
		t.Errorf("threshold = %d, want 2", subs[0].ThresholdMinutes)
	}

	// Different direction is a separate subscription.
	s.Add(42, 100, "p03", "Albolote", 5)
	if got := len(s.ListByUser(42)); got != 2 {
		t.Errorf("subs = %d, want 2", got)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)

	sub, _ := s.Add(42, 100, "p03", "Armilla", 5)
	if err := s.Remove(sub.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := len(s.All()); got != 0 {
		t.Errorf("All = %d subs after remove, want 0", got)
	}

	// Unknown IDs are a no-op
	if err := s.Remove("nope"); err != nil {
		t.Errorf("Remove(unknown) = %v, want nil", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")

	s1, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s1.Add(42, 100, "p03", "Armilla", 5)
	s1.Add(7, 200, "p01", "Albolote", 3)

	s2, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := len(s2.All()); got != 2 {
		t.Fatalf("reloaded %d subs, want 2", got)
	}
	subs := s2.ListByUser(42)
	if len(subs) != 1 || subs[0].StopID != "p03" || subs[0].ChatID != 100 {
		t.Errorf("reloaded sub = %+v", subs)
	}
}
