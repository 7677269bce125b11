package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/internal/store"
)

// MockClient implements metro.Client for testing.
type MockClient struct {
	stops    []models.Stop
	arrivals map[string][]models.Arrival
	err      error
}

func (m *MockClient) Stops() []models.Stop { return m.stops }

func (m *MockClient) ReversedStops() []models.Stop {
	out := make([]models.Stop, len(m.stops))
	for i, s := range m.stops {
		out[len(m.stops)-1-i] = s
	}
	return out
}

func (m *MockClient) StopName(id string) string {
	for _, s := range m.stops {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

func (m *MockClient) GetStop(id string) (models.Stop, error) {
	for _, s := range m.stops {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Stop{}, store.ErrStopUnknown
}

func (m *MockClient) Arrivals(ctx context.Context, stopID string) ([]models.Arrival, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.arrivals[stopID], nil
}

func (m *MockClient) AllArrivals(ctx context.Context) ([]models.StopArrivals, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.StopArrivals
	for _, s := range m.stops {
		out = append(out, models.StopArrivals{Stop: s, Upcoming: m.arrivals[s.ID]})
	}
	return out, nil
}

func (m *MockClient) LastUpdate() time.Time { return time.Now() }

func newTestRouter(client *MockClient) *mux.Router {
	r := mux.NewRouter()
	NewHandler(client).RegisterRoutes(r)
	return r
}

func testClient() *MockClient {
	return &MockClient{
		stops: []models.Stop{
			{ID: "p01", Name: "Albolote"},
			{ID: "p02", Name: "Armilla"},
		},
		arrivals: map[string][]models.Arrival{
			"p01": {{Minutes: 2, Direction: models.DirectionArmilla}},
			"p02": {{Minutes: 4, Direction: models.DirectionAlbolote}},
		},
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(testClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Stops != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthDegradedWithoutStops(t *testing.T) {
	r := newTestRouter(&MockClient{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
}

func TestStops(t *testing.T) {
	r := newTestRouter(testClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stops", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data []models.Stop `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 || resp.Data[0].ID != "p01" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestArrivals(t *testing.T) {
	r := newTestRouter(testClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stops/p01/arrivals", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data models.StopArrivals `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Stop.Name != "Albolote" || len(resp.Data.Upcoming) != 1 {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestArrivalsUnknownStop(t *testing.T) {
	r := newTestRouter(testClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stops/p99/arrivals", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestArrivalsUpstreamError(t *testing.T) {
	client := testClient()
	client.err = errors.New("upstream down")
	r := newTestRouter(client)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stops/p01/arrivals", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestLine(t *testing.T) {
	r := newTestRouter(testClient())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/line", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data []models.LineStatus `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data = %+v", resp.Data)
	}
	if resp.Data[0].ToArmilla == nil || *resp.Data[0].ToArmilla != 2 {
		t.Errorf("p01 toward Armilla = %v", resp.Data[0].ToArmilla)
	}
	if resp.Data[0].ToAlbolote != nil {
		t.Errorf("p01 toward Albolote should be null, got %v", *resp.Data[0].ToAlbolote)
	}
}
