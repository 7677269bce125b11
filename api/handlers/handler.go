// Package handlers exposes a small read-only HTTP API for monitoring a
// bot deployment: line layout, per-stop arrivals and a health summary.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/pkg/metro"
)

// Handler handles HTTP requests.
type Handler struct {
	client metro.Client
}

// NewHandler creates a new HTTP handler.
func NewHandler(client metro.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.handleHealth).Methods("GET")
	r.HandleFunc("/stops", h.handleStops).Methods("GET")
	r.HandleFunc("/stops/{id}/arrivals", h.handleArrivals).Methods("GET")
	r.HandleFunc("/line", h.handleLine).Methods("GET")
}

// Response wraps API responses.
type Response struct {
	Data    interface{} `json:"data"`
	Updated string      `json:"updated,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports whether the bot has usable transit data.
type HealthResponse struct {
	Status     string `json:"status"`
	Stops      int    `json:"stops"`
	LastUpdate string `json:"last_update,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	stops := h.client.Stops()

	resp := HealthResponse{
		Status: "ok",
		Stops:  len(stops),
	}
	if len(stops) == 0 {
		resp.Status = "degraded"
	}
	if last := h.client.LastUpdate(); !last.IsZero() {
		resp.LastUpdate = last.Format(time.RFC3339)
	}
	h.writeJSON(w, resp)
}

func (h *Handler) handleStops(w http.ResponseWriter, r *http.Request) {
	response := Response{
		Data:    h.client.Stops(),
		Updated: h.client.LastUpdate().Format(time.RFC3339),
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleArrivals(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	stop, err := h.client.GetStop(id)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	arrivals, err := h.client.Arrivals(r.Context(), id)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	response := Response{
		Data: models.StopArrivals{Stop: stop, Upcoming: arrivals},
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleLine(w http.ResponseWriter, r *http.Request) {
	line, err := h.client.AllArrivals(r.Context())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	byStop := make(map[string][]models.Arrival, len(line))
	for _, sa := range line {
		byStop[sa.Stop.ID] = sa.Upcoming
	}

	now := time.Now()
	data := make([]models.LineStatus, 0, len(h.client.Stops()))
	for _, stop := range h.client.Stops() {
		status := models.LineStatus{Stop: stop, AsOf: now}
		if m, ok := models.NextInDirection(byStop[stop.ID], models.DirectionArmilla); ok {
			status.ToArmilla = &m
		}
		if m, ok := models.NextInDirection(byStop[stop.ID], models.DirectionAlbolote); ok {
			status.ToAlbolote = &m
		}
		data = append(data, status)
	}

	h.writeJSON(w, Response{Data: data})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
