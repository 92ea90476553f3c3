package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"collaudo-tracker/internal/alerts"
	valves "collaudo-tracker/internal/valves/domain"
)

const dateLayout = "2006-01-02"

// Checker triggers and reports on scheduler evaluations.
type Checker interface {
	CheckNow(ctx context.Context) error
	Statuses() map[string]valves.Status
	LastTick() time.Time
}

// Handler provides the alert control surface: pause, resume, state and
// manual checks.
type Handler struct {
	policy  *alerts.Policy
	checker Checker
}

// NewHandler constructs a handler.
func NewHandler(policy *alerts.Policy, checker Checker) (*Handler, error) {
	if policy == nil {
		return nil, errors.New("alerts handler: nil policy")
	}
	if checker == nil {
		return nil, errors.New("alerts handler: nil checker")
	}
	return &Handler{policy: policy, checker: checker}, nil
}

type pauseRequest struct {
	Days int `json:"days"`
}

type stateResponse struct {
	Paused     bool                     `json:"paused"`
	PauseUntil string                   `json:"pause_until,omitempty"`
	LastTick   string                   `json:"last_tick,omitempty"`
	Statuses   map[string]valves.Status `json:"statuses"`
}

// ServeHTTP handles /api/v1/alerts and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/alerts":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleState(w)
	case "/api/v1/alerts/pause":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handlePause(w, r)
	case "/api/v1/alerts/resume":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.policy.Resume()
		h.handleState(w)
	case "/api/v1/alerts/check":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.checker.CheckNow(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.handleState(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Days < 1 {
		http.Error(w, "days must be >= 1", http.StatusBadRequest)
		return
	}
	today := valves.Date(time.Now().UTC())
	h.policy.Pause(req.Days, today)
	h.handleState(w)
}

func (h *Handler) handleState(w http.ResponseWriter) {
	paused, until := h.policy.Snapshot()
	resp := stateResponse{
		Paused:   paused,
		Statuses: h.checker.Statuses(),
	}
	if !until.IsZero() {
		resp.PauseUntil = until.Format(dateLayout)
	}
	if last := h.checker.LastTick(); !last.IsZero() {
		resp.LastTick = last.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
