package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	valveapp "collaudo-tracker/internal/valves/application"
	valves "collaudo-tracker/internal/valves/domain"
)

const dateLayout = "2006-01-02"

// StatusReader exposes the scheduler's cached classifications.
type StatusReader interface {
	Status(id string) (valves.Status, bool)
}

// Handler provides valve CRUD and status endpoints.
type Handler struct {
	service  *valveapp.Service
	statuses StatusReader
}

// NewHandler constructs a handler.
func NewHandler(service *valveapp.Service, statuses StatusReader) (*Handler, error) {
	if service == nil {
		return nil, errors.New("valves handler: nil service")
	}
	return &Handler{service: service, statuses: statuses}, nil
}

type valvePayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Manufacturer    string `json:"manufacturer"`
	Location        string `json:"location"`
	NominalPressure string `json:"nominal_pressure"`
	InletDiameter   string `json:"inlet_diameter"`
	OutletDiameter  string `json:"outlet_diameter"`
	LastInspection  string `json:"last_inspection_date"`
	IntervalYears   int    `json:"interval_years"`
	LeadTimeDays    int    `json:"lead_time_days"`
}

type valveResponse struct {
	valvePayload
	NextDueDate   string        `json:"next_due_date"`
	RemainingDays int           `json:"remaining_days"`
	Status        valves.Status `json:"status"`
}

// ServeHTTP handles /api/v1/valves and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/valves":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/valves/"):
		h.handleItem(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := valveapp.SearchFilter{
		Query:           query.Get("q"),
		Name:            query.Get("name"),
		NominalPressure: query.Get("pressure"),
		InletDiameter:   query.Get("inlet"),
		OutletDiameter:  query.Get("outlet"),
	}
	list, err := h.service.Search(r.Context(), filter)
	if err != nil {
		http.Error(w, "list valves error", http.StatusInternalServerError)
		return
	}
	out := make([]valveResponse, 0, len(list))
	for _, valve := range list {
		out = append(out, h.toResponse(valve))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	valve, err := decodeValve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), valve)
	if err != nil {
		if errors.Is(err, valves.ErrDuplicateID) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(*created))
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/valves/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleValve(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleStatus(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleValve(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		valve, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.toResponse(*valve))
	case http.MethodPut:
		valve, err := decodeValve(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated, err := h.service.Update(r.Context(), id, valve)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.toResponse(*updated))
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	valve, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := h.toResponse(*valve)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             resp.ID,
		"status":         resp.Status,
		"next_due_date":  resp.NextDueDate,
		"remaining_days": resp.RemainingDays,
	})
}

func (h *Handler) toResponse(valve valves.Valve) valveResponse {
	today := valves.Date(time.Now().UTC())
	due := valve.NextDue()
	status, ok := valves.StatusOK, false
	if h.statuses != nil {
		status, ok = h.statuses.Status(valve.ID)
	}
	if !ok {
		// Before the first tick, or for a record created since, fall back
		// to a direct classification.
		status = valve.StatusAt(today)
	}
	return valveResponse{
		valvePayload: valvePayload{
			ID:              valve.ID,
			Name:            valve.Name,
			Manufacturer:    valve.Manufacturer,
			Location:        valve.Location,
			NominalPressure: valve.NominalPressure,
			InletDiameter:   valve.InletDiameter,
			OutletDiameter:  valve.OutletDiameter,
			LastInspection:  valve.LastInspection.Format(dateLayout),
			IntervalYears:   valve.IntervalYears,
			LeadTimeDays:    valve.LeadTimeDays,
		},
		NextDueDate:   due.Format(dateLayout),
		RemainingDays: valves.DaysUntil(today, due),
		Status:        status,
	}
}

func decodeValve(r *http.Request) (valves.Valve, error) {
	var payload valvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return valves.Valve{}, errors.New("invalid json body")
	}
	valve := valves.Valve{
		ID:              payload.ID,
		Name:            payload.Name,
		Manufacturer:    payload.Manufacturer,
		Location:        payload.Location,
		NominalPressure: payload.NominalPressure,
		InletDiameter:   payload.InletDiameter,
		OutletDiameter:  payload.OutletDiameter,
		IntervalYears:   payload.IntervalYears,
		LeadTimeDays:    payload.LeadTimeDays,
	}
	if payload.LastInspection != "" {
		parsed, err := time.ParseInLocation(dateLayout, payload.LastInspection, time.UTC)
		if err != nil {
			return valves.Valve{}, errors.New("last_inspection_date must be YYYY-MM-DD")
		}
		valve.LastInspection = parsed
	}
	return valve, nil
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, valves.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, valves.ErrImmutableID), errors.Is(err, valves.ErrDuplicateID):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
