package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
	"github.com/ewhitmore/campuspay/internal/websocket"
)

type EventHandler struct {
	events *store.EventStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewEventHandler(events *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		hub:    hub,
		logger: logger.With("component", "event"),
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListMine returns events the caller is registered for.
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListByParticipant(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list my events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title                string          `json:"title"`
		Description          string          `json:"description"`
		Date                 time.Time       `json:"date"`
		RegistrationDeadline time.Time       `json:"registration_deadline"`
		Capacity             int             `json:"capacity"`
		Fee                  decimal.Decimal `json:"fee"`
		Type                 string          `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Capacity <= 0 {
		writeError(w, http.StatusBadRequest, "capacity must be positive")
		return
	}
	if req.Fee.IsNegative() {
		writeError(w, http.StatusBadRequest, "fee cannot be negative")
		return
	}
	if !model.ValidEventType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid event type")
		return
	}
	if !req.RegistrationDeadline.Before(req.Date) {
		writeError(w, http.StatusBadRequest, "registration deadline must be before the event date")
		return
	}

	event, err := h.events.Create(req.Title, req.Description, req.Date, req.RegistrationDeadline,
		req.Capacity, req.Fee, req.Type, auth.UserID(r.Context()), time.Now().UTC())
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Notify("event", "created", event.ID, nil)
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	participant, err := h.events.Register(id, auth.UserID(r.Context()), time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Notify("event", "registered", id, nil)
	writeJSON(w, http.StatusCreated, participant)
}

func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.events.CancelRegistration(id, auth.UserID(r.Context()), time.Now().UTC()); err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Notify("event", "registration_cancelled", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Participants lists an event's registrations. Admin only.
func (h *EventHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	participants, err := h.events.Participants(id)
	if err != nil {
		h.logger.Error("list participants", "event_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if participants == nil {
		participants = []model.Participant{}
	}
	writeJSON(w, http.StatusOK, participants)
}
