package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger.With("component", "settings"),
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MaxDailySpendLimit.IsNegative() {
		writeError(w, http.StatusBadRequest, "max daily spend limit cannot be negative")
		return
	}

	updated, err := h.settings.Update(req, time.Now().UTC())
	if err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
