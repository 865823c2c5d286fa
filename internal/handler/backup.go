package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ewhitmore/campuspay/internal/backup"
	"github.com/ewhitmore/campuspay/internal/model"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		manager: manager,
		logger:  logger.With("component", "backup"),
	}
}

// Run triggers an immediate backup.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"id": id})
}

// History lists recent backup runs.
func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.manager.History(limit)
	if err != nil {
		h.logger.Error("backup history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []model.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
