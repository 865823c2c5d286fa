package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/store"
)

type DashboardHandler struct {
	report *store.ReportStore
	logger *slog.Logger
}

func NewDashboardHandler(report *store.ReportStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		report: report,
		logger: logger.With("component", "dashboard"),
	}
}

// Stats returns the caller's dashboard summary.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.report.UserStats(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("user stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Spending breaks the caller's orders down by category over the last
// ?days= days (default 30).
func (h *DashboardHandler) Spending(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 30)
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	spend, err := h.report.SpendingByCategory(auth.UserID(r.Context()), from, to)
	if err != nil {
		h.logger.Error("spending by category", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, spend)
}

// DailyTotals returns school-wide order volume per day. Admin only.
func (h *DashboardHandler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 7)
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	totals, err := h.report.DailyTotals(from, to)
	if err != nil {
		h.logger.Error("daily totals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func queryDays(r *http.Request, fallback int) int {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 || days > 365 {
		return fallback
	}
	return days
}
