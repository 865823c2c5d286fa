package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
)

type ParentHandler struct {
	users   *store.UserStore
	wallets *store.WalletStore
	logger  *slog.Logger
}

func NewParentHandler(users *store.UserStore, wallets *store.WalletStore, logger *slog.Logger) *ParentHandler {
	return &ParentHandler{
		users:   users,
		wallets: wallets,
		logger:  logger.With("component", "parent"),
	}
}

// LinkStudent attaches a student account to the calling parent by email.
func (h *ParentHandler) LinkStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	student, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("lookup student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if student == nil || student.Role != model.RoleStudent {
		writeError(w, http.StatusNotFound, "no student account with that email")
		return
	}
	if student.ParentID != nil {
		writeError(w, http.StatusConflict, "student is already linked to a parent")
		return
	}

	if err := h.users.LinkParent(student.ID, auth.UserID(r.Context()), time.Now().UTC()); err != nil {
		h.logger.Error("link parent", "student_id", student.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to link student")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// Students lists the parent's linked students with their wallets.
func (h *ParentHandler) Students(w http.ResponseWriter, r *http.Request) {
	students, err := h.users.ListStudentsByParent(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list students", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type studentView struct {
		model.User
		Wallet *model.Wallet `json:"wallet,omitempty"`
	}
	views := make([]studentView, 0, len(students))
	for _, s := range students {
		wallet, err := h.wallets.GetByUserID(s.ID)
		if err != nil {
			h.logger.Error("get student wallet", "student_id", s.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		views = append(views, studentView{User: s, Wallet: wallet})
	}
	writeJSON(w, http.StatusOK, views)
}

// StudentTransactions returns a linked student's recent wallet
// activity, newest first.
func (h *ParentHandler) StudentTransactions(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	student, err := h.users.GetByID(studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if student == nil || student.ParentID == nil || *student.ParentID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "student is not linked to this parent")
		return
	}

	wallet, err := h.wallets.GetByUserID(studentID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusNotFound, "student wallet not found")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	transactions, err := h.wallets.Transactions(wallet.ID, limit, 0)
	if err != nil {
		h.logger.Error("list student transactions", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// SetDailyLimit updates a linked student's daily spending cap. Zero
// removes the cap.
func (h *ParentHandler) SetDailyLimit(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		DailyLimit decimal.Decimal `json:"daily_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DailyLimit.IsNegative() {
		writeError(w, http.StatusBadRequest, "daily limit cannot be negative")
		return
	}

	student, err := h.users.GetByID(studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if student == nil || student.ParentID == nil || *student.ParentID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "student is not linked to this parent")
		return
	}

	wallet, err := h.wallets.GetByUserID(studentID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusNotFound, "student wallet not found")
		return
	}
	if err := h.wallets.SetDailyLimit(wallet.ID, req.DailyLimit, time.Now().UTC()); err != nil {
		h.logger.Error("set daily limit", "wallet_id", wallet.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update limit")
		return
	}

	updated, err := h.wallets.GetByID(wallet.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
