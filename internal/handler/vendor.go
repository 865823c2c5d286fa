package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/store"
)

type VendorHandler struct {
	vendors *store.VendorStore
	wallets *store.WalletStore
	report  *store.ReportStore
	logger  *slog.Logger
}

func NewVendorHandler(vendors *store.VendorStore, wallets *store.WalletStore, report *store.ReportStore, logger *slog.Logger) *VendorHandler {
	return &VendorHandler{
		vendors: vendors,
		wallets: wallets,
		report:  report,
		logger:  logger.With("component", "vendor"),
	}
}

// List returns all vendors. Any authenticated user can browse them.
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.List()
	if err != nil {
		h.logger.Error("list vendors", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

// Profile returns the calling vendor's own record.
func (h *VendorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.vendors.GetByID(auth.VendorID(r.Context()))
	if err != nil {
		h.logger.Error("get vendor", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if vendor == nil {
		writeError(w, http.StatusNotFound, "vendor not found")
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

func (h *VendorHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessName  string `json:"business_name"`
		CounterNumber string `json:"counter_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	if req.BusinessName == "" {
		writeError(w, http.StatusBadRequest, "business name is required")
		return
	}

	vendor, err := h.vendors.Update(auth.VendorID(r.Context()), req.BusinessName, req.CounterNumber, time.Now().UTC())
	if err != nil {
		h.logger.Error("update vendor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

// Withdraw debits the vendor's wallet for a payout.
func (h *VendorHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	wallet, err := h.wallets.GetByUserID(auth.UserID(r.Context()))
	if err != nil || wallet == nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	reference := "WITHDRAW-" + uuid.NewString()
	txn, err := h.wallets.Debit(wallet.ID, req.Amount, "Vendor withdrawal", reference, time.Now().UTC())
	if err != nil {
		h.logger.Warn("withdraw", "wallet_id", wallet.ID, "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// Summary returns the vendor's sales aggregates.
func (h *VendorHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.report.VendorSummary(auth.VendorID(r.Context()))
	if err != nil {
		h.logger.Error("vendor summary", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
