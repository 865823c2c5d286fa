package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
	"github.com/ewhitmore/campuspay/internal/websocket"
)

type TokenHandler struct {
	tokens  *store.TokenStore
	wallets *store.WalletStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewTokenHandler(tokens *store.TokenStore, wallets *store.WalletStore, hub *websocket.Hub, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokens:  tokens,
		wallets: wallets,
		hub:     hub,
		logger:  logger.With("component", "token"),
	}
}

// ListMine returns the authenticated user's tokens, newest first.
func (h *TokenHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tokens == nil {
		tokens = []model.Token{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

// ListVendor returns tokens for the vendor's meals.
func (h *TokenHandler) ListVendor(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListByVendor(auth.VendorID(r.Context()))
	if err != nil {
		h.logger.Error("list vendor tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tokens == nil {
		tokens = []model.Token{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, ok := h.visibleToken(w, r)
	if !ok {
		return
	}
	role := auth.Role(r.Context())
	if token.UserID != auth.UserID(r.Context()) && role != model.RoleAdmin && role != model.RoleVendor {
		writeError(w, http.StatusForbidden, "token belongs to another user")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// Redeem marks a token used at the counter. Vendors look it up by the
// number scanned from the QR code.
func (h *TokenHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TokenNumber string `json:"token_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	token, err := h.tokens.GetByNumber(req.TokenNumber)
	if err != nil {
		h.logger.Error("get token by number", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}

	used, err := h.tokens.Use(token.ID, time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Notify("token", "used", used.ID, map[string]any{"token_number": used.TokenNumber})
	writeJSON(w, http.StatusOK, used)
}

// Cancel retires the caller's active token and marks its refund pending.
func (h *TokenHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	token, ok := h.visibleToken(w, r)
	if !ok {
		return
	}
	if token.UserID != auth.UserID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "token belongs to another user")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	cancelled, err := h.tokens.Cancel(token.ID, req.Reason, time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Notify("token", "cancelled", cancelled.ID, map[string]any{"token_number": cancelled.TokenNumber})
	writeJSON(w, http.StatusOK, cancelled)
}

// ProcessRefund settles a pending refund: the one-shot status flip
// guards against double processing, then the wallet is credited.
func (h *TokenHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	token, err := h.tokens.ProcessRefund(id, model.RefundProcessed)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	wallet, err := h.wallets.GetByUserID(token.UserID)
	if err != nil || wallet == nil {
		h.logger.Error("refund wallet lookup", "token_id", token.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "refund flagged but wallet credit failed")
		return
	}
	amount := token.TotalAmount
	if token.RefundAmount != nil {
		amount = *token.RefundAmount
	}
	if _, err := h.wallets.Credit(wallet.ID, amount, "Refund for "+token.TokenNumber, "REFUND-"+token.TokenNumber, time.Now().UTC()); err != nil {
		h.logger.Error("refund credit", "token_id", token.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "refund flagged but wallet credit failed")
		return
	}

	h.hub.Notify("token", "refunded", token.ID, map[string]any{"amount": amount.String()})
	writeJSON(w, http.StatusOK, token)
}

// visibleToken loads the token from the path without ownership checks;
// callers enforce who may act on it.
func (h *TokenHandler) visibleToken(w http.ResponseWriter, r *http.Request) (*model.Token, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	token, err := h.tokens.GetByID(id)
	if err != nil {
		h.logger.Error("get token", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "token not found")
		return nil, false
	}
	return token, true
}
