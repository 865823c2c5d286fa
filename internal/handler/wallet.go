package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/ewhitmore/campuspay/internal/auth"
	"github.com/ewhitmore/campuspay/internal/store"
	"github.com/ewhitmore/campuspay/internal/stripe"
	"github.com/ewhitmore/campuspay/internal/websocket"
)

const maxWebhookBody = 65536

type WalletHandler struct {
	wallets *store.WalletStore
	users   *store.UserStore
	stripe  *stripe.Client
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewWalletHandler(wallets *store.WalletStore, users *store.UserStore, sc *stripe.Client, hub *websocket.Hub, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		users:   users,
		stripe:  sc,
		hub:     hub,
		logger:  logger.With("component", "wallet"),
	}
}

// Get returns the authenticated user's wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetByUserID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get wallet", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if wallet == nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// History returns the wallet's ledger entries, newest first, paginated
// with ?limit= and ?offset=.
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetByUserID(auth.UserID(r.Context()))
	if err != nil || wallet == nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.wallets.Transactions(wallet.ID, limit, offset)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.wallets.CountTransactions(wallet.ID)
	if err != nil {
		h.logger.Error("count transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// Deposit starts a Stripe checkout session for a wallet top-up and
// returns the hosted payment URL. The wallet is credited by the
// webhook once the payment completes.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if !h.stripe.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "online payments are not configured")
		return
	}

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

	userID := auth.UserID(r.Context())
	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	wallet, err := h.wallets.GetByUserID(userID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	url, err := h.stripe.CreateDepositSession(user.Email, wallet.ID, req.Amount)
	if err != nil {
		h.logger.Error("create deposit session", "error", err)
		writeError(w, http.StatusBadGateway, "failed to start payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// StripeWebhook credits the wallet when a checkout session completes.
// Mounted on the public mux; the signature check is the authentication.
func (h *WalletHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	event, err := h.stripe.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if event.Type != "checkout.session.completed" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var sess stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	walletID, amount, err := stripe.DepositDetails(&sess)
	if err != nil {
		h.logger.Error("parse deposit metadata", "session", sess.ID, "error", err)
		writeError(w, http.StatusBadRequest, "invalid deposit metadata")
		return
	}

	tx, err := h.wallets.Credit(walletID, amount, "Wallet deposit", "STRIPE-"+sess.ID, time.Now().UTC())
	if err != nil {
		h.logger.Error("credit deposit", "wallet_id", walletID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to credit wallet")
		return
	}

	h.hub.Notify("wallet", "credited", walletID, map[string]any{"amount": amount.String()})
	h.logger.Info("deposit credited", "wallet_id", walletID, "amount", amount.String(), "transaction_id", tx.ID)
	w.WriteHeader(http.StatusOK)
}
