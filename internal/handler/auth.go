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
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users    *store.UserStore
	wallets  *store.WalletStore
	vendors  *store.VendorStore
	settings *store.SettingsStore
	secret   []byte
	logger   *slog.Logger
}

func NewAuthHandler(users *store.UserStore, wallets *store.WalletStore, vendors *store.VendorStore, settings *store.SettingsStore, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		wallets:  wallets,
		vendors:  vendors,
		settings: settings,
		secret:   secret,
		logger:   logger.With("component", "auth"),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		Name         string `json:"name"`
		Role         string `json:"role"`
		BusinessName string `json:"business_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role == model.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin accounts cannot self-register")
		return
	}
	if req.Role != model.RoleStudent && req.Role != model.RoleParent && req.Role != model.RoleVendor {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	settings, err := h.settings.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if req.Role == model.RoleParent && !settings.AllowParentRegistration {
		writeError(w, http.StatusForbidden, "parent registration is disabled")
		return
	}
	if req.Role == model.RoleVendor && !settings.AllowVendorRegistration {
		writeError(w, http.StatusForbidden, "vendor registration is disabled")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now().UTC()
	user, err := h.users.Create(req.Email, hash, req.Name, req.Role, now)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	// Students get a wallet capped by the school default; vendors get
	// an uncapped one to receive payments into.
	switch req.Role {
	case model.RoleStudent:
		if _, err := h.wallets.Create(user.ID, settings.MaxDailySpendLimit, now); err != nil {
			h.logger.Error("create wallet", "user_id", user.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create wallet")
			return
		}
	case model.RoleVendor:
		if _, err := h.wallets.Create(user.ID, decimal.Zero, now); err != nil {
			h.logger.Error("create wallet", "user_id", user.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create wallet")
			return
		}
		name := strings.TrimSpace(req.BusinessName)
		if name == "" {
			name = req.Name
		}
		if _, err := h.vendors.Create(user.ID, name, "", now); err != nil {
			h.logger.Error("create vendor", "user_id", user.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create vendor profile")
			return
		}
	}

	token, err := auth.IssueToken(h.secret, user.ID, user.Role, tokenTTL)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID, user.Role, tokenTTL)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
