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
	"github.com/ewhitmore/campuspay/internal/token"
	"github.com/ewhitmore/campuspay/internal/websocket"
)

type MealHandler struct {
	meals  *store.MealStore
	tokens *store.TokenStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewMealHandler(meals *store.MealStore, tokens *store.TokenStore, hub *websocket.Hub, logger *slog.Logger) *MealHandler {
	return &MealHandler{
		meals:  meals,
		tokens: tokens,
		hub:    hub,
		logger: logger.With("component", "meal"),
	}
}

// List returns all meals currently orderable.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	meals, err := h.meals.ListAvailable()
	if err != nil {
		h.logger.Error("list meals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if meals == nil {
		meals = []model.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

// ListMine returns the vendor's own meals, sold out included.
func (h *MealHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	meals, err := h.meals.ListByVendor(auth.VendorID(r.Context()))
	if err != nil {
		h.logger.Error("list vendor meals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if meals == nil {
		meals = []model.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

type mealRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Vegetarian  bool            `json:"vegetarian"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity"`
}

func (req *mealRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if !req.Price.IsPositive() {
		return "price must be positive"
	}
	if !model.ValidCategory(req.Category) {
		return "invalid category"
	}
	if req.Quantity < 0 {
		return "quantity cannot be negative"
	}
	return ""
}

func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req mealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	meal, err := h.meals.Create(auth.VendorID(r.Context()), req.Name, req.Description,
		req.Price, req.Category, req.Vegetarian, req.ImageURL, req.Quantity, time.Now().UTC())
	if err != nil {
		h.logger.Error("create meal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create meal")
		return
	}

	h.hub.Notify("meal", "created", meal.ID, nil)
	writeJSON(w, http.StatusCreated, meal)
}

func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}

	var req mealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.meals.Update(meal.ID, req.Name, req.Description, req.Price,
		req.Category, req.Vegetarian, req.ImageURL, time.Now().UTC())
	if err != nil {
		h.logger.Error("update meal", "id", meal.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update meal")
		return
	}

	h.hub.Notify("meal", "updated", updated.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}
	if err := h.meals.Delete(meal.ID); err != nil {
		h.logger.Error("delete meal", "id", meal.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete meal")
		return
	}
	h.hub.Notify("meal", "deleted", meal.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Restock adds stock to a meal and marks it available again.
func (h *MealHandler) Restock(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.ownedMeal(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	updated, err := h.meals.Restock(meal.ID, req.Quantity, time.Now().UTC())
	if err != nil {
		h.logger.Error("restock meal", "id", meal.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to restock meal")
		return
	}

	h.hub.Notify("meal", "restocked", updated.ID, map[string]any{"available_quantity": updated.AvailableQuantity})
	writeJSON(w, http.StatusOK, updated)
}

// Order buys a meal token: debits the wallet, credits the vendor,
// reserves stock, and issues the token in one shot.
func (h *MealHandler) Order(w http.ResponseWriter, r *http.Request) {
	mealID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Quantity   int    `json:"quantity"`
		PickupTime string `json:"pickup_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > 5 {
		writeError(w, http.StatusBadRequest, "quantity must be between 1 and 5")
		return
	}
	if !token.ValidPickupTime(req.PickupTime) {
		writeError(w, http.StatusBadRequest, "pickup_time must be lunch or snacks")
		return
	}

	tok, err := h.tokens.PlaceOrder(auth.UserID(r.Context()), mealID, req.Quantity, req.PickupTime, time.Now().UTC())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Notify("token", "created", tok.ID, map[string]any{"token_number": tok.TokenNumber})
	writeJSON(w, http.StatusCreated, tok)
}

// ownedMeal loads the meal from the path and checks it belongs to the
// authenticated vendor.
func (h *MealHandler) ownedMeal(w http.ResponseWriter, r *http.Request) (*model.Meal, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	meal, err := h.meals.GetByID(id)
	if err != nil {
		h.logger.Error("get meal", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if meal == nil {
		writeError(w, http.StatusNotFound, "meal not found")
		return nil, false
	}
	if meal.VendorID != auth.VendorID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "meal belongs to another vendor")
		return nil, false
	}
	return meal, true
}
