package http

import (
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

type UpdateCartResponse struct {
	Removed bool       `json:"removed"`
	Item    *cart.Item `json:"item,omitempty"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleList)
	router.Post("/cart", h.handleAdd)
	router.Patch("/cart/{id}", h.handleUpdate)
	router.Delete("/cart/{id}", h.handleRemove)
}

func (h *CartHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load cart")
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var requestPayload AddToCartRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	item, err := h.service.Add(r.Context(), actor, requestPayload.ProductID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to add to cart")
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var requestPayload UpdateCartRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	item, removed, err := h.service.Update(r.Context(), actor, itemID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, UpdateCartResponse{Removed: removed, Item: item})
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), actor, itemID); err != nil {
		respondWithServiceError(w, r, err, "Failed to remove cart item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
