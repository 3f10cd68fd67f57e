package http

import (
	"context"
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
)

// OrderHandler handles checkout, order lifecycle and dashboard requests.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout", h.Checkout)
	router.Get("/orders", h.ListOrders)
	router.Get("/orders/{id}", h.GetOrderByID)
	router.Post("/orders/{id}/accept", h.transition(order.Service.Accept, "Failed to accept order"))
	router.Post("/orders/{id}/reject", h.transition(order.Service.Reject, "Failed to reject order"))
	router.Post("/orders/{id}/deliver", h.transition(order.Service.Deliver, "Failed to deliver order"))
	router.Get("/dashboard/stats", h.Stats)
}

// Checkout turns the caller's cart into an order.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Checkout(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to check out")
		return
	}
	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var status *order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, valid := order.ParseStatus(raw)
		if !valid {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &st
	}

	orders, err := h.svc.List(r.Context(), actor, status)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), actor, orderID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

type orderTransition func(order.Service, context.Context, identity.User, uuid.UUID) (*order.Order, error)

func (h *OrderHandler) transition(apply orderTransition, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		orderID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		o, err := apply(h.svc, r.Context(), actor, orderID)
		if err != nil {
			respondWithServiceError(w, r, err, fallback)
			return
		}
		respondWithJSON(w, http.StatusOK, o)
	}
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	st, err := h.svc.Stats(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load dashboard stats")
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}
