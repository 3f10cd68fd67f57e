package http

import (
	"context"
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/link"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

type LinkRequest struct {
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
}

type LinkCreatedResponse struct {
	LinkID uuid.UUID   `json:"link_id"`
	Status link.Status `json:"status"`
}

type LinkHandler struct {
	service  link.Service
	validate *validator.Validate
}

func NewLinkHandler(service link.Service) *LinkHandler {
	return &LinkHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *LinkHandler) RegisterRoutes(router chi.Router) {
	router.Post("/link", h.handleRequest)
	router.Get("/links", h.handleList)
	router.Post("/link/{id}/accept", h.transition(link.Service.Accept, "Failed to accept link"))
	router.Post("/link/{id}/reject", h.transition(link.Service.Reject, "Failed to reject link"))
	router.Post("/link/{id}/block", h.transition(link.Service.Block, "Failed to block link"))
	router.Post("/link/{id}/unblock", h.transition(link.Service.Unblock, "Failed to unblock link"))
	router.Delete("/link/{id}", h.handleUnlink)
}

func (h *LinkHandler) handleRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var requestPayload LinkRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	l, err := h.service.Request(r.Context(), actor, requestPayload.SupplierID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to request link")
		return
	}
	respondWithJSON(w, http.StatusCreated, LinkCreatedResponse{LinkID: l.ID, Status: l.Status})
}

func (h *LinkHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var (
		links []link.Link
		err   error
	)
	if actor.Role.IsConsumer() {
		links, err = h.service.ListForConsumer(r.Context(), actor)
	} else {
		var status *link.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			st, valid := link.ParseStatus(raw)
			if !valid {
				respondWithError(w, http.StatusBadRequest, "Invalid status filter")
				return
			}
			status = &st
		}
		links, err = h.service.ListForSupplier(r.Context(), actor, status)
	}
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list links")
		return
	}
	respondWithJSON(w, http.StatusOK, links)
}

type linkTransition func(link.Service, context.Context, identity.User, uuid.UUID) (*link.Link, error)

func (h *LinkHandler) transition(apply linkTransition, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		linkID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		l, err := apply(h.service, r.Context(), actor, linkID)
		if err != nil {
			respondWithServiceError(w, r, err, fallback)
			return
		}
		respondWithJSON(w, http.StatusOK, l)
	}
}

func (h *LinkHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	linkID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Unlink(r.Context(), actor, linkID); err != nil {
		respondWithServiceError(w, r, err, "Failed to remove link")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}
