package http

import (
	"context"
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/complaint"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

type ComplaintRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

type ComplaintHandler struct {
	service  complaint.Service
	validate *validator.Validate
}

func NewComplaintHandler(service complaint.Service) *ComplaintHandler {
	return &ComplaintHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ComplaintHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders/{id}/complaints", h.handleFile)
	router.Get("/complaints", h.handleList)
	router.Get("/complaints/{id}", h.handleGet)
	router.Post("/complaints/{id}/resolve", h.transition(complaint.Service.Resolve, "Failed to resolve complaint"))
	router.Post("/complaints/{id}/reject", h.transition(complaint.Service.Reject, "Failed to reject complaint"))
	router.Post("/complaints/{id}/escalate", h.transition(complaint.Service.Escalate, "Failed to escalate complaint"))
}

func (h *ComplaintHandler) handleFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var requestPayload ComplaintRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := h.service.File(r.Context(), actor, orderID, complaint.FileInput{
		Title:       requestPayload.Title,
		Description: requestPayload.Description,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to file complaint")
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *ComplaintHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var status *complaint.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, valid := complaint.ParseStatus(raw)
		if !valid {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &st
	}

	complaints, err := h.service.List(r.Context(), actor, status)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list complaints")
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

func (h *ComplaintHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	complaintID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), actor, complaintID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get complaint")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

type complaintTransition func(complaint.Service, context.Context, identity.User, uuid.UUID) (*complaint.Complaint, error)

func (h *ComplaintHandler) transition(apply complaintTransition, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		complaintID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		c, err := apply(h.service, r.Context(), actor, complaintID)
		if err != nil {
			respondWithServiceError(w, r, err, fallback)
			return
		}
		respondWithJSON(w, http.StatusOK, c)
	}
}
