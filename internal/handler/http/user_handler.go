package http

import (
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,max=120"`
	FullName       string `json:"full_name" validate:"required,min=2,max=120"`
	Role           string `json:"role" validate:"required,oneof=consumer owner manager sales"`
	CompanyName    string `json:"company_name" validate:"required_if=Role owner,max=120"`
	CompanyAddress string `json:"company_address" validate:"max=120"`
	CompanyPhone   string `json:"company_phone" validate:"max=20"`
}

type EmployeeRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type UserHandler struct {
	service  identity.Service
	validate *validator.Validate
}

func NewUserHandler(service identity.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes mounts the routes reachable without a token.
func (h *UserHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/users", h.handleRegister)
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Get("/me", h.handleMe)
	router.Delete("/me", h.handleDeleteMe)
	router.Get("/suppliers", h.handleListSuppliers)
	router.Get("/company/employees", h.handleListEmployees)
	router.Get("/company/unassigned", h.handleListUnassigned)
	router.Post("/company/assign", h.handleAssign)
	router.Post("/company/remove", h.handleRemove)
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Register(r.Context(), identity.RegisterInput{
		Email:          requestPayload.Email,
		FullName:       requestPayload.FullName,
		Role:           requestPayload.Role,
		CompanyName:    requestPayload.CompanyName,
		CompanyAddress: requestPayload.CompanyAddress,
		CompanyPhone:   requestPayload.CompanyPhone,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, actor)
}

func (h *UserHandler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), actor); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	suppliers, err := h.service.ListSuppliers(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list suppliers")
		return
	}
	respondWithJSON(w, http.StatusOK, suppliers)
}

func (h *UserHandler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	employees, err := h.service.ListEmployees(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list employees")
		return
	}
	respondWithJSON(w, http.StatusOK, employees)
}

func (h *UserHandler) handleListUnassigned(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.service.ListUnassigned(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list unassigned staff")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var requestPayload EmployeeRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}
	if err := h.service.AssignEmployee(r.Context(), actor, requestPayload.UserID); err != nil {
		respondWithServiceError(w, r, err, "Failed to assign employee")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *UserHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var requestPayload EmployeeRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}
	if err := h.service.RemoveEmployee(r.Context(), actor, requestPayload.UserID); err != nil {
		respondWithServiceError(w, r, err, "Failed to remove employee")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
