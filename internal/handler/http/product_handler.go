package http

import (
	"net/http"

	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Category    string          `json:"category" validate:"max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit" validate:"required,oneof=kg pcs litre pack"`
	Stock       int             `json:"stock" validate:"min=0"`
	MinOrder    int             `json:"min_order" validate:"min=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

// input maps the payload onto the service input. An omitted min_order means 1.
func (p ProductRequest) input() catalog.ProductInput {
	minOrder := p.MinOrder
	if minOrder == 0 {
		minOrder = 1
	}
	return catalog.ProductInput{
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		Unit:        catalog.Unit(p.Unit),
		Stock:       p.Stock,
		MinOrder:    minOrder,
		ImageURL:    p.ImageURL,
	}
}

type ProductHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListOwn)
	router.Post("/products", h.handleCreate)
	router.Get("/products/{id}", h.handleGet)
	router.Put("/products/{id}", h.handleUpdate)
	router.Patch("/products/{id}/status", h.handleToggleStatus)
	router.Get("/supplier/{id}/catalog", h.handleSupplierCatalog)
	router.Get("/search", h.handleSearch)
}

func (h *ProductHandler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	products, err := h.service.ListOwn(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var requestPayload ProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	p, err := h.service.Create(r.Context(), actor, requestPayload.input())
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), actor, productID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var requestPayload ProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	p, err := h.service.Update(r.Context(), actor, productID, requestPayload.input())
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.ToggleStatus(r.Context(), actor, productID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to change product status")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleSupplierCatalog(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	supplierID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	products, err := h.service.SupplierCatalog(r.Context(), actor, supplierID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load supplier catalog")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	products, err := h.service.Search(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to search products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}
