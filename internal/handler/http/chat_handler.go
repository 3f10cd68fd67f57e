package http

import (
	"net/http"
	"strconv"

	"github.com/KeeperOfTheLights/best-project-backend/internal/chat"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type ChatHandler struct {
	service  chat.Service
	validate *validator.Validate
}

func NewChatHandler(service chat.Service) *ChatHandler {
	return &ChatHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ChatHandler) RegisterRoutes(router chi.Router) {
	router.Get("/chat/{partnerID}/messages", h.handleHistory)
	router.Post("/chat/{partnerID}/messages", h.handleSend)
}

func (h *ChatHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	partnerID, ok := parseIDParam(w, r, "partnerID")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	messages, err := h.service.History(r.Context(), actor, partnerID, limit)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load chat history")
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	partnerID, ok := parseIDParam(w, r, "partnerID")
	if !ok {
		return
	}
	var requestPayload SendMessageRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	m, err := h.service.Send(r.Context(), actor, partnerID, requestPayload.Text)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to send message")
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}
