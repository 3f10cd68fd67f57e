package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/chat"
	handler "github.com/KeeperOfTheLights/best-project-backend/internal/handler/http"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatHandler_Send(t *testing.T) {
	mockService := new(MockChatService)
	h := handler.NewChatHandler(mockService)
	consumer := newUser(identity.RoleConsumer)
	supplierID := uuid.Must(uuid.NewV4())

	mockService.On("Send", mock.Anything, consumer, supplierID, "Is the cheese in stock?").
		Return(&chat.Message{ID: uuid.Must(uuid.NewV4()), SenderID: consumer.ID, Text: "Is the cheese in stock?", CreatedAt: time.Now().UTC()}, nil).
		Once()

	jsonBody, err := json.Marshal(handler.SendMessageRequest{Text: "Is the cheese in stock?"})
	require.NoError(t, err)
	rr := serve(h, &consumer, httptest.NewRequest(http.MethodPost, "/chat/"+supplierID.String()+"/messages", bytes.NewBuffer(jsonBody)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var sent chat.Message
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sent))
	assert.Equal(t, consumer.ID, sent.SenderID)
	mockService.AssertExpectations(t)
}

func TestChatHandler_Send_TooLong(t *testing.T) {
	mockService := new(MockChatService)
	h := handler.NewChatHandler(mockService)
	consumer := newUser(identity.RoleConsumer)

	jsonBody, err := json.Marshal(handler.SendMessageRequest{Text: strings.Repeat("a", 2001)})
	require.NoError(t, err)
	rr := serve(h, &consumer, httptest.NewRequest(http.MethodPost, "/chat/"+uuid.Must(uuid.NewV4()).String()+"/messages", bytes.NewBuffer(jsonBody)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_History(t *testing.T) {
	consumer := newUser(identity.RoleConsumer)
	supplierID := uuid.Must(uuid.NewV4())

	t.Run("limit is passed through", func(t *testing.T) {
		mockService := new(MockChatService)
		h := handler.NewChatHandler(mockService)
		mockService.On("History", mock.Anything, consumer, supplierID, 10).Return([]chat.Message{{Text: "hi"}}, nil).Once()

		rr := serve(h, &consumer, httptest.NewRequest(http.MethodGet, "/chat/"+supplierID.String()+"/messages?limit=10", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		mockService := new(MockChatService)
		h := handler.NewChatHandler(mockService)

		rr := serve(h, &consumer, httptest.NewRequest(http.MethodGet, "/chat/"+supplierID.String()+"/messages?limit=-5", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not linked", func(t *testing.T) {
		mockService := new(MockChatService)
		h := handler.NewChatHandler(mockService)
		mockService.On("History", mock.Anything, consumer, supplierID, 0).Return(nil, apperr.ErrForbidden).Once()

		rr := serve(h, &consumer, httptest.NewRequest(http.MethodGet, "/chat/"+supplierID.String()+"/messages", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertExpectations(t)
	})
}
