package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	handler "github.com/KeeperOfTheLights/best-project-backend/internal/handler/http"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func postRegister(h *handler.UserHandler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router := chi.NewRouter()
	h.RegisterPublicRoutes(router)
	router.ServeHTTP(rr, req)
	return rr
}

func TestUserHandler_handleRegister_Success(t *testing.T) {
	mockService := new(MockIdentityService)
	h := handler.NewUserHandler(mockService)

	requestDTO := handler.RegisterRequest{
		Email:       "owner@farm.example",
		FullName:    "Alma Owner",
		Role:        "owner",
		CompanyName: "Green Farm",
	}
	companyID := uuid.Must(uuid.NewV4())
	created := &identity.User{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     requestDTO.Email,
		FullName:  requestDTO.FullName,
		Role:      identity.RoleOwner,
		CompanyID: &companyID,
		CreatedAt: time.Now().UTC(),
	}

	mockService.On("Register", mock.Anything, identity.RegisterInput{
		Email:       requestDTO.Email,
		FullName:    requestDTO.FullName,
		Role:        requestDTO.Role,
		CompanyName: requestDTO.CompanyName,
	}).Return(created, nil).Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)

	rr := postRegister(h, jsonBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	var actualResponse identity.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse), "Failed to decode response body")
	assert.Equal(t, created.ID, actualResponse.ID, "ID mismatch")
	assert.Equal(t, identity.RoleOwner, actualResponse.Role, "Role mismatch")
	require.NotNil(t, actualResponse.CompanyID)
	assert.Equal(t, companyID, *actualResponse.CompanyID)
	assert.WithinDuration(t, created.CreatedAt, actualResponse.CreatedAt, time.Second, "CreatedAt mismatch")
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleRegister_ValidationError(t *testing.T) {
	tests := []struct {
		name        string
		request     handler.RegisterRequest
		wantDetails map[string]string
	}{
		{
			name:    "bad email and short name",
			request: handler.RegisterRequest{Email: "incorrect-email", FullName: "J", Role: "consumer"},
			wantDetails: map[string]string{
				"email":    "must be a valid email address",
				"fullname": "must be at least 2",
			},
		},
		{
			name:        "owner without company",
			request:     handler.RegisterRequest{Email: "o@example.com", FullName: "Owner", Role: "owner"},
			wantDetails: map[string]string{"companyname": "is required"},
		},
		{
			name:        "unknown role",
			request:     handler.RegisterRequest{Email: "a@example.com", FullName: "Admin", Role: "admin"},
			wantDetails: map[string]string{"role": "must be one of: consumer owner manager sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockIdentityService)
			h := handler.NewUserHandler(mockService)

			jsonBody, err := json.Marshal(tt.request)
			require.NoError(t, err)

			rr := postRegister(h, jsonBody)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var errorResponse handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
			assert.Equal(t, "validation", errorResponse.Code)
			assert.Equal(t, tt.wantDetails, errorResponse.Details)
			mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestUserHandler_handleRegister_EmailExists(t *testing.T) {
	mockService := new(MockIdentityService)
	h := handler.NewUserHandler(mockService)

	mockService.On("Register", mock.Anything, mock.AnythingOfType("identity.RegisterInput")).
		Return(nil, apperr.ErrConflict).
		Once()

	jsonBody, err := json.Marshal(handler.RegisterRequest{Email: "exists@example.com", FullName: "Taken", Role: "consumer"})
	require.NoError(t, err)

	rr := postRegister(h, jsonBody)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Equal(t, "conflict", errorResponse.Code)
	mockService.AssertExpectations(t)
}

func TestUserHandler_handleAssign(t *testing.T) {
	owner := newUser(identity.RoleOwner)
	employeeID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "assigned", wantStatus: http.StatusOK},
		{name: "already in a company", err: apperr.ErrConflict, wantStatus: http.StatusBadRequest},
		{name: "not an owner", err: apperr.ErrForbidden, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockIdentityService)
			h := handler.NewUserHandler(mockService)
			mockService.On("AssignEmployee", mock.Anything, owner, employeeID).Return(tt.err).Once()

			jsonBody, err := json.Marshal(handler.EmployeeRequest{UserID: employeeID})
			require.NoError(t, err)
			rr := serve(h, &owner, httptest.NewRequest(http.MethodPost, "/company/assign", bytes.NewBuffer(jsonBody)))
			assert.Equal(t, tt.wantStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestUserHandler_handleMe(t *testing.T) {
	mockService := new(MockIdentityService)
	h := handler.NewUserHandler(mockService)
	sales := newUser(identity.RoleSales)

	rr := serve(h, &sales, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var me identity.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, sales.ID, me.ID)
	assert.Equal(t, identity.RoleSales, me.Role)
}
