package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/socialx-api/internal/application/registration"
	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestRegistrationStart_Created(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Start", mock.Anything, mock.MatchedBy(func(r domain.RegisterRequest) bool {
		return r.Username == "alice"
	})).Return(&registration.Pending{Ticket: "t1", Username: "alice", Email: "alice@example.com", ExpiresIn: 600}, nil)
	h := NewRegistrationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/registrations", jsonBody(t, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret123", "password_confirm": "secret123",
	}))
	rr := httptest.NewRecorder()
	h.Start(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env PendingEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "t1", env.Ticket)
	assert.Equal(t, 600, env.ExpiresIn)
	assert.False(t, env.DeliveryFailed)
	assert.NotContains(t, rr.Body.String(), "secret123")
}

func TestRegistrationStart_DeliveryFailedIsAccepted(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Start", mock.Anything, mock.Anything).
		Return(&registration.Pending{Ticket: "t1", Email: "alice@example.com", ExpiresIn: 600, DeliveryFailed: true}, nil)
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Start(rr, httptest.NewRequest(http.MethodPost, "/v1/registrations", jsonBody(t, map[string]string{"username": "alice"})))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var env PendingEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.True(t, env.DeliveryFailed)
	assert.Equal(t, msgDeliveryFailed, env.Message)
}

func TestRegistrationStart_UsernameTaken(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Start", mock.Anything, mock.Anything).
		Return(nil, &domain.CodedError{Code: domain.CodeUsernameTaken, Message: "This username is already taken."})
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Start(rr, httptest.NewRequest(http.MethodPost, "/v1/registrations", jsonBody(t, map[string]string{"username": "alice"})))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, domain.CodeUsernameTaken, env.Code)
}

func TestRegistrationStart_BadJSON(t *testing.T) {
	h := NewRegistrationHandler(new(mockRegistrationSvc))

	rr := httptest.NewRecorder()
	h.Start(rr, httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegistrationConfirm_OpensSession(t *testing.T) {
	u := &domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com", EmailVerified: true}
	svc := new(mockRegistrationSvc)
	svc.On("Confirm", mock.Anything, "t1", "123456").Return(&session.LoginResult{
		Bearer:       "bearer",
		RefreshToken: "refresh",
		Session:      &domain.Session{SessionID: "s1", UserID: "u1", User: u},
	}, nil)
	h := NewRegistrationHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/registrations/t1/confirm",
		jsonBody(t, map[string]string{"code": "123456"})), "ticket", "t1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "bearer", env.AccessToken)
	assert.Equal(t, "refresh", env.RefreshToken)
	require.NotNil(t, env.User)
	assert.True(t, env.User.EmailVerified)
}

func TestRegistrationConfirm_ExpiredCode(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Confirm", mock.Anything, "t1", "123456").Return(nil, fmt.Errorf("confirm: %w", domain.ErrCodeExpired))
	h := NewRegistrationHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/registrations/t1/confirm",
		jsonBody(t, map[string]string{"code": "123456"})), "ticket", "t1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), codeExpiredCode)
}

func TestRegistrationConfirm_MissingCode(t *testing.T) {
	svc := new(mockRegistrationSvc)
	h := NewRegistrationHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/registrations/t1/confirm",
		jsonBody(t, map[string]string{})), "ticket", "t1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationStatus_UnknownTicket(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Status", mock.Anything, "gone").Return(nil, registration.ErrNotFound)
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Status(rr, withParams(httptest.NewRequest(http.MethodGet, "/v1/registrations/gone", nil), "ticket", "gone"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRegistrationResend_ReturnsFreshExpiry(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Resend", mock.Anything, "t1").Return(&registration.Pending{Ticket: "t1", Email: "alice@example.com", ExpiresIn: 600}, nil)
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Resend(rr, withParams(httptest.NewRequest(http.MethodPost, "/v1/registrations/t1/resend", nil), "ticket", "t1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"expires_in":600`)
}

func TestRegistrationAbandon(t *testing.T) {
	svc := new(mockRegistrationSvc)
	svc.On("Abandon", mock.Anything, "t1").Return(nil)
	h := NewRegistrationHandler(svc)

	rr := httptest.NewRecorder()
	h.Abandon(rr, withParams(httptest.NewRequest(http.MethodDelete, "/v1/registrations/t1", nil), "ticket", "t1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
