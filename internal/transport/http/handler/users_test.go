package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/socialx-api/internal/application/account"
	"github.com/socialx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfile_HidesEmail(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("Profile", mock.Anything, "bob", "u1").Return(&domain.Profile{
		User:          &domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com", Bio: "hi"},
		Posts:         []domain.Post{{PostID: "p1", AuthorID: "u2", Text: "hello"}},
		FollowerCount: 3,
		IsFollowing:   true,
	}, nil)
	h := NewUserHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodGet, "/v1/users/bob", nil), "username", "bob")
	rr := httptest.NewRecorder()
	h.Profile(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "bob@example.com")
	var env ProfileEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "bob", env.User.Username)
	assert.Equal(t, 3, env.FollowerCount)
	assert.True(t, env.IsFollowing)
	assert.Len(t, env.Posts, 1)
}

func TestProfile_UnknownUser(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("Profile", mock.Anything, "ghost", "u1").Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodGet, "/v1/users/ghost", nil), "username", "ghost")
	rr := httptest.NewRecorder()
	h.Profile(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestToggleFollow(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("ToggleFollow", mock.Anything, "u1", "bob").Return(&account.Follow{Following: true, FollowerCount: 1}, nil)
	h := NewUserHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/users/bob/follow", nil), "username", "bob")
	rr := httptest.NewRecorder()
	h.ToggleFollow(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"following":true,"follower_count":1}`, rr.Body.String())
}

func TestToggleFollow_Self(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("ToggleFollow", mock.Anything, "u1", "alice").Return(nil, domain.ErrBadRequest)
	h := NewUserHandler(svc)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/users/alice/follow", nil), "username", "alice")
	rr := httptest.NewRecorder()
	h.ToggleFollow(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminDeleteUser(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("Delete", mock.Anything, "u2").Return(nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.Delete(rr, withParams(httptest.NewRequest(http.MethodDelete, "/v1/users/u2", nil), "id", "u2"))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
