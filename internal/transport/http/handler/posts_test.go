package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/socialx-api/internal/application/post"
	"github.com/socialx-api/internal/domain"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFeed_EmptyIsArray(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Feed", mock.Anything, "u1").Return(nil, nil)
	h := NewPostHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Feed(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/posts", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCreatePost_JSON(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Create", mock.Anything, "u1", post.CreateInput{Text: "hello"}).
		Return(&domain.Post{PostID: "p1", AuthorID: "u1", Text: "hello"}, nil)
	h := NewPostHandler(svc, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", jsonBody(t, map[string]string{"text": "hello"}))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Create(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var p domain.Post
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "p1", p.PostID)
}

func TestCreatePost_MultipartWithMedia(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Create", mock.Anything, "u1", mock.MatchedBy(func(in post.CreateInput) bool {
		return in.Text == "look" && in.Media != nil && in.Media.Filename == "cat.jpg" && in.Media.ContentType == "image/jpeg"
	})).Return(&domain.Post{PostID: "p1", Text: "look", Media: &domain.Media{Kind: domain.MediaKindImage}}, nil)
	h := NewPostHandler(svc, 1<<20)

	body, ct := multipartFile(t, "media", "cat.jpg", "image/jpeg", []byte("jpeg"), map[string]string{"text": "look"})
	req := httptest.NewRequest(http.MethodPost, "/v1/posts", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.Create(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestCreatePost_TooLong(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Create", mock.Anything, "u1", mock.Anything).Return(nil, domain.ErrBadRequest)
	h := NewPostHandler(svc, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", jsonBody(t, map[string]string{"text": strings.Repeat("x", 300)}))
	rr := httptest.NewRecorder()
	h.Create(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeletePost_NotAuthor(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Delete", mock.Anything, "p1", "u2").Return(domain.ErrForbidden)
	h := NewPostHandler(svc, 1<<20)

	req := withParams(httptest.NewRequest(http.MethodDelete, "/v1/posts/p1", nil), "id", "p1")
	rr := httptest.NewRecorder()
	h.Delete(rr, asUser(req, "u2"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestToggleLike(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("ToggleLike", mock.Anything, "p1", "u1").Return(&post.Toggle{Active: true, Count: 4}, nil)
	h := NewPostHandler(svc, 1<<20)

	req := withParams(httptest.NewRequest(http.MethodPost, "/v1/posts/p1/like", nil), "id", "p1")
	rr := httptest.NewRecorder()
	h.ToggleLike(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"active":true,"count":4}`, rr.Body.String())
}

func TestPostMedia_Streams(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("OpenMedia", mock.Anything, "p1", "u1").Return(&s3infra.Object{
		Body:        io.NopCloser(strings.NewReader("video-bytes")),
		ContentType: "video/mp4",
		Size:        11,
	}, nil)
	h := NewPostHandler(svc, 1<<20)

	req := withParams(httptest.NewRequest(http.MethodGet, "/v1/posts/p1/media", nil), "id", "p1")
	rr := httptest.NewRecorder()
	h.Media(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "video/mp4", rr.Header().Get("Content-Type"))
	assert.Equal(t, "11", rr.Header().Get("Content-Length"))
	assert.Equal(t, "video-bytes", rr.Body.String())
}

func TestPostMedia_PrivateAuthor(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("OpenMedia", mock.Anything, "p1", "u2").Return(nil, domain.ErrForbidden)
	h := NewPostHandler(svc, 1<<20)

	req := withParams(httptest.NewRequest(http.MethodGet, "/v1/posts/p1/media", nil), "id", "p1")
	rr := httptest.NewRecorder()
	h.Media(rr, asUser(req, "u2"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSearch_HidesEmails(t *testing.T) {
	svc := new(mockPostSvc)
	svc.On("Search", mock.Anything, "ali", "u1").Return(&domain.SearchResult{
		Query: "ali",
		Users: []domain.User{{UserID: "u3", Username: "alice", Email: "alice@example.com"}},
	}, nil)
	h := NewPostHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Search(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/search?q=ali", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "alice@example.com")
	var env SearchEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.Len(t, env.Users, 1)
	assert.Equal(t, "alice", env.Users[0].Username)
	assert.NotNil(t, env.Posts)
}
