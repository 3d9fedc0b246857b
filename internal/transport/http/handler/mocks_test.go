package handler

import (
	"context"
	"net/http"

	"github.com/socialx-api/internal/application/account"
	"github.com/socialx-api/internal/application/media"
	"github.com/socialx-api/internal/application/notification"
	"github.com/socialx-api/internal/application/post"
	"github.com/socialx-api/internal/application/registration"
	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/domain"
	jwtinfra "github.com/socialx-api/internal/infrastructure/jwt"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/socialx-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) Start(ctx context.Context, req domain.RegisterRequest) (*registration.Pending, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*registration.Pending)
	return p, args.Error(1)
}

func (m *mockRegistrationSvc) Resend(ctx context.Context, ticket string) (*registration.Pending, error) {
	args := m.Called(ctx, ticket)
	p, _ := args.Get(0).(*registration.Pending)
	return p, args.Error(1)
}

func (m *mockRegistrationSvc) Status(ctx context.Context, ticket string) (*registration.Pending, error) {
	args := m.Called(ctx, ticket)
	p, _ := args.Get(0).(*registration.Pending)
	return p, args.Error(1)
}

func (m *mockRegistrationSvc) Confirm(ctx context.Context, ticket, code string) (*session.LoginResult, error) {
	args := m.Called(ctx, ticket, code)
	r, _ := args.Get(0).(*session.LoginResult)
	return r, args.Error(1)
}

func (m *mockRegistrationSvc) Abandon(ctx context.Context, ticket string) error {
	return m.Called(ctx, ticket).Error(0)
}

// mockAccountSvc embeds the interface so tests only implement what they use.
type mockAccountSvc struct {
	account.Service
	mock.Mock
}

func (m *mockAccountSvc) Me(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) Profile(ctx context.Context, username, viewerID string) (*domain.Profile, error) {
	args := m.Called(ctx, username, viewerID)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func (m *mockAccountSvc) SetAvatar(ctx context.Context, userID string, in media.UploadInput) (*domain.User, error) {
	args := m.Called(ctx, userID, in)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) ToggleFollow(ctx context.Context, actorID, username string) (*account.Follow, error) {
	args := m.Called(ctx, actorID, username)
	f, _ := args.Get(0).(*account.Follow)
	return f, args.Error(1)
}

func (m *mockAccountSvc) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockAccountSvc) RequestEmailChange(ctx context.Context, userID, newEmail string) (*account.EmailChange, error) {
	args := m.Called(ctx, userID, newEmail)
	c, _ := args.Get(0).(*account.EmailChange)
	return c, args.Error(1)
}

func (m *mockAccountSvc) ConfirmEmailChange(ctx context.Context, userID, code string) (*domain.User, error) {
	args := m.Called(ctx, userID, code)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) EmailChangeStatus(ctx context.Context, userID string) (*account.EmailChange, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*account.EmailChange)
	return c, args.Error(1)
}

func (m *mockAccountSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockPostSvc struct {
	post.Service
	mock.Mock
}

func (m *mockPostSvc) Create(ctx context.Context, authorID string, in post.CreateInput) (*domain.Post, error) {
	args := m.Called(ctx, authorID, in)
	p, _ := args.Get(0).(*domain.Post)
	return p, args.Error(1)
}

func (m *mockPostSvc) Feed(ctx context.Context, viewerID string) ([]domain.Post, error) {
	args := m.Called(ctx, viewerID)
	p, _ := args.Get(0).([]domain.Post)
	return p, args.Error(1)
}

func (m *mockPostSvc) Delete(ctx context.Context, postID, actorID string) error {
	return m.Called(ctx, postID, actorID).Error(0)
}

func (m *mockPostSvc) ToggleLike(ctx context.Context, postID, actorID string) (*post.Toggle, error) {
	args := m.Called(ctx, postID, actorID)
	t, _ := args.Get(0).(*post.Toggle)
	return t, args.Error(1)
}

func (m *mockPostSvc) OpenMedia(ctx context.Context, postID, viewerID string) (*s3infra.Object, error) {
	args := m.Called(ctx, postID, viewerID)
	o, _ := args.Get(0).(*s3infra.Object)
	return o, args.Error(1)
}

func (m *mockPostSvc) Search(ctx context.Context, q, viewerID string) (*domain.SearchResult, error) {
	args := m.Called(ctx, q, viewerID)
	r, _ := args.Get(0).(*domain.SearchResult)
	return r, args.Error(1)
}

type mockNotificationSvc struct {
	notification.Service
	mock.Mock
}

func (m *mockNotificationSvc) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}

func (m *mockNotificationSvc) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

// --- helpers ---

// asUser attaches the claims the auth middleware would have injected.
func asUser(r *http.Request, userID string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Username: userID, Role: domain.RoleUser, SessionID: "sess-" + userID}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

// withParams routes r through chi with the given URL parameters set.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
