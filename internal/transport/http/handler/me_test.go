package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/socialx-api/internal/application/account"
	"github.com/socialx-api/internal/application/media"
	"github.com/socialx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMe_RequiresClaims(t *testing.T) {
	h := NewMeHandler(new(mockAccountSvc), 1<<20)

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_ShowsOwnEmail(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("Me", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"}, nil)
	h := NewMeHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Get(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/me", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "alice@example.com")
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestRequestEmailChange_Sent(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("RequestEmailChange", mock.Anything, "u1", "new@example.com").
		Return(&account.EmailChange{Email: "new@example.com", ExpiresIn: 600}, nil)
	h := NewMeHandler(svc, 1<<20)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/me/email-change",
		jsonBody(t, map[string]string{"email": "new@example.com"})), "u1")
	rr := httptest.NewRecorder()
	h.RequestEmailChange(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env PendingEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "new@example.com", env.Email)
	assert.Equal(t, 600, env.ExpiresIn)
}

func TestRequestEmailChange_DeliveryFailed(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("RequestEmailChange", mock.Anything, "u1", "new@example.com").
		Return(&account.EmailChange{Email: "new@example.com", ExpiresIn: 600, DeliveryFailed: true}, nil)
	h := NewMeHandler(svc, 1<<20)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/me/email-change",
		jsonBody(t, map[string]string{"email": "new@example.com"})), "u1")
	rr := httptest.NewRecorder()
	h.RequestEmailChange(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestRequestEmailChange_EmailTaken(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("RequestEmailChange", mock.Anything, "u1", "bob@example.com").
		Return(nil, &domain.CodedError{Code: domain.CodeEmailTaken, Message: "taken"})
	h := NewMeHandler(svc, 1<<20)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/me/email-change",
		jsonBody(t, map[string]string{"email": "bob@example.com"})), "u1")
	rr := httptest.NewRecorder()
	h.RequestEmailChange(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), domain.CodeEmailTaken)
}

func TestConfirmEmailChange_WrongCode(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("ConfirmEmailChange", mock.Anything, "u1", "000000").Return(nil, fmt.Errorf("confirm: %w", domain.ErrCodeNotFound))
	h := NewMeHandler(svc, 1<<20)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/me/email-change/confirm",
		jsonBody(t, map[string]string{"code": "000000"})), "u1")
	rr := httptest.NewRecorder()
	h.ConfirmEmailChange(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), codeInvalidCode)
}

func TestConfirmEmailChange_Applied(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("ConfirmEmailChange", mock.Anything, "u1", "123456").
		Return(&domain.User{UserID: "u1", Email: "new@example.com", EmailVerified: true}, nil)
	h := NewMeHandler(svc, 1<<20)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/me/email-change/confirm",
		jsonBody(t, map[string]string{"code": "123456"})), "u1")
	rr := httptest.NewRecorder()
	h.ConfirmEmailChange(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "new@example.com")
}

func TestEmailChangeStatus_NothingPending(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("EmailChangeStatus", mock.Anything, "u1").Return(nil, account.ErrNoEmailChange)
	h := NewMeHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.EmailChangeStatus(rr, asUser(httptest.NewRequest(http.MethodGet, "/v1/me/email-change", nil), "u1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc := new(mockAccountSvc)
	req := domain.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newsecret1"}
	svc.On("ChangePassword", mock.Anything, "u1", req).Return(fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized))
	h := NewMeHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.ChangePassword(rr, asUser(httptest.NewRequest(http.MethodPut, "/v1/me/password", jsonBody(t, req)), "u1"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDeleteMe(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("Delete", mock.Anything, "u1").Return(nil)
	h := NewMeHandler(svc, 1<<20)

	rr := httptest.NewRecorder()
	h.Delete(rr, asUser(httptest.NewRequest(http.MethodDelete, "/v1/me", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func multipartFile(t *testing.T, field, filename, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if field != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSetAvatar_PassesFileToService(t *testing.T) {
	svc := new(mockAccountSvc)
	svc.On("SetAvatar", mock.Anything, "u1", mock.MatchedBy(func(in media.UploadInput) bool {
		b, err := io.ReadAll(in.Reader)
		return err == nil && string(b) == "png-bytes" && in.Filename == "me.png" &&
			in.ContentType == "image/png" && in.Size == int64(len("png-bytes"))
	})).Return(&domain.User{UserID: "u1", AvatarURL: "https://signed"}, nil)
	h := NewMeHandler(svc, 1<<20)

	body, ct := multipartFile(t, "avatar", "me.png", "image/png", []byte("png-bytes"), nil)
	req := httptest.NewRequest(http.MethodPut, "/v1/me/avatar", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.SetAvatar(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "https://signed")
}

func TestSetAvatar_MissingFile(t *testing.T) {
	svc := new(mockAccountSvc)
	h := NewMeHandler(svc, 1<<20)

	body, ct := multipartFile(t, "", "", "", nil, map[string]string{"x": "y"})
	req := httptest.NewRequest(http.MethodPut, "/v1/me/avatar", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.SetAvatar(rr, asUser(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "SetAvatar", mock.Anything, mock.Anything, mock.Anything)
}
