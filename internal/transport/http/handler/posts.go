package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/socialx-api/internal/application/post"
	"github.com/socialx-api/internal/domain"
)

// PostHandler handles posts, their likes, saves, comments and media.
type PostHandler struct {
	svc       post.Service
	maxUpload int64
}

func NewPostHandler(svc post.Service, maxUpload int64) *PostHandler {
	return &PostHandler{svc: svc, maxUpload: maxUpload}
}

type postRequest struct {
	Text        string `json:"text"`
	RemoveMedia bool   `json:"remove_media"`
}

// readPost accepts either JSON or a multipart form with "text" and an
// optional "media" file.
func (h *PostHandler) readPost(w http.ResponseWriter, r *http.Request) (post.UpdateInput, io.Closer, error) {
	if !isMultipart(r) {
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			return post.UpdateInput{}, nil, err
		}
		return post.UpdateInput{Text: req.Text, RemoveMedia: req.RemoveMedia}, nil, nil
	}
	limitBody(w, r, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return post.UpdateInput{}, nil, err
	}
	in, closer, err := formFile(r, "media")
	if err != nil {
		return post.UpdateInput{}, nil, err
	}
	remove, _ := strconv.ParseBool(r.FormValue("remove_media"))
	return post.UpdateInput{Text: r.FormValue("text"), Media: in, RemoveMedia: remove}, closer, nil
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	posts, err := h.svc.Feed(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilPosts(posts))
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	in, closer, err := h.readPost(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer closeQuietly(closer)

	p, err := h.svc.Create(r.Context(), uid, post.CreateInput{Text: in.Text, Media: in.Media})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	in, closer, err := h.readPost(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer closeQuietly(closer)

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), uid, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "post deleted"})
}

// Media streams the post attachment from object storage.
func (h *PostHandler) Media(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	obj, err := h.svc.OpenMedia(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("media stream interrupted", "post_id", chi.URLParam(r, "id"), "err", err)
	}
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.ToggleLike(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *PostHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.ToggleSave(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if cs == nil {
		cs = []domain.Comment{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), uid, req.Text)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *PostHandler) Saved(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	posts, err := h.svc.Saved(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilPosts(posts))
}

func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	env := SearchEnvelope{Query: res.Query, Users: []PublicUser{}, Posts: nonNilPosts(res.Posts)}
	for i := range res.Users {
		env.Users = append(env.Users, *toPublicUser(&res.Users[i]))
	}
	writeJSON(w, http.StatusOK, env)
}

func nonNilPosts(posts []domain.Post) []domain.Post {
	if posts == nil {
		return []domain.Post{}
	}
	return posts
}
