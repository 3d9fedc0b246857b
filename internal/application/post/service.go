package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/socialx-api/internal/application/media"
	"github.com/socialx-api/internal/application/notification"
	"github.com/socialx-api/internal/domain"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/socialx-api/internal/pkg/id"
)

const (
	FeedLimit        = 50
	SearchUserLimit  = 10
	SearchPostsLimit = 20
)

type PostStore interface {
	Put(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Delete(ctx context.Context, postID string) error
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error)
	Feed(ctx context.Context, limit int) ([]domain.Post, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Post, error)
	AddLikes(ctx context.Context, postID string, delta int) error
	AddComments(ctx context.Context, postID string, delta int) error
	UpdateContent(ctx context.Context, postID, text string, m *domain.Media) error
}

type CommentStore interface {
	Put(ctx context.Context, c *domain.Comment) error
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	DeleteByPost(ctx context.Context, postID string) error
}

type EdgeStore interface {
	Put(ctx context.Context, e *domain.Edge) error
	Delete(ctx context.Context, kind, actorID, target string) error
	Exists(ctx context.Context, kind, actorID, target string) (bool, error)
	ListFrom(ctx context.Context, kind, actorID string) ([]domain.Edge, error)
	ListTo(ctx context.Context, kind, target string) ([]domain.Edge, error)
	DeleteAll(ctx context.Context, edges []domain.Edge) error
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
}

type NotificationStore interface {
	ListByPost(ctx context.Context, postID string) ([]domain.Notification, error)
	DeleteAll(ctx context.Context, ns []domain.Notification) error
}

type CreateInput struct {
	Text  string
	Media *media.UploadInput
}

type UpdateInput struct {
	Text        string
	Media       *media.UploadInput
	RemoveMedia bool
}

// Toggle reports the state of a like or save after it was flipped.
type Toggle struct {
	Active bool `json:"active"`
	Count  int  `json:"count,omitempty"`
}

type Service interface {
	Create(ctx context.Context, authorID string, in CreateInput) (*domain.Post, error)
	Update(ctx context.Context, postID, actorID string, in UpdateInput) (*domain.Post, error)
	Delete(ctx context.Context, postID, actorID string) error
	Get(ctx context.Context, postID, viewerID string) (*domain.Post, error)
	Feed(ctx context.Context, viewerID string) ([]domain.Post, error)
	ListByAuthor(ctx context.Context, authorID, viewerID string) ([]domain.Post, error)
	ToggleLike(ctx context.Context, postID, actorID string) (*Toggle, error)
	ToggleSave(ctx context.Context, postID, actorID string) (*Toggle, error)
	Saved(ctx context.Context, actorID string) ([]domain.Post, error)
	AddComment(ctx context.Context, postID, actorID, text string) (*domain.Comment, error)
	Comments(ctx context.Context, postID string) ([]domain.Comment, error)
	OpenMedia(ctx context.Context, postID, viewerID string) (*s3infra.Object, error)
	Search(ctx context.Context, q, viewerID string) (*domain.SearchResult, error)
	// DeleteAllByAuthor removes every post of the author with its dependants.
	DeleteAllByAuthor(ctx context.Context, authorID string) error
}

type ServiceDeps struct {
	Posts         PostStore
	Comments      CommentStore
	Edges         EdgeStore
	Users         UserStore
	Notifications NotificationStore
	Notifier      notification.Service
	Media         media.Service
}

type service struct {
	posts         PostStore
	comments      CommentStore
	edges         EdgeStore
	users         UserStore
	notifications NotificationStore
	notifier      notification.Service
	media         media.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{
		posts:         deps.Posts,
		comments:      deps.Comments,
		edges:         deps.Edges,
		users:         deps.Users,
		notifications: deps.Notifications,
		notifier:      deps.Notifier,
		media:         deps.Media,
	}
}

func (s *service) Create(ctx context.Context, authorID string, in CreateInput) (*domain.Post, error) {
	text := strings.TrimSpace(in.Text)
	if err := checkText(text, in.Media != nil); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Post{
		PostID:    id.New(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Media != nil {
		m, err := s.upload(ctx, authorID, in.Media)
		if err != nil {
			return nil, err
		}
		p.Media = m
	}
	if err := s.posts.Put(ctx, p); err != nil {
		if p.Media != nil {
			s.dropMedia(ctx, p.Media.Key)
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, postID, actorID string, in UpdateInput) (*domain.Post, error) {
	p, err := s.owned(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	old := p.Media
	next := old
	switch {
	case in.Media != nil:
		m, err := s.upload(ctx, actorID, in.Media)
		if err != nil {
			return nil, err
		}
		next = m
	case in.RemoveMedia:
		next = nil
	}
	err = checkText(text, next != nil)
	if err == nil {
		err = s.posts.UpdateContent(ctx, postID, text, next)
	}
	if err != nil {
		if in.Media != nil {
			s.dropMedia(ctx, next.Key)
		}
		return nil, err
	}
	if old != nil && next != old {
		s.dropMedia(ctx, old.Key)
	}
	p.Text = text
	p.Media = next
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

func (s *service) Delete(ctx context.Context, postID, actorID string) error {
	p, err := s.owned(ctx, postID, actorID)
	if err != nil {
		return err
	}
	return s.purge(ctx, p)
}

func (s *service) DeleteAllByAuthor(ctx context.Context, authorID string) error {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return err
	}
	for i := range posts {
		if err := s.purge(ctx, &posts[i]); err != nil {
			return err
		}
	}
	return nil
}

// purge deletes a post after its comments, likes, saves and notifications.
func (s *service) purge(ctx context.Context, p *domain.Post) error {
	if err := s.comments.DeleteByPost(ctx, p.PostID); err != nil {
		return fmt.Errorf("delete comments of %s: %w", p.PostID, err)
	}
	for _, kind := range []string{domain.EdgeLike, domain.EdgeSave} {
		edges, err := s.edges.ListTo(ctx, kind, p.PostID)
		if err != nil {
			return err
		}
		if err := s.edges.DeleteAll(ctx, edges); err != nil {
			return err
		}
	}
	ns, err := s.notifications.ListByPost(ctx, p.PostID)
	if err != nil {
		return err
	}
	if err := s.notifications.DeleteAll(ctx, ns); err != nil {
		return err
	}
	if p.Media != nil {
		s.dropMedia(ctx, p.Media.Key)
	}
	return s.posts.Delete(ctx, p.PostID)
}

func (s *service) Get(ctx context.Context, postID, viewerID string) (*domain.Post, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	posts := []domain.Post{*p}
	if err := s.decorate(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *service) Feed(ctx context.Context, viewerID string) ([]domain.Post, error) {
	posts, err := s.posts.Feed(ctx, FeedLimit)
	if err != nil {
		return nil, err
	}
	return posts, s.decorate(ctx, viewerID, posts)
}

func (s *service) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]domain.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return posts, s.decorate(ctx, viewerID, posts)
}

func (s *service) ToggleLike(ctx context.Context, postID, actorID string) (*Toggle, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	active, changed, err := s.toggle(ctx, domain.EdgeLike, actorID, postID)
	if err != nil {
		return nil, err
	}
	count := p.LikeCount
	if !changed {
		// A concurrent request already made the same flip and owns the
		// counter update and the notification.
		return &Toggle{Active: active, Count: count}, nil
	}
	delta := -1
	if active {
		delta = 1
	}
	if err := s.posts.AddLikes(ctx, postID, delta); err != nil {
		return nil, err
	}
	if active {
		s.notify(ctx, notification.Event{
			RecipientID: p.AuthorID,
			SenderID:    actorID,
			Type:        domain.NotificationLike,
			PostID:      &p.PostID,
		})
	}
	count += delta
	if count < 0 {
		count = 0
	}
	return &Toggle{Active: active, Count: count}, nil
}

func (s *service) ToggleSave(ctx context.Context, postID, actorID string) (*Toggle, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	active, _, err := s.toggle(ctx, domain.EdgeSave, actorID, postID)
	if err != nil {
		return nil, err
	}
	return &Toggle{Active: active}, nil
}

// toggle flips an edge and reports whether it exists afterwards. changed is
// false when a concurrent request got there first: the edge is already in
// the wanted state and this call must not repeat the side effects.
func (s *service) toggle(ctx context.Context, kind, actorID, target string) (active, changed bool, err error) {
	exists, err := s.edges.Exists(ctx, kind, actorID, target)
	if err != nil {
		return false, false, err
	}
	if exists {
		err := s.edges.Delete(ctx, kind, actorID, target)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return false, false, nil
		case err != nil:
			return false, false, err
		}
		return false, true, nil
	}
	err = s.edges.Put(ctx, &domain.Edge{
		Source:    domain.EdgeSource(kind, actorID),
		Target:    target,
		Kind:      kind,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		return true, false, nil
	case err != nil:
		return false, false, err
	}
	return true, true, nil
}

func (s *service) Saved(ctx context.Context, actorID string) ([]domain.Post, error) {
	edges, err := s.edges.ListFrom(ctx, domain.EdgeSave, actorID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].CreatedAt.After(edges[j].CreatedAt) })
	posts := make([]domain.Post, 0, len(edges))
	for _, e := range edges {
		p, err := s.posts.Get(ctx, e.Target)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, s.decorate(ctx, actorID, posts)
}

func (s *service) AddComment(ctx context.Context, postID, actorID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("comment text is required: %w", domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(text) > domain.MaxCommentTextLength {
		return nil, fmt.Errorf("comment exceeds %d characters: %w", domain.MaxCommentTextLength, domain.ErrBadRequest)
	}
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{
		CommentID: id.New(),
		PostID:    postID,
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Put(ctx, c); err != nil {
		return nil, err
	}
	if err := s.posts.AddComments(ctx, postID, 1); err != nil {
		return nil, err
	}
	s.notify(ctx, notification.Event{
		RecipientID: p.AuthorID,
		SenderID:    actorID,
		Type:        domain.NotificationComment,
		PostID:      &c.PostID,
		CommentID:   &c.CommentID,
	})
	return c, nil
}

func (s *service) Comments(ctx context.Context, postID string) ([]domain.Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// OpenMedia streams a post's attachment. Media of private accounts is only
// served to its author.
func (s *service) OpenMedia(ctx context.Context, postID, viewerID string) (*s3infra.Object, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Media == nil {
		return nil, fmt.Errorf("post has no media: %w", domain.ErrNotFound)
	}
	if p.AuthorID != viewerID {
		author, err := s.users.Get(ctx, p.AuthorID)
		if err != nil {
			return nil, err
		}
		if author.IsPrivate {
			return nil, fmt.Errorf("media is private: %w", domain.ErrForbidden)
		}
	}
	return s.media.Open(ctx, p.Media.Key)
}

func (s *service) Search(ctx context.Context, q, viewerID string) (*domain.SearchResult, error) {
	q = strings.TrimSpace(q)
	res := &domain.SearchResult{Query: q, Users: []domain.User{}, Posts: []domain.Post{}}
	if q == "" {
		return res, nil
	}
	users, err := s.users.Search(ctx, q, SearchUserLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, q, SearchPostsLimit)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	if users != nil {
		res.Users = users
	}
	if posts != nil {
		res.Posts = posts
	}
	return res, nil
}

// decorate fills the viewer's like and save flags.
func (s *service) decorate(ctx context.Context, viewerID string, posts []domain.Post) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	liked, err := s.targets(ctx, domain.EdgeLike, viewerID)
	if err != nil {
		return err
	}
	saved, err := s.targets(ctx, domain.EdgeSave, viewerID)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].LikedByViewer = liked[posts[i].PostID]
		posts[i].SavedByViewer = saved[posts[i].PostID]
	}
	return nil
}

func (s *service) targets(ctx context.Context, kind, actorID string) (map[string]bool, error) {
	edges, err := s.edges.ListFrom(ctx, kind, actorID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(edges))
	for _, e := range edges {
		set[e.Target] = true
	}
	return set, nil
}

func (s *service) owned(ctx context.Context, postID, actorID string) (*domain.Post, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != actorID {
		return nil, fmt.Errorf("not the author of this post: %w", domain.ErrForbidden)
	}
	return p, nil
}

func (s *service) upload(ctx context.Context, ownerID string, in *media.UploadInput) (*domain.Media, error) {
	up := *in
	up.OwnerID = ownerID
	up.Prefix = media.PrefixPosts
	return s.media.Upload(ctx, up)
}

func (s *service) dropMedia(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		slog.Warn("could not delete media object", "key", key, "err", err)
	}
}

func (s *service) notify(ctx context.Context, ev notification.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		slog.Warn("could not create notification", "type", ev.Type, "recipient_id", ev.RecipientID, "err", err)
	}
}

func checkText(text string, hasMedia bool) error {
	if text == "" && !hasMedia {
		return fmt.Errorf("a post needs text or media: %w", domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(text) > domain.MaxPostTextLength {
		return fmt.Errorf("post exceeds %d characters: %w", domain.MaxPostTextLength, domain.ErrBadRequest)
	}
	return nil
}
