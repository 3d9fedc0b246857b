package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/socialx-api/internal/domain"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/socialx-api/internal/pkg/id"
)

// Key prefixes inside the bucket.
const (
	PrefixPosts   = "posts"
	PrefixAvatars = "avatars"
)

const avatarURLTTL = 15 * time.Minute

type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string, size int64) error
	Download(ctx context.Context, key string) (*s3infra.Object, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	OwnerID     string
	Prefix      string
	// ImagesOnly rejects video uploads, as for avatars.
	ImagesOnly bool
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Media, error)
	Open(ctx context.Context, key string) (*s3infra.Object, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type ServiceDeps struct {
	Objects  ObjectStore
	MaxBytes int64
}

type service struct {
	objects  ObjectStore
	maxBytes int64
}

func NewService(deps ServiceDeps) Service {
	return &service{objects: deps.Objects, maxBytes: deps.MaxBytes}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.Media, error) {
	safeName := sanitizeFilename(in.Filename)
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(path.Ext(safeName))
	}
	kind, err := kindOf(contentType)
	if err != nil {
		return nil, err
	}
	if in.ImagesOnly && kind != domain.MediaKindImage {
		return nil, fmt.Errorf("only images are accepted: %w", domain.ErrBadRequest)
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", s.maxBytes, domain.ErrBadRequest)
	}

	key := fmt.Sprintf("%s/%s/%s-%s", in.Prefix, in.OwnerID, id.New(), safeName)
	hasher := sha256.New()
	tee := io.TeeReader(in.Reader, hasher)
	if err := s.objects.Upload(ctx, key, tee, contentType, in.Size); err != nil {
		return nil, err
	}
	return &domain.Media{
		Key:         key,
		Kind:        kind,
		ContentType: contentType,
		Size:        in.Size,
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *service) Open(ctx context.Context, key string) (*s3infra.Object, error) {
	return s.objects.Download(ctx, key)
}

func (s *service) URL(ctx context.Context, key string) (string, error) {
	return s.objects.PresignedURL(ctx, key, avatarURLTTL)
}

func (s *service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.objects.Delete(ctx, key)
}

func kindOf(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("unrecognised content type %q: %w", contentType, domain.ErrBadRequest)
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return domain.MediaKindImage, nil
	case strings.HasPrefix(mt, "video/"):
		return domain.MediaKindVideo, nil
	default:
		return "", fmt.Errorf("only image or video files are accepted: %w", domain.ErrBadRequest)
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
