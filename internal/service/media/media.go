// internal/service/media/media.go
package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/domain/media"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ObjectStore interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Bucket pairs a bucket name with the public URL objects are served from.
type Bucket struct {
	Name      string
	PublicURL string
}

type MediaService struct {
	store   ObjectStore
	buckets map[media.Kind]Bucket
	now     func() time.Time
	logger  *zap.Logger
}

// NewMediaService accepts a nil store; every call then fails with ErrNotConfigured.
func NewMediaService(store ObjectStore, buckets map[media.Kind]Bucket, logger *zap.Logger) *MediaService {
	normalized := make(map[media.Kind]Bucket, len(buckets))
	for k, b := range buckets {
		b.PublicURL = strings.TrimRight(b.PublicURL, "/")
		normalized[k] = b
	}
	return &MediaService{
		store:   store,
		buckets: normalized,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *MediaService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

// PresignUpload reserves an object key for kind and returns a signed PUT URL for it.
func (s *MediaService) PresignUpload(ctx context.Context, kind media.Kind, req *media.UploadRequest) (*media.UploadTicket, error) {
	if !kind.Valid() {
		return nil, xerrors.Invalid("unknown upload kind %q", kind)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, xerrors.Invalid("file name is required")
	}
	bucket, ok := s.buckets[kind]
	if s.store == nil || !ok || bucket.Name == "" {
		return nil, fmt.Errorf("%w: object storage for %s", xerrors.ErrNotConfigured, kind)
	}

	key := ObjectKey(req.Name, s.now())
	uploadURL, expiresAt, err := s.store.PresignPut(ctx, bucket.Name, key, req.ContentType, 0)
	if err != nil {
		s.log(ctx).Error("failed to presign upload", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &media.UploadTicket{
		UploadURL: uploadURL,
		FileURL:   bucket.PublicURL + "/" + key,
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

// DeleteByURL removes the object a public file URL points at.
func (s *MediaService) DeleteByURL(ctx context.Context, fileURL string) error {
	if s.store == nil {
		return xerrors.ErrNotConfigured
	}
	bucket, key, ok := s.resolve(fileURL)
	if !ok {
		return xerrors.Invalid("file url %q does not belong to a known bucket", fileURL)
	}
	if err := s.store.Delete(ctx, bucket, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *MediaService) resolve(fileURL string) (bucket, key string, ok bool) {
	for _, b := range s.buckets {
		if b.PublicURL == "" {
			continue
		}
		rest, found := strings.CutPrefix(fileURL, b.PublicURL+"/")
		if found && rest != "" {
			return b.Name, rest, true
		}
	}
	return "", "", false
}

// ObjectKey builds "<name>_<unix ms>_<ulid>" with path separators and spaces replaced.
func ObjectKey(name string, now time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '\t', '\n', '?', '#', '%':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	return clean + "_" + ms + "_" + strings.ToLower(id)
}
