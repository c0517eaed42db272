package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/leaftown/property-api/internal/domain"
	"github.com/leaftown/property-api/internal/pkg/id"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	SellerID    string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.ListingImage, error)
	Download(ctx context.Context, imageID string) (io.ReadCloser, *domain.ListingImage, error)
	Delete(ctx context.Context, imageID, sellerID string) error
	ImageURL(ctx context.Context, imageID string) (string, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type imageStore interface {
	Put(ctx context.Context, img *domain.ListingImage) error
	Get(ctx context.Context, imageID string) (*domain.ListingImage, error)
}

type service struct {
	objects objectStore
	images  imageStore
}

func NewService(objects objectStore, images imageStore) Service {
	return &service{objects: objects, images: images}
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

const presignTTL = 15 * time.Minute

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.ListingImage, error) {
	if !allowedContentTypes[input.ContentType] {
		return nil, fmt.Errorf("content type %q not allowed: %w", input.ContentType, domain.ErrValidation)
	}
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("listings/%s/%s_%s", input.SellerID, id.New(), safeName)
	if _, err := s.objects.Upload(ctx, key, input.Reader, input.ContentType); err != nil {
		return nil, err
	}
	img := &domain.ListingImage{
		ImageID:     id.New(),
		SellerID:    input.SellerID,
		Object:      key,
		Name:        safeName,
		ContentType: input.ContentType,
		Size:        input.Size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.images.Put(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) Download(ctx context.Context, imageID string) (io.ReadCloser, *domain.ListingImage, error) {
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, img.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, img, nil
}

func (s *service) Delete(ctx context.Context, imageID, sellerID string) error {
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if img.SellerID != sellerID {
		return fmt.Errorf("image belongs to another seller: %w", domain.ErrForbidden)
	}
	return s.objects.Delete(ctx, img.Object)
}

// ImageURL returns a time-limited presigned URL for the image object.
func (s *service) ImageURL(ctx context.Context, imageID string) (string, error) {
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, img.Object, presignTTL)
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
