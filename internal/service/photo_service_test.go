package service

import (
	"context"
	"errors"
	"testing"

	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSigner struct {
	err  error
	keys []string
}

func (s *stubSigner) SignedURL(ctx context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://bucket.test/" + key + "?X-Amz-Signature=abc", nil
}

func photoRepoFixture() *memPhotoRepo {
	return &memPhotoRepo{photos: map[string]*models.Photo{
		"p1": {ID: "p1", BlobKey: "events/ev-1/p1.webp", PhotographerName: "Jane Doe"},
		"p2": {ID: "p2", BlobKey: "https://cdn.test/p2.webp", PhotographerName: "Sam Roe"},
	}}
}

func TestResolvePhotosKeepsOrderAndDropsMissing(t *testing.T) {
	cfg := config.Config{PhotoBaseURL: "http://photos.test/", JPEGQuality: 85}
	svc := NewPhotoService(cfg, photoRepoFixture(), nil)

	got, err := svc.Resolve(context.Background(), []string{"p2", "missing", "p1"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "p2", got[0].Photo.ID)
	assert.Equal(t, "https://cdn.test/p2.webp", got[0].URL)
	assert.Equal(t, "http://photos.test/photos/p2/jpeg?quality=85", got[0].JPEGURL)

	assert.Equal(t, "p1", got[1].Photo.ID)
	assert.Equal(t, "http://photos.test/events/ev-1/p1.webp", got[1].URL)
}

func TestResolvePhotosUsesSignerForKeys(t *testing.T) {
	signer := &stubSigner{}
	svc := NewPhotoService(config.Config{PhotoBaseURL: "http://photos.test", JPEGQuality: 90}, photoRepoFixture(), signer)

	got, err := svc.Resolve(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "https://bucket.test/events/ev-1/p1.webp?X-Amz-Signature=abc", got[0].URL)
	assert.Equal(t, "https://cdn.test/p2.webp", got[1].URL)
	assert.Equal(t, []string{"events/ev-1/p1.webp"}, signer.keys)
}

func TestResolvePhotosSignerFailure(t *testing.T) {
	svc := NewPhotoService(config.Config{}, photoRepoFixture(), &stubSigner{err: errors.New("bucket unavailable")})

	_, err := svc.Resolve(context.Background(), []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}
