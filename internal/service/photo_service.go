package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/repository"
)

// BlobURLSigner turns a stored blob key into a URL providers can fetch.
type BlobURLSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

type ResolvedPhoto struct {
	Photo   *models.Photo
	URL     string
	JPEGURL string
}

type PhotoResolver interface {
	Resolve(ctx context.Context, photoIDs []string) ([]*ResolvedPhoto, error)
}

type photoService struct {
	cfg    config.Config
	photos repository.PhotoRepository
	signer BlobURLSigner
}

func NewPhotoService(cfg config.Config, photos repository.PhotoRepository, signer BlobURLSigner) PhotoResolver {
	return &photoService{
		cfg:    cfg,
		photos: photos,
		signer: signer,
	}
}

// Resolve keeps the request order. Ids that match no photo are dropped.
func (s *photoService) Resolve(ctx context.Context, photoIDs []string) ([]*ResolvedPhoto, error) {
	resolved := make([]*ResolvedPhoto, 0, len(photoIDs))

	for _, id := range photoIDs {
		photo, err := s.photos.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load photo %s: %w", id, err)
		}
		if photo == nil {
			slog.Info("photo not found, skipping", "photo_id", id)
			continue
		}

		blobURL, err := s.blobURL(ctx, photo.BlobKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign photo %s: %w", id, err)
		}

		resolved = append(resolved, &ResolvedPhoto{
			Photo:   photo,
			URL:     blobURL,
			JPEGURL: s.jpegURL(id),
		})
	}

	return resolved, nil
}

func (s *photoService) blobURL(ctx context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}
	if s.signer == nil {
		return strings.TrimRight(s.cfg.PhotoBaseURL, "/") + "/" + strings.TrimLeft(key, "/"), nil
	}
	return s.signer.SignedURL(ctx, key)
}

func (s *photoService) jpegURL(photoID string) string {
	return fmt.Sprintf("%s/photos/%s/jpeg?quality=%d",
		strings.TrimRight(s.cfg.PhotoBaseURL, "/"), url.PathEscape(photoID), s.cfg.JPEGQuality)
}

type r2Signer struct {
	cfg     config.Config
	presign *s3.PresignClient
}

// NewR2Signer presigns GET requests against the photo bucket.
func NewR2Signer(ctx context.Context, cfg config.Config) (BlobURLSigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	endpoint := cfg.R2.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &r2Signer{cfg: cfg, presign: s3.NewPresignClient(client)}, nil
}

func (r *r2Signer) SignedURL(ctx context.Context, key string) (string, error) {
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.cfg.R2.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.cfg.PhotoURLExpiry))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return req.URL, nil
}
