package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/talkio/go-user-accounts/config"
)

// ImageStore uploads a local file to remote storage and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

var _ ImageStore = (*S3ImageStore)(nil)

// S3ImageStore stores images in an S3-compatible bucket (MinIO in dev).
type S3ImageStore struct {
	client        *s3.Client
	logger        *slog.Logger
	bucket        string
	folder        string
	publicBaseURL string
}

func NewS3ImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{
		client:        client,
		logger:        logger,
		bucket:        cfg.Storage.Bucket,
		folder:        cfg.Storage.Folder,
		publicBaseURL: strings.TrimRight(cfg.Storage.PublicBaseURL, "/"),
	}, nil
}

// Upload transfers the file at localPath to the bucket under the configured
// folder and returns the public URL. The caller owns the temp-file lifecycle.
func (s *S3ImageStore) Upload(ctx context.Context, localPath string) (string, error) {
	l := s.logger.With(slog.String("method", "Upload"), slog.String("path", localPath))

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	ext := filepath.Ext(localPath)
	key := fmt.Sprintf("%s/%s%s", s.folder, uuid.NewString(), ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		l.ErrorContext(ctx, "Image upload failed", slog.Any("error", err))
		return "", fmt.Errorf("failed to upload image to storage: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	l.InfoContext(ctx, "Image uploaded", slog.String("url", publicURL))
	return publicURL, nil
}
