package mediahost

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
)

// S3Config configures an S3-compatible host such as MinIO or R2.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	PublicBaseURL   string
}

// S3Host stores transformed images in a public bucket. The object key is the
// asset's public id.
type S3Host struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	log           zerolog.Logger
}

// NewS3Host creates an S3 host with static credentials.
func NewS3Host(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Host, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &S3Host{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           log,
	}, nil
}

// Upload bounds the image to the requested box and puts it in the bucket.
func (h *S3Host) Upload(ctx context.Context, localPath string, opts UploadOptions) (*model.RemoteAsset, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}

	body, contentType, ext, err := Transform(data, opts.MaxWidth, opts.MaxHeight)
	if err != nil {
		return nil, err
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(localPath))
	}

	key := path.Join(opts.Folder, uuid.NewString()+ext)
	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s: %w", key, err)
	}

	h.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("image stored")
	return &model.RemoteAsset{URL: h.publicBaseURL + "/" + key, PublicID: key}, nil
}

// Destroy deletes the object. S3 treats a missing key as success.
func (h *S3Host) Destroy(ctx context.Context, publicID string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", publicID, err)
	}
	return nil
}
