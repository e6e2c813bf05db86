// Package storage keeps compiled PDFs in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Config describes the bucket compiled documents are written to
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// objectAPI is the subset of the S3 client the store uses
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// PDFStore uploads and fetches compiled PDFs
type PDFStore struct {
	client objectAPI
	bucket string
	prefix string
}

// New builds a store from cfg. Static credentials are used when both keys are
// set; otherwise the default AWS credential chain applies. A custom endpoint
// (R2, MinIO) switches the client to path-style addressing.
func New(ctx context.Context, cfg Config) (*PDFStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client objectAPI, bucket, prefix string) *PDFStore {
	return &PDFStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for a document's PDF compiled at t
func (s *PDFStore) Key(id uuid.UUID, t time.Time) string {
	name := fmt.Sprintf("%s/%s.pdf", id, t.UTC().Format("20060102T150405Z"))
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Upload writes pdf for document id and returns its key
func (s *PDFStore) Upload(ctx context.Context, id uuid.UUID, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", errors.New("refusing to upload empty PDF")
	}
	key := s.Key(id, time.Now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Info().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(pdf)).Msg("Uploaded PDF")
	return key, nil
}

// Download fetches a previously uploaded PDF
func (s *PDFStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}
