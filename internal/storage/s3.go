// Package storage archives finished documents to S3 when configured.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client wraps the AWS S3 client for document uploads.
type S3Client struct {
	client *s3.Client
}

// NewS3Client creates an S3 client from the default AWS config chain.
func NewS3Client(ctx context.Context) (*S3Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Client{client: s3.NewFromConfig(cfg)}, nil
}

// Upload stores the file at path under the given s3://bucket/key URI.
func (s *S3Client) Upload(ctx context.Context, uri, path string) error {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("upload to %s: %w", uri, err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Msg("document archived to S3")
	return nil
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI must be s3://bucket/key, got %s", uri)
	}
	return bucket, key, nil
}
