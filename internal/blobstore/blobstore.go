// Package blobstore implements the blob-store interface the Tool Executor
// consumes: Upload(name, bytes, content_type) -> public_url, with the bucket
// fixed when the store is built. It
// targets Supabase Storage's S3-compatible endpoint, reusing the teacher's
// S3 artifact store shape (endpoint override + path-style addressing)
// rather than a bespoke Supabase REST client.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// Store uploads generated/modified artifacts and returns a public URL.
type Store interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// S3Store implements Store against any S3-compatible endpoint. Supabase
// Storage exposes exactly such an endpoint per project, so this same client
// serves both AWS S3 and Supabase deployments by varying Endpoint.
type S3Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// Config configures an S3Store.
type Config struct {
	Bucket      string
	Region      string
	Endpoint    string
	AccessKeyID string
	SecretKey   string
	// PublicBase is the URL prefix artifacts are publicly served under,
	// e.g. "https://<project>.supabase.co/storage/v1/object/public/<bucket>".
	PublicBase string
}

// NewS3Store builds a blob store client. Region defaults to us-east-1 when
// empty; Supabase and most S3-compatible providers ignore the value but the
// SDK requires one to be set.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("blobstore: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blobstore: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.Bucket, publicBase: strings.TrimRight(cfg.PublicBase, "/")}, nil
}

// Upload writes data under a key built from a UTC timestamp, a random
// 8-character suffix and the sanitized name (preventing filename collisions
// across the shared upload namespace per §5) and returns the artifact's
// public URL.
func (s *S3Store) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.objectKey(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("blobstore: put object %s: %s: %s", key, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("blobstore: put object: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.publicBase, key), nil
}

func (s *S3Store) objectKey(name string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s-%s-%s", ts, uuid.NewString()[:8], sanitizeName(name))
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "artifact"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
