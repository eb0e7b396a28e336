package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// S3Config holds explicit construction parameters. Empty fields fall back
// to the SDK's default chain (AWS_REGION, shared config, instance roles).
type S3Config struct {
	Region          string
	Endpoint        string // optional; e.g. MinIO
	PathStyle       bool
	AccessKeyID     string // optional
	SecretAccessKey string // optional
	SessionToken    string // optional
}

// ObjectGetter is the slice of the S3 client the fetcher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads whole objects addressed as s3://bucket/key.
type S3Fetcher struct {
	client ObjectGetter
}

// NewS3Fetcher builds a fetcher from cfg.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Fetcher{client: client}, nil
}

// NewS3FetcherWithClient wraps an existing client.
func NewS3FetcherWithClient(c ObjectGetter) *S3Fetcher { return &S3Fetcher{client: c} }

// IsS3 reports whether path names an S3 object.
func IsS3(path string) bool { return strings.HasPrefix(path, s3Scheme) }

// ParseS3 splits s3://bucket/key.
func ParseS3(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not an s3:// url", path)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q: want s3://bucket/key", path)
	}
	return bucket, key, nil
}

// Open streams the object body.
func (f *S3Fetcher) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3(path)
	if err != nil {
		return nil, err
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return out.Body, nil
}
