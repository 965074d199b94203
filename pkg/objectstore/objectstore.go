package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the S3-compatible store details.
type Config struct {
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint points at a non-AWS store (MinIO, R2, ...). Empty means AWS.
	Endpoint string
	// PublicURL, when set, is the base of the URLs handed back to clients.
	PublicURL string
}

// UploadError wraps any failure to store an object.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PutObjectAPI is the part of the S3 client the store uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads public objects to a single bucket.
type Client struct {
	api PutObjectAPI
	cfg Config
}

// NewClient builds an S3 client from cfg. Static credentials are used when
// provided; otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewClientWithAPI(api, cfg), nil
}

// NewClientWithAPI wraps an existing S3 API implementation.
func NewClientWithAPI(api PutObjectAPI, cfg Config) *Client {
	return &Client{api: api, cfg: cfg}
}

// Upload stores body under folder with a random name and returns its public
// URL. size may be negative when unknown.
func (c *Client) Upload(ctx context.Context, folder string, body io.Reader, size int64, contentType string) (string, error) {
	key := path.Join(folder, uuid.NewString())

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return "", &UploadError{Key: key, Err: err}
	}
	return c.ObjectURL(key), nil
}

// ObjectURL returns the public URL of key.
func (c *Client) ObjectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case c.cfg.PublicURL != "":
		return strings.TrimRight(c.cfg.PublicURL, "/") + "/" + escaped
	case c.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, escaped)
	}
}
