// Package r2client provides a client for Cloudflare R2 object storage.
// It wraps the AWS S3 SDK and handles zstd-compressed data files, which is
// how the FAQ catalog and synonym table are published.
package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/klauspost/compress/zstd"

	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
)

// CompressedSuffix marks object keys whose body is zstd-compressed.
const CompressedSuffix = ".zst"

// MaxObjectSize caps how many bytes Fetch reads from an object (after decompression).
const MaxObjectSize = 8 << 20

// Config holds R2 client configuration.
type Config struct {
	Endpoint    string // R2 endpoint URL (e.g., https://account-id.r2.cloudflarestorage.com)
	AccessKeyID string
	SecretKey   string
	BucketName  string
}

// Validate reports missing fields.
func (c Config) Validate() error {
	if c.Endpoint == "" || c.AccessKeyID == "" || c.SecretKey == "" || c.BucketName == "" {
		return errors.New("r2client: all config fields are required")
	}
	return nil
}

// EndpointForAccount returns the S3 API endpoint of a Cloudflare account.
func EndpointForAccount(accountID string) string {
	if accountID == "" {
		return ""
	}
	return "https://" + accountID + ".r2.cloudflarestorage.com"
}

// Client provides R2 object storage operations.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New creates a new R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for R2
	})

	return &Client{
		s3:     s3Client,
		bucket: cfg.BucketName,
	}, nil
}

// Upload uploads an object to R2.
// Returns the ETag of the uploaded object.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("r2client: upload %q: %w", key, err)
	}
	return trimETag(result.ETag), nil
}

// Download downloads an object from R2.
// Returns the object body and ETag. Caller must close the body.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("r2client: download %q: %w", key, err)
	}
	return result.Body, trimETag(result.ETag), nil
}

// HeadObject retrieves metadata for an object without downloading the body.
// Returns the ETag. Returns ErrNotFound if the object does not exist.
func (c *Client) HeadObject(ctx context.Context, key string) (string, error) {
	result, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("r2client: head %q: %w", key, err)
	}
	return trimETag(result.ETag), nil
}

// Fetch downloads a whole object into memory.
// Keys ending in CompressedSuffix are decompressed transparently.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	body, _, err := c.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if strings.HasSuffix(key, CompressedSuffix) {
		return Decompress(body)
	}
	return readLimited(body)
}

// Publish uploads data under key, compressing it first when key ends in
// CompressedSuffix. Returns the ETag of the uploaded object.
func (c *Client) Publish(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if strings.HasSuffix(key, CompressedSuffix) {
		compressed, err := Compress(data)
		if err != nil {
			return "", err
		}
		data = compressed
		contentType = "application/zstd"
	}
	return c.Upload(ctx, key, bytes.NewReader(data), contentType)
}

func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, "\"")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = fmt.Errorf("r2client: object %w", domerrors.ErrNotFound)

// ErrTooLarge is returned when an object exceeds MaxObjectSize.
var ErrTooLarge = errors.New("r2client: object too large")

// Compress encodes data with zstd.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("compress: create encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("compress: write: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("compress: close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes a zstd stream, reading at most MaxObjectSize bytes of output.
func Decompress(r io.Reader) ([]byte, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	data, err := readLimited(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("r2client: read: %w", err)
	}
	if len(data) > MaxObjectSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
