package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/stackpilot/internal/platform/awsconfig"
	"github.com/imamik/stackpilot/internal/util/naming"
)

// Client wraps the S3 client for template staging.
type Client struct {
	s3       *s3.Client
	region   string
	endpoint string
	bucket   string
	now      func() time.Time
}

// NewClient creates a client that stages templates in bucket.
func NewClient(ctx context.Context, settings awsconfig.Settings, bucket string) (*Client, error) {
	if bucket == "" {
		return nil, errors.New("template bucket name is required")
	}

	cfg, err := awsconfig.Load(ctx, settings)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints (LocalStack, MinIO) rarely resolve virtual-hosted names.
		o.UsePathStyle = settings.Endpoint != ""
	})

	return &Client{
		s3:       client,
		region:   cfg.Region,
		endpoint: strings.TrimRight(settings.Endpoint, "/"),
		bucket:   bucket,
		now:      time.Now,
	}, nil
}

// StageTemplate uploads body and returns the object URL.
func (c *Client) StageTemplate(ctx context.Context, stackName, body string) (string, error) {
	if err := c.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := naming.TemplateObject(stackName, c.now())
	if err := c.PutObject(ctx, key, []byte(body)); err != nil {
		return "", err
	}
	return c.ObjectURL(key), nil
}

// EnsureBucket creates the staging bucket unless it already exists.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.BucketExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.CreateBucket(ctx)
}

// CreateBucket creates the staging bucket.
// Returns nil if the bucket already exists and is owned by us.
func (c *Client) CreateBucket(ctx context.Context) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	}
	// us-east-1 rejects an explicit location constraint.
	if c.region != "" && c.region != awsconfig.DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	_, err := c.s3.CreateBucket(ctx, input)
	if err != nil {
		if isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// BucketExists checks if the staging bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context) (bool, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}
	return true, nil
}

// PutObject uploads an object to the staging bucket.
func (c *Client) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, c.bucket, err)
	}
	return nil
}

// ObjectURL returns the URL CloudFormation reads key from.
func (c *Client) ObjectURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "BucketAlreadyOwnedByYou"
	}

	return false
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services do not always return the typed errors.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
