package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/metrics"
	"eventdrop/internal/port"
)

type s3Client struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
	log           zerolog.Logger
}

// NewS3Client creates a new S3-backed ObjectStorage implementation.
func NewS3Client(ctx context.Context, cfg *config.S3Config, storageCfg *config.StorageConfig, log zerolog.Logger) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Client{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(storageCfg.PublicBaseURL, "/"),
		log:           log.With().Str("component", "s3-storage").Logger(),
	}, nil
}

func (c *s3Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	start := time.Now()
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	metrics.RecordStorageOperation("put", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return classifyError("put", key, err)
	}
	c.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("object stored")
	return nil
}

func (c *s3Client) Delete(ctx context.Context, key string) error {
	start := time.Now()
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil && isNoSuchKey(err) {
		err = nil
	}
	metrics.RecordStorageOperation("delete", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return classifyError("delete", key, err)
	}
	return nil
}

func (c *s3Client) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (*domain.SignedAccessURL, error) {
	issuedAt := time.Now()
	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	metrics.RecordStorageOperation("presign", metrics.Status(err), time.Since(issuedAt).Seconds())
	if err != nil {
		return nil, classifyError("presign", key, err)
	}
	return &domain.SignedAccessURL{URL: result.URL, ExpiresAt: issuedAt.Add(ttl)}, nil
}

func (c *s3Client) PublicURL(key string) string {
	if c.publicBaseURL == "" {
		return ""
	}
	return c.publicBaseURL + "/" + key
}

func (c *s3Client) Ping(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		return classifyError("head-bucket", "", err)
	}
	return nil
}

// classifyError wraps an SDK error in a StorageError carrying the HTTP status
// the store responded with, so callers can tell fatal 4xx from transient faults.
func classifyError(op, key string, err error) error {
	storageErr := &domain.StorageError{Op: op, Key: key, Err: err}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		storageErr.StatusCode = respErr.HTTPStatusCode()
	}
	return storageErr
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound &&
		!isNoSuchBucket(err)
}

func isNoSuchBucket(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}
