package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sethvargo/go-retry"

	"mobiltex-datalake/internal/domain"
)

// Retry policy for storage calls. The provider surfaces occasional transient
// errors (throttling, 5xx); a bounded exponential backoff absorbs them
// without hiding terminal failures.
const (
	retryBase     = 200 * time.Millisecond
	retryJitter   = 100 * time.Millisecond
	retryAttempts = 4
)

// S3Store is an ObjectStore over a single S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store wraps an S3 client rooted at the given bucket.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Bucket returns the bucket this store is rooted at.
func (s *S3Store) Bucket() string { return s.bucket }

// Put writes data at key, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	return s.withRetry(ctx, "put "+key, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return err
	})
}

// Get returns the object at key, or a NotFound error.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.withRetry(ctx, "get "+key, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrNotFound("object s3://%s/%s not found", s.bucket, key)
		}
		return nil, err
	}
	return data, nil
}

// List returns all keys under prefix in lexicographic order.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.withRetry(ctx, "list "+prefix, func(ctx context.Context) error {
		keys = keys[:0]
		p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, obj := range page.Contents {
				keys = append(keys, aws.ToString(obj.Key))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Copy duplicates srcKey to dstKey within the bucket.
func (s *S3Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	return s.withRetry(ctx, "copy "+srcKey, func(ctx context.Context) error {
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(dstKey),
			CopySource: aws.String(url.PathEscape(s.bucket + "/" + srcKey)),
		})
		return err
	})
}

// Delete removes the object at key. Deleting a missing key is not an error
// (S3 DeleteObject is already idempotent).
func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.withRetry(ctx, "delete "+key, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
}

// EnsureBucket creates the bucket if it does not exist.
func (s *S3Store) EnsureBucket(ctx context.Context, region string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return err
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 must not carry a location constraint.
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}
	_, err = s.client.CreateBucket(ctx, input)
	var owned *s3types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return nil
	}
	return err
}

// withRetry runs fn with bounded exponential backoff, retrying only
// transient failures. The final error keeps its original type so NotFound
// detection still works upstream.
func (s *S3Store) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(retryAttempts-1, retry.WithJitter(retryJitter, retry.NewExponential(retryBase)))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if isTransientS3(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && isTransientS3(err) {
		return domain.ErrTransient(err, "s3 %s (bucket %s)", op, s.bucket)
	}
	return err
}

// isTransientS3 classifies S3 errors worth retrying: throttling, internal
// server errors, and plain network failures (no API error code at all).
func isTransientS3(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		// context cancellation is terminal, everything else network-ish is not
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	switch apiErr.ErrorCode() {
	case "InternalError", "SlowDown", "RequestTimeout", "ServiceUnavailable", "Throttling", "ThrottlingException":
		return true
	}
	return false
}
