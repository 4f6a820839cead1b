// Package storage provides object-store access for the data lake zones.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"mobiltex-datalake/internal/domain"
)

// ObjectStore is the minimal surface the lake needs from an object store.
// Keys are bucket-relative, forward-slash separated. A store instance is
// rooted at a single bucket (or local directory).
type ObjectStore interface {
	// Put writes data at key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the object at key, or a NotFound error.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns all keys under prefix in lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Copy duplicates srcKey to dstKey byte-for-byte.
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("empty bucket in S3 path %q", s3Path)
	}
	return bucket, key, nil
}

// KeyForLocation converts a table storage location into a store-relative key
// prefix. Full s3:// URIs are reduced to their key part; anything else is
// treated as an already-relative prefix.
func KeyForLocation(location string) (string, error) {
	if strings.HasPrefix(location, "s3://") {
		_, key, err := ParseS3Path(location)
		if err != nil {
			return "", err
		}
		return key, nil
	}
	return strings.TrimPrefix(location, "/"), nil
}

// IsNotFound reports whether err is a missing-object error.
func IsNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

// IsTransient reports whether err was classified as retryable storage I/O
// that still failed after the bounded retry.
func IsTransient(err error) bool {
	var tr *domain.TransientError
	return errors.As(err, &tr)
}
