// Package storage defines the interfaces for an object storage provider.
// This abstraction keeps the transfer logic independent of a specific backend
// (Google Cloud Storage, an S3-compatible store, or a local directory).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is wrapped by providers when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Provider defines the common interface for a bucket-scoped object store.
type Provider interface {
	// Upload streams r into the named object, replacing any existing content.
	Upload(ctx context.Context, objectName string, r io.Reader) (int64, error)

	// Download streams the named object into w.
	Download(ctx context.Context, objectName string, w io.Writer) (int64, error)

	// List calls fn for every object in the bucket. Listing stops at the first
	// error returned by fn; List returns it, possibly wrapped.
	List(ctx context.Context, fn func(objectName string) error) error

	// Close releases client connections and resources.
	Close() error
}

// NoOpProvider is a storage provider that performs no operations.
// It is useful for dry runs where files are enumerated but never sent.
type NoOpProvider struct{}

// Upload drains r and reports its size without storing anything.
func (n *NoOpProvider) Upload(_ context.Context, _ string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r) //nolint:wrapcheck
}

// Download always reports the object as missing.
func (n *NoOpProvider) Download(_ context.Context, _ string, _ io.Writer) (int64, error) {
	return 0, ErrObjectNotFound
}

// List reports an empty bucket.
func (n *NoOpProvider) List(_ context.Context, _ func(string) error) error { return nil }

// Close does nothing.
func (n *NoOpProvider) Close() error { return nil }
