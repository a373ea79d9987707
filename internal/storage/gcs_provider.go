package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSClientFactory builds the underlying Cloud Storage client.
// It exists so tests can hand NewGCSProvider a client pointed at a fake endpoint.
type GCSClientFactory interface {
	NewClient(ctx context.Context) (*gcs.Client, error)
}

// DefaultGCSClientFactory creates clients from Application Default Credentials,
// or from an explicit service-account key file when one is configured.
type DefaultGCSClientFactory struct {
	CredentialsFile string
}

// NewClient creates a Cloud Storage client.
func (f *DefaultGCSClientFactory) NewClient(ctx context.Context) (*gcs.Client, error) {
	var opts []option.ClientOption
	if f.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(f.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new storage client: %w", err)
	}
	return client, nil
}

// GCSProvider implements the storage.Provider interface for Google Cloud Storage.
type GCSProvider struct {
	Client     *gcs.Client
	BucketName string
	Logger     *zap.Logger
}

// NewGCSProvider initializes a new GCS client and verifies the bucket is reachable.
func NewGCSProvider(ctx context.Context, bucketName string, factory GCSClientFactory, logger *zap.Logger) (*GCSProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := factory.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	// Fail fast on a misspelled bucket or missing permissions.
	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close GCS client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get GCS bucket '%s' attributes: %w", bucketName, err)
	}

	return &GCSProvider{
		Client:     client,
		BucketName: bucketName,
		Logger:     logger,
	}, nil
}

// Upload streams r to the named object in the bucket. If r fails partway the
// upload is abandoned and the existing object, if any, is left untouched.
func (g *GCSProvider) Upload(ctx context.Context, objectName string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wc := g.Client.Bucket(g.BucketName).Object(objectName).NewWriter(ctx)

	n, err := io.Copy(wc, r)
	if err != nil {
		// Cancelling before Close keeps the writer from finalizing a partial object.
		cancel()
		if closeErr := wc.Close(); closeErr != nil && g.Logger != nil {
			g.Logger.Debug("Abandoned GCS upload", zap.String("object", objectName), zap.Error(closeErr))
		}
		return n, fmt.Errorf("failed to write GCS object %s: %w", objectName, err)
	}

	// Close finalizes the upload.
	if err := wc.Close(); err != nil {
		return n, fmt.Errorf("failed to close GCS writer for object %s: %w", objectName, err)
	}
	return n, nil
}

// Download streams the named object into w.
func (g *GCSProvider) Download(ctx context.Context, objectName string, w io.Writer) (int64, error) {
	rc, err := g.Client.Bucket(g.BucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return 0, fmt.Errorf("gs://%s/%s: %w", g.BucketName, objectName, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to open GCS object %s: %w", objectName, err)
	}
	defer rc.Close() //nolint:errcheck // read side, nothing to flush

	n, err := io.Copy(w, rc)
	if err != nil {
		return n, fmt.Errorf("failed to read GCS object %s: %w", objectName, err)
	}
	return n, nil
}

// List walks every object in the bucket.
func (g *GCSProvider) List(ctx context.Context, fn func(string) error) error {
	it := g.Client.Bucket(g.BucketName).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list GCS bucket %s: %w", g.BucketName, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// Close closes the underlying client.
func (g *GCSProvider) Close() error {
	if err := g.Client.Close(); err != nil {
		return fmt.Errorf("failed to close GCS client: %w", err)
	}
	return nil
}
