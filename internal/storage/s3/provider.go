// Package s3 implements a storage provider for S3-compatible object stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JakeFAU/bucketsync/internal/storage"
)

// Config captures the connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

// Provider stores objects in a single S3 bucket.
type Provider struct {
	Client     *minio.Client
	BucketName string
}

var _ storage.Provider = (*Provider)(nil)

// New builds a minio client for the configured endpoint.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &Provider{
		Client:     client,
		BucketName: cfg.Bucket,
	}, nil
}

// CheckBucket verifies the bucket exists.
func (p *Provider) CheckBucket(ctx context.Context) error {
	ok, err := p.Client.BucketExists(ctx, p.BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket '%s': %w", p.BucketName, err)
	}
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", p.BucketName)
	}
	return nil
}

// unknownSizePartSize bounds the buffer minio allocates when the payload size
// cannot be determined up front.
const unknownSizePartSize = 16 << 20

// Upload streams r to the named object. Files and in-memory readers go up in a
// single PUT; anything else is sent as a multipart upload in bounded parts.
func (p *Provider) Upload(ctx context.Context, objectName string, r io.Reader) (int64, error) {
	size := objectSize(r)
	opts := minio.PutObjectOptions{}
	if size < 0 {
		opts.PartSize = unknownSizePartSize
	}

	info, err := p.Client.PutObject(ctx, p.BucketName, objectName, r, size, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to put object %s: %w", objectName, err)
	}
	return info.Size, nil
}

// objectSize reports how many bytes r will yield, or -1 when it cannot tell.
func objectSize(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Stat() (os.FileInfo, error) }:
		if info, err := v.Stat(); err == nil && info.Mode().IsRegular() {
			return info.Size()
		}
	case interface{ Len() int }:
		return int64(v.Len())
	}
	return -1
}

// Download streams the named object into w.
func (p *Provider) Download(ctx context.Context, objectName string, w io.Writer) (int64, error) {
	obj, err := p.Client.GetObject(ctx, p.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get object %s: %w", objectName, mapErr(err))
	}
	defer obj.Close() //nolint:errcheck // read side

	n, err := io.Copy(w, obj)
	if err != nil {
		return n, fmt.Errorf("failed to read object %s: %w", objectName, mapErr(err))
	}
	return n, nil
}

// List walks the bucket recursively.
func (p *Provider) List(ctx context.Context, fn func(string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	// Cancelling unblocks the listing goroutine when fn stops early.
	defer cancel()

	for object := range p.Client.ListObjects(ctx, p.BucketName, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return fmt.Errorf("failed to list bucket %s: %w", p.BucketName, object.Err)
		}
		if err := fn(object.Key); err != nil {
			return err
		}
	}
	return nil
}

// Close does nothing; minio clients hold no long-lived connections.
func (p *Provider) Close() error { return nil }

// mapErr translates a 404 into storage.ErrObjectNotFound.
func mapErr(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", resp.Message, storage.ErrObjectNotFound)
	}
	return err
}
