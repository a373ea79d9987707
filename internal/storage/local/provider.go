// Package local implements a storage provider that treats a local directory as a bucket.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/bucketsync/internal/storage"
)

// Config captures the parameters for the local directory provider.
type Config struct {
	// BaseDir is the directory whose tree mirrors the bucket's object keys.
	BaseDir string
}

// Provider stores objects as files below a base directory.
type Provider struct {
	baseDir string
}

var _ storage.Provider = (*Provider)(nil)

// New creates a local provider, creating the base directory if needed.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Provider{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

// resolve maps an object key to a file below baseDir, rejecting traversal.
func (p *Provider) resolve(objectName string) (string, error) {
	if strings.TrimSpace(objectName) == "" {
		return "", fmt.Errorf("object name is required")
	}
	fullPath := filepath.Join(p.baseDir, filepath.FromSlash(objectName))
	if !strings.HasPrefix(fullPath, p.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", objectName)
	}
	return fullPath, nil
}

// Upload writes r to the file backing objectName. Data lands in a temp file
// that is renamed into place only once r is fully copied.
func (p *Provider) Upload(_ context.Context, objectName string, r io.Reader) (int64, error) {
	fullPath, err := p.resolve(objectName)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return 0, fmt.Errorf("failed to create parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return n, fmt.Errorf("failed to move file into place: %w", err)
	}
	return n, nil
}

// Download copies the file backing objectName into w.
func (p *Provider) Download(_ context.Context, objectName string, w io.Writer) (int64, error) {
	fullPath, err := p.resolve(objectName)
	if err != nil {
		return 0, err
	}
	// #nosec G304 -- path is confined to baseDir by resolve.
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%s: %w", objectName, storage.ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("failed to read file: %w", err)
	}
	return n, nil
}

// List walks baseDir and reports every regular file as a slash-separated key.
func (p *Provider) List(ctx context.Context, fn func(string) error) error {
	err := filepath.WalkDir(p.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(p.baseDir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", p.baseDir, err)
	}
	return nil
}

// Close does nothing; files are closed after every call.
func (p *Provider) Close() error { return nil }
