// Package memory stores objects in-process. It backs tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/JakeFAU/bucketsync/internal/storage"
)

// Provider keeps object payloads in a map keyed by object name.
type Provider struct {
	mu       sync.RWMutex
	data     map[string][]byte
	failures map[string]error
}

var _ storage.Provider = (*Provider)(nil)

// New creates an empty in-memory provider.
func New() *Provider {
	return &Provider{
		data:     make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Put seeds an object directly.
func (p *Provider) Put(objectName string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[objectName] = append([]byte(nil), data...)
}

// Object returns a copy of the stored payload.
func (p *Provider) Object(objectName string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.data[objectName]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Names returns the sorted object names.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.data))
	for name := range p.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FailOn makes every later Upload or Download of objectName return err.
func (p *Provider) FailOn(objectName string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[objectName] = err
}

// Upload stores a copy of r's content.
func (p *Provider) Upload(_ context.Context, objectName string, r io.Reader) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failures[objectName]; err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read data from reader: %w", err)
	}
	p.data[objectName] = data
	return int64(len(data)), nil
}

// Download writes the stored payload to w.
func (p *Provider) Download(_ context.Context, objectName string, w io.Writer) (int64, error) {
	p.mu.RLock()
	err := p.failures[objectName]
	data, ok := p.data[objectName]
	p.mu.RUnlock()

	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("memory://%s: %w", objectName, storage.ErrObjectNotFound)
	}
	return io.Copy(w, bytes.NewReader(data)) //nolint:wrapcheck
}

// List reports objects in name order.
func (p *Provider) List(ctx context.Context, fn func(string) error) error {
	for _, name := range p.Names() {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck
		}
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

// Close does nothing.
func (p *Provider) Close() error { return nil }
