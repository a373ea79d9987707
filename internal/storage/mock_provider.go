package storage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// Upload is the mock implementation of the Upload method.
func (m *MockProvider) Upload(ctx context.Context, objectName string, r io.Reader) (int64, error) {
	args := m.Called(ctx, objectName, r)
	return args.Get(0).(int64), args.Error(1) //nolint:wrapcheck
}

// Download is the mock implementation of the Download method.
func (m *MockProvider) Download(ctx context.Context, objectName string, w io.Writer) (int64, error) {
	args := m.Called(ctx, objectName, w)
	return args.Get(0).(int64), args.Error(1) //nolint:wrapcheck
}

// List is the mock implementation of the List method.
func (m *MockProvider) List(ctx context.Context, fn func(string) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0) //nolint:wrapcheck
}

// Close is the mock implementation of the Close method.
func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck
}
