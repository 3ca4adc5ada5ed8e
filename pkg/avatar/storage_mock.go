package avatar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// StorageMock is a mock implementation of [Storage].
type StorageMock struct {
	mock.Mock
}

// NewStorageMock instantiates a new [StorageMock], checking the expectations
// at the end of the test.
func NewStorageMock(t *testing.T) *StorageMock {
	m := new(StorageMock)
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// WriteFile mock method.
func (m *StorageMock) WriteFile(ctx context.Context, path string, data []byte) error {
	return m.Called(ctx, path, data).Error(0)
}

// Exists mock method.
func (m *StorageMock) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}
