package canvas

import (
	"testing"

	"github.com/stretchr/testify/mock"
)

// RasterizerMock is a mock implementation of [Rasterizer].
type RasterizerMock struct {
	mock.Mock
}

// NewRasterizerMock instantiates a new [RasterizerMock], checking the
// expectations at the end of the test.
func NewRasterizerMock(t *testing.T) *RasterizerMock {
	m := new(RasterizerMock)
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewSurface mock method.
func (m *RasterizerMock) NewSurface(width, height int) (Surface, error) {
	args := m.Called(width, height)
	if s, ok := args.Get(0).(Surface); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// SurfaceMock is a mock implementation of [Surface].
type SurfaceMock struct {
	mock.Mock
}

// NewSurfaceMock instantiates a new [SurfaceMock], checking the expectations
// at the end of the test.
func NewSurfaceMock(t *testing.T) *SurfaceMock {
	m := new(SurfaceMock)
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// SetFillStyle mock method.
func (m *SurfaceMock) SetFillStyle(color string) error {
	return m.Called(color).Error(0)
}

// FillRect mock method.
func (m *SurfaceMock) FillRect(x, y, width, height float64) {
	m.Called(x, y, width, height)
}

// SetFont mock method.
func (m *SurfaceMock) SetFont(descriptor string) error {
	return m.Called(descriptor).Error(0)
}

// SetTextAlign mock method.
func (m *SurfaceMock) SetTextAlign(align Align) {
	m.Called(align)
}

// SetTextBaseline mock method.
func (m *SurfaceMock) SetTextBaseline(baseline Baseline) {
	m.Called(baseline)
}

// FillText mock method.
func (m *SurfaceMock) FillText(text string, x, y, maxWidth float64) error {
	return m.Called(text, x, y, maxWidth).Error(0)
}

// Encode mock method.
func (m *SurfaceMock) Encode(format string) ([]byte, error) {
	args := m.Called(format)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}
