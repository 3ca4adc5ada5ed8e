package avatar

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cozy/cozy-avatars/pkg/canvas"
	"github.com/cozy/cozy-avatars/pkg/fonts"
	"github.com/cozy/cozy-avatars/pkg/logger"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const testRoot = "/srv"

// countingStorage counts the writes done on the wrapped storage.
type countingStorage struct {
	Storage
	writes  atomic.Int32
	onWrite func()
}

func (s *countingStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	s.writes.Add(1)
	if s.onWrite != nil {
		s.onWrite()
	}
	return s.Storage.WriteFile(ctx, path, data)
}

func newMemStorage(t *testing.T) (*countingStorage, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRoot+DefaultPath, 0755))
	return &countingStorage{Storage: NewFsStorage(fs)}, fs
}

func newTestRegistry(t *testing.T) *fonts.Registry {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fonts/Lato-Regular.ttf", goregular.TTF, 0644))
	return fonts.NewRegistry(fs)
}

func newTestGenerator(t *testing.T, opts Options, storage Storage, extra ...Option) *Generator {
	t.Helper()
	registry := newTestRegistry(t)
	options := append([]Option{
		WithStorage(storage),
		WithFontRegistry(registry),
		WithRasterizer(canvas.New(registry)),
		WithRoot(func() string { return testRoot }),
	}, extra...)
	g, err := New(opts, options...)
	require.NoError(t, err)
	return g
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = New(Options{Name: "Ada", Width: -1}, WithStrict())
	assert.ErrorIs(t, err, ErrInvalidOption)

	g, err := New(Options{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", g.ContentType())
	assert.Equal(t, DefaultWidth, g.Config().Width)
}

func TestPath(t *testing.T) {
	storage, _ := newMemStorage(t)

	t.Run("Scenario", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada Lovelace"}, storage)
		assert.Equal(t, "AL", g.Initials())
		assert.Equal(t, "/srv/public/avatars/AL.png", g.Path())
		assert.Equal(t, g.Path(), g.Path())
	})

	t.Run("RootIsReadOnEachCall", func(t *testing.T) {
		var calls int
		g := newTestGenerator(t, Options{Name: "ada", Path: "/out", Case: CaseAsTyped}, storage,
			WithRoot(func() string { calls++; return "/home/app" }))
		assert.Equal(t, "/home/app/out/a.png", g.Path())
		assert.Equal(t, "/home/app/out/a.png", g.Path())
		assert.Equal(t, 2, calls)
	})

	t.Run("WorkingDirectoryByDefault", func(t *testing.T) {
		g, err := New(Options{Name: "Ada Lovelace"})
		require.NoError(t, err)
		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd+"/public/avatars/AL.png", g.Path())
	})

	t.Run("SameInitialsSameFile", func(t *testing.T) {
		a := newTestGenerator(t, Options{Name: "Ada Lovelace"}, storage)
		b := newTestGenerator(t, Options{Name: "Alan Lee", Color: "red"}, storage)
		assert.Equal(t, a.Path(), b.Path())
	})
}

func TestGenerate(t *testing.T) {
	storage, _ := newMemStorage(t)

	t.Run("DefaultSize", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada Lovelace"}, storage)
		data, err := g.Generate()
		require.NoError(t, err)
		assert.True(t, filetype.Is(data, "png"))
		assert.Equal(t, image.Rect(0, 0, 1000, 1000), decodeBounds(t, data))
	})

	t.Run("ExplicitZeroWidthFallsBack", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada", Width: 0, Height: 64, FontSize: 32}, storage)
		data, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, DefaultWidth, 64), decodeBounds(t, data))
	})

	t.Run("RegisteredFont", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada", Width: 64, Height: 64, FontSize: 32, FontFamily: "Lato"}, storage)
		_, err := g.RegisterFonts(Font{Path: "/fonts/Lato-Regular.ttf", Family: "Lato"})
		require.NoError(t, err)
		data, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 64, 64), decodeBounds(t, data))
	})

	t.Run("Deterministic", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada", Width: 64, Height: 64, FontSize: 32}, storage)
		first, err := g.Generate()
		require.NoError(t, err)
		second, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("InvalidColor", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada", Width: 64, Height: 64, Background: "nope"}, storage)
		_, err := g.Generate()
		assert.ErrorIs(t, err, canvas.ErrInvalidColor)
	})

	t.Run("NegativeSize", func(t *testing.T) {
		g := newTestGenerator(t, Options{Name: "Ada", Width: -5}, storage)
		_, err := g.Generate()
		assert.ErrorIs(t, err, canvas.ErrInvalidSize)
	})
}

func TestAvatar(t *testing.T) {
	ctx := context.Background()
	opts := Options{Name: "Ada Lovelace", Width: 64, Height: 64, FontSize: 32}
	path := "/srv/public/avatars/AL.png"

	t.Run("GenerateThenReuse", func(t *testing.T) {
		storage, fs := newMemStorage(t)
		g := newTestGenerator(t, Options{Name: "Ada Lovelace"}, storage)

		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		require.False(t, exists)

		res, err := g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)
		assert.EqualValues(t, 1, storage.writes.Load())
		exists, err = afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, exists)

		res, err = g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)
		assert.EqualValues(t, 1, storage.writes.Load())
	})

	t.Run("WritesTheRenderedBytes", func(t *testing.T) {
		storage, fs := newMemStorage(t)
		g := newTestGenerator(t, opts, storage)

		_, err := g.Avatar(ctx)
		require.NoError(t, err)

		written, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		expected, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, expected, written)

		info, err := fs.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("ExistingFileIsTrusted", func(t *testing.T) {
		storage, fs := newMemStorage(t)
		require.NoError(t, afero.WriteFile(fs, path, []byte("old"), 0644))

		g := newTestGenerator(t, Options{Name: "Alan Lee", Color: "red"}, storage)
		res, err := g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)
		assert.EqualValues(t, 0, storage.writes.Load())
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, []byte("old"), content)
	})

	t.Run("WithMockedStorage", func(t *testing.T) {
		storage := NewStorageMock(t)
		g := newTestGenerator(t, opts, storage)
		expected, err := g.Generate()
		require.NoError(t, err)

		storage.On("Exists", ctx, path).Return(false, nil).Once()
		storage.On("WriteFile", ctx, path, expected).Return(nil).Once()
		storage.On("Exists", ctx, path).Return(true, nil).Once()

		res, err := g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)

		res, err = g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)
	})

	t.Run("ExistsErrorIsAMiss", func(t *testing.T) {
		l, hook := test.NewNullLogger()
		storage := NewStorageMock(t)
		g := newTestGenerator(t, opts, storage, WithLogger(logger.NewEntry(l, "avatar")))

		storage.On("Exists", ctx, path).Return(false, os.ErrPermission).Once()
		storage.On("WriteFile", ctx, path, mock.Anything).Return(nil).Once()

		res, err := g.Avatar(ctx)
		require.NoError(t, err)
		assert.Equal(t, path, res)

		var warned bool
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel && entry.Data["path"] == path {
				warned = true
			}
		}
		assert.True(t, warned)
	})

	t.Run("WriteFailure", func(t *testing.T) {
		storage := NewStorageMock(t)
		g := newTestGenerator(t, opts, storage)
		errDiskFull := errors.New("disk full")

		storage.On("Exists", ctx, path).Return(false, nil).Once()
		storage.On("WriteFile", ctx, path, mock.Anything).Return(errDiskFull).Once()

		res, err := g.Avatar(ctx)
		assert.ErrorIs(t, err, errDiskFull)
		assert.Empty(t, res)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		dir := t.TempDir()
		g := newTestGenerator(t, opts, NewFsStorage(afero.NewOsFs()),
			WithRoot(func() string { return dir }))

		_, err := g.Avatar(ctx)
		assert.Error(t, err)
		_, err = os.Stat(filepath.Join(dir, "public"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestRegisterFonts(t *testing.T) {
	storage, _ := newMemStorage(t)

	t.Run("Several", func(t *testing.T) {
		registry := newTestRegistry(t)
		g, err := New(Options{Name: "Ada"}, WithStorage(storage), WithFontRegistry(registry))
		require.NoError(t, err)

		res, err := g.RegisterFonts(
			Font{Path: "/fonts/Lato-Regular.ttf", Family: "Lato"},
			Font{Path: "/fonts/Lato-Regular.ttf", Family: "Lato Display"},
		)
		require.NoError(t, err)
		assert.Same(t, g, res)
		assert.True(t, registry.Has("Lato"))
		assert.True(t, registry.Has("Lato Display"))
	})

	t.Run("StopsAtFirstFailure", func(t *testing.T) {
		registry := newTestRegistry(t)
		g, err := New(Options{Name: "Ada"}, WithStorage(storage), WithFontRegistry(registry))
		require.NoError(t, err)

		_, err = g.RegisterFonts(
			Font{Path: "/fonts/missing.ttf", Family: "Missing"},
			Font{Path: "/fonts/Lato-Regular.ttf", Family: "Lato"},
		)
		assert.ErrorIs(t, err, ErrFontRegistration)
		assert.False(t, registry.Has("Lato"))
	})
}

// countingRegistry counts the faces given to the rasterizer.
type countingRegistry struct {
	*fonts.Registry
	faces atomic.Int32
}

func (r *countingRegistry) Face(families []string, weight fonts.Weight, style fonts.Style, size float64) (font.Face, error) {
	r.faces.Add(1)
	return r.Registry.Face(families, weight, style, size)
}

func TestDefaultRasterizerUsesTheRegistry(t *testing.T) {
	storage, _ := newMemStorage(t)
	registry := &countingRegistry{Registry: newTestRegistry(t)}
	g, err := New(Options{Name: "Ada", Width: 64, Height: 64, FontSize: 32, FontFamily: "Lato"},
		WithStorage(storage), WithFontRegistry(registry))
	require.NoError(t, err)

	_, err = g.RegisterFonts(Font{Path: "/fonts/Lato-Regular.ttf", Family: "Lato"})
	require.NoError(t, err)
	_, err = g.Generate()
	require.NoError(t, err)
	assert.Positive(t, registry.faces.Load())
}

func TestGenerateAvatar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	ctx := context.Background()
	opts := Options{Name: "Ada Lovelace", Path: "/out", Width: 64, Height: 64, FontSize: 32}

	path, err := GenerateAvatar(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, wd+"/out/AL.png", path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	modTime := info.ModTime()

	again, err := GenerateAvatar(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, modTime, info.ModTime())

	_, err = GenerateAvatar(ctx, Options{Name: "Grace Hopper", Path: "/out"},
		Font{Path: filepath.Join(dir, "missing.ttf"), Family: "Missing"})
	assert.ErrorIs(t, err, ErrFontRegistration)
	_, err = os.Stat(filepath.Join(dir, "out", "GH.png"))
	assert.True(t, os.IsNotExist(err))

	_, err = GenerateAvatar(ctx, Options{})
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestGenerateDrawingSequence(t *testing.T) {
	storage, _ := newMemStorage(t)
	raster := canvas.NewRasterizerMock(t)
	surface := canvas.NewSurfaceMock(t)
	g := newTestGenerator(t, Options{
		Name:       "Ada Lovelace",
		Width:      200,
		Height:     100,
		FontWeight: "bold",
		FontSize:   50,
		Color:      "white",
		Background: "#1FA8F1",
	}, storage, WithRasterizer(raster))

	raster.On("NewSurface", 200, 100).Return(surface, nil).Once()
	mock.InOrder(
		surface.On("SetFillStyle", "#1FA8F1").Return(nil).Once(),
		surface.On("FillRect", 0.0, 0.0, 200.0, 100.0).Once(),
		surface.On("SetFont", "normal bold 50px Arial").Return(nil).Once(),
		surface.On("SetFillStyle", "white").Return(nil).Once(),
		surface.On("SetTextAlign", canvas.AlignCenter).Once(),
		surface.On("SetTextBaseline", canvas.BaselineMiddle).Once(),
		surface.On("FillText", "AL", 100.0, 50.0, 200.0).Return(nil).Once(),
		surface.On("Encode", "png").Return([]byte("png"), nil).Once(),
	)

	data, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestGenerateEncodeFailure(t *testing.T) {
	storage := NewStorageMock(t)
	raster := canvas.NewRasterizerMock(t)
	surface := canvas.NewSurfaceMock(t)
	g := newTestGenerator(t, Options{Name: "Ada"}, storage, WithRasterizer(raster))

	raster.On("NewSurface", DefaultWidth, DefaultHeight).Return(surface, nil).Once()
	surface.On("SetFillStyle", mock.Anything).Return(nil)
	surface.On("FillRect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	surface.On("SetFont", mock.Anything).Return(nil)
	surface.On("SetTextAlign", mock.Anything)
	surface.On("SetTextBaseline", mock.Anything)
	surface.On("FillText", "A", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	surface.On("Encode", "png").Return(nil, canvas.ErrUnsupportedFormat).Once()
	storage.On("Exists", mock.Anything, "/srv/public/avatars/A.png").Return(false, nil).Once()

	_, err := g.Avatar(context.Background())
	assert.ErrorIs(t, err, canvas.ErrUnsupportedFormat)
}
