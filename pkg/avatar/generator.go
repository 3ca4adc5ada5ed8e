package avatar

import (
	"context"
	"fmt"
	"os"

	"github.com/cozy/cozy-avatars/pkg/canvas"
	"github.com/cozy/cozy-avatars/pkg/fonts"
	"github.com/cozy/cozy-avatars/pkg/logger"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

const (
	contentType = "image/png"
	extension   = ".png"
)

// Font is a font file to register under a family name before drawing.
type Font struct {
	Path   string `json:"path" mapstructure:"path"`
	Family string `json:"family" mapstructure:"family"`
}

// FontRegistry makes font files available to the rasterizer, and gives the
// faces drawn by the default one.
type FontRegistry interface {
	canvas.FaceSource
	RegisterFromPath(path, family string) error
}

// Generator generates the avatar for one set of options.
type Generator struct {
	cfg     Config
	strict  bool
	storage Storage
	raster  canvas.Rasterizer
	fonts   FontRegistry
	root    func() string
	log     logger.Logger
}

// Option configures the collaborators of a [Generator].
type Option func(*Generator)

// WithStorage sets where the avatars are persisted. The default is the OS
// filesystem.
func WithStorage(s Storage) Option {
	return func(g *Generator) { g.storage = s }
}

// WithRasterizer sets the engine used to draw the avatars.
func WithRasterizer(r canvas.Rasterizer) Option {
	return func(g *Generator) { g.raster = r }
}

// WithFontRegistry sets the registry used by RegisterFonts. Without
// [WithRasterizer], the text is drawn with its faces. The default is
// [fonts.Default].
func WithFontRegistry(r FontRegistry) Option {
	return func(g *Generator) { g.fonts = r }
}

// WithRoot sets the function that returns the root directory of the output
// paths. It is called each time a path is computed. The default is the
// current working directory.
func WithRoot(root func() string) Option {
	return func(g *Generator) { g.root = root }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithStrict makes New use [ResolveStrict].
func WithStrict() Option {
	return func(g *Generator) { g.strict = true }
}

// New resolves the options and returns a generator for them.
func New(opts Options, options ...Option) (*Generator, error) {
	g := &Generator{}
	for _, opt := range options {
		opt(g)
	}

	resolve := Resolve
	if g.strict {
		resolve = ResolveStrict
	}
	cfg, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	g.cfg = cfg

	if g.log == nil {
		g.log = logger.WithNamespace("avatar")
	}
	if g.root == nil {
		g.root = workingDir(g.log)
	}
	if g.storage == nil {
		g.storage = NewFsStorage(afero.NewOsFs())
	}
	if g.fonts == nil {
		g.fonts = fonts.Default()
	}
	if g.raster == nil {
		g.raster = canvas.New(g.fonts)
	}
	return g, nil
}

func workingDir(log logger.Logger) func() string {
	return func() string {
		wd, err := os.Getwd()
		if err != nil {
			log.Warnf("cannot read the working directory: %s", err)
			return ""
		}
		return wd
	}
}

// Config returns the resolved options.
func (g *Generator) Config() Config {
	return g.cfg
}

// ContentType returns the content-type of the generated images.
func (g *Generator) ContentType() string {
	return contentType
}

// Initials returns the initials drawn on the avatar, which is also the name
// of its file.
func (g *Generator) Initials() string {
	return getInitials(g.cfg.Name, g.cfg.Case)
}

// Path returns the path of the avatar file: the root directory, the output
// directory and the initials. Two names with the same initials share the
// same file.
func (g *Generator) Path() string {
	return g.root() + g.cfg.Path + "/" + g.Initials() + extension
}

// RegisterFonts registers the fonts, in order. It stops at the first
// failure.
func (g *Generator) RegisterFonts(specs ...Font) (*Generator, error) {
	for _, f := range specs {
		if err := g.fonts.RegisterFromPath(f.Path, f.Family); err != nil {
			return nil, fmt.Errorf("%w %q from %q: %w", ErrFontRegistration, f.Family, f.Path, err)
		}
	}
	return g, nil
}

// Generate draws the initials, centered on the background, and returns the
// PNG image.
func (g *Generator) Generate() ([]byte, error) {
	cfg := g.cfg
	initials := g.Initials()
	width, height := float64(cfg.Width), float64(cfg.Height)

	s, err := g.raster.NewSurface(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}
	if err := s.SetFillStyle(cfg.Background); err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}
	s.FillRect(0, 0, width, height)

	if err := s.SetFont(cfg.Font()); err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}
	if err := s.SetFillStyle(cfg.Color); err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}
	s.SetTextAlign(canvas.AlignCenter)
	s.SetTextBaseline(canvas.BaselineMiddle)
	if err := s.FillText(initials, width/2, height/2, width); err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}

	data, err := s.Encode("png")
	if err != nil {
		return nil, fmt.Errorf("avatar: cannot render %q: %w", initials, err)
	}
	return data, nil
}

// Save writes the image at the avatar path.
func (g *Generator) Save(ctx context.Context, data []byte) error {
	return g.save(ctx, g.Path(), data)
}

func (g *Generator) save(ctx context.Context, path string, data []byte) error {
	if err := g.storage.WriteFile(ctx, path, data); err != nil {
		return fmt.Errorf("avatar: cannot write %q: %w", path, err)
	}
	g.log.WithField("path", path).Debugf("avatar written (%s)", humanize.Bytes(uint64(len(data))))
	return nil
}

// Exists returns true if the avatar file already exists. When the storage
// cannot tell, the avatar is considered missing.
func (g *Generator) Exists(ctx context.Context) bool {
	return g.exists(ctx, g.Path())
}

func (g *Generator) exists(ctx context.Context, path string) bool {
	ok, err := g.storage.Exists(ctx, path)
	if err != nil {
		g.log.WithField("path", path).
			Warnf("cannot check the avatar, it will be generated again: %s", err)
		return false
	}
	return ok
}

// Avatar returns the path of the avatar, generating and saving it first if
// the file does not exist yet. An existing file is never checked against the
// options.
func (g *Generator) Avatar(ctx context.Context) (string, error) {
	path, _, err := g.avatar(ctx)
	return path, err
}

func (g *Generator) avatar(ctx context.Context) (path string, hit bool, err error) {
	path = g.Path()
	if g.exists(ctx, path) {
		g.log.WithField("path", path).Debugf("avatar cache hit")
		return path, true, nil
	}

	data, err := g.Generate()
	if err != nil {
		return "", false, err
	}
	if err := g.save(ctx, path, data); err != nil {
		return "", false, err
	}
	return path, false, nil
}

// GenerateAvatar registers the fonts, then returns the path of the avatar
// for the options, generating it on the OS filesystem if needed.
func GenerateAvatar(ctx context.Context, opts Options, specs ...Font) (string, error) {
	g, err := New(opts)
	if err != nil {
		return "", err
	}
	if _, err := g.RegisterFonts(specs...); err != nil {
		return "", err
	}
	return g.Avatar(ctx)
}
