// Package canvas is a small 2D drawing surface, modeled after the HTML
// canvas API, that renders to PNG.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/cozy/cozy-avatars/pkg/fonts"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrInvalidSize is returned for surfaces with a non-positive or too
	// large dimension.
	ErrInvalidSize = errors.New("canvas: invalid surface size")
	// ErrInvalidColor is returned when a fill style cannot be parsed.
	ErrInvalidColor = errors.New("canvas: invalid color")
	// ErrInvalidFont is returned when a font descriptor cannot be parsed.
	ErrInvalidFont = errors.New("canvas: invalid font")
	// ErrUnsupportedFormat is returned when encoding to something else than
	// PNG.
	ErrUnsupportedFormat = errors.New("canvas: unsupported image format")
)

const (
	// maxSize is the largest side of a surface.
	maxSize   = 4096
	minRaster = 1024
	maxRaster = 4096
)

// Align is the horizontal alignment of the text relatively to the x
// coordinate given to FillText.
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
	AlignStart  Align = "start"
	AlignEnd    Align = "end"
)

// Baseline is the vertical anchor of the text relatively to the y
// coordinate given to FillText.
type Baseline string

const (
	BaselineTop        Baseline = "top"
	BaselineMiddle     Baseline = "middle"
	BaselineAlphabetic Baseline = "alphabetic"
	BaselineBottom     Baseline = "bottom"
)

// FaceSource gives the font faces used to draw text. It is implemented by
// [fonts.Registry].
type FaceSource interface {
	Face(families []string, weight fonts.Weight, style fonts.Style, size float64) (font.Face, error)
}

// Rasterizer creates drawing surfaces.
type Rasterizer interface {
	NewSurface(width, height int) (Surface, error)
}

// Surface is a fixed-size drawing surface. A surface is not safe for
// concurrent use.
type Surface interface {
	SetFillStyle(color string) error
	FillRect(x, y, width, height float64)
	SetFont(descriptor string) error
	SetTextAlign(align Align)
	SetTextBaseline(baseline Baseline)
	// FillText draws the text at (x, y). If the text is wider than
	// maxWidth, it is compressed horizontally to fit. Nothing is drawn when
	// maxWidth is not positive.
	FillText(text string, x, y, maxWidth float64) error
	Encode(format string) ([]byte, error)
}

// Engine is the [Rasterizer] drawing with golang.org/x/image.
type Engine struct {
	faces FaceSource
}

// New returns an engine taking its faces from the given source, or from
// [fonts.Default] if faces is nil.
func New(faces FaceSource) *Engine {
	if faces == nil {
		faces = fonts.Default()
	}
	return &Engine{faces: faces}
}

// NewSurface returns a transparent surface of the given size.
func (e *Engine) NewSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 || width > maxSize || height > maxSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &surface{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		faces:    e.faces,
		fill:     color.NRGBA{A: 0xff},
		font:     defaultFont,
		align:    AlignStart,
		baseline: BaselineAlphabetic,
	}, nil
}

type surface struct {
	img      *image.RGBA
	faces    FaceSource
	fill     color.NRGBA
	font     Font
	align    Align
	baseline Baseline
}

func (s *surface) SetFillStyle(c string) error {
	parsed, err := ParseColor(c)
	if err != nil {
		return err
	}
	s.fill = parsed
	return nil
}

func (s *surface) FillRect(x, y, width, height float64) {
	r := image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+width)), int(math.Ceil(y+height)),
	).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(s.fill), image.Point{}, draw.Over)
}

func (s *surface) SetFont(descriptor string) error {
	f, err := ParseFont(descriptor)
	if err != nil {
		return err
	}
	s.font = f
	return nil
}

func (s *surface) SetTextAlign(align Align) {
	s.align = align
}

func (s *surface) SetTextBaseline(baseline Baseline) {
	s.baseline = baseline
}

func (s *surface) FillText(text string, x, y, maxWidth float64) error {
	if text == "" || maxWidth <= 0 || math.IsNaN(maxWidth) {
		return nil
	}
	face, err := s.face(s.font.Size)
	if err != nil {
		return err
	}
	defer face.Close()

	bounds, advance := font.BoundString(face, text)
	if bounds.Empty() {
		return nil
	}
	width := fixedToFloat(advance)
	scale := 1.0
	if width > maxWidth {
		scale = maxWidth / width
		width = maxWidth
	}

	var left float64
	switch s.align {
	case AlignCenter:
		left = x - width/2
	case AlignRight, AlignEnd:
		left = x - width
	default:
		left = x
	}

	metrics := face.Metrics()
	ascent, descent := fixedToFloat(metrics.Ascent), fixedToFloat(metrics.Descent)
	var baseline float64
	switch s.baseline {
	case BaselineTop:
		baseline = y + ascent
	case BaselineMiddle:
		baseline = y + (ascent-descent)/2
	case BaselineBottom:
		baseline = y - descent
	default:
		baseline = y
	}

	// The glyphs are rasterized at most rasterLimit pixels wide or high,
	// then stretched to their size on the surface.
	extent := math.Max(fixedToFloat(bounds.Max.X-bounds.Min.X), fixedToFloat(bounds.Max.Y-bounds.Min.Y))
	ratio := math.Min(1, s.rasterLimit()/extent)
	if scale == 1 && ratio == 1 {
		mask := rasterize(face, text, bounds)
		origin := image.Pt(
			int(math.Round(left+fixedToFloat(bounds.Min.X))),
			int(math.Round(baseline+fixedToFloat(bounds.Min.Y))),
		)
		dst := mask.Bounds().Add(origin)
		draw.DrawMask(s.img, dst, image.NewUniform(s.fill), image.Point{}, mask, image.Point{}, draw.Over)
		return nil
	}

	if ratio < 1 {
		small, err := s.face(s.font.Size * ratio)
		if err != nil {
			return err
		}
		defer small.Close()
		face = small
		bounds, _ = font.BoundString(face, text)
		if bounds.Empty() {
			return nil
		}
	}
	mask := rasterize(face, text, bounds)

	sx, sy := scale/ratio, 1/ratio
	tx := left + fixedToFloat(bounds.Min.X)*sx
	ty := baseline + fixedToFloat(bounds.Min.Y)*sy
	dst := image.Rect(
		int(math.Floor(tx)), int(math.Floor(ty)),
		int(math.Ceil(tx+float64(mask.Rect.Dx())*sx)), int(math.Ceil(ty+float64(mask.Rect.Dy())*sy)),
	).Intersect(s.img.Bounds())
	if dst.Empty() {
		return nil
	}
	cover := image.NewAlpha(dst)
	draw.CatmullRom.Transform(cover, f64.Aff3{sx, 0, tx, 0, sy, ty}, mask, mask.Rect, draw.Src, nil)
	draw.DrawMask(s.img, dst, image.NewUniform(s.fill), image.Point{}, cover, dst.Min, draw.Over)
	return nil
}

func (s *surface) face(size float64) (font.Face, error) {
	face, err := s.faces.Face(s.font.Families, s.font.Weight, s.font.Style, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFont, err)
	}
	return face, nil
}

// rasterLimit is twice the largest side of the surface, kept between
// minRaster and maxRaster.
func (s *surface) rasterLimit() float64 {
	side := max(s.img.Rect.Dx(), s.img.Rect.Dy())
	return float64(min(max(2*side, minRaster), maxRaster))
}

// rasterize draws the text in an alpha mask the size of its bounds.
func rasterize(face font.Face, text string, bounds fixed.Rectangle26_6) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0,
		(bounds.Max.X - bounds.Min.X).Ceil(),
		(bounds.Max.Y - bounds.Min.Y).Ceil()))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	d.DrawString(text)
	return mask
}

func (s *surface) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "png", "image/png":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, s.img); err != nil {
		return nil, fmt.Errorf("canvas: cannot encode the surface: %w", err)
	}
	return buf.Bytes(), nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
