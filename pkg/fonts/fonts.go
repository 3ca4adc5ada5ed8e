// Package fonts keeps the process-wide table of font families that can be
// used to draw the initials.
//
// A family is registered from a TrueType or OpenType file. Several files can
// be registered under the same family (regular, bold, italic...), the
// variant being read from the font's own subfamily name. Families that were
// never registered fall back to the Go fonts embedded in the binary.
package fonts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cozy/cozy-avatars/pkg/logger"
	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

var (
	// ErrUnsupportedFont is returned when the file is not a TrueType or
	// OpenType font.
	ErrUnsupportedFont = errors.New("fonts: unsupported font file")
	// ErrInvalidFamily is returned when registering a font without family.
	ErrInvalidFamily = errors.New("fonts: invalid family name")
)

// Registry maps family names to parsed fonts.
type Registry struct {
	fs       afero.Fs
	log      logger.Logger
	mu       sync.RWMutex
	families map[string]map[variant]*opentype.Font
}

// NewRegistry returns an empty registry reading the font files from fs.
func NewRegistry(fs afero.Fs) *Registry {
	return &Registry{
		fs:       fs,
		log:      logger.WithNamespace("fonts"),
		families: make(map[string]map[variant]*opentype.Font),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, reading from the OS
// filesystem.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(afero.NewOsFs())
	})
	return defaultRegistry
}

// RegisterFromPath parses the font file at path and makes it available under
// the given family name. Registering the same file again is a no-op from the
// caller's point of view: it replaces the previous entry for this variant.
func (r *Registry) RegisterFromPath(path, family string) error {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return fmt.Errorf("fonts: cannot read %q: %w", path, err)
	}
	if err := r.Register(family, data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	r.log.WithFields(logger.Fields{"family": family, "path": path}).
		Debugf("font registered")
	return nil
}

// Register parses the font data and makes it available under the given
// family name. The data must not be modified afterwards.
func (r *Registry) Register(family string, data []byte) error {
	key := familyKey(family)
	if key == "" {
		return ErrInvalidFamily
	}

	kind, _ := filetype.Match(data)
	switch kind.Extension {
	case "ttf", "otf":
	default:
		return fmt.Errorf("%w: detected %q", ErrUnsupportedFont, kind.Extension)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFont, err)
	}
	v := variantOf(f)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families[key] == nil {
		r.families[key] = make(map[variant]*opentype.Font)
	}
	r.families[key][v] = f
	return nil
}

// Has returns true if at least one font was registered for the family.
func (r *Registry) Has(family string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.families[familyKey(family)]
	return ok
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Face returns a new face for the first registered family of the list, at
// the given size in pixels. When none of the families is registered, the
// embedded Go fonts are used.
//
// The returned face is not safe for concurrent use and should be closed by
// the caller.
func (r *Registry) Face(families []string, weight Weight, style Style, size float64) (font.Face, error) {
	want := variantFor(weight, style)
	f := r.lookup(families, want)
	if f == nil {
		r.log.WithField("families", families).Debugf("no registered family, using Go fonts")
		var err error
		f, err = goFont(want)
		if err != nil {
			return nil, err
		}
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (r *Registry) lookup(families []string, want variant) *opentype.Font {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, family := range families {
		variants, ok := r.families[familyKey(family)]
		if !ok {
			continue
		}
		for _, v := range want.fallbacks() {
			if f, ok := variants[v]; ok {
				return f
			}
		}
		// Whatever is registered for this family wins over another family.
		for _, v := range []variant{regular, bold, italic, boldItalic} {
			if f, ok := variants[v]; ok {
				return f
			}
		}
	}
	return nil
}

// Family names are case-insensitive, like in CSS.
func familyKey(family string) string {
	family = strings.TrimSpace(family)
	family = strings.Trim(family, `"'`)
	return strings.ToLower(strings.TrimSpace(family))
}

func variantOf(f *opentype.Font) variant {
	var buf sfnt.Buffer
	sub, err := f.Name(&buf, sfnt.NameIDSubfamily)
	if err != nil {
		return regular
	}
	sub = strings.ToLower(sub)
	isBold := strings.Contains(sub, "bold") || strings.Contains(sub, "black") || strings.Contains(sub, "heavy")
	isItalic := strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
	switch {
	case isBold && isItalic:
		return boldItalic
	case isBold:
		return bold
	case isItalic:
		return italic
	default:
		return regular
	}
}
