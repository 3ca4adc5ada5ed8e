package avatar

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMissingName is returned when no name is given to build the
	// initials from.
	ErrMissingName = errors.New("avatar: missing name")
	// ErrInvalidOption is returned by the strict resolution for values the
	// default fallback would have let through.
	ErrInvalidOption = errors.New("avatar: invalid option")
	// ErrFontRegistration is returned when a font cannot be registered.
	ErrFontRegistration = errors.New("avatar: cannot register font")
)

// Case is the policy used for the letter case of the initials.
type Case string

const (
	// CaseUpper upper-cases the initials.
	CaseUpper Case = "upper"
	// CaseLower lower-cases the initials.
	CaseLower Case = "lower"
	// CaseAsTyped keeps the initials as they appear in the name. Any value
	// that is not upper or lower behaves the same.
	CaseAsTyped Case = "as-typed"
)

// Default values of the options.
const (
	DefaultPath       = "/public/avatars"
	DefaultWidth      = 1000
	DefaultHeight     = 1000
	DefaultColor      = "#18181b"
	DefaultBackground = "#fafafa"
	DefaultFontFamily = "Arial"
	DefaultFontWeight = "normal"
	DefaultFontStyle  = "normal"
	DefaultFontSize   = 400
	DefaultCase       = CaseUpper
)

// Options can be used to give options for the generated image. Only the Name
// is required. A zero value for any other field, including an explicit 0 or
// "", means the default value.
type Options struct {
	Name string `json:"name"`
	// Path is the output directory, relative to the root directory.
	Path       string `json:"path,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Color      string `json:"color,omitempty"`
	Background string `json:"background,omitempty"`
	FontFamily string `json:"font_family,omitempty"`
	FontWeight string `json:"font_weight,omitempty"`
	FontStyle  string `json:"font_style,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	Case       Case   `json:"case,omitempty"`
}

// Config is the resolved set of options: every field has a value.
type Config struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Color      string `json:"color"`
	Background string `json:"background"`
	FontFamily string `json:"font_family"`
	FontWeight string `json:"font_weight"`
	FontStyle  string `json:"font_style"`
	FontSize   int    `json:"font_size"`
	Case       Case   `json:"case"`
}

// Font returns the font descriptor used to draw the initials, in the CSS
// shorthand form.
func (c Config) Font() string {
	return c.FontStyle + " " + c.FontWeight + " " + strconv.Itoa(c.FontSize) + "px " + c.FontFamily
}

// Resolve merges the options over the default values. Any zero value falls
// back to the default, so an explicit Width of 0 gives a 1000px wide image.
func Resolve(opts Options) (Config, error) {
	if opts.Name == "" {
		return Config{}, ErrMissingName
	}
	return Config{
		Name:       opts.Name,
		Path:       or(opts.Path, DefaultPath),
		Width:      or(opts.Width, DefaultWidth),
		Height:     or(opts.Height, DefaultHeight),
		Color:      or(opts.Color, DefaultColor),
		Background: or(opts.Background, DefaultBackground),
		FontFamily: or(opts.FontFamily, DefaultFontFamily),
		FontWeight: or(opts.FontWeight, DefaultFontWeight),
		FontStyle:  or(opts.FontStyle, DefaultFontStyle),
		FontSize:   or(opts.FontSize, DefaultFontSize),
		Case:       or(opts.Case, DefaultCase),
	}, nil
}

// ResolveStrict works like Resolve, but rejects the negative sizes instead
// of passing them to the rasterizer.
func ResolveStrict(opts Options) (Config, error) {
	cfg, err := Resolve(opts)
	if err != nil {
		return Config{}, err
	}
	switch {
	case cfg.Width < 0:
		return Config{}, fmt.Errorf("%w: width %d", ErrInvalidOption, cfg.Width)
	case cfg.Height < 0:
		return Config{}, fmt.Errorf("%w: height %d", ErrInvalidOption, cfg.Height)
	case cfg.FontSize < 0:
		return Config{}, fmt.Errorf("%w: font size %d", ErrInvalidOption, cfg.FontSize)
	}
	return cfg, nil
}

func or[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
