package fonts

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Weight is a CSS font weight, between 1 and 1000.
type Weight int

const (
	// WeightNormal is the weight of the "normal" keyword.
	WeightNormal Weight = 400
	// WeightBold is the weight of the "bold" keyword.
	WeightBold Weight = 700
)

// ParseWeight parses a CSS font-weight value: normal, bold, bolder, lighter
// or a number.
func ParseWeight(s string) (Weight, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return WeightNormal, nil
	case "bold", "bolder":
		return WeightBold, nil
	case "lighter":
		return 100, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, fmt.Errorf("invalid font weight %q", s)
	}
	return Weight(n), nil
}

// Style is a CSS font style.
type Style string

const (
	// StyleNormal is the upright style.
	StyleNormal Style = "normal"
	// StyleItalic is the italic style.
	StyleItalic Style = "italic"
	// StyleOblique is rendered with the italic variant.
	StyleOblique Style = "oblique"
)

// ParseStyle parses a CSS font-style value.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(s)) {
	case "", StyleNormal:
		return StyleNormal, nil
	case StyleItalic:
		return StyleItalic, nil
	case StyleOblique:
		return StyleOblique, nil
	}
	return "", fmt.Errorf("invalid font style %q", s)
}

type variant uint8

const (
	regular variant = iota
	bold
	italic
	boldItalic
)

func variantFor(w Weight, s Style) variant {
	isBold := w >= 600
	isItalic := s == StyleItalic || s == StyleOblique
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

// fallbacks lists the variants to try, the closest first.
func (v variant) fallbacks() []variant {
	switch v {
	case boldItalic:
		return []variant{boldItalic, bold, italic, regular}
	case bold:
		return []variant{bold, regular}
	case italic:
		return []variant{italic, regular}
	default:
		return []variant{regular}
	}
}

var goFonts = struct {
	once  sync.Once
	fonts map[variant]*opentype.Font
	err   error
}{}

func goFont(v variant) (*opentype.Font, error) {
	goFonts.once.Do(func() {
		goFonts.fonts = make(map[variant]*opentype.Font)
		for v, data := range map[variant][]byte{
			regular:    goregular.TTF,
			bold:       gobold.TTF,
			italic:     goitalic.TTF,
			boldItalic: gobolditalic.TTF,
		} {
			f, err := opentype.Parse(data)
			if err != nil {
				goFonts.err = fmt.Errorf("fonts: cannot parse the Go fonts: %w", err)
				return
			}
			goFonts.fonts[v] = f
		}
	})
	if goFonts.err != nil {
		return nil, goFonts.err
	}
	return goFonts.fonts[v], nil
}
