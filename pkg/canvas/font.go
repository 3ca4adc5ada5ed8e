package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cozy/cozy-avatars/pkg/fonts"
)

// Font is a parsed CSS font shorthand.
type Font struct {
	Style    fonts.Style
	Weight   fonts.Weight
	Size     float64
	Families []string
}

// String returns the font in the CSS shorthand form.
func (f Font) String() string {
	return fmt.Sprintf("%s %d %spx %s", f.Style, f.Weight,
		strconv.FormatFloat(f.Size, 'f', -1, 64), strings.Join(f.Families, ", "))
}

var defaultFont = Font{
	Style:    fonts.StyleNormal,
	Weight:   fonts.WeightNormal,
	Size:     10,
	Families: []string{"sans-serif"},
}

// ParseFont parses the subset of the CSS font shorthand used by the canvas
// API: [style] [variant] [weight] <size>px[/line-height] <family>[, <family>...].
func ParseFont(desc string) (Font, error) {
	f := Font{Style: fonts.StyleNormal, Weight: fonts.WeightNormal}
	tokens := strings.Fields(desc)

	i := 0
	for ; i < len(tokens); i++ {
		tok := strings.ToLower(tokens[i])
		if size, ok := parseSize(tok); ok {
			f.Size = size
			break
		}
		switch tok {
		case "normal", "small-caps":
			continue
		case "italic", "oblique":
			f.Style = fonts.Style(tok)
			continue
		}
		w, err := fonts.ParseWeight(tok)
		if err != nil {
			return Font{}, fmt.Errorf("%w: %q", ErrInvalidFont, desc)
		}
		f.Weight = w
	}
	if f.Size <= 0 || i >= len(tokens)-1 {
		return Font{}, fmt.Errorf("%w: %q", ErrInvalidFont, desc)
	}

	for _, family := range strings.Split(strings.Join(tokens[i+1:], " "), ",") {
		family = strings.Trim(strings.TrimSpace(family), `"'`)
		if family != "" {
			f.Families = append(f.Families, family)
		}
	}
	if len(f.Families) == 0 {
		return Font{}, fmt.Errorf("%w: %q", ErrInvalidFont, desc)
	}
	return f, nil
}

func parseSize(tok string) (float64, bool) {
	if slash := strings.IndexByte(tok, '/'); slash >= 0 {
		tok = tok[:slash]
	}
	if !strings.HasSuffix(tok, "px") {
		return 0, false
	}
	size, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64)
	if err != nil {
		return 0, false
	}
	return size, true
}
