package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Placeholder replaces runes the fallback font cannot draw.
const Placeholder = '?'

var emojiAliases = map[rune]string{
	'😊': ":)",
	'🤖': "[BOT]",
	'💻': "[PC]",
	'🎭': "[MASK]",
	'🎪': "[SHOW]",
}

// Sanitize reduces text to printable ASCII. Dashes become '-', a few emoji
// get readable aliases and everything else becomes Placeholder.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == '\t':
			b.WriteByte(' ')
		case r == '—' || r == '–':
			b.WriteByte('-')
		case r < 32 || r == 127:
			// drop control characters
		case r < 128:
			b.WriteRune(r)
		default:
			if r == '\uFE0F' {
				continue // emoji variation selector
			}
			if alias, ok := emojiAliases[r]; ok {
				b.WriteString(alias)
				continue
			}
			b.WriteRune(Placeholder)
		}
	}
	return b.String()
}

// ParseColor accepts SVG color names ("white") and #rgb / #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
