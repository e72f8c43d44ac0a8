package extract

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/charset"
)

// specials are evaluated by the parser and must be backslash-escaped.
const specials = `%\[]{}(),;`

// escape rewrites v so that evaluating it once yields v again. PennMUSH
// color is wrapped in ansi() calls; the other lineages use %x codes.
func (x *extractor) escape(v string) string {
	toks := charset.Parse(x.enc.Color, v)
	last := -1
	for i, t := range toks {
		if t.Kind == charset.TokenText {
			last = i
		}
	}

	e := &escaper{start: true}
	var stack [][]charset.Code
	for i, t := range toks {
		switch t.Kind {
		case charset.TokenText:
			text := e.text(t.Text, i == last)
			if x.l.Named && len(stack) > 0 {
				e.b.WriteString("[ansi(" + charset.Letters(flatten(stack)) + "," + text + ")]")
			} else {
				e.b.WriteString(text)
			}
		case charset.TokenOpen:
			stack = append(stack, t.Codes)
			if !x.l.Named {
				e.b.WriteString(percentColor(t.Codes))
			}
		case charset.TokenClose:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if !x.l.Named {
				e.b.WriteString("%xn")
				for _, codes := range stack {
					e.b.WriteString(percentColor(codes))
				}
			}
		case charset.TokenReset:
			stack = stack[:0]
			if !x.l.Named {
				e.b.WriteString("%xn")
			}
		}
	}
	return e.b.String()
}

type escaper struct {
	b         strings.Builder
	start     bool
	prevSpace bool
}

// text escapes one run of plain text. Spaces at either end of the value,
// and every space after the first in a run, become %b.
func (e *escaper) text(s string, final bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		space := false
		switch {
		case c == ' ':
			space = true
			if e.start || e.prevSpace || (final && i == len(s)-1) {
				b.WriteString("%b")
			} else {
				b.WriteByte(' ')
			}
		case c == '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			b.WriteString("%r")
		case c == '\n':
			b.WriteString("%r")
		case c == '\t':
			b.WriteString("%t")
		case strings.IndexByte(specials, c) >= 0:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		if c != ' ' {
			e.start = false
		}
		e.prevSpace = space
	}
	return b.String()
}

func flatten(stack [][]charset.Code) []charset.Code {
	var out []charset.Code
	for _, codes := range stack {
		out = append(out, codes...)
	}
	return out
}

const colorLetters = "xrgybmcw"

// percentColor spells codes as %x substitutions.
func percentColor(codes []charset.Code) string {
	var b strings.Builder
	for _, c := range codes {
		switch c.Kind {
		case charset.Hilite:
			b.WriteString("%xh")
		case charset.Underline:
			b.WriteString("%xu")
		case charset.Blink:
			b.WriteString("%xf")
		case charset.Inverse:
			b.WriteString("%xi")
		case charset.Foreground, charset.Background:
			bg := c.Kind == charset.Background
			if !c.RGB && c.Value < 16 {
				letter := colorLetters[c.Value%8]
				if bg {
					letter -= 'a' - 'A'
				} else if c.Value >= 8 {
					b.WriteString("%xh")
				}
				b.WriteString("%x")
				b.WriteByte(letter)
				continue
			}
			rgb := c.Value
			if !c.RGB {
				rgb = charset.PaletteRGB(int(c.Value))
			}
			if bg {
				fmt.Fprintf(&b, "%%X<#%06x>", rgb)
			} else {
				fmt.Fprintf(&b, "%%x<#%06x>", rgb)
			}
		}
	}
	return b.String()
}
