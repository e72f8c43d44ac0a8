package charset

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeKind identifies one color or attribute change.
type CodeKind uint8

const (
	Hilite CodeKind = iota + 1
	Underline
	Blink
	Inverse
	Foreground
	Background
)

// Code is a single display change. Foreground and Background carry either a
// palette index (0-255) or, when RGB is set, a 24-bit color in Value.
type Code struct {
	Kind  CodeKind
	Value uint32
	RGB   bool
}

// Fg returns a palette foreground code.
func Fg(i int) Code { return Code{Kind: Foreground, Value: uint32(i)} }

// Bg returns a palette background code.
func Bg(i int) Code { return Code{Kind: Background, Value: uint32(i)} }

// FgRGB returns a 24-bit foreground code.
func FgRGB(rgb uint32) Code { return Code{Kind: Foreground, Value: rgb & 0xffffff, RGB: true} }

// BgRGB returns a 24-bit background code.
func BgRGB(rgb uint32) Code { return Code{Kind: Background, Value: rgb & 0xffffff, RGB: true} }

// TokenKind says what a Token does to the display state.
type TokenKind uint8

const (
	// TokenText is literal text.
	TokenText TokenKind = iota
	// TokenOpen applies Codes on top of the current state.
	TokenOpen
	// TokenClose undoes the most recent TokenOpen.
	TokenClose
	// TokenReset returns to the default state.
	TokenReset
)

// Token is one element of a parsed string.
type Token struct {
	Kind  TokenKind
	Text  string
	Codes []Code
}

// Color names how a string carries color.
type Color uint8

const (
	// ColorNone treats every byte as text.
	ColorNone Color = iota
	// ColorANSI uses raw SGR escape sequences.
	ColorANSI
	// ColorPUA uses TinyMUX private-use code points. Requires UTF-8.
	ColorPUA
	// ColorMarkup uses PennMUSH \x02c...\x03 markup.
	ColorMarkup
)

func (c Color) String() string {
	switch c {
	case ColorANSI:
		return "ansi"
	case ColorPUA:
		return "pua"
	case ColorMarkup:
		return "markup"
	}
	return "none"
}

// Parse splits s into tokens according to its color encoding.
func Parse(c Color, s string) []Token {
	switch c {
	case ColorANSI:
		return parseANSI(s)
	case ColorPUA:
		return parsePUA(s)
	case ColorMarkup:
		return parseMarkup(s)
	}
	if s == "" {
		return nil
	}
	return []Token{{Kind: TokenText, Text: s}}
}

// Render joins tokens using a color encoding. ColorNone drops every code.
func Render(c Color, toks []Token) string {
	switch c {
	case ColorANSI:
		return renderStateful(toks, ansiSequence, "\x1b[0m")
	case ColorPUA:
		return renderStateful(toks, puaSequence, string(puaReset))
	case ColorMarkup:
		return renderMarkup(toks)
	}
	var b strings.Builder
	for _, t := range toks {
		if t.Kind == TokenText {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// HasColor reports whether s carries any code in encoding c.
func HasColor(c Color, s string) bool {
	switch c {
	case ColorANSI:
		return strings.Contains(s, "\x1b[")
	case ColorMarkup:
		return strings.Contains(s, "\x02c")
	case ColorPUA:
		for _, r := range s {
			if isPUA(r) {
				return true
			}
		}
	}
	return false
}

func appendText(toks []Token, s string) []Token {
	if s == "" {
		return toks
	}
	if n := len(toks); n > 0 && toks[n-1].Kind == TokenText {
		toks[n-1].Text += s
		return toks
	}
	return append(toks, Token{Kind: TokenText, Text: s})
}

// renderStateful writes encodings that have no nesting. A close rewinds to
// the default state and reapplies whatever is still open.
func renderStateful(toks []Token, seq func([]Code) string, reset string) string {
	var b strings.Builder
	var stack [][]Code
	for _, t := range toks {
		switch t.Kind {
		case TokenText:
			b.WriteString(t.Text)
		case TokenOpen:
			stack = append(stack, t.Codes)
			b.WriteString(seq(t.Codes))
		case TokenClose:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			b.WriteString(reset)
			for _, codes := range stack {
				b.WriteString(seq(codes))
			}
		case TokenReset:
			stack = stack[:0]
			b.WriteString(reset)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// ANSI

func parseANSI(s string) []Token {
	var toks []Token
	for len(s) > 0 {
		i := strings.Index(s, "\x1b[")
		if i < 0 {
			return appendText(toks, s)
		}
		toks = appendText(toks, s[:i])
		rest := s[i+2:]
		end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > ';' })
		if end < 0 || rest[end] != 'm' {
			// Not SGR. Keep it as text.
			toks = appendText(toks, s[i:i+2])
			s = rest
			continue
		}
		toks = append(toks, sgrTokens(rest[:end])...)
		s = rest[end+1:]
	}
	return toks
}

func sgrTokens(params string) []Token {
	if params == "" {
		return []Token{{Kind: TokenReset}}
	}
	var toks []Token
	var codes []Code
	flush := func() {
		if len(codes) > 0 {
			toks = append(toks, Token{Kind: TokenOpen, Codes: codes})
			codes = nil
		}
	}
	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil && parts[i] != "" {
			continue
		}
		switch {
		case n == 0:
			flush()
			toks = append(toks, Token{Kind: TokenReset})
		case n == 1:
			codes = append(codes, Code{Kind: Hilite})
		case n == 4:
			codes = append(codes, Code{Kind: Underline})
		case n == 5:
			codes = append(codes, Code{Kind: Blink})
		case n == 7:
			codes = append(codes, Code{Kind: Inverse})
		case n >= 30 && n <= 37:
			codes = append(codes, Fg(n-30))
		case n >= 40 && n <= 47:
			codes = append(codes, Bg(n-40))
		case n >= 90 && n <= 97:
			codes = append(codes, Fg(n-90+8))
		case n >= 100 && n <= 107:
			codes = append(codes, Bg(n-100+8))
		case n == 38 || n == 48:
			c, used := extendedColor(parts[i+1:])
			i += used
			if used == 0 {
				continue
			}
			if n == 48 {
				c.Kind = Background
			}
			codes = append(codes, c)
		}
	}
	flush()
	return toks
}

// extendedColor reads the arguments after 38 or 48.
func extendedColor(args []string) (Code, int) {
	num := func(i int) (uint32, bool) {
		if i >= len(args) {
			return 0, false
		}
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 || n > 255 {
			return 0, false
		}
		return uint32(n), true
	}
	mode, ok := num(0)
	if !ok {
		return Code{}, 0
	}
	switch mode {
	case 5:
		if v, ok := num(1); ok {
			return Fg(int(v)), 2
		}
	case 2:
		r, ok1 := num(1)
		g, ok2 := num(2)
		bl, ok3 := num(3)
		if ok1 && ok2 && ok3 {
			return FgRGB(r<<16 | g<<8 | bl), 4
		}
	}
	return Code{}, 0
}

func ansiSequence(codes []Code) string {
	var params []string
	for _, c := range codes {
		switch c.Kind {
		case Hilite:
			params = append(params, "1")
		case Underline:
			params = append(params, "4")
		case Blink:
			params = append(params, "5")
		case Inverse:
			params = append(params, "7")
		case Foreground, Background:
			base, bright, ext := 30, 90, 38
			if c.Kind == Background {
				base, bright, ext = 40, 100, 48
			}
			switch {
			case c.RGB:
				params = append(params, fmt.Sprintf("%d;2;%d;%d;%d", ext, c.Value>>16&0xff, c.Value>>8&0xff, c.Value&0xff))
			case c.Value < 8:
				params = append(params, strconv.Itoa(base+int(c.Value)))
			case c.Value < 16:
				params = append(params, strconv.Itoa(bright+int(c.Value)-8))
			default:
				params = append(params, fmt.Sprintf("%d;5;%d", ext, c.Value))
			}
		}
	}
	if len(params) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}

// ---------------------------------------------------------------------------
// TinyMUX private-use code points

const (
	puaReset     = rune(0xF500)
	puaHilite    = rune(0xF501)
	puaUnderline = rune(0xF504)
	puaBlink     = rune(0xF505)
	puaInverse   = rune(0xF507)
	puaFg        = rune(0xF600)
	puaBg        = rune(0xF700)

	// 24-bit colors take two code points: red and green in plane 15, then
	// blue in plane 16. The blue range says which side the color is for.
	puaRG     = rune(0xF0000)
	puaFgBlue = rune(0x100000)
	puaBgBlue = rune(0x100100)
)

func isPUA(r rune) bool {
	return (r >= puaReset && r < puaBg+256) || (r >= puaRG && r < puaBgBlue+256)
}

func parsePUA(s string) []Token {
	var toks []Token
	var codes []Code
	var text strings.Builder
	var rg uint32
	pending := false
	flushText := func() {
		toks = appendText(toks, text.String())
		text.Reset()
	}
	flushCodes := func() {
		if len(codes) > 0 {
			toks = append(toks, Token{Kind: TokenOpen, Codes: codes})
			codes = nil
		}
	}
	for _, r := range s {
		if !isPUA(r) {
			flushCodes()
			text.WriteRune(r)
			pending = false
			continue
		}
		flushText()
		switch {
		case r == puaReset:
			flushCodes()
			toks = append(toks, Token{Kind: TokenReset})
		case r == puaHilite:
			codes = append(codes, Code{Kind: Hilite})
		case r == puaUnderline:
			codes = append(codes, Code{Kind: Underline})
		case r == puaBlink:
			codes = append(codes, Code{Kind: Blink})
		case r == puaInverse:
			codes = append(codes, Code{Kind: Inverse})
		case r >= puaFg && r < puaFg+256:
			codes = append(codes, Fg(int(r-puaFg)))
		case r >= puaBg && r < puaBg+256:
			codes = append(codes, Bg(int(r-puaBg)))
		case r >= puaRG && r < puaFgBlue:
			rg, pending = uint32(r-puaRG), true
		case r >= puaFgBlue && r < puaBgBlue && pending:
			codes = append(codes, FgRGB(rg<<8|uint32(r-puaFgBlue)))
			pending = false
		case r >= puaBgBlue && pending:
			codes = append(codes, BgRGB(rg<<8|uint32(r-puaBgBlue)))
			pending = false
		}
	}
	flushCodes()
	flushText()
	return toks
}

func puaSequence(codes []Code) string {
	var b strings.Builder
	for _, c := range codes {
		switch c.Kind {
		case Hilite:
			b.WriteRune(puaHilite)
		case Underline:
			b.WriteRune(puaUnderline)
		case Blink:
			b.WriteRune(puaBlink)
		case Inverse:
			b.WriteRune(puaInverse)
		case Foreground, Background:
			switch {
			case c.RGB:
				b.WriteRune(puaRG + rune(c.Value>>8))
				if c.Kind == Foreground {
					b.WriteRune(puaFgBlue + rune(c.Value&0xff))
				} else {
					b.WriteRune(puaBgBlue + rune(c.Value&0xff))
				}
			case c.Kind == Foreground:
				b.WriteRune(puaFg + rune(c.Value&0xff))
			default:
				b.WriteRune(puaBg + rune(c.Value&0xff))
			}
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// PennMUSH markup

const (
	markupStart = "\x02c"
	markupEnd   = '\x03'
	markupClose = "\x02c/\x03"
)

// markupColors are the color letters in palette order.
const markupColors = "xrgybmcw"

func parseMarkup(s string) []Token {
	var toks []Token
	for len(s) > 0 {
		i := strings.Index(s, markupStart)
		if i < 0 {
			return appendText(toks, s)
		}
		toks = appendText(toks, s[:i])
		rest := s[i+len(markupStart):]
		end := strings.IndexByte(rest, markupEnd)
		if end < 0 {
			return appendText(toks, s[i:])
		}
		body := rest[:end]
		s = rest[end+1:]
		if strings.HasPrefix(body, "/") && !strings.HasPrefix(body, "/#") {
			toks = append(toks, Token{Kind: TokenClose})
			continue
		}
		toks = append(toks, Token{Kind: TokenOpen, Codes: markupCodes(body)})
	}
	return toks
}

func markupCodes(body string) []Code {
	var codes []Code
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '#' || (ch == '/' && i+1 < len(body) && body[i+1] == '#'):
			bg := ch == '/'
			if bg {
				i++
			}
			if i+7 > len(body) {
				return codes
			}
			v, err := strconv.ParseUint(body[i+1:i+7], 16, 32)
			if err == nil {
				if bg {
					codes = append(codes, BgRGB(uint32(v)))
				} else {
					codes = append(codes, FgRGB(uint32(v)))
				}
			}
			i += 6
		case ch == 'h':
			codes = append(codes, Code{Kind: Hilite})
		case ch == 'u':
			codes = append(codes, Code{Kind: Underline})
		case ch == 'f':
			codes = append(codes, Code{Kind: Blink})
		case ch == 'i':
			codes = append(codes, Code{Kind: Inverse})
		default:
			if j := strings.IndexByte(markupColors, ch); j >= 0 {
				codes = append(codes, Fg(j))
			} else if j := strings.IndexByte(strings.ToUpper(markupColors), ch); j >= 0 {
				codes = append(codes, Bg(j))
			}
		}
	}
	return codes
}

// Letters spells codes the way PennMUSH markup and its ansi() function do.
func Letters(codes []Code) string { return markupSequence(codes) }

func markupSequence(codes []Code) string {
	var b strings.Builder
	for _, c := range codes {
		switch c.Kind {
		case Hilite:
			b.WriteByte('h')
		case Underline:
			b.WriteByte('u')
		case Blink:
			b.WriteByte('f')
		case Inverse:
			b.WriteByte('i')
		case Foreground, Background:
			if !c.RGB && c.Value < 8 {
				letter := markupColors[c.Value]
				if c.Kind == Background {
					letter -= 'a' - 'A'
				}
				b.WriteByte(letter)
				continue
			}
			if !c.RGB && c.Value < 16 {
				if c.Kind == Foreground {
					b.WriteByte('h')
					b.WriteByte(markupColors[c.Value-8])
				} else {
					b.WriteByte(markupColors[c.Value-8] - ('a' - 'A'))
				}
				continue
			}
			rgb := c.Value
			if !c.RGB {
				rgb = PaletteRGB(int(c.Value))
			}
			if c.Kind == Background {
				b.WriteByte('/')
			}
			fmt.Fprintf(&b, "#%06x", rgb)
		}
	}
	return b.String()
}

func renderMarkup(toks []Token) string {
	var b strings.Builder
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case TokenText:
			b.WriteString(t.Text)
		case TokenOpen:
			b.WriteString(markupStart)
			b.WriteString(markupSequence(t.Codes))
			b.WriteByte(markupEnd)
			depth++
		case TokenClose:
			if depth > 0 {
				b.WriteString(markupClose)
				depth--
			}
		case TokenReset:
			for ; depth > 0; depth-- {
				b.WriteString(markupClose)
			}
		}
	}
	for ; depth > 0; depth-- {
		b.WriteString(markupClose)
	}
	return b.String()
}
