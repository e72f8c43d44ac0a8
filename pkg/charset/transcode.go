package charset

import (
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// Encoding describes how attribute text is stored in a snapshot.
type Encoding struct {
	UTF8  bool
	Color Color
	// Full marks encodings that keep 24-bit and 256-color codes.
	Full bool
}

var (
	Latin1ANSI = Encoding{Color: ColorANSI}
	UTF8PUA    = Encoding{UTF8: true, Color: ColorPUA, Full: true}
	PennMarkup = Encoding{Color: ColorMarkup, Full: true}
)

// For returns the text encoding of a lineage at a version and header flag
// set.
func For(l *lineage.Lineage, version int, header uint32) Encoding {
	if l == lineage.P6H {
		if header&lineage.DBFSpiffyAFAnsi != 0 {
			return PennMarkup
		}
		return Latin1ANSI
	}
	if v, ok := l.Version(version); ok && v.UTF8 {
		return UTF8PUA
	}
	return Latin1ANSI
}

// Transcode converts s from one encoding to another. Colors are carried
// through the token model; when the target keeps only the 16-color palette,
// wider codes are reduced.
func Transcode(s string, from, to Encoding) string {
	if from == to || s == "" {
		return s
	}
	text := s
	if from.Color != to.Color && HasColor(from.Color, s) {
		toks := Parse(from.Color, text)
		for i := range toks {
			if toks[i].Kind == TokenText {
				toks[i].Text = convertText(toks[i].Text, from.UTF8, to.UTF8)
			}
		}
		if !to.Full {
			toks = Reduce16(toks)
		}
		return Render(to.Color, toks)
	}
	if from.Full && !to.Full && HasColor(from.Color, s) {
		text = Render(from.Color, Reduce16(Parse(from.Color, text)))
	}
	return convertText(text, from.UTF8, to.UTF8)
}

func convertText(s string, fromUTF8, toUTF8 bool) string {
	switch {
	case fromUTF8 == toUTF8:
		return s
	case toUTF8:
		return Latin1ToUTF8(s)
	default:
		return UTF8ToLatin1(s)
	}
}

// DowngradeColor restricts the colors of s to the 16-color palette without
// changing its encoding.
func DowngradeColor(c Color, s string) string {
	if !HasColor(c, s) {
		return s
	}
	return Render(c, Reduce16(Parse(c, s)))
}
