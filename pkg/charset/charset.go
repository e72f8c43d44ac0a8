// Package charset converts attribute text between the character sets and
// color encodings used by the MUSH lineages.
package charset

import (
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Replacement stands in for characters the target set cannot hold.
const Replacement = '?'

// Latin1ToUTF8 decodes ISO 8859-1 text.
func Latin1ToUTF8(s string) string {
	out, _, err := transform.String(charmap.ISO8859_1.NewDecoder(), s)
	if err != nil {
		// Every byte is a valid Latin-1 character.
		return s
	}
	return out
}

func outside(limit rune) runes.Transformer {
	return runes.Map(func(r rune) rune {
		if r > limit {
			return Replacement
		}
		return r
	})
}

// UTF8ToLatin1 encodes UTF-8 text as ISO 8859-1. Text is composed first so
// that accented letters with a Latin-1 form keep it; anything else becomes
// Replacement.
func UTF8ToLatin1(s string) string {
	t := transform.Chain(norm.NFC, outside(0xff), charmap.ISO8859_1.NewEncoder())
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// UTF8ToASCII strips diacritics and replaces any remaining non-ASCII
// character.
func UTF8ToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, outside(0x7f))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// IsASCII reports whether s holds only 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
