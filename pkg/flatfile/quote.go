package flatfile

import "strings"

// quoteString produces a quoted string with escapes for the flatfile
// format. withControls also escapes CR, LF, TAB and ESC.
func quoteString(s string, withControls bool) string {
	var buf strings.Builder
	buf.Grow(len(s) + 2)
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf.WriteString(`\"`)
		case c == '\\':
			buf.WriteString(`\\`)
		case withControls && c == '\n':
			buf.WriteString(`\n`)
		case withControls && c == '\r':
			buf.WriteString(`\r`)
		case withControls && c == '\t':
			buf.WriteString(`\t`)
		case withControls && c == 0x1b:
			buf.WriteString(`\e`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}

func unescape(c byte, withControls bool) byte {
	if !withControls {
		return c
	}
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'e':
		return 0x1b
	}
	return c
}

// plainString prepares a value for files without quoting. Embedded line
// breaks are stored as CR LF so the reader can join continuation lines.
func plainString(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
