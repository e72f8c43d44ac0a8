package charset

import (
	"testing"

	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatin1RoundTrip(t *testing.T) {
	latin := "caf\xe9 na\xefve"
	utf := Latin1ToUTF8(latin)
	assert.Equal(t, "café naïve", utf)
	assert.Equal(t, latin, UTF8ToLatin1(utf))
}

func TestUTF8ToLatin1Replaces(t *testing.T) {
	assert.Equal(t, "snow ?", UTF8ToLatin1("snow ☃"))
	// Decomposed e + combining acute composes to a single Latin-1 byte.
	assert.Equal(t, "caf\xe9", UTF8ToLatin1("cafe\u0301"))
}

func TestUTF8ToASCII(t *testing.T) {
	assert.Equal(t, "cafe naive ?", UTF8ToASCII("café naïve ☃"))
	assert.True(t, IsASCII(UTF8ToASCII("Ünïcödé")))
}

func TestParseANSI(t *testing.T) {
	toks := Parse(ColorANSI, "\x1b[1;31mhi\x1b[0m there")
	require.Len(t, toks, 4)
	assert.Equal(t, TokenOpen, toks[0].Kind)
	assert.Equal(t, []Code{{Kind: Hilite}, Fg(1)}, toks[0].Codes)
	assert.Equal(t, "hi", toks[1].Text)
	assert.Equal(t, TokenReset, toks[2].Kind)
	assert.Equal(t, " there", toks[3].Text)
}

func TestParseANSIExtended(t *testing.T) {
	toks := Parse(ColorANSI, "\x1b[38;2;255;128;0;48;5;200mx")
	require.Len(t, toks, 2)
	assert.Equal(t, []Code{FgRGB(0xff8000), Bg(200)}, toks[0].Codes)
	assert.Equal(t, "\x1b[38;2;255;128;0;48;5;200mx", Render(ColorANSI, toks))
}

func TestNonSGRSequenceIsText(t *testing.T) {
	s := "a\x1b[2Jb"
	assert.Equal(t, s, Render(ColorANSI, Parse(ColorANSI, s)))
}

func TestANSIMarkupRoundTrip(t *testing.T) {
	ansi := "\x1b[1;31mhi\x1b[0m"
	markup := Render(ColorMarkup, Parse(ColorANSI, ansi))
	assert.Equal(t, "\x02chr\x03hi\x02c/\x03", markup)
	assert.Equal(t, ansi, Render(ColorANSI, Parse(ColorMarkup, markup)))
}

func TestMarkupNestedClose(t *testing.T) {
	s := "\x02cr\x03red \x02cB\x03both\x02c/\x03 red\x02c/\x03"
	got := Render(ColorANSI, Parse(ColorMarkup, s))
	assert.Equal(t, "\x1b[31mred \x1b[44mboth\x1b[0m\x1b[31m red\x1b[0m", got)
}

func TestMarkupHex(t *testing.T) {
	toks := Parse(ColorMarkup, "\x02c#ff0000/#0000ff\x03x\x02c/\x03")
	require.Len(t, toks, 3)
	assert.Equal(t, []Code{FgRGB(0xff0000), BgRGB(0x0000ff)}, toks[0].Codes)
}

func TestMarkupUnclosedIsClosed(t *testing.T) {
	got := Render(ColorMarkup, Parse(ColorANSI, "\x1b[32mgreen"))
	assert.Equal(t, "\x02cg\x03green\x02c/\x03", got)
}

func TestPUARoundTrip(t *testing.T) {
	toks := []Token{
		{Kind: TokenOpen, Codes: []Code{{Kind: Hilite}, Fg(2), BgRGB(0x102030)}},
		{Kind: TokenText, Text: "ok"},
		{Kind: TokenReset},
	}
	s := Render(ColorPUA, toks)
	assert.True(t, HasColor(ColorPUA, s))
	assert.Equal(t, toks, Parse(ColorPUA, s))
}

func TestNearest16(t *testing.T) {
	assert.Equal(t, 0, Nearest16(0x000000))
	assert.Equal(t, 1, Nearest16(0x800000))
	assert.Equal(t, 9, Nearest16(0xff0000))
	assert.Equal(t, 6, Nearest16(0x00a0a0))
	assert.Equal(t, 15, Nearest16(0xffffff))
}

func TestPaletteRGB(t *testing.T) {
	assert.Equal(t, uint32(0xff0000), PaletteRGB(9))
	assert.Equal(t, uint32(0xff0000), PaletteRGB(196))
	assert.Equal(t, uint32(0x080808), PaletteRGB(232))
}

func TestDowngradeColor(t *testing.T) {
	got := DowngradeColor(ColorANSI, "\x1b[38;2;255;0;0mx\x1b[48;5;196my")
	assert.Equal(t, "\x1b[91mx\x1b[101my", got)
	assert.Equal(t, "plain", DowngradeColor(ColorANSI, "plain"))
}

func TestTranscodeLatin1ToUTF8PUA(t *testing.T) {
	got := Transcode("\x1b[31mcaf\xe9\x1b[0m", Latin1ANSI, UTF8PUA)
	assert.Equal(t, "\uf601caf\u00e9\uf500", got)
	back := Transcode(got, UTF8PUA, Latin1ANSI)
	assert.Equal(t, "\x1b[31mcaf\xe9\x1b[0m", back)
}

func TestTranscodeReducesForLatin1(t *testing.T) {
	in := Render(ColorPUA, []Token{{Kind: TokenOpen, Codes: []Code{FgRGB(0x00ff00)}}, {Kind: TokenText, Text: "g"}})
	assert.Equal(t, "\x1b[92mg", Transcode(in, UTF8PUA, Latin1ANSI))
}

func TestTranscodePlainText(t *testing.T) {
	assert.Equal(t, "caf\xe9", Transcode("café", UTF8PUA, PennMarkup))
	assert.Equal(t, "same", Transcode("same", Latin1ANSI, Latin1ANSI))
}

func TestFor(t *testing.T) {
	assert.Equal(t, UTF8PUA, For(lineage.T5X, 4, 0))
	assert.Equal(t, Latin1ANSI, For(lineage.T5X, 3, 0))
	assert.Equal(t, Latin1ANSI, For(lineage.T6H, 1, 0))
	assert.Equal(t, PennMarkup, For(lineage.P6H, 2, lineage.DBFSpiffyAFAnsi))
	assert.Equal(t, Latin1ANSI, For(lineage.P6H, 2, 0))
}
