package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystal-mush/mushconv/pkg/charset"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

func snapshot(l *lineage.Lineage, version int) *gamedb.Snapshot {
	s := gamedb.NewSnapshot(l)
	v, _ := l.Version(version)
	s.Version, s.HeaderFlags = version, v.Mandatory
	return s
}

func extract(t *testing.T, s *gamedb.Snapshot, ref gamedb.DBRef) []string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Object(&buf, s, ref))
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func widget(t *testing.T) *gamedb.Object {
	t.Helper()
	o := gamedb.NewObject(5)
	o.Name = "Widget"
	o.Owner = 1
	o.Mark(gamedb.FieldName | gamedb.FieldOwner | gamedb.FieldFlags | gamedb.FieldPowers)
	words, unknown := lineage.T5X.Flags.Encode([]string{"DARK", "ENTER_OK", "GOING"})
	require.Empty(t, unknown)
	copy(o.Flags[:], words)
	o.Flags[0] |= lineage.TypeThing
	pw, _ := lineage.T5X.Powers.Encode([]string{"SEE_ALL"})
	copy(o.Powers[:], pw)
	return o
}

func TestObjectPositional(t *testing.T) {
	s := snapshot(lineage.T5X, 3)
	o := widget(t)
	enter, err := lock.Parse("+#4|=#5", lock.Classic)
	require.NoError(t, err)
	s.AddAttrDef(256, "CMD", 0)
	s.AddAttrDef(257, "NOTE", 0)
	o.Attrs = []*gamedb.Attribute{
		{Number: 5, Name: "PASS", Value: "XXhash"},
		{Number: 6, Name: "DESC", Flags: 0x20, Value: "A shiny widget."},
		{Number: 42, Name: "LOCK", IsLock: true, Lock: lock.Ref(3), Value: "#3"},
		{Number: 59, Name: "LENTER", IsLock: true, Lock: enter, Value: "+#4|=#5"},
		{Number: 214, Name: "CREATED", Value: "Fri Mar  1 12:00:00 2024"},
		{Number: 256, Value: "$foo:@pemit %#=[hi]"},
		{Number: 257, Value: "line one\r\nline  two"},
	}
	require.NoError(t, s.AddObject(o))

	lines := extract(t, s, 5)
	assert.Equal(t, "@@ #5 Widget", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "@@ THING owned by #1"), lines[1])
	assert.Equal(t, []string{
		"@set #5=DARK",
		"@set #5=ENTER_OK",
		"@power #5=SEE_ALL",
		"@lock #5=#3",
		"@lock/Enter #5=" + lock.Write(enter),
		"&DESC #5=A shiny widget.",
		"@set #5/DESC=NO_COMMAND",
		"&CMD #5=$foo:@pemit %#=[hi]",
		"@wait 0={&NOTE #5=line one%rline %btwo}",
	}, lines[2:])
}

func TestHeaderLockUsedWithoutAttr42(t *testing.T) {
	s := snapshot(lineage.T5X, 2)
	o := widget(t)
	o.Lock = lock.Not(lock.Ref(7))
	require.NoError(t, s.AddObject(o))

	lines := extract(t, s, 5)
	assert.Contains(t, lines, "@lock #5="+lock.Write(o.Lock))
}

func TestUnparsedLockKeptAsStored(t *testing.T) {
	s := snapshot(lineage.T5X, 2)
	o := widget(t)
	o.LockText = " (1&"
	require.NoError(t, s.AddObject(o))

	assert.Contains(t, extract(t, s, 5), "@lock #5=(1&")
}

func TestColorBecomesSubstitutions(t *testing.T) {
	s := snapshot(lineage.T5X, 3)
	o := widget(t)
	o.Attrs = []*gamedb.Attribute{{Number: 6, Name: "DESC", Value: "\x1b[1;31mred\x1b[0m, plain"}}
	require.NoError(t, s.AddObject(o))

	assert.Contains(t, extract(t, s, 5), `@wait 0={&DESC #5=%xh%xrred%xn\, plain}`)
}

func TestObjectPenn(t *testing.T) {
	s := gamedb.NewSnapshot(lineage.P6H)
	s.Version = 2
	s.HeaderFlags = lineage.P6HUpgraded

	enter, err := lock.Parse("=#5", lock.Penn)
	require.NoError(t, err)
	o := gamedb.NewObject(7)
	o.Name = "Box"
	o.Owner = 1
	o.Type = lineage.PennThing
	o.FlagNames = []string{"NO_COMMAND"}
	o.PowerNames = []string{"See_All"}
	o.Locks = []*gamedb.Lock{
		{Name: "Basic", Creator: 1, Key: "#3", Expr: lock.Ref(3)},
		{Name: "Enter", Creator: 1, Flags: []string{"no_inherit"}, Key: "=#5", Expr: enter},
		{Name: "Zone", Creator: 1, Key: "flag^WIZARD"},
	}
	o.Attrs = []*gamedb.Attribute{
		{Name: "DESC", FlagNames: []string{"no_command"}, Value: "\x02chr\x03red\x02c/\x03 text"},
		{Name: "XYXXY", Value: "2:sha512:abc"},
	}
	require.NoError(t, s.AddObject(o))

	lines := extract(t, s, 7)
	assert.Equal(t, []string{
		"@set #7=NO_COMMAND",
		"@power #7=See_All",
		"@lock #7=#3",
		"@lock/Enter #7=" + lock.Write(enter),
		"@lset #7/Enter=no_inherit",
		"@lock/Zone #7=flag^WIZARD",
		"@wait 0={&DESC #7=[ansi(hr,red)] text}",
		"@set #7/DESC=no_command",
	}, lines[2:])
}

func TestObjectMissing(t *testing.T) {
	var buf bytes.Buffer
	err := Object(&buf, snapshot(lineage.T6H, 1), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#99")
}

func TestEscapeSpacing(t *testing.T) {
	x := &extractor{l: lineage.T6H, enc: charset.Latin1ANSI}
	tests := []struct {
		in, want string
	}{
		{" lead", "%blead"},
		{"trail ", "trail%b"},
		{"a   b", "a %b%bb"},
		{"tab\there", "tab%there"},
		{"{braces} [x]", `\{braces\} \[x\]`},
		{"50% off; (maybe)", `50\% off\; \(maybe\)`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, x.escape(tt.in), "escape(%q)", tt.in)
	}
}

func TestNeedsEval(t *testing.T) {
	assert.False(t, needsEval(charset.Latin1ANSI, "plain [text] with %r"))
	assert.True(t, needsEval(charset.Latin1ANSI, "two  spaces"))
	assert.True(t, needsEval(charset.Latin1ANSI, "\x1b[31mred"))
	assert.True(t, needsEval(charset.PennMarkup, "\x02chr\x03x\x02c/\x03"))
	assert.False(t, needsEval(charset.PennMarkup, "plain"))
}
