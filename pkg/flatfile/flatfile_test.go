package flatfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

func t5xV2Header() uint32 {
	v, _ := lineage.T5X.Version(2)
	return lineage.T5X.HeaderValue(2, v.Mandatory)
}

func t5xV2File() string {
	return fmt.Sprintf("+X%d\n", t5xV2Header()) +
		"+S2\n+N257\n+A256\n\"0:Mood\"\n-R1\n" +
		"!0\n\"Limbo\"\n-1\n-1\n1\n-1\n-1\n-1\n(1&(!2))\n1\n-1\n0\n64\n0\n0\n0\n0\n" +
		">6\n\"A dark void.\"\n>256\n\"\x012:4:happy\"\n<\n" +
		"!1\n\"Wizard\"\n0\n-1\n-1\n-1\n0\n-1\n\n1\n-1\n1000\n3\n0\n0\n0\n0\n" +
		">42\n\"=#1\"\n<\n" +
		EndOfDump + "\n"
}

func TestParseT5XVersion2(t *testing.T) {
	snap, err := Parse(strings.NewReader(t5xV2File()), lineage.T5X)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Version)
	v, _ := lineage.T5X.Version(2)
	assert.Equal(t, v.Mandatory, snap.HeaderFlags)
	assert.Equal(t, 2, snap.Size)
	assert.Equal(t, 257, snap.NextAttr)
	assert.Equal(t, 1, snap.RecordPlayers)
	assert.Equal(t, "Mood", snap.AttrName(256))
	require.Len(t, snap.Objects, 2)

	limbo := snap.Object(0)
	assert.Equal(t, "Limbo", limbo.Name)
	assert.Equal(t, gamedb.DBRef(1), limbo.Contents)
	assert.True(t, limbo.Has(gamedb.FieldZone|gamedb.FieldLink|gamedb.FieldParent|gamedb.FieldLock))
	assert.Equal(t, uint32(64), limbo.Flags[0])
	assert.True(t, lock.And(lock.Ref(1), lock.Not(lock.Ref(2))).Equal(limbo.Lock))

	desc := limbo.Attr(6)
	require.NotNil(t, desc)
	assert.Equal(t, "DESC", desc.Name)
	assert.Equal(t, "A dark void.", desc.Value)
	assert.Equal(t, gamedb.DBRef(1), desc.Owner)

	mood := limbo.Attr(256)
	require.NotNil(t, mood)
	assert.Equal(t, "Mood", mood.Name)
	assert.Equal(t, gamedb.DBRef(2), mood.Owner)
	assert.Equal(t, uint32(4), mood.Flags)
	assert.Equal(t, "happy", mood.Value)

	wiz := snap.Object(1)
	assert.Nil(t, wiz.Lock)
	assert.Equal(t, lineage.KindPlayer, snap.Kind(wiz))
	basic := wiz.Attr(42)
	require.NotNil(t, basic)
	assert.True(t, basic.IsLock)
	assert.True(t, lock.Is(lock.Ref(1)).Equal(basic.Lock))
}

func TestWriteT5XRoundTrip(t *testing.T) {
	in := t5xV2File()
	snap, err := Parse(strings.NewReader(in), lineage.T5X)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))
	assert.Equal(t, in, buf.String())

	// Writing must leave the snapshot decoded.
	assert.Equal(t, "happy", snap.Object(0).Attr(256).Value)
}

func TestHeaderKeyAttrNumbers(t *testing.T) {
	in := strings.Replace(t5xV2File(), "(1&(!2))", "(256:hap*|6/yes)", 1)
	snap, err := Parse(strings.NewReader(in), lineage.T5X)
	require.NoError(t, err)
	assert.True(t, lock.Or(lock.Attr("Mood", "hap*"), lock.Eval("DESC", "yes")).Equal(snap.Object(0).Lock))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))
	assert.Contains(t, buf.String(), "\n(256:hap*|6/yes)\n")
}

func TestUnparseableLockWarns(t *testing.T) {
	in := strings.Replace(t5xV2File(), "\"=#1\"", "\"=#1&(\"", 1)
	core, logs := observer.New(zap.WarnLevel)
	snap, err := Parse(strings.NewReader(in), lineage.T5X, WithLogger(zap.New(core)))
	require.NoError(t, err)

	a := snap.Object(1).Attr(42)
	assert.Nil(t, a.Lock)
	assert.Equal(t, "=#1&(", a.Value)
	require.Equal(t, 1, logs.FilterMessage("unparseable lock").Len())
}

func rhostFile() string {
	return fmt.Sprintf("+V%d\n", lineage.R7H.HeaderValue(1, lineage.R7H.Latest().Mandatory)) +
		"!0\nLimbo\n-1\n-1\n-1\n-1\n-1\n-1\n\n1\n-1\n0\n0\n0\n0\n0\n0\n" +
		">6\nline1\r\nline2\n<\n" +
		EndOfDump + "\n"
}

func TestParseUnquotedContinuation(t *testing.T) {
	snap, err := Parse(strings.NewReader(rhostFile()), nil)
	require.NoError(t, err)
	assert.Same(t, lineage.R7H, snap.Lineage)
	assert.Equal(t, "line1\r\nline2", snap.Object(0).Attr(6).Value)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))
	assert.Equal(t, rhostFile(), buf.String())
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\nd\e"`, quoteString("a\"b\\c\nd\x1b", true))
	assert.Equal(t, "\"a\\\"b\\\\c\nd\x1b\"", quoteString("a\"b\\c\nd\x1b", false))
	assert.Equal(t, "a\r\nb", plainString("a\nb"))
}

func TestControlQuotingRoundTrip(t *testing.T) {
	for _, l := range []*lineage.Lineage{lineage.T5X, lineage.T6H} {
		snap := gamedb.NewSnapshot(l)
		snap.Version = l.Latest().Number
		snap.HeaderFlags = l.Latest().Mandatory
		o := gamedb.NewObject(0)
		o.Name = "Room"
		o.Owner = 1
		o.Attrs = []*gamedb.Attribute{{Number: 6, Owner: 1, Value: "two\nlines\twith \\ and \"quotes\" \x1b[1m"}}
		require.NoError(t, snap.AddObject(o))

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, snap))
		if l.QuoteControls {
			assert.NotContains(t, buf.String(), "two\nlines")
		} else {
			assert.Contains(t, buf.String(), "two\nlines")
		}

		back, err := Parse(&buf, l)
		require.NoError(t, err, l.ID)
		assert.Equal(t, o.Attrs[0].Value, back.Object(0).Attr(6).Value, l.ID)
	}
}

func pennSnapshot() *gamedb.Snapshot {
	snap := gamedb.NewSnapshot(lineage.P6H)
	snap.Version = 2
	snap.HeaderFlags = lineage.P6H.Latest().Mandatory | lineage.P6HUpgraded
	snap.DBVersion = 5
	snap.SavedTime = "Mon Jan  2 15:04:05 2006"
	snap.Size = 2
	snap.FlagDecls = []*gamedb.FlagDecl{{Name: "WIZARD", Letter: "W", Type: "ANY", Perms: "trusted royal", NegatePerms: "trusted royal"}}
	snap.FlagAliases = []gamedb.FlagAlias{{Name: "WIZARD", Alias: "WIZ"}}
	snap.FlagListCount = 1

	room := gamedb.NewObject(0)
	room.Name = "Limbo"
	room.Owner = 1
	room.Type = lineage.PennRoom
	room.FlagNames = []string{"DARK"}
	room.Created = 1136214245
	room.Locks = []*gamedb.Lock{
		{Name: "Basic", Creator: 1, Key: "=#1", Expr: lock.Is(lock.Ref(1))},
		{Name: "Enter", Creator: 1, Flags: []string{"no_inherit"}, Key: "flag^WIZARD", Expr: lock.Class("flag", lock.Text("WIZARD"))},
	}
	room.Attrs = []*gamedb.Attribute{
		{Name: "DESC", Owner: 1, FlagNames: []string{"no_command"}, Value: "A dark void.\nSecond \"line\"."},
	}

	wiz := gamedb.NewObject(1)
	wiz.Name = "One"
	wiz.Location = 0
	wiz.Owner = 1
	wiz.Type = lineage.PennPlayer
	wiz.FlagNames = []string{"WIZARD", "CONNECTED"}
	wiz.PowerNames = []string{"Builder"}
	wiz.Attrs = []*gamedb.Attribute{{Name: "XYXXY", Owner: 1, Value: "2:sha512:abc"}}

	_ = snap.AddObject(room)
	_ = snap.AddObject(wiz)
	return snap
}

func TestPennRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, pennSnapshot()))
	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "+V"))
	assert.Contains(t, text, "\nlockcount 2\n type \"Basic\"\n")

	snap, err := Parse(strings.NewReader(text), nil)
	require.NoError(t, err)
	assert.Same(t, lineage.P6H, snap.Lineage)
	assert.Equal(t, 5, snap.DBVersion)
	assert.Equal(t, "Mon Jan  2 15:04:05 2006", snap.SavedTime)
	require.Len(t, snap.FlagDecls, 1)
	assert.Equal(t, "trusted royal", snap.FlagDecls[0].Perms)
	assert.Equal(t, []gamedb.FlagAlias{{Name: "WIZARD", Alias: "WIZ"}}, snap.FlagAliases)

	room := snap.Object(0)
	assert.Equal(t, "Limbo", room.Name)
	assert.Equal(t, lineage.KindRoom, snap.Kind(room))
	assert.Equal(t, []string{"DARK"}, room.FlagNames)
	assert.Equal(t, int64(1136214245), room.Created)
	require.Len(t, room.Locks, 2)
	assert.Equal(t, 2, room.LockCount)
	assert.True(t, lock.Class("flag", lock.Text("WIZARD")).Equal(room.NamedLock("enter").Expr))
	assert.Equal(t, []string{"no_inherit"}, room.Locks[1].Flags)
	assert.Equal(t, "A dark void.\nSecond \"line\".", room.AttrNamed("desc").Value)

	wiz := snap.Object(1)
	assert.Equal(t, []string{"Builder"}, wiz.PowerNames)
	assert.Equal(t, gamedb.DBRef(0), wiz.Location)

	var again bytes.Buffer
	require.NoError(t, Write(&again, snap))
	assert.Equal(t, text, again.String())
}

func TestPennSignedHeader(t *testing.T) {
	snap := pennSnapshot()
	word := int32(lineage.P6H.HeaderValue(snap.Version, snap.HeaderFlags|lineage.DBFLabels))
	require.Negative(t, word)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))
	text := buf.String()
	assert.True(t, strings.HasPrefix(text, fmt.Sprintf("+V%d\n", word)), text[:20])

	reread, err := Parse(strings.NewReader(text), nil)
	require.NoError(t, err)
	assert.Equal(t, snap.Version, reread.Version)
	assert.Equal(t, snap.HeaderFlags|lineage.DBFLabels, reread.HeaderFlags)

	// The unsigned spelling of the same word reads the same.
	unsigned := strings.Replace(text, fmt.Sprintf("+V%d", word), fmt.Sprintf("+V%d", uint32(word)), 1)
	again, err := Parse(strings.NewReader(unsigned), lineage.P6H)
	require.NoError(t, err)
	assert.Equal(t, reread.HeaderFlags, again.HeaderFlags)

	var out bytes.Buffer
	require.NoError(t, Write(&out, reread))
	assert.Equal(t, text, out.String())
}

func TestPennRequiresLabels(t *testing.T) {
	in := fmt.Sprintf("+V%d\n~0\n%s\n", lineage.P6H.HeaderValue(2, lineage.DBFNoChatSystem), EndOfDump)
	_, err := Parse(strings.NewReader(in), lineage.P6H)
	assert.ErrorContains(t, err, "without labels")
}

func TestDetect(t *testing.T) {
	for in, want := range map[string]*lineage.Lineage{
		"+X992002\n+S1\n":    lineage.T5X,
		"+T1\n":              lineage.T6H,
		"+V1\n!0\n":          lineage.R7H,
		"+V1\n+S5\n":         lineage.R7H,
		"+V1\n+FLAGS LIST\n": lineage.P6H,
		"+V1\ndbversion 5\n": lineage.P6H,
		"+V1\n~12\n":         lineage.P6H,
	} {
		got, err := Detect(bufio.NewReader(strings.NewReader(in)))
		require.NoError(t, err, "%q", in)
		assert.Same(t, want, got, "%q", in)
	}
	for _, bad := range []string{"", "!0\n", "+Q1\n"} {
		_, err := Detect(bufio.NewReader(strings.NewReader(bad)))
		assert.Error(t, err, "%q", bad)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(strings.TrimSuffix(t5xV2File(), EndOfDump+"\n")), lineage.T5X)
	assert.ErrorContains(t, err, "no end-of-dump marker")

	_, err = Parse(strings.NewReader(t5xV2File()), lineage.T6H)
	assert.ErrorContains(t, err, "does not belong")

	dup := strings.Replace(t5xV2File(), "!1\n", "!0\n", 1)
	_, err = Parse(strings.NewReader(dup), lineage.T5X)
	assert.ErrorContains(t, err, "duplicate object")
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.flat")
	snap, err := Parse(strings.NewReader(t5xV2File()), lineage.T5X)
	require.NoError(t, err)

	require.NoError(t, Save(path, snap))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	back, err := Load(path, nil)
	require.NoError(t, err)
	assert.Same(t, lineage.T5X, back.Lineage)
	assert.Equal(t, "Limbo", back.Object(0).Name)
}
