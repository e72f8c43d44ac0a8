package remap

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crystal-mush/mushconv/pkg/flatfile"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func converter(from, to *lineage.Lineage) *Converter {
	c := New(from, to, zap.NewNop())
	c.Options.Now = fixedNow
	return c
}

func t5xV2Snapshot() *gamedb.Snapshot {
	s := gamedb.NewSnapshot(lineage.T5X)
	v, _ := lineage.T5X.Version(2)
	s.Version, s.HeaderFlags = 2, v.Mandatory
	return s
}

func mustParse(t *testing.T, text string, d lock.Dialect) *lock.Node {
	t.Helper()
	n, err := lock.Parse(text, d)
	require.NoError(t, err)
	return n
}

func TestLimboRoundTrip(t *testing.T) {
	src := t5xV2Snapshot()
	limbo := gamedb.NewObject(0)
	limbo.Name = "Limbo"
	limbo.Owner = 1
	limbo.Flags[0] = lineage.TypeRoom | 0x40 // DARK
	limbo.Attrs = []*gamedb.Attribute{{Number: 6, Name: "DESC", Owner: 1, Value: "A dark void."}}
	require.NoError(t, src.AddObject(limbo))

	penn, stats, err := converter(lineage.T5X, lineage.P6H).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ObjectsOut)

	p := penn.Object(0)
	require.NotNil(t, p)
	assert.Equal(t, uint32(lineage.PennRoom), p.Type)
	assert.Contains(t, p.FlagNames, "DARK")
	require.NotNil(t, p.AttrNamed("DESC"))

	// Through the file format and back.
	var buf bytes.Buffer
	require.NoError(t, flatfile.Write(&buf, penn))
	reread, err := flatfile.Parse(&buf, lineage.P6H)
	require.NoError(t, err)

	back, _, err := converter(lineage.P6H, lineage.T5X).Convert(reread)
	require.NoError(t, err)

	o := back.Object(0)
	require.NotNil(t, o)
	assert.Equal(t, "Limbo", o.Name)
	assert.Equal(t, lineage.KindRoom, back.Kind(o))
	dark, ok := lineage.T5X.Flags.Lookup("DARK")
	require.True(t, ok)
	assert.NotZero(t, o.Flags[dark.Word]&dark.Mask)
	desc := o.Attr(6)
	require.NotNil(t, desc)
	assert.Equal(t, "DESC", desc.Name)
	assert.Equal(t, "A dark void.", desc.Value)

	// The source is untouched.
	assert.Equal(t, lineage.TypeRoom|uint32(0x40), src.Object(0).Flags[0])
	assert.Len(t, src.Object(0).Attrs, 1)
}

func TestTypeDrop(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.T6H)
	src.Version, src.HeaderFlags = 1, lineage.T6H.Latest().Mandatory
	for i, code := range []uint32{lineage.TypeRoom, lineage.TypeZone, lineage.TypeThing, lineage.TypeZone} {
		o := gamedb.NewObject(gamedb.DBRef(i))
		o.Name = "obj"
		o.Flags[0] = code
		require.NoError(t, src.AddObject(o))
	}

	dst, stats, err := converter(lineage.T6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	assert.Len(t, dst.Objects, len(src.Objects)-2)
	assert.Equal(t, 2, stats.ObjectsDropped)
	assert.Nil(t, dst.Object(1))
	assert.Nil(t, dst.Object(3))
	assert.Len(t, src.Objects, 4)
}

func TestPlayerOnlyFlagsStayOnPlayers(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.P6H)
	src.Version, src.HeaderFlags = 2, lineage.P6H.Latest().Mandatory|lineage.P6HUpgraded
	wiz := gamedb.NewObject(1)
	wiz.Name = "Wizard"
	wiz.Type = lineage.PennPlayer
	wiz.FlagNames = []string{"CONNECTED", "DARK"}
	box := gamedb.NewObject(2)
	box.Name = "Box"
	box.Type = lineage.PennThing
	box.FlagNames = []string{"CONNECTED", "DARK"}
	require.NoError(t, src.AddObject(wiz))
	require.NoError(t, src.AddObject(box))

	mux, stats, err := converter(lineage.P6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FlagsDropped)

	connected, ok := lineage.T5X.Flags.Lookup("CONNECTED")
	require.True(t, ok)
	dark, ok := lineage.T5X.Flags.Lookup("DARK")
	require.True(t, ok)
	w, b := mux.Object(1), mux.Object(2)
	assert.NotZero(t, w.Flags[connected.Word]&connected.Mask)
	assert.Zero(t, b.Flags[connected.Word]&connected.Mask)
	assert.NotZero(t, b.Flags[dark.Word]&dark.Mask)
}

func TestLockFolding(t *testing.T) {
	basic := mustParse(t, "#3", lock.Penn)
	enter := mustParse(t, "+#4|=#5", lock.Penn)

	src := gamedb.NewSnapshot(lineage.P6H)
	src.Version, src.HeaderFlags = 2, lineage.P6H.Latest().Mandatory|lineage.P6HUpgraded
	o := gamedb.NewObject(2)
	o.Name = "Door"
	o.Type = lineage.PennThing
	o.Owner = 1
	o.Locks = []*gamedb.Lock{
		{Name: "Basic", Creator: 1, Key: "#3", Expr: basic},
		{Name: "Enter", Creator: 1, Flags: []string{"no_inherit"}, Key: "+#4|=#5", Expr: enter},
	}
	require.NoError(t, src.AddObject(o))

	mux, stats, err := converter(lineage.P6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.LocksConverted)

	m := mux.Object(2)
	def := m.Attr(lineage.DefaultLockAttr)
	require.NotNil(t, def)
	assert.True(t, def.IsLock)
	assert.True(t, basic.Equal(def.Lock))

	var lockAttrs []*gamedb.Attribute
	for _, a := range m.Attrs {
		if a.IsLock && a.Number != lineage.DefaultLockAttr {
			lockAttrs = append(lockAttrs, a)
		}
	}
	require.Len(t, lockAttrs, 1)
	assert.Equal(t, "LENTER", lockAttrs[0].Name)
	assert.True(t, enter.Equal(lockAttrs[0].Lock))
	private, _ := lineage.T5X.AttrFlags.Lookup("PRIVATE")
	assert.NotZero(t, lockAttrs[0].Flags&private.Mask)

	back, _, err := converter(lineage.T5X, lineage.P6H).Convert(mux)
	require.NoError(t, err)
	b := back.Object(2)
	require.Len(t, b.Locks, 2)
	bl := b.NamedLock("Basic")
	require.NotNil(t, bl)
	assert.True(t, basic.Equal(bl.Expr))
	el := b.NamedLock("Enter")
	require.NotNil(t, el)
	assert.True(t, enter.Equal(el.Expr))
	assert.Equal(t, "+#4|=#5", el.Key)
	assert.Equal(t, []string{"no_inherit"}, el.Flags)
}

func TestUnconvertibleLockDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := gamedb.NewSnapshot(lineage.P6H)
	src.Version, src.HeaderFlags = 2, lineage.P6H.Latest().Mandatory|lineage.P6HUpgraded
	o := gamedb.NewObject(0)
	o.Name = "Room"
	o.Type = lineage.PennRoom
	o.Locks = []*gamedb.Lock{
		{Name: "Basic", Key: "flag^WIZARD", Expr: mustParse(t, "flag^WIZARD", lock.Penn)},
		{Name: "Zone", Key: "#1", Expr: mustParse(t, "#1", lock.Penn)},
	}
	require.NoError(t, src.AddObject(o))

	c := converter(lineage.P6H, lineage.T5X)
	c.Log = zap.New(core)
	dst, stats, err := c.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LocksFailed)
	assert.Equal(t, 1, stats.LocksDropped)
	assert.Nil(t, dst.Object(0).Attr(lineage.DefaultLockAttr))
	assert.NotZero(t, logs.FilterMessage("lock cannot be expressed, dropped").Len())
}

func TestCollisionIsStable(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.R7H)
	src.Version, src.HeaderFlags = 1, lineage.R7H.Latest().Mandatory
	src.AddAttrDef(300, "CREATED", 0)
	src.NextAttr = 301
	src.Present |= gamedb.HeaderNextAttr
	for i := 0; i < 2; i++ {
		o := gamedb.NewObject(gamedb.DBRef(i))
		o.Name = "thing"
		o.Flags[0] = lineage.TypeThing
		o.Attrs = []*gamedb.Attribute{{Number: 300, Name: "CREATED", Owner: gamedb.Nothing, Value: "yesterday"}}
		require.NoError(t, src.AddObject(o))
	}

	dst, stats, err := converter(lineage.R7H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.AttrsCollided)

	a0 := dst.Object(0).AttrNamed("XCREATED")
	a1 := dst.Object(1).AttrNamed("XCREATED")
	require.NotNil(t, a0)
	require.NotNil(t, a1)
	assert.Equal(t, a0.Number, a1.Number)
	assert.GreaterOrEqual(t, a0.Number, lineage.T5X.UserAttrFloor)
	assert.Equal(t, "yesterday", a0.Value)
	num, ok := dst.AttrNumber("XCREATED")
	require.True(t, ok)
	assert.Equal(t, a0.Number, num)
	assert.Nil(t, dst.Object(0).AttrNamed("CREATED"))
}

func TestMergeFirstSourceWins(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.T6H)
	src.Version, src.HeaderFlags = 1, lineage.T6H.Latest().Mandatory
	lcon, _ := lineage.T6H.Attrs.ByName("LCON_FMT")
	o := gamedb.NewObject(0)
	o.Name = "Room"
	o.Flags[0] = lineage.TypeRoom
	src.AddAttrDef(256, "CONFORMAT", 0)
	o.Attrs = []*gamedb.Attribute{
		{Number: 256, Name: "CONFORMAT", Owner: gamedb.Nothing, Value: "user"},
		{Number: lcon.Number, Name: "LCON_FMT", Owner: gamedb.Nothing, Value: "builtin"},
	}
	require.NoError(t, src.AddObject(o))

	dst, stats, err := converter(lineage.T6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AttrsMerged)
	a := dst.Object(0).AttrNamed("CONFORMAT")
	require.NotNil(t, a)
	assert.Equal(t, "builtin", a.Value)
}

func TestTimestampsMoveBetweenFieldsAndAttrs(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.P6H)
	src.Version, src.HeaderFlags = 2, lineage.P6H.Latest().Mandatory|lineage.P6HUpgraded
	o := gamedb.NewObject(0)
	o.Name = "Room"
	o.Type = lineage.PennRoom
	o.Created = fixedNow().Unix()
	o.Modified = fixedNow().Add(time.Hour).Unix()
	o.Mark(gamedb.FieldCreated | gamedb.FieldModified)
	require.NoError(t, src.AddObject(o))

	mux, _, err := converter(lineage.P6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	created := mux.Object(0).AttrNamed("CREATED")
	require.NotNil(t, created)
	assert.Equal(t, "Fri Mar  1 12:00:00 2024", created.Value)

	back, _, err := converter(lineage.T5X, lineage.P6H).Convert(mux)
	require.NoError(t, err)
	assert.Equal(t, o.Created, back.Object(0).Created)
	assert.Equal(t, o.Modified, back.Object(0).Modified)
	assert.Nil(t, back.Object(0).AttrNamed("CREATED"))
}

func TestPasswordPrefix(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.P6H)
	src.Version, src.HeaderFlags = 2, lineage.P6H.Latest().Mandatory|lineage.P6HUpgraded
	o := gamedb.NewObject(1)
	o.Name = "Wizard"
	o.Type = lineage.PennPlayer
	o.Attrs = []*gamedb.Attribute{{Name: "XYXXY", Owner: 1, Value: "2:sha512:abc"}}
	require.NoError(t, src.AddObject(o))

	mux, _, err := converter(lineage.P6H, lineage.T5X).Convert(src)
	require.NoError(t, err)
	pass := mux.Object(1).Attr(5)
	require.NotNil(t, pass)
	assert.Equal(t, "$P6H$$2:sha512:abc", pass.Value)

	back, _, err := converter(lineage.T5X, lineage.P6H).Convert(mux)
	require.NoError(t, err)
	x := back.Object(1).AttrNamed("XYXXY")
	require.NotNil(t, x)
	assert.Equal(t, "2:sha512:abc", x.Value)
}

func TestNativeHashSurvivesPennRoundTrip(t *testing.T) {
	src := t5xV2Snapshot()
	o := gamedb.NewObject(1)
	o.Name = "Wizard"
	o.Owner = 1
	o.Flags[0] = lineage.TypePlayer
	o.Attrs = []*gamedb.Attribute{{Number: 5, Name: "PASS", Owner: 1, Value: "$SHA1$ab$xyz"}}
	require.NoError(t, src.AddObject(o))

	penn, _, err := converter(lineage.T5X, lineage.P6H).Convert(src)
	require.NoError(t, err)
	x := penn.Object(1).AttrNamed("XYXXY")
	require.NotNil(t, x)
	assert.Equal(t, "$SHA1$ab$xyz", x.Value)

	back, _, err := converter(lineage.P6H, lineage.T5X).Convert(penn)
	require.NoError(t, err)
	pass := back.Object(1).Attr(5)
	require.NotNil(t, pass)
	assert.Equal(t, "$SHA1$ab$xyz", pass.Value)
}

func TestHomeMovesToExitsField(t *testing.T) {
	src := t5xV2Snapshot()
	room := gamedb.NewObject(0)
	room.Name = "Limbo"
	room.Flags[0] = lineage.TypeRoom
	require.NoError(t, src.AddObject(room))
	p := gamedb.NewObject(1)
	p.Name = "Wizard"
	p.Flags[0] = lineage.TypePlayer
	p.SetRef(gamedb.FieldLocation, 0)
	p.SetRef(gamedb.FieldLink, 0)
	require.NoError(t, src.AddObject(p))

	penn, _, err := converter(lineage.T5X, lineage.P6H).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, gamedb.DBRef(0), penn.Object(1).Exits)

	back, _, err := converter(lineage.P6H, lineage.T5X).Convert(penn)
	require.NoError(t, err)
	assert.Equal(t, gamedb.DBRef(0), back.Object(1).Link)
	assert.Equal(t, gamedb.Nothing, back.Object(1).Exits)
}

func TestMultiHop(t *testing.T) {
	src := gamedb.NewSnapshot(lineage.T6H)
	src.Version, src.HeaderFlags = 1, lineage.T6H.Latest().Mandatory
	o := gamedb.NewObject(0)
	o.Name = "Limbo"
	o.Flags[0] = lineage.TypeRoom
	o.Attrs = []*gamedb.Attribute{{Number: 6, Name: "DESC", Owner: gamedb.Nothing, Value: "void"}}
	require.NoError(t, src.AddObject(o))

	dst, stats, err := converter(lineage.T6H, lineage.P6H).Convert(src)
	require.NoError(t, err)
	assert.Equal(t, lineage.P6H, dst.Lineage)
	assert.Equal(t, 1, stats.ObjectsIn)
	assert.Equal(t, 1, stats.ObjectsOut)
	assert.Equal(t, "void", dst.Object(0).AttrNamed("DESC").Value)
	assert.Equal(t, "Fri Mar  1 12:00:00 2024", dst.SavedTime)
}

func TestConvertRejectsWrongSource(t *testing.T) {
	_, _, err := converter(lineage.P6H, lineage.T5X).Convert(t5xV2Snapshot())
	assert.Error(t, err)

	_, _, err = converter(lineage.T5X, lineage.T5X).Convert(t5xV2Snapshot())
	assert.Error(t, err)
}
