package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "game.bolt"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(t *testing.T) *gamedb.Snapshot {
	t.Helper()
	snap := gamedb.NewSnapshot(lineage.T5X)
	snap.Version = 3
	snap.HeaderFlags = lineage.VZone | lineage.VLink | lineage.VAtrKey
	snap.Present = gamedb.HeaderSize | gamedb.HeaderNextAttr
	snap.Size = 3
	snap.NextAttr = 257
	snap.AddAttrDef(256, "HOBBY", 0)

	room := gamedb.NewObject(0)
	room.Name = "Limbo"
	room.Flags[0] = lineage.TypeRoom
	room.Owner = 1
	require.NoError(t, snap.AddObject(room))

	wiz := gamedb.NewObject(1)
	wiz.Name = "Wizard"
	wiz.Flags[0] = lineage.TypePlayer
	wiz.Owner = 1
	wiz.Location = 0
	wiz.Attrs = []*gamedb.Attribute{
		{Number: 256, Name: "HOBBY", Owner: 1, Value: "knitting"},
		{Number: 42, Name: "LOCK", IsLock: true, Lock: lock.And(lock.Ref(0), lock.Not(lock.Ref(2))), Value: "#0&!#2"},
	}
	require.NoError(t, snap.AddObject(wiz))

	thing := gamedb.NewObject(2)
	thing.Name = "Widget"
	thing.Flags[0] = lineage.TypeThing
	thing.Owner = 1
	require.NoError(t, snap.AddObject(thing))
	return snap
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTemp(t)
	snap := sampleSnapshot(t)
	require.NoError(t, s.Save(snap))
	assert.True(t, s.HasData())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Same(t, lineage.T5X, got.Lineage)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, snap.HeaderFlags, got.HeaderFlags)
	assert.True(t, got.HasHeader(gamedb.HeaderNextAttr))
	assert.False(t, got.HasHeader(gamedb.HeaderRecordPlayers))
	assert.Equal(t, 257, got.NextAttr)
	assert.Equal(t, "HOBBY", got.AttrName(256))
	assert.Equal(t, []gamedb.DBRef{0, 1, 2}, got.Refs())

	wiz := got.Object(1)
	require.NotNil(t, wiz)
	assert.Equal(t, "Wizard", wiz.Name)
	assert.Equal(t, lineage.KindPlayer, got.Kind(wiz))
	assert.Equal(t, gamedb.Nothing, wiz.Contents)
	assert.Equal(t, "knitting", wiz.Attr(256).Value)
	lk := wiz.Attr(42)
	require.NotNil(t, lk)
	assert.True(t, lk.Lock.Equal(lock.And(lock.Ref(0), lock.Not(lock.Ref(2)))))
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(sampleSnapshot(t)))

	small := gamedb.NewSnapshot(lineage.P6H)
	small.Version = 2
	small.DBVersion = 5
	small.SavedTime = "Fri Mar  1 12:00:00 2024"
	small.FlagDecls = []*gamedb.FlagDecl{{Name: "WIZARD", Letter: "W", Type: "ANY", Perms: "trusted"}}
	small.FlagListCount = 1
	o := gamedb.NewObject(0)
	o.Name = "Room Zero"
	o.Type = lineage.PennRoom
	require.NoError(t, small.AddObject(o))
	require.NoError(t, s.Save(small))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Same(t, lineage.P6H, got.Lineage)
	assert.Len(t, got.Objects, 1)
	assert.Empty(t, got.AttrNames)
	assert.Equal(t, 5, got.DBVersion)
	assert.Equal(t, "Fri Mar  1 12:00:00 2024", got.SavedTime)
	require.Len(t, got.FlagDecls, 1)
	assert.Equal(t, "trusted", got.FlagDecls[0].Perms)

	_, found := s.LookupPlayer("wizard")
	assert.False(t, found)
}

func TestFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(sampleSnapshot(t)))

	broken := gamedb.NewSnapshot(lineage.T6H)
	broken.Version = 1
	o := gamedb.NewObject(0)
	o.Name = "Elsewhere"
	o.Flags[0] = lineage.TypeRoom
	require.NoError(t, broken.AddObject(o))
	broken.Objects[5] = nil
	require.Error(t, s.Save(broken))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Same(t, lineage.T5X, got.Lineage)
	assert.Equal(t, []gamedb.DBRef{0, 1, 2}, got.Refs())
	assert.Equal(t, "Limbo", got.Object(0).Name)
	assert.Equal(t, "HOBBY", got.AttrName(256))
	ref, found := s.LookupPlayer("wizard")
	require.True(t, found)
	assert.Equal(t, gamedb.DBRef(1), ref)
}

func TestDuplicatePlayerNameKeepsFirst(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s, err := Open(filepath.Join(t.TempDir(), "game.bolt"), zap.New(core))
	require.NoError(t, err)
	defer s.Close()

	snap := sampleSnapshot(t)
	twin := gamedb.NewObject(3)
	twin.Name = "WIZARD"
	twin.Flags[0] = lineage.TypePlayer
	twin.Owner = 3
	require.NoError(t, snap.AddObject(twin))
	require.NoError(t, s.Save(snap))

	ref, found := s.LookupPlayer("Wizard")
	require.True(t, found)
	assert.Equal(t, gamedb.DBRef(1), ref)
	assert.Equal(t, 1, logs.FilterMessage("duplicate player name not indexed").Len())
	got, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, got.Objects, 4)
}

func TestLoadEmpty(t *testing.T) {
	s := openTemp(t)
	assert.False(t, s.HasData())
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPlayerIndexAndPutObject(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(sampleSnapshot(t)))

	ref, found := s.LookupPlayer("WIZARD")
	require.True(t, found)
	assert.Equal(t, gamedb.DBRef(1), ref)
	_, found = s.LookupPlayer("Widget")
	assert.False(t, found)

	snap, err := s.Load()
	require.NoError(t, err)
	snap.Object(2).Name = "Gadget"
	require.NoError(t, s.PutObject(snap.Object(2)))

	again, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "Gadget", again.Object(2).Name)
}

func TestBackup(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(sampleSnapshot(t)))

	path := filepath.Join(t.TempDir(), "copy.bolt")
	require.NoError(t, s.Backup(path))

	b, err := Open(path, nil)
	require.NoError(t, err)
	defer b.Close()
	snap, err := b.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Objects, 3)
}

func TestRefKeysOrderNegativesFirst(t *testing.T) {
	assert.Equal(t, gamedb.DBRef(-1), keyToRef(refToKey(-1)))
	assert.Less(t, string(refToKey(-1)), string(refToKey(0)))
	assert.Less(t, string(refToKey(9)), string(refToKey(10)))
}
