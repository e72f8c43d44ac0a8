package gamedb

import (
	"testing"

	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeEncodeDecode(t *testing.T) {
	a := &Attribute{Number: 6, Owner: 7, Flags: 0x4, Value: "hello: world"}
	a.Encode(1)
	assert.True(t, a.Encoded)
	assert.Equal(t, "\x017:4:hello: world", a.Value)

	a.Encode(1)
	assert.Equal(t, "\x017:4:hello: world", a.Value, "second encode must not stack prefixes")

	a.Decode(1)
	assert.False(t, a.Encoded)
	assert.Equal(t, DBRef(7), a.Owner)
	assert.Equal(t, uint32(4), a.Flags)
	assert.Equal(t, "hello: world", a.Value)

	a.Decode(1)
	assert.Equal(t, "hello: world", a.Value)
}

func TestAttributeDefaultOwnerStaysBare(t *testing.T) {
	a := &Attribute{Number: 6, Owner: 1, Value: "plain"}
	a.Encode(1)
	assert.Equal(t, "plain", a.Value)

	b := &Attribute{Number: 6, Owner: Nothing, Value: "plain"}
	b.Encode(1)
	assert.Equal(t, "plain", b.Value)

	c := &Attribute{Number: 6, Value: "bare", Encoded: true}
	c.Decode(5)
	assert.Equal(t, DBRef(5), c.Owner)
	assert.Zero(t, c.Flags)
	assert.Equal(t, "bare", c.Value)
}

func TestSplitPrefix(t *testing.T) {
	owner, flags, text, ok := SplitPrefix("\x01-1:0:x")
	require.True(t, ok)
	assert.Equal(t, Nothing, owner)
	assert.Zero(t, flags)
	assert.Equal(t, "x", text)

	for _, bad := range []string{"", "x", "\x01", "\x01abc:1:x", "\x012:x", "\x012:zz:x"} {
		_, _, text, ok := SplitPrefix(bad)
		assert.False(t, ok, "%q", bad)
		assert.Equal(t, bad, text)
	}
}

func TestObjectPresence(t *testing.T) {
	o := NewObject(3)
	_, ok := o.Ref(FieldLocation)
	assert.False(t, ok)

	o.SetRef(FieldLocation, 0)
	r, ok := o.Ref(FieldLocation)
	assert.True(t, ok)
	assert.Equal(t, DBRef(0), r)
	assert.True(t, o.Has(FieldLocation))
	assert.False(t, o.Has(FieldLocation|FieldOwner))

	_, ok = o.Ref(FieldPennies)
	assert.False(t, ok)
	assert.Equal(t, "location", FieldLocation.String())
}

func TestObjectAttrs(t *testing.T) {
	o := NewObject(1)
	o.Attrs = []*Attribute{{Number: 6, Name: "DESC"}, {Number: 300, Name: "Foo"}, {Number: 6, Name: "DESC"}}
	assert.Equal(t, "Foo", o.AttrNamed("FOO").Name)
	assert.Nil(t, o.Attr(7))
	o.RemoveAttr(6)
	require.Len(t, o.Attrs, 1)
	assert.Equal(t, 300, o.Attrs[0].Number)
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot(lineage.T5X)
	for _, ref := range []DBRef{5, 0, 2} {
		require.NoError(t, s.AddObject(NewObject(ref)))
	}
	assert.Error(t, s.AddObject(NewObject(2)))
	assert.Equal(t, []DBRef{0, 2, 5}, s.Refs())
	assert.True(t, s.Exists(5))
	assert.False(t, s.Exists(Home))

	s.AddAttrDef(300, "Mood", 0)
	assert.Equal(t, "Mood", s.AttrName(300))
	assert.Equal(t, "DESC", s.AttrName(6))
	assert.Equal(t, "", s.AttrName(299))

	n, ok := s.AttrNumber("mood")
	require.True(t, ok)
	assert.Equal(t, 300, n)
	n, ok = s.AttrNumber("desc")
	require.True(t, ok)
	assert.Equal(t, 6, n)

	p := s.Object(2)
	p.Flags[0] = lineage.TypePlayer | 0x4000
	assert.Equal(t, lineage.KindPlayer, s.Kind(p))
	assert.True(t, s.IsGoing(p))
	assert.Len(t, s.Players(), 1)
}

func TestNamedSnapshotKinds(t *testing.T) {
	s := NewSnapshot(lineage.P6H)
	o := NewObject(0)
	o.Type = lineage.PennRoom
	o.FlagNames = []string{"going"}
	require.NoError(t, s.AddObject(o))
	assert.Equal(t, lineage.KindRoom, s.Kind(o))
	assert.True(t, s.IsGoing(o))
}

func TestDBRef(t *testing.T) {
	assert.True(t, Nothing.IsSentinel())
	assert.True(t, NoPerm.IsSentinel())
	assert.False(t, DBRef(0).IsSentinel())
	assert.False(t, DBRef(-5).IsSentinel())
	assert.Equal(t, "#12", DBRef(12).String())
}
