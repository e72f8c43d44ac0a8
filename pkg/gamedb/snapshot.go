package gamedb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// HeaderField identifies an optional snapshot-level header phrase.
type HeaderField uint8

const (
	HeaderSize HeaderField = 1 << iota
	HeaderNextAttr
	HeaderRecordPlayers
	HeaderDBVersion
	HeaderSavedTime
)

// FlagDecl is one entry of a named lineage's stored flag or power list.
type FlagDecl struct {
	Name        string
	Letter      string
	Type        string
	Perms       string
	NegatePerms string
}

// FlagAlias maps an alias to a declared flag or power.
type FlagAlias struct {
	Name  string
	Alias string
}

// Snapshot holds one complete flatfile in memory.
type Snapshot struct {
	Lineage *lineage.Lineage

	Version     int
	HeaderFlags uint32

	Present       HeaderField
	Size          int
	NextAttr      int
	RecordPlayers int
	DBVersion     int    // named lineages, with NEW_VERSIONS
	SavedTime     string // named lineages, with NEW_VERSIONS

	Objects    map[DBRef]*Object
	AttrNames  map[int]*AttrDef    // attr number -> definition
	AttrByName map[string]*AttrDef // upper-case attr name -> definition

	FlagDecls    []*FlagDecl
	FlagAliases  []FlagAlias
	PowerDecls   []*FlagDecl
	PowerAliases []FlagAlias

	// FlagListCount and PowerListCount are the declared list sizes.
	FlagListCount  int
	PowerListCount int
}

// NewSnapshot creates an empty snapshot for a lineage.
func NewSnapshot(l *lineage.Lineage) *Snapshot {
	return &Snapshot{
		Lineage:    l,
		Objects:    make(map[DBRef]*Object),
		AttrNames:  make(map[int]*AttrDef),
		AttrByName: make(map[string]*AttrDef),
	}
}

// HasHeader reports whether a header phrase is present.
func (s *Snapshot) HasHeader(f HeaderField) bool { return s.Present&f == f }

// HeaderValue packs the version and header flags into the stored word.
func (s *Snapshot) HeaderValue() uint32 {
	return s.Lineage.HeaderValue(s.Version, s.HeaderFlags)
}

// AddObject inserts an object. References must be unique.
func (s *Snapshot) AddObject(o *Object) error {
	if _, dup := s.Objects[o.DBRef]; dup {
		return fmt.Errorf("duplicate object %s", o.DBRef)
	}
	s.Objects[o.DBRef] = o
	return nil
}

// Object returns the object for ref, or nil.
func (s *Snapshot) Object(ref DBRef) *Object {
	return s.Objects[ref]
}

// Refs returns every object reference in ascending order.
func (s *Snapshot) Refs() []DBRef {
	refs := make([]DBRef, 0, len(s.Objects))
	for r := range s.Objects {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Exists reports whether ref names an object in the snapshot.
func (s *Snapshot) Exists(ref DBRef) bool {
	_, ok := s.Objects[ref]
	return ok
}

// AddAttrDef registers a user-defined attribute.
func (s *Snapshot) AddAttrDef(num int, name string, flags uint32) *AttrDef {
	def := &AttrDef{Number: num, Name: name, Flags: flags}
	s.AttrNames[num] = def
	s.AttrByName[strings.ToUpper(name)] = def
	return def
}

// AttrName returns the name for an attribute number, or "" if unknown.
func (s *Snapshot) AttrName(num int) string {
	if def, ok := s.AttrNames[num]; ok {
		return def.Name
	}
	if s.Lineage.Attrs != nil {
		if def, ok := s.Lineage.Attrs.ByNumber(num); ok {
			return def.Name
		}
	}
	return ""
}

// AttrNumber resolves a name to a built-in or user attribute number.
func (s *Snapshot) AttrNumber(name string) (int, bool) {
	if s.Lineage.Attrs != nil {
		if def, ok := s.Lineage.Attrs.ByName(name); ok {
			return def.Number, true
		}
	}
	if def, ok := s.AttrByName[strings.ToUpper(name)]; ok {
		return def.Number, true
	}
	return 0, false
}

// UserAttrs returns the user-defined attributes in number order.
func (s *Snapshot) UserAttrs() []*AttrDef {
	defs := make([]*AttrDef, 0, len(s.AttrNames))
	for _, d := range s.AttrNames {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Number < defs[j].Number })
	return defs
}

// Kind returns the neutral type of an object.
func (s *Snapshot) Kind(o *Object) lineage.Kind {
	k, _ := s.Lineage.KindOf(s.TypeCode(o))
	return k
}

// TypeCode returns the native type code of an object.
func (s *Snapshot) TypeCode(o *Object) uint32 {
	if s.Lineage.Named {
		return o.Type
	}
	return o.Flags[0] & s.Lineage.TypeMask
}

// IsGoing reports whether an object is marked for destruction.
func (s *Snapshot) IsGoing(o *Object) bool {
	if s.Lineage.Named {
		for _, f := range o.FlagNames {
			if strings.EqualFold(f, "GOING") {
				return true
			}
		}
		return false
	}
	d, ok := s.Lineage.Flags.Lookup("GOING")
	return ok && o.Flags[d.Word]&d.Mask != 0
}

// Players returns the player objects in reference order.
func (s *Snapshot) Players() []*Object {
	var out []*Object
	for _, r := range s.Refs() {
		o := s.Objects[r]
		if s.Kind(o) == lineage.KindPlayer {
			out = append(out, o)
		}
	}
	return out
}
