// Package lineage holds the compiled-in catalogs that describe each supported
// MUSH server family: flag and power bit layouts, attribute numbering, object
// type codes, header version bits and lock grammar. A *Lineage is plain data;
// conversion code is shared and parameterized over two descriptors.
package lineage

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/lock"
)

// Kind is the lineage-neutral object type.
type Kind int

const (
	KindNone Kind = iota
	KindRoom
	KindThing
	KindExit
	KindPlayer
	KindGarbage
	KindZone
)

func (k Kind) String() string {
	switch k {
	case KindRoom:
		return "ROOM"
	case KindThing:
		return "THING"
	case KindExit:
		return "EXIT"
	case KindPlayer:
		return "PLAYER"
	case KindGarbage:
		return "GARBAGE"
	case KindZone:
		return "ZONE"
	default:
		return "NOTYPE"
	}
}

// KindSet is a set of object kinds. The zero value means "any kind".
type KindSet uint8

// Kinds builds a set.
func Kinds(ks ...Kind) KindSet {
	var s KindSet
	for _, k := range ks {
		s |= 1 << uint(k)
	}
	return s
}

// Has reports whether k is in the set. An empty set contains every kind.
func (s KindSet) Has(k Kind) bool {
	return s == 0 || s&(1<<uint(k)) != 0
}

// TypeDef maps a native type code to its neutral kind.
type TypeDef struct {
	Code uint32
	Kind Kind
}

// Version describes one on-disk schema revision.
type Version struct {
	Number    int
	Mandatory uint32 // header bits every file of this version carries
	UTF8      bool   // attribute text is UTF-8 rather than Latin-1
}

// Lineage describes one server family.
type Lineage struct {
	ID   string
	Name string
	Tag  byte // header line prefix character after '+'

	// Named lineages store flags, powers and attributes by name and keep an
	// open-ended lock list per object.
	Named bool

	Dialect    lock.Dialect
	FlagWords  int
	PowerWords int

	Flags     *FlagTable
	Powers    *FlagTable
	AttrFlags *FlagTable
	LockFlags *FlagTable // Named lineages only
	Header    *FlagTable

	VersionMask uint32
	TypeMask    uint32
	Types       []TypeDef
	Versions    []Version

	Attrs         *AttrTable
	UserAttrFloor int
	AttrNameMax   int
	AttrNameChars string // punctuation allowed in attribute names besides A-Z 0-9

	// TimeFormat is set when creation/modification times live in free-text
	// attributes; otherwise they are numeric object fields.
	TimeFormat   string
	CreatedAttr  string
	ModifiedAttr string

	PasswordAttr string

	// QuoteControls selects the quoting style that escapes CR, LF, TAB and
	// ESC inside quoted strings.
	QuoteControls bool
}

func (l *Lineage) String() string { return l.ID }

// KindOf maps a native type code.
func (l *Lineage) KindOf(code uint32) (Kind, bool) {
	for _, t := range l.Types {
		if t.Code == code {
			return t.Kind, true
		}
	}
	return KindNone, false
}

// TypeCode maps a neutral kind to the native type code.
func (l *Lineage) TypeCode(k Kind) (uint32, bool) {
	for _, t := range l.Types {
		if t.Kind == k {
			return t.Code, true
		}
	}
	return 0, false
}

// Version returns the schema description for a version number.
func (l *Lineage) Version(n int) (Version, bool) {
	for _, v := range l.Versions {
		if v.Number == n {
			return v, true
		}
	}
	return Version{}, false
}

// Latest is the newest schema version this tool writes.
func (l *Lineage) Latest() Version {
	return l.Versions[len(l.Versions)-1]
}

// Oldest is the oldest schema version this tool reads.
func (l *Lineage) Oldest() Version {
	return l.Versions[0]
}

// HeaderValue packs a version number and header flag bits.
func (l *Lineage) HeaderValue(version int, flags uint32) uint32 {
	return flags&^l.VersionMask | uint32(version)&l.VersionMask
}

// SplitHeader is the inverse of HeaderValue.
func (l *Lineage) SplitHeader(v uint32) (version int, flags uint32) {
	return int(v & l.VersionMask), v &^ l.VersionMask
}

// IsLockAttr reports whether an attribute number is one of the reserved
// lock-bearing attributes.
func (l *Lineage) IsLockAttr(num int) bool {
	if l.Attrs == nil {
		return false
	}
	def, ok := l.Attrs.ByNumber(num)
	return ok && def.Lock != ""
}

// DefaultLockAttr is the attribute number holding the default lock.
const DefaultLockAttr = 42

// BasicLock is the named-lock equivalent of the default lock.
const BasicLock = "Basic"

// ValidAttrName checks an attribute name against the lineage's naming rules.
// It returns a short reason when the name is invalid.
func (l *Lineage) ValidAttrName(name string) (bool, string) {
	if name == "" {
		return false, "empty name"
	}
	if l.AttrNameMax > 0 && len(name) > l.AttrNameMax {
		return false, fmt.Sprintf("longer than %d characters", l.AttrNameMax)
	}
	c := name[0]
	if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' || c == '~') {
		return false, fmt.Sprintf("bad first character %q", c)
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			continue
		}
		if strings.IndexByte(l.AttrNameChars, c) < 0 {
			return false, fmt.Sprintf("bad character %q", c)
		}
	}
	return true, ""
}

// All lists every lineage in a stable order.
var All = []*Lineage{T5X, T6H, R7H, P6H}

// Hub is the lineage every conversion passes through.
var Hub = T5X

// ByID resolves a lineage identifier or one of its common aliases.
func ByID(id string) (*Lineage, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "t5x", "mux", "tinymux":
		return T5X, nil
	case "t6h", "mush", "tinymush":
		return T6H, nil
	case "r7h", "rhost", "rhostmush":
		return R7H, nil
	case "p6h", "penn", "pennmush":
		return P6H, nil
	}
	return nil, fmt.Errorf("unknown lineage %q (want t5x, t6h, r7h or p6h)", id)
}
