package gamedb

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/lock"
)

// AttrMarker starts the owner:flags: prefix packed into stored values.
const AttrMarker = '\x01'

// Attribute represents a single attribute on an object.
type Attribute struct {
	Number    int
	Name      string
	Owner     DBRef
	Flags     uint32   // positional lineages
	FlagNames []string // named lineages
	Derefs    int
	Value     string

	// Encoded is set while Owner and Flags are packed into Value.
	Encoded bool

	// IsLock marks a lock-bearing attribute. Lock holds the parsed value and
	// is nil when the value did not parse; Value is kept either way.
	IsLock bool
	Lock   *lock.Node
}

// AttrDef represents a user-defined attribute name definition.
type AttrDef struct {
	Number int
	Name   string
	Flags  uint32
}

// Encode packs Owner and Flags into Value. Attributes owned by defaultOwner
// with no flags are stored bare. Encoding an encoded attribute is a no-op.
func (a *Attribute) Encode(defaultOwner DBRef) {
	if a.Encoded {
		return
	}
	a.Encoded = true
	owner := a.Owner
	if owner == Nothing {
		owner = defaultOwner
	}
	if owner == defaultOwner && a.Flags == 0 {
		return
	}
	a.Value = string(AttrMarker) + strconv.Itoa(int(owner)) + ":" + strconv.FormatUint(uint64(a.Flags), 10) + ":" + a.Value
}

// Decode unpacks an encoded value. A value without a prefix belongs to
// defaultOwner with no flags. Decoding a decoded attribute is a no-op.
func (a *Attribute) Decode(defaultOwner DBRef) {
	if !a.Encoded {
		return
	}
	a.Encoded = false
	owner, flags, text, ok := SplitPrefix(a.Value)
	if !ok {
		a.Owner = defaultOwner
		a.Flags = 0
		return
	}
	a.Owner = owner
	a.Flags = flags
	a.Value = text
}

// SplitPrefix parses "\x01owner:flags:text". ok is false when s carries no
// well-formed prefix.
func SplitPrefix(s string) (owner DBRef, flags uint32, text string, ok bool) {
	if len(s) == 0 || s[0] != AttrMarker {
		return Nothing, 0, s, false
	}
	rest := s[1:]
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return Nothing, 0, s, false
	}
	o, err := strconv.Atoi(rest[:i])
	if err != nil {
		return Nothing, 0, s, false
	}
	rest = rest[i+1:]
	j := strings.IndexByte(rest, ':')
	if j < 0 {
		return Nothing, 0, s, false
	}
	f, err := strconv.ParseUint(rest[:j], 10, 32)
	if err != nil {
		return Nothing, 0, s, false
	}
	return DBRef(o), uint32(f), rest[j+1:], true
}

// Clone returns a copy that shares nothing with a.
func (a *Attribute) Clone() *Attribute {
	c := *a
	c.FlagNames = append([]string(nil), a.FlagNames...)
	c.Lock = a.Lock.Clone()
	return &c
}
