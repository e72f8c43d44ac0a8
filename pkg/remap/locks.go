package remap

import (
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// srcLock is a lock in lineage-neutral form: the named-lock spelling plus
// the parsed key.
type srcLock struct {
	name  string
	expr  *lock.Node
	flags []string // native to the source
	owner gamedb.DBRef
}

// sourceLocks gathers every lock on an object. Positional lineages keep the
// default lock in the header or in attribute 42 and the others in reserved
// attributes; named lineages keep a list.
func (h *hop) sourceLocks(o *gamedb.Object) []srcLock {
	var out []srcLock
	fail := func(name, text string) {
		h.stats.LocksFailed++
		h.c.Log.Warn("lock did not parse, dropped", zap.Int("object", int(o.DBRef)),
			zap.String("lock", name), zap.String("text", text))
	}

	if h.from.Named {
		for _, l := range o.Locks {
			if l.Expr == nil {
				fail(l.Name, l.Key)
				continue
			}
			out = append(out, srcLock{name: l.Name, expr: l.Expr, flags: l.Flags, owner: l.Creator})
		}
		return out
	}

	hasBasic := false
	for _, a := range o.Attrs {
		if !a.IsLock {
			continue
		}
		def, ok := h.from.Attrs.ByNumber(a.Number)
		if !ok {
			continue
		}
		if a.Lock == nil {
			if strings.TrimSpace(a.Value) != "" {
				fail(def.Lock, a.Value)
			}
			continue
		}
		hasBasic = hasBasic || def.Lock == lineage.BasicLock
		out = append(out, srcLock{name: def.Lock, expr: a.Lock, flags: attrFlagNames(h.from, a), owner: a.Owner})
	}

	// Attribute 42 takes precedence over a header key.
	switch {
	case hasBasic:
	case o.Lock != nil:
		out = append([]srcLock{{name: lineage.BasicLock, expr: o.Lock, owner: o.Owner}}, out...)
	case strings.TrimSpace(o.LockText) != "":
		fail(lineage.BasicLock, o.LockText)
	}
	return out
}

// convertLock translates a key into the target grammar. Results are cached
// by key text since the same keys recur across a database.
func (h *hop) convertLock(expr *lock.Node) (*lock.Node, error) {
	key := cacheKey{from: h.from.ID, to: h.to.ID, text: lock.Write(expr)}
	if n, ok := h.c.cache.Get(key); ok {
		return n.Clone(), nil
	}
	n, err := lock.Convert(expr, h.to.Dialect, lock.WithAttrRenamer(h.lockAttrName))
	if err != nil {
		return nil, err
	}
	h.c.cache.Add(key, n)
	return n.Clone(), nil
}

func (h *hop) lockFlagTables() (from, to *lineage.FlagTable) {
	from, to = h.from.AttrFlags, h.to.AttrFlags
	if h.from.Named {
		from = h.from.LockFlags
	}
	if h.to.Named {
		to = h.to.LockFlags
	}
	return from, to
}

// locks folds the source locks into the target's layout: the default lock
// becomes Basic and back, the others move between reserved lock attributes
// and the named lock list. A lock the target cannot hold is dropped.
func (h *hop) locks(o, n *gamedb.Object) {
	fromFlags, toFlags := h.lockFlagTables()
	for _, sl := range h.sourceLocks(o) {
		conv, err := h.convertLock(sl.expr)
		if err != nil {
			h.stats.LocksFailed++
			h.c.Log.Warn("lock cannot be expressed, dropped", zap.Int("object", int(o.DBRef)),
				zap.String("lock", sl.name), zap.String("key", lock.Write(sl.expr)), zap.Error(err))
			continue
		}
		flags, _ := fromFlags.Translate(sl.flags, toFlags)
		owner := sl.owner
		if owner == gamedb.Nothing {
			owner = o.Owner
		}

		if h.to.Named {
			n.Locks = append(n.Locks, &gamedb.Lock{
				Name:    h.pennLockName(sl.name),
				Creator: owner,
				Flags:   flags,
				Key:     lock.Write(conv),
				Expr:    conv,
			})
			h.stats.LocksConverted++
			continue
		}

		if strings.EqualFold(sl.name, lineage.BasicLock) && h.dst.HeaderFlags&lineage.VAtrKey == 0 {
			n.Lock = conv
			n.LockText = lock.Write(conv)
			n.Mark(gamedb.FieldLock)
			h.stats.LocksConverted++
			continue
		}

		def, ok := h.to.Attrs.ByLock(strings.TrimPrefix(sl.name, "User:"))
		if !ok {
			h.stats.LocksDropped++
			h.drop("lock", sl.name)
			continue
		}
		a := &gamedb.Attribute{
			Number: def.Number,
			Name:   def.Name,
			Owner:  owner,
			Value:  lock.Write(conv),
			IsLock: true,
			Lock:   conv,
		}
		h.setAttrFlags(a, flags)
		n.RemoveAttr(def.Number)
		n.Attrs = append(n.Attrs, a)
		h.stats.LocksConverted++
	}
	if !h.to.Named && h.dst.HeaderFlags&lineage.VAtrKey == 0 {
		n.Mark(gamedb.FieldLock)
	}
}

// pennLockName spells a lock name the way PennMUSH expects: a known lock
// type, or a user lock.
func (h *hop) pennLockName(name string) string {
	for _, k := range lineage.PennLocks {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	if strings.HasPrefix(name, "User:") {
		return name
	}
	return "User:" + name
}
