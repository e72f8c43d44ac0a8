package remap

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// attrFlagNames lists an attribute's flags by native name.
func attrFlagNames(l *lineage.Lineage, a *gamedb.Attribute) []string {
	if l.Named {
		return a.FlagNames
	}
	names, _ := l.AttrFlags.Decode([]uint32{a.Flags})
	return names
}

// setAttrFlags stores translated flag names on a target attribute.
func (h *hop) setAttrFlags(a *gamedb.Attribute, names []string) {
	if h.to.Named {
		a.FlagNames = names
		return
	}
	words, _ := h.to.AttrFlags.Encode(names)
	a.Flags = words[0]
}

// mergeWinners picks, for every merge group, the first source attribute
// present on the object. Keys and values are upper case.
func (h *hop) mergeWinners(o *gamedb.Object) map[string]string {
	if len(h.pair.Merges) == 0 {
		return nil
	}
	win := make(map[string]string)
	for _, m := range h.pair.Merges {
		for _, s := range m.Sources {
			if o.AttrNamed(s) != nil {
				win[strings.ToUpper(m.Target)] = strings.ToUpper(s)
				break
			}
		}
	}
	return win
}

// targetName maps a source attribute name. It is also used for attribute
// names inside lock keys, so it must not depend on the object.
func (h *hop) targetName(name string) (target string, collides bool) {
	if m, ok := h.pair.MergeFor(name); ok {
		return m.Target, false
	}
	if h.from.PasswordAttr != "" && strings.EqualFold(name, h.from.PasswordAttr) {
		return h.to.PasswordAttr, false
	}
	target, collides = h.pair.Rename(name)
	if collides {
		return h.c.Options.SyntheticPrefix + name, true
	}
	return target, false
}

// lockAttrName is the attribute renamer handed to lock conversion.
func (h *hop) lockAttrName(name string) string {
	t, _ := h.targetName(name)
	return t
}

func (h *hop) attrs(o, n *gamedb.Object) {
	win := h.mergeWinners(o)
	seen := make(map[string]bool, len(o.Attrs))

	for _, a := range o.Attrs {
		if a.IsLock {
			continue
		}
		name := a.Name
		if name == "" {
			name = h.src.AttrName(a.Number)
		}
		if h.isTimeAttr(name) {
			continue
		}

		if m, ok := h.pair.MergeFor(name); ok && win[strings.ToUpper(m.Target)] != strings.ToUpper(name) {
			h.stats.AttrsMerged++
			continue
		}
		target, collides := h.targetName(name)
		switch {
		case collides:
			h.stats.AttrsCollided++
		case target != name:
			h.stats.AttrsRenamed++
		}

		value := a.Value
		isPass := h.from.PasswordAttr != "" && strings.EqualFold(name, h.from.PasswordAttr)
		if isPass {
			value = h.password(value)
		} else {
			value = h.text(value)
		}

		na := &gamedb.Attribute{
			Name:   target,
			Owner:  a.Owner,
			Derefs: a.Derefs,
			Value:  value,
		}
		flags, dropped := h.from.AttrFlags.Translate(attrFlagNames(h.from, a), h.to.AttrFlags)
		for _, d := range dropped {
			h.drop("attribute flag", d)
		}
		h.setAttrFlags(na, flags)

		if !h.to.Named {
			num, ok := h.attrNumber(target, a.Number)
			if ok && h.to.IsLockAttr(num) {
				// A plain attribute must not land on a lock-bearing built-in.
				na.Name = h.c.Options.SyntheticPrefix + name
				h.stats.AttrsCollided++
				num, ok = h.attrNumber(na.Name, a.Number)
			}
			if !ok {
				h.stats.AttrsDropped++
				h.drop("attribute", name)
				continue
			}
			na.Number = num
		}

		key := strings.ToUpper(na.Name)
		if seen[key] {
			h.stats.AttrsDropped++
			h.c.Log.Warn("duplicate attribute after rename, dropped", zap.Int("object", int(o.DBRef)),
				zap.String("attr", name), zap.String("target", na.Name))
			continue
		}
		seen[key] = true
		h.stats.AttrsCarried++
		n.Attrs = append(n.Attrs, na)
	}
}

// attrNumber resolves a target name to a built-in or user attribute number,
// defining a user attribute on first use. A source user number is kept when
// it is free in the target.
func (h *hop) attrNumber(name string, srcNum int) (int, bool) {
	if h.to.Attrs != nil {
		if def, ok := h.to.Attrs.ByName(name); ok {
			return def.Number, true
		}
	}
	if def, ok := h.dst.AttrByName[strings.ToUpper(name)]; ok {
		return def.Number, true
	}
	if ok, _ := h.to.ValidAttrName(name); !ok {
		return 0, false
	}

	var flags uint32
	num := srcNum
	if def, ok := h.src.AttrNames[srcNum]; ok && !h.from.Named {
		names, _ := h.from.AttrFlags.Decode([]uint32{def.Flags})
		out, _ := h.from.AttrFlags.Translate(names, h.to.AttrFlags)
		words, _ := h.to.AttrFlags.Encode(out)
		flags = words[0]
	} else {
		num = 0
	}
	if num < h.to.UserAttrFloor || h.taken(num) {
		num = h.nextAttr
	}
	if num >= h.nextAttr {
		h.nextAttr = num + 1
	}
	h.dst.AddAttrDef(num, name, flags)
	return num, true
}

func (h *hop) taken(num int) bool {
	if _, ok := h.dst.AttrNames[num]; ok {
		return true
	}
	if h.to.Attrs != nil {
		if _, ok := h.to.Attrs.ByNumber(num); ok {
			return true
		}
	}
	return false
}

// password adjusts a stored hash for the target's recognizer. Hashes that
// already name a $scheme$ are carried unchanged.
func (h *hop) password(v string) string {
	if p := h.pair.PassPrefix; p != "" && v != "" && !strings.HasPrefix(v, "$") {
		v = p + v
	}
	if s := h.pair.PassStrip; s != "" {
		v = strings.TrimPrefix(v, s)
	}
	return v
}

// timeAttr writes a text timestamp attribute. Zero means unknown and writes
// nothing.
func (h *hop) timeAttr(n *gamedb.Object, name string, t int64) {
	if t == 0 || name == "" {
		return
	}
	num, ok := h.attrNumber(name, 0)
	if !ok {
		return
	}
	n.Attrs = append(n.Attrs, &gamedb.Attribute{
		Number: num,
		Name:   name,
		Owner:  gamedb.Nothing,
		Value:  time.Unix(t, 0).UTC().Format(h.to.TimeFormat),
	})
}

func parseTimeText(layout, s string) (int64, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
