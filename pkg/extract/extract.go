// Package extract writes a single object as a script of game commands that
// recreate its flags, powers, locks and attributes on a running server.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/charset"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// stateFlags are maintained by the server and refused by @set.
var stateFlags = map[string]bool{
	"GOING":     true,
	"CONNECTED": true,
}

type extractor struct {
	snap *gamedb.Snapshot
	l    *lineage.Lineage
	enc  charset.Encoding
	o    *gamedb.Object
	ref  string

	w   *bufio.Writer
	err error
}

// Object writes the script for ref to w.
func Object(w io.Writer, snap *gamedb.Snapshot, ref gamedb.DBRef) error {
	o := snap.Object(ref)
	if o == nil {
		return fmt.Errorf("extract: object %s not found", ref)
	}
	x := &extractor{
		snap: snap,
		l:    snap.Lineage,
		enc:  charset.For(snap.Lineage, snap.Version, snap.HeaderFlags),
		o:    o,
		ref:  ref.String(),
		w:    bufio.NewWriter(w),
	}
	x.header()
	x.flags()
	x.powers()
	x.locks()
	x.attrs()
	if x.err != nil {
		return fmt.Errorf("extract: %w", x.err)
	}
	if err := x.w.Flush(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	return nil
}

func (x *extractor) line(s string) {
	if x.err != nil {
		return
	}
	if _, err := x.w.WriteString(s); err != nil {
		x.err = err
		return
	}
	x.err = x.w.WriteByte('\n')
}

func (x *extractor) header() {
	text := "latin-1"
	if x.enc.UTF8 {
		text = "utf-8"
	}
	x.line(fmt.Sprintf("@@ %s %s", x.ref, x.o.Name))
	x.line(fmt.Sprintf("@@ %s owned by %s, %s version %d, %s with %s color",
		x.snap.Kind(x.o), x.o.Owner, x.l.Name, x.snap.Version, text, x.enc.Color))
}

func (x *extractor) flags() {
	names := x.o.FlagNames
	if !x.l.Named {
		names, _ = x.l.Flags.Decode(x.o.Flags[:x.l.Flags.Words])
	}
	for _, n := range names {
		if stateFlags[strings.ToUpper(n)] {
			continue
		}
		x.line(fmt.Sprintf("@set %s=%s", x.ref, n))
	}
}

func (x *extractor) powers() {
	names := x.o.PowerNames
	if !x.l.Named {
		if x.l.Powers == nil || !x.o.Has(gamedb.FieldPowers) {
			return
		}
		names, _ = x.l.Powers.Decode(x.o.Powers[:x.l.Powers.Words])
	}
	for _, n := range names {
		x.line(fmt.Sprintf("@power %s=%s", x.ref, n))
	}
}

// keyText prefers the re-serialized key and falls back to the stored text.
func keyText(n *lock.Node, stored string) string {
	if n != nil {
		return lock.Write(n)
	}
	return strings.TrimSpace(stored)
}

func (x *extractor) lock(name, key string) {
	if key == "" {
		return
	}
	if strings.EqualFold(name, lineage.BasicLock) {
		x.line(fmt.Sprintf("@lock %s=%s", x.ref, key))
		return
	}
	x.line(fmt.Sprintf("@lock/%s %s=%s", name, x.ref, key))
}

func (x *extractor) locks() {
	if x.l.Named {
		for _, l := range x.o.Locks {
			x.lock(l.Name, keyText(l.Expr, l.Key))
			for _, f := range l.Flags {
				x.line(fmt.Sprintf("@lset %s/%s=%s", x.ref, l.Name, f))
			}
		}
		return
	}

	var rest []*gamedb.Attribute
	var basic *gamedb.Attribute
	for _, a := range x.o.Attrs {
		if !x.l.IsLockAttr(a.Number) {
			continue
		}
		if a.Number == lineage.DefaultLockAttr {
			basic = a
			continue
		}
		rest = append(rest, a)
	}
	if basic != nil {
		x.lock(lineage.BasicLock, keyText(basic.Lock, basic.Value))
	} else {
		x.lock(lineage.BasicLock, keyText(x.o.Lock, x.o.LockText))
	}
	for _, a := range rest {
		def, _ := x.l.Attrs.ByNumber(a.Number)
		x.lock(def.Lock, keyText(a.Lock, a.Value))
	}
}

func (x *extractor) skipAttr(a *gamedb.Attribute, name string) bool {
	if a.IsLock || x.l.IsLockAttr(a.Number) {
		return true
	}
	switch {
	case strings.EqualFold(name, x.l.PasswordAttr):
		return true
	case x.l.TimeFormat != "" && (strings.EqualFold(name, x.l.CreatedAttr) || strings.EqualFold(name, x.l.ModifiedAttr)):
		return true
	}
	return false
}

func (x *extractor) attrs() {
	for _, a := range x.o.Attrs {
		name := a.Name
		if name == "" {
			name = x.snap.AttrName(a.Number)
		}
		if name == "" || x.skipAttr(a, name) {
			continue
		}
		if needsEval(x.enc, a.Value) {
			x.line(fmt.Sprintf("@wait 0={&%s %s=%s}", name, x.ref, x.escape(a.Value)))
		} else {
			x.line(fmt.Sprintf("&%s %s=%s", name, x.ref, a.Value))
		}

		flags := a.FlagNames
		if !x.l.Named {
			flags, _ = x.l.AttrFlags.Decode([]uint32{a.Flags})
		}
		for _, f := range flags {
			x.line(fmt.Sprintf("@set %s/%s=%s", x.ref, name, f))
		}
	}
}

// needsEval reports whether typing v literally would lose something:
// control characters, color, or spacing the command parser collapses.
func needsEval(enc charset.Encoding, v string) bool {
	if charset.HasColor(enc.Color, v) {
		return true
	}
	if strings.HasPrefix(v, " ") || strings.HasSuffix(v, " ") || strings.Contains(v, "  ") {
		return true
	}
	return strings.ContainsAny(v, "\r\n\t\x1b")
}
