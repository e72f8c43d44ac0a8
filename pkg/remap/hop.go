package remap

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/charset"
	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// PennDBVersion is the dbversion written on PennMUSH output that did not
// come from a PennMUSH file.
const PennDBVersion = 5

// pennTimeFormat is how PennMUSH spells savedtime.
const pennTimeFormat = "Mon Jan _2 15:04:05 2006"

// hop is one direct conversion between a lineage and the hub.
type hop struct {
	c        *Converter
	src, dst *gamedb.Snapshot
	from, to *lineage.Lineage
	pair     *lineage.Pair
	stats    *Stats

	fromEnc, toEnc charset.Encoding

	nextAttr int

	// dropped counts losses per category and name, logged once per hop.
	dropped map[string]map[string]int
}

func newHop(c *Converter, src *gamedb.Snapshot, from, to *lineage.Lineage) *hop {
	return &hop{
		c:       c,
		src:     src,
		from:    from,
		to:      to,
		pair:    lineage.PairFor(from, to),
		stats:   &Stats{ObjectsIn: len(src.Objects)},
		dropped: make(map[string]map[string]int),
	}
}

func (h *hop) run() (*gamedb.Snapshot, error) {
	dst := gamedb.NewSnapshot(h.to)
	dst.Version, dst.HeaderFlags = TargetHeader(h.to)
	h.dst = dst
	h.fromEnc = charset.For(h.from, h.src.Version, h.src.HeaderFlags)
	h.toEnc = charset.For(h.to, dst.Version, dst.HeaderFlags)
	h.nextAttr = h.firstFreeAttr()

	for _, ref := range h.src.Refs() {
		n, ok := h.object(h.src.Objects[ref])
		if !ok {
			continue
		}
		if err := dst.AddObject(n); err != nil {
			return nil, err
		}
	}
	h.finishHeader()
	h.logDropped()
	h.stats.ObjectsOut = len(dst.Objects)
	return dst, nil
}

// firstFreeAttr is where fresh user attribute numbers start: above every
// number the source already uses, so reused numbers never clash.
func (h *hop) firstFreeAttr() int {
	next := h.to.UserAttrFloor
	if h.src.HasHeader(gamedb.HeaderNextAttr) && h.src.NextAttr > next {
		next = h.src.NextAttr
	}
	for num := range h.src.AttrNames {
		if num >= next {
			next = num + 1
		}
	}
	return next
}

func (h *hop) finishHeader() {
	dst := h.dst
	size := 0
	for ref := range dst.Objects {
		if int(ref) >= size {
			size = int(ref) + 1
		}
	}
	if h.src.HasHeader(gamedb.HeaderSize) && h.src.Size > size {
		size = h.src.Size
	}
	dst.Size = size
	dst.Present |= gamedb.HeaderSize

	if h.to.Named {
		dst.DBVersion = PennDBVersion
		if h.src.HasHeader(gamedb.HeaderDBVersion) {
			dst.DBVersion = h.src.DBVersion
		}
		dst.SavedTime = h.c.Options.Now().UTC().Format(pennTimeFormat)
		dst.Present |= gamedb.HeaderDBVersion | gamedb.HeaderSavedTime
		return
	}

	dst.NextAttr = h.nextAttr
	dst.RecordPlayers = len(dst.Players())
	if h.src.HasHeader(gamedb.HeaderRecordPlayers) && h.src.RecordPlayers > dst.RecordPlayers {
		dst.RecordPlayers = h.src.RecordPlayers
	}
	dst.Present |= gamedb.HeaderNextAttr | gamedb.HeaderRecordPlayers
}

func (h *hop) drop(category, name string) {
	m := h.dropped[category]
	if m == nil {
		m = make(map[string]int)
		h.dropped[category] = m
	}
	m[name]++
}

func (h *hop) logDropped() {
	cats := make([]string, 0, len(h.dropped))
	for c := range h.dropped {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		names := make([]string, 0, len(h.dropped[c]))
		for n := range h.dropped[c] {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			h.c.Log.Warn("no equivalent in "+h.to.Name+", dropped",
				zap.String("kind", c), zap.String("name", n), zap.Int("count", h.dropped[c][n]))
		}
	}
}

func (h *hop) text(s string) string {
	return charset.Transcode(s, h.fromEnc, h.toEnc)
}

// object converts one object, or reports false when its type has no
// equivalent in the target.
func (h *hop) object(o *gamedb.Object) (*gamedb.Object, bool) {
	kind := h.src.Kind(o)
	code, ok := h.to.TypeCode(kind)
	if kind == lineage.KindNone || !ok {
		h.stats.ObjectsDropped++
		h.drop("type", kind.String())
		return nil, false
	}

	n := gamedb.NewObject(o.DBRef)
	n.Name = h.text(o.Name)
	n.Mark(gamedb.FieldName | gamedb.FieldType | gamedb.FieldFlags)
	n.Pennies = o.Pennies
	n.Mark(gamedb.FieldPennies)
	h.refs(o, n, kind)

	if h.from.Named && h.to.Named {
		n.Warnings = o.Warnings
	}
	if h.to.Named {
		n.Mark(gamedb.FieldWarnings)
	}

	h.flags(o, n, kind, code)
	h.powers(o, n)
	h.attrs(o, n)
	h.timestamps(o, n)
	h.locks(o, n)
	return n, true
}

// refs copies the reference fields. PennMUSH keeps the home of players and
// things in the exits field where the other lineages use the link field.
func (h *hop) refs(o, n *gamedb.Object, kind lineage.Kind) {
	for _, f := range gamedb.RefFields {
		if r, ok := o.Ref(f); ok {
			n.SetRef(f, r)
		}
	}
	if h.from.Named == h.to.Named || (kind != lineage.KindPlayer && kind != lineage.KindThing) {
		return
	}
	if h.to.Named {
		n.Exits = o.Link
		n.Link = gamedb.Nothing
		n.Present &^= gamedb.FieldLink
		n.Mark(gamedb.FieldExits)
		return
	}
	n.SetRef(gamedb.FieldLink, o.Exits)
	n.Exits = gamedb.Nothing
}

// flagNames lists an object's set flags by native name.
func flagNames(l *lineage.Lineage, t *lineage.FlagTable, names []string, words []uint32) []string {
	if l.Named {
		return names
	}
	out, _ := t.Decode(words)
	return out
}

func (h *hop) flags(o, n *gamedb.Object, kind lineage.Kind, code uint32) {
	names := flagNames(h.from, h.from.Flags, o.FlagNames, o.Flags[:h.from.Flags.Words])
	out, dropped := h.from.Flags.TranslateFor(names, h.to.Flags, kind)
	for _, d := range dropped {
		h.stats.FlagsDropped++
		h.drop("flag", d)
	}
	if h.to.Named {
		n.FlagNames = out
		n.Type = code
		return
	}
	words, _ := h.to.Flags.Encode(out)
	copy(n.Flags[:], words)
	n.Flags[0] = n.Flags[0]&^h.to.TypeMask | code
}

func (h *hop) powers(o, n *gamedb.Object) {
	if h.from.Powers == nil || h.to.Powers == nil {
		return
	}
	names := flagNames(h.from, h.from.Powers, o.PowerNames, o.Powers[:h.from.Powers.Words])
	out, dropped := h.from.Powers.Translate(names, h.to.Powers)
	for _, d := range dropped {
		h.stats.PowersDropped++
		h.drop("power", d)
	}
	n.Mark(gamedb.FieldPowers)
	if h.to.Named {
		n.PowerNames = out
		return
	}
	words, _ := h.to.Powers.Encode(out)
	copy(n.Powers[:], words)
}

// timestamps carries creation and modification times, which live either in
// numeric object fields or in text attributes depending on the lineage.
func (h *hop) timestamps(o, n *gamedb.Object) {
	var created, modified int64
	if h.from.TimeFormat != "" {
		created = h.parseTime(o, h.from.CreatedAttr)
		modified = h.parseTime(o, h.from.ModifiedAttr)
	}
	if o.Has(gamedb.FieldCreated) {
		created = o.Created
	}
	if o.Has(gamedb.FieldModified) {
		modified = o.Modified
	}

	if h.to.TimeFormat != "" {
		h.timeAttr(n, h.to.CreatedAttr, created)
		h.timeAttr(n, h.to.ModifiedAttr, modified)
	}
	if h.to.Named || h.dst.HeaderFlags&lineage.VCreateTime != 0 {
		n.Created = created
		n.Mark(gamedb.FieldCreated)
	}
	if h.to.Named || h.dst.HeaderFlags&lineage.VTimestamps != 0 {
		n.Modified = modified
		n.Mark(gamedb.FieldModified)
	}
	if h.dst.HeaderFlags&lineage.VTimestamps != 0 {
		n.Accessed = modified
		if o.Has(gamedb.FieldAccessed) {
			n.Accessed = o.Accessed
		}
		n.Mark(gamedb.FieldAccessed)
	}
}

// isTimeAttr reports whether a source attribute holds a creation or
// modification time handled by timestamps.
func (h *hop) isTimeAttr(name string) bool {
	return h.from.TimeFormat != "" &&
		(strings.EqualFold(name, h.from.CreatedAttr) || strings.EqualFold(name, h.from.ModifiedAttr))
}

func (h *hop) parseTime(o *gamedb.Object, attr string) int64 {
	a := o.AttrNamed(attr)
	if a == nil || strings.TrimSpace(a.Value) == "" {
		return 0
	}
	t, err := parseTimeText(h.from.TimeFormat, a.Value)
	if err != nil {
		h.c.Log.Warn("unreadable timestamp", zap.Int("object", int(o.DBRef)),
			zap.String("attr", attr), zap.String("value", a.Value))
		return 0
	}
	return t
}
