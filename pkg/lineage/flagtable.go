package lineage

import (
	"strings"
)

// FlagDef is one catalog entry: a flag, power, attribute flag or header bit.
type FlagDef struct {
	Name  string  // native spelling
	Canon string  // cross-lineage name; empty means Name
	Word  int     // bit word index
	Mask  uint32  // zero for name-only catalogs
	Types KindSet // object kinds the flag applies to; zero means all
}

// CanonName returns the name used to match this entry across lineages.
func (d FlagDef) CanonName() string {
	if d.Canon != "" {
		return d.Canon
	}
	return d.Name
}

// FlagTable is an ordered catalog for one category of bits.
type FlagTable struct {
	Name  string
	Words int // zero for name-only catalogs

	// Ignore lists bits per word that are not flags at all (the type code
	// in word 0, the version number in a header).
	Ignore []uint32

	defs  []FlagDef
	index map[string]int
}

func newFlagTable(name string, words int, ignore []uint32, defs []FlagDef) *FlagTable {
	t := &FlagTable{Name: name, Words: words, Ignore: ignore, defs: defs, index: make(map[string]int, 2*len(defs))}
	for i, d := range defs {
		t.index[strings.ToUpper(d.Name)] = i
	}
	for i, d := range defs {
		key := strings.ToUpper(d.CanonName())
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Defs returns the entries in table order.
func (t *FlagTable) Defs() []FlagDef { return t.defs }

// Lookup finds an entry by native or canonical name, ignoring case.
func (t *FlagTable) Lookup(name string) (FlagDef, bool) {
	i, ok := t.index[strings.ToUpper(name)]
	if !ok {
		return FlagDef{}, false
	}
	return t.defs[i], true
}

// Known returns the union of every mask defined for a word.
func (t *FlagTable) Known(word int) uint32 {
	var m uint32
	for _, d := range t.defs {
		if d.Word == word {
			m |= d.Mask
		}
	}
	return m
}

func (t *FlagTable) ignored(word int) uint32 {
	if word < len(t.Ignore) {
		return t.Ignore[word]
	}
	return 0
}

// Decode turns bit words into native names in table order. Matched bits are
// cleared from a working copy; whatever is left over is returned as the
// residual, one entry per input word.
func (t *FlagTable) Decode(words []uint32) (names []string, residual []uint32) {
	residual = make([]uint32, len(words))
	for i, w := range words {
		residual[i] = w &^ t.ignored(i)
	}
	for _, d := range t.defs {
		if d.Mask == 0 || d.Word >= len(residual) {
			continue
		}
		if residual[d.Word]&d.Mask == d.Mask {
			names = append(names, d.Name)
			residual[d.Word] &^= d.Mask
		}
	}
	return names, residual
}

// DecodeString is Decode with the names joined by single spaces.
func (t *FlagTable) DecodeString(words []uint32) (string, []uint32) {
	names, residual := t.Decode(words)
	return strings.Join(names, " "), residual
}

// Encode sets the bits for each name. Names that the table does not know,
// or that carry no bits, are returned in unknown.
func (t *FlagTable) Encode(names []string) (words []uint32, unknown []string) {
	n := t.Words
	if n == 0 {
		n = 1
	}
	words = make([]uint32, n)
	for _, name := range names {
		d, ok := t.Lookup(name)
		if !ok || d.Mask == 0 || d.Word >= n {
			unknown = append(unknown, name)
			continue
		}
		words[d.Word] |= d.Mask
	}
	return words, unknown
}

// Translate maps names from this table to the native names of another
// table through their canonical spelling. Duplicates collapse; names with no
// counterpart are returned in dropped.
func (t *FlagTable) Translate(names []string, to *FlagTable) (out, dropped []string) {
	return t.translate(names, to, func(FlagDef) bool { return true })
}

// TranslateFor is Translate for the flags of one object of kind k. An entry
// restricted to other kinds, in either table, is dropped.
func (t *FlagTable) TranslateFor(names []string, to *FlagTable, k Kind) (out, dropped []string) {
	return t.translate(names, to, func(d FlagDef) bool { return d.Types.Has(k) })
}

func (t *FlagTable) translate(names []string, to *FlagTable, fits func(FlagDef) bool) (out, dropped []string) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		canon := name
		if d, ok := t.Lookup(name); ok {
			if !fits(d) {
				dropped = append(dropped, name)
				continue
			}
			canon = d.CanonName()
		}
		td, ok := to.Lookup(canon)
		if !ok || !fits(td) {
			dropped = append(dropped, name)
			continue
		}
		if !seen[td.Name] {
			seen[td.Name] = true
			out = append(out, td.Name)
		}
	}
	return out, dropped
}

// Unknown returns the names this table has no entry for.
func (t *FlagTable) Unknown(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := t.Lookup(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

// SplitNames splits a space-separated flag list.
func SplitNames(s string) []string {
	return strings.Fields(s)
}

// bits builds a run of single-bit entries in one word, starting at the
// given mask and doubling.
func bits(word int, first uint32, names ...string) []FlagDef {
	defs := make([]FlagDef, 0, len(names))
	m := first
	for _, n := range names {
		if n != "" {
			defs = append(defs, FlagDef{Name: n, Word: word, Mask: m})
		}
		m <<= 1
	}
	return defs
}

// named builds name-only entries. Each argument is "NAME" or "NAME=CANON".
func named(entries ...string) []FlagDef {
	defs := make([]FlagDef, 0, len(entries))
	for _, e := range entries {
		name, canon, _ := strings.Cut(e, "=")
		defs = append(defs, FlagDef{Name: name, Canon: canon})
	}
	return defs
}

// canon attaches canonical names to entries built by bits.
func canon(defs []FlagDef, pairs map[string]string) []FlagDef {
	for i := range defs {
		if c, ok := pairs[defs[i].Name]; ok {
			defs[i].Canon = c
		}
	}
	return defs
}

// only restricts entries to the given object kinds.
func only(defs []FlagDef, ks KindSet, names ...string) []FlagDef {
	for i := range defs {
		for _, n := range names {
			if defs[i].Name == n {
				defs[i].Types = ks
			}
		}
	}
	return defs
}

func concat(groups ...[]FlagDef) []FlagDef {
	var out []FlagDef
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
