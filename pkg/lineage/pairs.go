package lineage

import "strings"

// Collision marks a source attribute name that collides with a built-in of
// the target lineage carrying a different meaning. The remapper gives such
// attributes a synthetic name and a fresh user number.
const Collision = -1

// Merge collapses several source attributes into one target attribute. The
// first source present on an object wins; the rest are dropped.
type Merge struct {
	Target  string
	Sources []string
}

// Pair holds the attribute rules for one conversion direction.
type Pair struct {
	From, To *Lineage

	// Renames maps an upper-case source name to a target name. Numbers
	// marks upper-case source names with the Collision sentinel.
	Renames map[string]string
	Numbers map[string]int
	Merges  []Merge

	// PassPrefix is prepended to password hashes on the way in; PassStrip is
	// removed on the way out.
	PassPrefix string
	PassStrip  string
}

// Rename returns the target name for a source attribute name and whether it
// collides with a target built-in.
func (p *Pair) Rename(name string) (target string, collides bool) {
	key := strings.ToUpper(name)
	if p.Numbers[key] == Collision {
		return name, true
	}
	if t, ok := p.Renames[key]; ok {
		return t, false
	}
	return name, false
}

// MergeFor returns the merge group a source name belongs to.
func (p *Pair) MergeFor(name string) (Merge, bool) {
	for _, m := range p.Merges {
		for _, s := range m.Sources {
			if strings.EqualFold(s, name) {
				return m, true
			}
		}
	}
	return Merge{}, false
}

var pairs = map[[2]string]*Pair{}

func register(p *Pair) *Pair {
	pairs[[2]string{p.From.ID, p.To.ID}] = p
	return p
}

func collide(names ...string) map[string]int {
	m := make(map[string]int, len(names))
	for _, n := range names {
		m[n] = Collision
	}
	return m
}

// PairFor returns the rules for one direction. Directions that have no
// special rules get an empty Pair.
func PairFor(from, to *Lineage) *Pair {
	if p, ok := pairs[[2]string{from.ID, to.ID}]; ok {
		return p
	}
	return &Pair{From: from, To: to}
}

// Route lists the hops a conversion takes. Every lineage converts to and
// from the hub directly; other pairs go through it.
func Route(from, to *Lineage) [][2]*Lineage {
	switch {
	case from == to:
		return nil
	case from == Hub || to == Hub:
		return [][2]*Lineage{{from, to}}
	default:
		return [][2]*Lineage{{from, Hub}, {Hub, to}}
	}
}

const p6hPassPrefix = "$P6H$$"

func init() {
	register(&Pair{
		From:    T6H,
		To:      T5X,
		Renames: map[string]string{"DAILYATTRIB": "DAILY"},
		Numbers: collide("CREATED", "MODIFIED"),
		Merges: []Merge{
			{Target: "CONFORMAT", Sources: []string{"LCON_FMT", "CONFORMAT"}},
			{Target: "EXITFORMAT", Sources: []string{"LEXITS_FMT", "EXITFORMAT"}},
		},
	})
	register(&Pair{
		From: T5X,
		To:   T6H,
		Renames: map[string]string{
			"DAILY":      "DAILYATTRIB",
			"CONFORMAT":  "LCON_FMT",
			"EXITFORMAT": "LEXITS_FMT",
		},
	})
	register(&Pair{
		From:    R7H,
		To:      T5X,
		Numbers: collide("CREATED", "MODIFIED"),
	})
	register(&Pair{
		From:    T5X,
		To:      R7H,
		Numbers: collide("CREATED_TIME", "MODIFY_TIME"),
	})
	register(&Pair{
		From:       P6H,
		To:         T5X,
		Renames:    map[string]string{"LASTPAGED": "LASTPAGE"},
		Numbers:    collide("CREATED", "MODIFIED", "MAILCURF", "MAILFOLDERS"),
		PassPrefix: p6hPassPrefix,
	})
	register(&Pair{
		From:      T5X,
		To:        P6H,
		Renames:   map[string]string{"LASTPAGE": "LASTPAGED"},
		Numbers:   collide("MAILCURF", "MAILFOLDERS"),
		PassStrip: p6hPassPrefix,
	})
}
