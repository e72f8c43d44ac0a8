package validate

import (
	"fmt"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// maxChain bounds how far a contents or exits chain is followed.
const maxChain = 50000

// IntegrityChecker performs referential integrity checks on the snapshot.
type IntegrityChecker struct{}

func (c *IntegrityChecker) Name() string { return "integrity" }

func (c *IntegrityChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap

	warn := func(ref gamedb.DBRef, format string, args ...interface{}) {
		findings = v.finding(findings, Finding{
			Category:    CatIntegrity,
			Severity:    SevWarning,
			ObjectRef:   ref,
			Description: fmt.Sprintf(format, args...),
		})
	}
	exists := func(r gamedb.DBRef) bool {
		return r.IsSentinel() || snap.Exists(r)
	}

	refs := snap.Refs()
	for _, ref := range refs {
		obj := snap.Objects[ref]
		if snap.IsGoing(obj) {
			continue
		}
		kind := snap.Kind(obj)
		if kind == lineage.KindNone {
			warn(ref, "#%d has unknown type code %d", ref, snap.TypeCode(obj))
		}

		for _, f := range gamedb.RefFields {
			r, ok := obj.Ref(f)
			if !ok || exists(r) {
				continue
			}
			warn(ref, "#%d %s #%d does not exist", ref, f, r)
		}

		// Owner should be a player; God owns itself.
		if owner := snap.Object(obj.Owner); owner != nil && snap.Kind(owner) != lineage.KindPlayer && obj.Owner != 1 {
			warn(ref, "#%d owner #%d is not a player (type=%s)", ref, obj.Owner, snap.Kind(owner))
		}
	}

	// Check contents and exits chains for loops
	for _, ref := range refs {
		obj := snap.Objects[ref]
		if snap.IsGoing(obj) {
			continue
		}
		findings = c.chain(v, findings, obj, "contents", obj.Contents)
		// PennMUSH keeps a home, not an exit list, in the exits field of
		// players and things.
		if snap.Lineage.Named {
			if k := snap.Kind(obj); k == lineage.KindPlayer || k == lineage.KindThing {
				continue
			}
		}
		findings = c.chain(v, findings, obj, "exits", obj.Exits)
	}

	return findings
}

func (c *IntegrityChecker) chain(v *Validator, findings []Finding, obj *gamedb.Object, what string, head gamedb.DBRef) []Finding {
	visited := make(map[gamedb.DBRef]bool)
	cur := head
	for cur != gamedb.Nothing {
		if visited[cur] {
			return v.finding(findings, Finding{
				Category:    CatIntegrity,
				Severity:    SevWarning,
				ObjectRef:   obj.DBRef,
				Description: fmt.Sprintf("#%d %s chain has loop at #%d", obj.DBRef, what, cur),
			})
		}
		visited[cur] = true
		o := v.Snap.Object(cur)
		if o == nil {
			return findings
		}
		cur = o.Next
		if len(visited) > maxChain {
			return v.finding(findings, Finding{
				Category:    CatIntegrity,
				Severity:    SevWarning,
				ObjectRef:   obj.DBRef,
				Description: fmt.Sprintf("#%d %s chain exceeds %d entries", obj.DBRef, what, maxChain),
			})
		}
	}
	return findings
}
