package validate

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

// AttrFlagChecker detects attribute flag anomalies: bits with no name in
// the catalog on positional lineages, unknown flag names on named ones.
type AttrFlagChecker struct{}

func (c *AttrFlagChecker) Name() string { return "attr-flags" }

func (c *AttrFlagChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	l := snap.Lineage

	for _, ref := range snap.Refs() {
		obj := snap.Objects[ref]
		for _, attr := range obj.Attrs {
			var desc string
			if l.Named {
				if bad := l.AttrFlags.Unknown(attr.FlagNames); len(bad) > 0 {
					desc = fmt.Sprintf("unknown attribute flags %s", strings.Join(bad, " "))
				}
			} else if _, residual := l.AttrFlags.Decode([]uint32{attr.Flags}); residual[0] != 0 {
				desc = fmt.Sprintf("unknown attribute flag bits %#x", residual[0])
			}
			if desc == "" {
				continue
			}
			name := v.attrName(attr)
			findings = v.finding(findings, Finding{
				Category:    CatAttrFlags,
				Severity:    SevInfo,
				ObjectRef:   obj.DBRef,
				AttrNum:     attr.Number,
				AttrName:    name,
				Description: fmt.Sprintf("%s on #%d %s", desc, obj.DBRef, name),
			})
		}
	}
	return findings
}

// AttrNameChecker reports attribute names the lineage would refuse: bad
// characters or too long. Each name is reported once.
type AttrNameChecker struct{}

func (c *AttrNameChecker) Name() string { return "attr-names" }

func (c *AttrNameChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	seen := make(map[string]bool)

	check := func(ref gamedb.DBRef, num int, name string) {
		key := strings.ToUpper(name)
		if seen[key] {
			return
		}
		seen[key] = true
		if ok, why := snap.Lineage.ValidAttrName(name); !ok {
			findings = v.finding(findings, Finding{
				Category:    CatAttrNames,
				Severity:    SevWarning,
				ObjectRef:   ref,
				AttrNum:     num,
				AttrName:    name,
				Description: fmt.Sprintf("attribute name %q is invalid: %s", truncate(name, 40), why),
			})
		}
	}

	for _, def := range snap.UserAttrs() {
		check(gamedb.Nothing, def.Number, def.Name)
	}
	if snap.Lineage.Named {
		for _, ref := range snap.Refs() {
			for _, a := range snap.Objects[ref].Attrs {
				check(ref, 0, a.Name)
			}
		}
	}
	return findings
}
