package validate

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// FlagChecker reports object flag and power bits, or names, that the
// lineage's catalog does not define. They are dropped on conversion.
type FlagChecker struct{}

func (c *FlagChecker) Name() string { return "flags" }

func (c *FlagChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	l := snap.Lineage
	sev := SevWarning
	if v.Options.Strict {
		sev = SevFatal
	}
	report := func(ref gamedb.DBRef, format string, args ...interface{}) {
		findings = v.finding(findings, Finding{
			Category:    CatFlags,
			Severity:    sev,
			ObjectRef:   ref,
			Description: fmt.Sprintf(format, args...),
		})
	}

	flagNames := declared(snap.FlagDecls, snap.FlagAliases)
	powerNames := declared(snap.PowerDecls, snap.PowerAliases)

	for _, ref := range snap.Refs() {
		obj := snap.Objects[ref]
		if l.Named {
			if bad := unknownNames(l.Flags, flagNames, obj.FlagNames); len(bad) > 0 {
				report(ref, "#%d has unknown flags %s", ref, strings.Join(bad, " "))
			}
			if bad := unknownNames(l.Powers, powerNames, obj.PowerNames); len(bad) > 0 {
				report(ref, "#%d has unknown powers %s", ref, strings.Join(bad, " "))
			}
			continue
		}

		_, residual := l.Flags.Decode(obj.Flags[:l.Flags.Words])
		for i, r := range residual {
			if r != 0 {
				report(ref, "#%d has unknown bits %#x in flag word %d", ref, r, i+1)
			}
		}
		if l.Powers != nil && obj.Has(gamedb.FieldPowers) {
			_, residual := l.Powers.Decode(obj.Powers[:l.Powers.Words])
			for i, r := range residual {
				if r != 0 {
					report(ref, "#%d has unknown bits %#x in power word %d", ref, r, i+1)
				}
			}
		}
	}
	return findings
}

// declared collects the flag names a PennMUSH file lists in its header.
func declared(decls []*gamedb.FlagDecl, aliases []gamedb.FlagAlias) map[string]bool {
	m := make(map[string]bool, len(decls)+len(aliases))
	for _, d := range decls {
		m[strings.ToUpper(d.Name)] = true
	}
	for _, a := range aliases {
		m[strings.ToUpper(a.Alias)] = true
	}
	return m
}

func unknownNames(t *lineage.FlagTable, extra map[string]bool, names []string) []string {
	var out []string
	for _, n := range t.Unknown(names) {
		if !extra[strings.ToUpper(n)] {
			out = append(out, n)
		}
	}
	return out
}
