package validate

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// legacyDialect marks header keys in the parenthesized legacy syntax.
const legacyDialect = "legacy"

type lockKey struct {
	dialect string
	text    string
}

type lockResult struct {
	written string
	err     error
}

// LockChecker parses every stored lock key and re-serializes it. A key that
// does not parse is a warning; one that parses but comes back different is
// reported at the lineage's round-trip severity.
type LockChecker struct{}

func (c *LockChecker) Name() string { return "locks" }

func (c *LockChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	l := snap.Lineage
	sev, ok := v.Options.LockRoundTrip[l.ID]
	if !ok {
		sev = DefaultLockRoundTrip(l)
	}

	check := func(obj *gamedb.Object, num int, name, dialect, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		res := v.roundTrip(dialect, text)
		switch {
		case res.err != nil:
			findings = v.finding(findings, Finding{
				Category:    CatLocks,
				Severity:    SevWarning,
				ObjectRef:   obj.DBRef,
				AttrNum:     num,
				AttrName:    name,
				Description: fmt.Sprintf("#%d %s lock does not parse: %v", obj.DBRef, name, res.err),
				Current:     truncate(text, 200),
			})
		case res.written != text:
			findings = v.finding(findings, Finding{
				Category:    CatLocks,
				Severity:    sev,
				ObjectRef:   obj.DBRef,
				AttrNum:     num,
				AttrName:    name,
				Description: fmt.Sprintf("#%d %s lock does not round-trip", obj.DBRef, name),
				Current:     truncate(text, 200),
				Expected:    truncate(res.written, 200),
			})
		}
	}

	for _, ref := range snap.Refs() {
		obj := snap.Objects[ref]
		if l.Named {
			for _, lk := range obj.Locks {
				check(obj, 0, lk.Name, l.Dialect.Name, lk.Key)
			}
			continue
		}
		if obj.Has(gamedb.FieldLock) {
			check(obj, 0, "header", legacyDialect, obj.LockText)
		}
		for _, a := range obj.Attrs {
			if a.IsLock {
				check(obj, a.Number, v.attrName(a), l.Dialect.Name, a.Value)
			}
		}
	}
	return findings
}

// roundTrip parses and re-serializes a key, caching by text.
func (v *Validator) roundTrip(dialect, text string) lockResult {
	key := lockKey{dialect: dialect, text: text}
	if r, ok := v.locks.Get(key); ok {
		return r
	}
	var res lockResult
	if dialect == legacyDialect {
		n, err := lock.ParseLegacy(text)
		if err == nil {
			res.written, err = lock.WriteLegacy(n)
		}
		res.err = err
	} else {
		n, err := lock.Parse(text, v.Snap.Lineage.Dialect)
		if err == nil {
			res.written = lock.Write(n)
		}
		res.err = err
	}
	v.locks.Add(key, res)
	return res
}
