package validate

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
)

// HeaderChecker rejects header bits and versions the lineage does not
// define. Either makes the rest of the file unreadable, so both are fatal.
type HeaderChecker struct{}

func (c *HeaderChecker) Name() string { return "header" }

func (c *HeaderChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	l := snap.Lineage

	if _, ok := l.Version(snap.Version); !ok {
		findings = v.finding(findings, Finding{
			Category:    CatHeader,
			Severity:    SevFatal,
			ObjectRef:   gamedb.Nothing,
			Description: fmt.Sprintf("%s version %d is not supported", l.Name, snap.Version),
		})
	}

	_, residual := l.Header.Decode([]uint32{snap.HeaderFlags})
	if residual[0] != 0 {
		findings = v.finding(findings, Finding{
			Category:    CatHeader,
			Severity:    SevFatal,
			ObjectRef:   gamedb.Nothing,
			Description: fmt.Sprintf("unknown header flag bits %#x", residual[0]),
			Current:     fmt.Sprintf("%#x", snap.HeaderFlags),
		})
	}
	return findings
}

// MandatoryChecker warns when the header lacks bits every file of its
// version carries.
type MandatoryChecker struct{}

func (c *MandatoryChecker) Name() string { return "mandatory" }

func (c *MandatoryChecker) Check(v *Validator) []Finding {
	snap := v.Snap
	ver, ok := snap.Lineage.Version(snap.Version)
	if !ok {
		return nil
	}
	missing := ver.Mandatory &^ snap.HeaderFlags
	if missing == 0 {
		return nil
	}
	names, _ := snap.Lineage.Header.Decode([]uint32{missing})
	return v.finding(nil, Finding{
		Category:    CatMandatory,
		Severity:    SevWarning,
		ObjectRef:   gamedb.Nothing,
		Description: fmt.Sprintf("version %d header is missing %s", snap.Version, strings.Join(names, " ")),
	})
}

// CountsChecker compares declared sizes and counts with what was read.
type CountsChecker struct{}

func (c *CountsChecker) Name() string { return "counts" }

func (c *CountsChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	warn := func(ref gamedb.DBRef, format string, args ...interface{}) {
		findings = v.finding(findings, Finding{
			Category:    CatCounts,
			Severity:    SevWarning,
			ObjectRef:   ref,
			Description: fmt.Sprintf(format, args...),
		})
	}

	top := 0
	for ref := range snap.Objects {
		if int(ref) >= top {
			top = int(ref) + 1
		}
	}
	if snap.HasHeader(gamedb.HeaderSize) && snap.Size < top {
		warn(gamedb.Nothing, "declared size %d is below highest object #%d", snap.Size, top-1)
	}

	if snap.Lineage.Named {
		if snap.FlagListCount != len(snap.FlagDecls) {
			warn(gamedb.Nothing, "flagcount %d but %d flags listed", snap.FlagListCount, len(snap.FlagDecls))
		}
		if snap.PowerListCount != len(snap.PowerDecls) {
			warn(gamedb.Nothing, "powercount %d but %d powers listed", snap.PowerListCount, len(snap.PowerDecls))
		}
		for _, ref := range snap.Refs() {
			o := snap.Objects[ref]
			if o.Has(gamedb.FieldLockCount) && o.LockCount != len(o.Locks) {
				warn(ref, "#%d lockcount %d but %d locks read", ref, o.LockCount, len(o.Locks))
			}
			if o.Has(gamedb.FieldAttrCount) && o.AttrCount != len(o.Attrs) {
				warn(ref, "#%d attrcount %d but %d attributes read", ref, o.AttrCount, len(o.Attrs))
			}
		}
		return findings
	}

	if snap.HasHeader(gamedb.HeaderNextAttr) {
		for _, def := range snap.UserAttrs() {
			if def.Number >= snap.NextAttr {
				warn(gamedb.Nothing, "attribute %s number %d is not below next attribute %d",
					def.Name, def.Number, snap.NextAttr)
			}
		}
	}
	if snap.HasHeader(gamedb.HeaderRecordPlayers) {
		if n := len(snap.Players()); snap.RecordPlayers < n {
			warn(gamedb.Nothing, "record players %d is below the %d players present", snap.RecordPlayers, n)
		}
	}
	if snap.Lineage.UserAttrFloor > 0 {
		for _, def := range snap.UserAttrs() {
			if def.Number < snap.Lineage.UserAttrFloor {
				warn(gamedb.Nothing, "user attribute %s uses reserved number %d", def.Name, def.Number)
			}
		}
	}
	return findings
}
