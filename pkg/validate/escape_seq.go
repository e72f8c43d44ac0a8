package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/crystal-mush/mushconv/pkg/charset"
)

// EscapeSeqChecker detects text that does not match the file's encoding:
// invalid UTF-8 in a UTF-8 file, and ESC bytes that are not color codes.
// Neither survives transcoding intact.
type EscapeSeqChecker struct{}

func (c *EscapeSeqChecker) Name() string { return "escape-seq" }

func (c *EscapeSeqChecker) Check(v *Validator) []Finding {
	var findings []Finding
	snap := v.Snap
	enc := charset.For(snap.Lineage, snap.Version, snap.HeaderFlags)

	for _, ref := range snap.Refs() {
		obj := snap.Objects[ref]
		for _, attr := range obj.Attrs {
			if attr.Value == "" || attr.IsLock {
				continue
			}
			name := v.attrName(attr)
			if enc.UTF8 && !utf8.ValidString(attr.Value) {
				findings = v.finding(findings, Finding{
					Category:    CatEncoding,
					Severity:    SevWarning,
					ObjectRef:   obj.DBRef,
					AttrNum:     attr.Number,
					AttrName:    name,
					Description: fmt.Sprintf("invalid UTF-8 in %s on #%d (%s)", name, obj.DBRef, truncate(obj.Name, 30)),
				})
				continue
			}

			stray := 0
			for _, t := range charset.Parse(charset.ColorANSI, attr.Value) {
				if t.Kind != charset.TokenText {
					continue
				}
				for i := 0; i < len(t.Text); i++ {
					if t.Text[i] == 0x1b {
						stray++
					}
				}
			}
			if stray == 0 {
				continue
			}
			findings = v.finding(findings, Finding{
				Category:    CatEncoding,
				Severity:    SevInfo,
				ObjectRef:   obj.DBRef,
				AttrNum:     attr.Number,
				AttrName:    name,
				Description: fmt.Sprintf("%d non-color ESC byte(s) in %s on #%d (%s)", stray, name, obj.DBRef, truncate(obj.Name, 30)),
				Current:     truncate(attr.Value, 200),
			})
		}
	}
	return findings
}
