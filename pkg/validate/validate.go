// Package validate checks a flatfile snapshot against its lineage's catalog:
// header bits, declared counts, referential integrity, flag bits, attribute
// names and lock keys. Findings describe problems; they never change data.
package validate

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// Category classifies the type of finding.
type Category int

const (
	CatHeader    Category = iota // Unknown header bits or version
	CatMandatory                 // Missing mandatory header bits
	CatCounts                    // Declared counts that disagree with the data
	CatIntegrity                 // Broken or suspicious references
	CatFlags                     // Unknown object flag or power bits
	CatAttrFlags                 // Unknown attribute flag bits
	CatAttrNames                 // Attribute names the lineage cannot hold
	CatLocks                     // Lock keys that do not parse or round-trip
	CatEncoding                  // Text that does not match the file's encoding
)

func (c Category) String() string {
	switch c {
	case CatHeader:
		return "header"
	case CatMandatory:
		return "mandatory"
	case CatCounts:
		return "counts"
	case CatIntegrity:
		return "integrity"
	case CatFlags:
		return "flags"
	case CatAttrFlags:
		return "attr-flags"
	case CatAttrNames:
		return "attr-names"
	case CatLocks:
		return "locks"
	case CatEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// MarshalText renders the category by name in reports.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Severity indicates how serious a finding is.
type Severity int

const (
	SevFatal   Severity = iota // The file must not be converted
	SevWarning                 // Should be reviewed
	SevInfo                    // Informational only
)

func (s Severity) String() string {
	switch s {
	case SevFatal:
		return "fatal"
	case SevWarning:
		return "warning"
	case SevInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in reports.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSeverity reads a severity name as used in configuration files.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "error":
		return SevFatal, nil
	case "warning", "warn":
		return SevWarning, nil
	case "info":
		return SevInfo, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Finding represents a single validation issue detected in the snapshot.
type Finding struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Severity    Severity     `json:"severity"`
	ObjectRef   gamedb.DBRef `json:"object_ref"`
	AttrNum     int          `json:"attr_num,omitempty"`
	AttrName    string       `json:"attr_name,omitempty"`
	Description string       `json:"description"`
	Current     string       `json:"current,omitempty"`
	Expected    string       `json:"expected,omitempty"`
}

// Checker is the interface that each validation check implements.
type Checker interface {
	Name() string
	Check(v *Validator) []Finding
}

// Options tune severities.
type Options struct {
	// Strict makes unknown object flag and power bits fatal.
	Strict bool

	// LockRoundTrip overrides, per lineage ID, the severity of a lock key
	// that does not re-serialize to its stored text.
	LockRoundTrip map[string]Severity

	// CacheSize bounds the lock parse cache. Zero uses 4096.
	CacheSize int
}

// DefaultLockRoundTrip is the round-trip severity for lineages without an
// override: fatal for TinyMUX, a warning elsewhere.
func DefaultLockRoundTrip(l *lineage.Lineage) Severity {
	if l == lineage.T5X {
		return SevFatal
	}
	return SevWarning
}

// Validator orchestrates running all checkers against a snapshot.
type Validator struct {
	Snap    *gamedb.Snapshot
	Options Options
	Log     *zap.Logger

	checkers []Checker
	findings []Finding
	seq      map[Category]int
	locks    *lru.Cache[lockKey, lockResult]
}

// New creates a Validator with all built-in checkers registered.
func New(snap *gamedb.Snapshot, opts Options, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 4096
	}
	cache, _ := lru.New[lockKey, lockResult](size)
	return &Validator{
		Snap:    snap,
		Options: opts,
		Log:     log,
		checkers: []Checker{
			&HeaderChecker{},
			&MandatoryChecker{},
			&CountsChecker{},
			&IntegrityChecker{},
			&FlagChecker{},
			&AttrFlagChecker{},
			&AttrNameChecker{},
			&LockChecker{},
			&EscapeSeqChecker{},
		},
		locks: cache,
	}
}

// Run executes all checkers and returns findings sorted by dbref then attr
// number. Header findings come first.
func (v *Validator) Run() []Finding {
	v.findings = nil
	v.seq = make(map[Category]int)
	for _, c := range v.checkers {
		v.findings = append(v.findings, c.Check(v)...)
	}
	sort.SliceStable(v.findings, func(i, j int) bool {
		a, b := v.findings[i], v.findings[j]
		if (a.Category == CatHeader) != (b.Category == CatHeader) {
			return a.Category == CatHeader
		}
		if a.ObjectRef != b.ObjectRef {
			return a.ObjectRef < b.ObjectRef
		}
		return a.AttrNum < b.AttrNum
	})
	for _, f := range v.findings {
		v.log(f)
	}
	return v.findings
}

func (v *Validator) log(f Finding) {
	fields := []zap.Field{zap.String("check", f.Category.String())}
	if f.ObjectRef != gamedb.Nothing {
		fields = append(fields, zap.Int("object", int(f.ObjectRef)))
	}
	if f.AttrName != "" {
		fields = append(fields, zap.String("attr", f.AttrName))
	}
	switch f.Severity {
	case SevFatal:
		v.Log.Error(f.Description, fields...)
	case SevWarning:
		v.Log.Warn(f.Description, fields...)
	default:
		v.Log.Info(f.Description, fields...)
	}
}

// Findings returns the current findings (after Run has been called).
func (v *Validator) Findings() []Finding {
	return v.findings
}

// Summary returns counts of findings per category.
func (v *Validator) Summary() map[Category]int {
	m := make(map[Category]int)
	for _, f := range v.findings {
		m[f.Category]++
	}
	return m
}

// FatalError lists the findings that make a snapshot unsafe to convert.
type FatalError struct {
	Findings []Finding
}

func (e *FatalError) Error() string {
	if len(e.Findings) == 1 {
		return "fatal: " + e.Findings[0].Description
	}
	return fmt.Sprintf("%d fatal findings, first: %s", len(e.Findings), e.Findings[0].Description)
}

// Fatal returns a *FatalError when any finding is fatal, or nil.
func (v *Validator) Fatal() error {
	var fatal []Finding
	for _, f := range v.findings {
		if f.Severity == SevFatal {
			fatal = append(fatal, f)
		}
	}
	if len(fatal) == 0 {
		return nil
	}
	return &FatalError{Findings: fatal}
}

// finding fills in the ID and appends.
func (v *Validator) finding(out []Finding, f Finding) []Finding {
	f.ID = fmt.Sprintf("%s-%d", f.Category, v.seq[f.Category])
	v.seq[f.Category]++
	return append(out, f)
}

// attrName resolves a display name for an attribute.
func (v *Validator) attrName(a *gamedb.Attribute) string {
	if a.Name != "" {
		return a.Name
	}
	if n := v.Snap.AttrName(a.Number); n != "" {
		return n
	}
	return fmt.Sprintf("A_%d", a.Number)
}

// truncate returns at most max characters of s, adding "..." if truncated.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
