package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// makeTestSnap builds a clean snapshot at the lineage's oldest version: Limbo holding
// the Wizard player, plus any extra objects.
func makeTestSnap(l *lineage.Lineage, objects ...*gamedb.Object) *gamedb.Snapshot {
	snap := gamedb.NewSnapshot(l)
	v := l.Oldest()
	snap.Version, snap.HeaderFlags = v.Number, v.Mandatory

	limbo := gamedb.NewObject(0)
	limbo.Name = "Limbo"
	limbo.SetRef(gamedb.FieldOwner, 1)
	limbo.SetRef(gamedb.FieldContents, 1)
	wiz := gamedb.NewObject(1)
	wiz.Name = "Wizard"
	wiz.SetRef(gamedb.FieldOwner, 1)
	wiz.SetRef(gamedb.FieldLocation, 0)
	if l.Named {
		limbo.Type = lineage.PennRoom
		wiz.Type = lineage.PennPlayer
	} else {
		limbo.Flags[0] = lineage.TypeRoom
		wiz.Flags[0] = lineage.TypePlayer
	}
	snap.AddObject(limbo)
	snap.AddObject(wiz)
	for _, o := range objects {
		snap.AddObject(o)
	}
	return snap
}

func countCat(findings []Finding, cat Category) int {
	n := 0
	for _, f := range findings {
		if f.Category == cat {
			n++
		}
	}
	return n
}

// unknownBit returns a bit in one word of a table that no entry defines.
func unknownBit(t *testing.T, ft *lineage.FlagTable, word int) uint32 {
	t.Helper()
	known := ft.Known(word)
	if word < len(ft.Ignore) {
		known |= ft.Ignore[word]
	}
	for b := uint32(1) << 31; b > 0; b >>= 1 {
		if known&b == 0 {
			return b
		}
	}
	t.Fatal("no free bit")
	return 0
}

func TestNoFindingsOnCleanSnapshot(t *testing.T) {
	for _, l := range lineage.All {
		v := New(makeTestSnap(l), Options{}, nil)
		if findings := v.Run(); len(findings) != 0 {
			t.Errorf("%s: expected no findings, got %+v", l.ID, findings)
		}
		if err := v.Fatal(); err != nil {
			t.Errorf("%s: unexpected fatal: %v", l.ID, err)
		}
	}
}

func TestHeaderUnknownBitsFatal(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.HeaderFlags |= unknownBit(t, lineage.T5X.Header, 0)

	v := New(snap, Options{}, nil)
	findings := v.Run()
	if countCat(findings, CatHeader) != 1 {
		t.Fatalf("expected 1 header finding, got %+v", findings)
	}
	if findings[0].Category != CatHeader {
		t.Errorf("header findings should sort first, got %v", findings[0].Category)
	}

	var fe *FatalError
	if !errors.As(v.Fatal(), &fe) {
		t.Fatal("expected *FatalError")
	}
	if len(fe.Findings) != 1 {
		t.Errorf("expected 1 fatal finding, got %d", len(fe.Findings))
	}
}

func TestUnsupportedVersionFatal(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.Version = 9
	v := New(snap, Options{}, nil)
	v.Run()
	if v.Fatal() == nil {
		t.Fatal("expected fatal for unknown version")
	}
}

func TestMandatoryMissingWarns(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.HeaderFlags &^= lineage.VQuoted

	v := New(snap, Options{}, nil)
	findings := v.Run()
	if countCat(findings, CatMandatory) != 1 {
		t.Fatalf("expected a mandatory finding, got %+v", findings)
	}
	if v.Fatal() != nil {
		t.Error("missing mandatory bits must not be fatal")
	}
}

func TestIntegrityChecker(t *testing.T) {
	thing := gamedb.NewObject(2)
	thing.Name = "Widget"
	thing.Flags[0] = lineage.TypeThing
	thing.SetRef(gamedb.FieldLocation, 99)
	thing.SetRef(gamedb.FieldOwner, 0) // a room
	snap := makeTestSnap(lineage.T5X, thing)

	c := &IntegrityChecker{}
	v := New(snap, Options{}, nil)
	v.seq = make(map[Category]int)
	findings := c.Check(v)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(findings), findings)
	}
	for _, f := range findings {
		if f.Severity != SevWarning {
			t.Errorf("integrity findings are warnings, got %v", f.Severity)
		}
		if f.ObjectRef != 2 {
			t.Errorf("expected object #2, got #%d", f.ObjectRef)
		}
	}
}

func TestContentsLoop(t *testing.T) {
	a := gamedb.NewObject(2)
	a.Name = "A"
	a.Flags[0] = lineage.TypeThing
	a.SetRef(gamedb.FieldOwner, 1)
	a.SetRef(gamedb.FieldLocation, 0)
	a.SetRef(gamedb.FieldNext, 3)
	b := gamedb.NewObject(3)
	b.Name = "B"
	b.Flags[0] = lineage.TypeThing
	b.SetRef(gamedb.FieldOwner, 1)
	b.SetRef(gamedb.FieldLocation, 0)
	b.SetRef(gamedb.FieldNext, 2)
	snap := makeTestSnap(lineage.T5X, a, b)
	snap.Object(0).Contents = 2

	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatIntegrity) != 1 {
		t.Fatalf("expected one loop finding, got %+v", findings)
	}
}

func TestLockRoundTripSeverity(t *testing.T) {
	for _, tc := range []struct {
		l    *lineage.Lineage
		want Severity
	}{
		{lineage.T5X, SevFatal},
		{lineage.T6H, SevWarning},
	} {
		snap := makeTestSnap(tc.l)
		snap.Object(0).Attrs = []*gamedb.Attribute{
			{Number: lineage.DefaultLockAttr, Name: "LOCK", Owner: 1, Value: "#1 & #2", IsLock: true},
		}
		findings := New(snap, Options{}, nil).Run()
		if countCat(findings, CatLocks) != 1 {
			t.Fatalf("%s: expected a lock finding, got %+v", tc.l.ID, findings)
		}
		f := findings[0]
		if f.Severity != tc.want {
			t.Errorf("%s: severity %v, want %v", tc.l.ID, f.Severity, tc.want)
		}
		if f.Expected != "#1&#2" {
			t.Errorf("%s: expected rewrite %q, got %q", tc.l.ID, "#1&#2", f.Expected)
		}
	}
}

func TestLockRoundTripOverride(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.Object(0).Attrs = []*gamedb.Attribute{
		{Number: lineage.DefaultLockAttr, Name: "LOCK", Owner: 1, Value: "#1 & #2", IsLock: true},
	}
	v := New(snap, Options{LockRoundTrip: map[string]Severity{"t5x": SevWarning}}, nil)
	v.Run()
	if v.Fatal() != nil {
		t.Error("override should downgrade the round-trip finding")
	}
}

func TestUnparseableLockWarns(t *testing.T) {
	snap := makeTestSnap(lineage.P6H)
	snap.Object(0).Locks = []*gamedb.Lock{{Name: "Basic", Creator: 1, Key: "((#1"}}
	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatLocks) != 1 || findings[0].Severity != SevWarning {
		t.Fatalf("expected one lock warning, got %+v", findings)
	}
}

func TestHeaderKeyRoundTrip(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	o := snap.Object(0)
	o.LockText = "(1&(!2))"
	o.Mark(gamedb.FieldLock)
	if findings := New(snap, Options{}, nil).Run(); countCat(findings, CatLocks) != 0 {
		t.Errorf("legacy key should round-trip, got %+v", findings)
	}
}

func TestUnknownFlagBits(t *testing.T) {
	bit := unknownBit(t, lineage.T5X.Flags, 2)
	snap := makeTestSnap(lineage.T5X)
	snap.Object(0).Flags[2] |= bit

	v := New(snap, Options{}, nil)
	if countCat(v.Run(), CatFlags) != 1 {
		t.Fatal("expected a flag finding")
	}
	if v.Fatal() != nil {
		t.Error("unknown flag bits are warnings outside strict mode")
	}

	strict := New(snap, Options{Strict: true}, nil)
	strict.Run()
	if strict.Fatal() == nil {
		t.Error("unknown flag bits are fatal in strict mode")
	}
}

func TestPennFlagNamesAndCounts(t *testing.T) {
	snap := makeTestSnap(lineage.P6H)
	snap.FlagDecls = []*gamedb.FlagDecl{{Name: "LOCAL_FLAG", Letter: "L", Type: "THING", Perms: "any", NegatePerms: "any"}}
	snap.FlagListCount = 1
	o := snap.Object(0)
	o.FlagNames = []string{"DARK", "LOCAL_FLAG", "SPARKLY"}
	o.AttrCount = 2
	o.Mark(gamedb.FieldAttrCount)

	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatFlags) != 1 {
		t.Errorf("expected only SPARKLY reported, got %+v", findings)
	}
	if countCat(findings, CatCounts) != 1 {
		t.Errorf("expected attrcount mismatch, got %+v", findings)
	}
}

func TestAttrNameChecker(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.AddAttrDef(256, "BAD NAME", 0)
	snap.AddAttrDef(257, "GOOD_NAME", 0)
	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatAttrNames) != 1 {
		t.Fatalf("expected 1 attr-name finding, got %+v", findings)
	}
}

func TestEscapeSeqChecker(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.Object(0).Attrs = []*gamedb.Attribute{
		{Number: 6, Name: "DESC", Owner: 1, Value: "\x1b[1mbold\x1b[0m"},
		{Number: 7, Name: "ODESC", Owner: 1, Value: "odd \x1bZ escape"},
	}
	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatEncoding) != 1 {
		t.Fatalf("expected 1 encoding finding, got %+v", findings)
	}
	if findings[0].AttrName != "ODESC" || findings[0].Severity != SevInfo {
		t.Errorf("unexpected finding %+v", findings[0])
	}
}

func TestInvalidUTF8(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.Version, snap.HeaderFlags = 4, lineage.T5X.Latest().Mandatory
	snap.Object(0).Attrs = []*gamedb.Attribute{{Number: 6, Name: "DESC", Owner: 1, Value: "caf\xe9"}}
	findings := New(snap, Options{}, nil).Run()
	if countCat(findings, CatEncoding) != 1 || findings[0].Severity != SevWarning {
		t.Fatalf("expected an invalid UTF-8 warning, got %+v", findings)
	}
}

func TestReportJSON(t *testing.T) {
	snap := makeTestSnap(lineage.T5X)
	snap.HeaderFlags &^= lineage.VQuoted
	v := New(snap, Options{}, nil)
	v.Run()

	var buf bytes.Buffer
	if err := GenerateReport(v).WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Lineage    string `json:"lineage"`
		Total      int    `json:"total_findings"`
		Categories map[string]struct {
			Total    int `json:"total"`
			Warnings int `json:"warnings"`
		} `json:"categories"`
		Findings []struct {
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Lineage != "t5x" || got.Total != 1 {
		t.Errorf("unexpected report header %+v", got)
	}
	if got.Categories["mandatory"].Warnings != 1 {
		t.Errorf("expected one mandatory warning, got %+v", got.Categories)
	}
	if got.Findings[0].Severity != "warning" {
		t.Errorf("severity should marshal by name, got %q", got.Findings[0].Severity)
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"fatal": SevFatal, "Warning": SevWarning, " info ": SevInfo} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("expected error for unknown severity")
	}
}
