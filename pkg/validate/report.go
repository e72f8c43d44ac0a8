package validate

import (
	"encoding/json"
	"io"
)

// Report is the JSON-serializable validation report.
type Report struct {
	Lineage       string                 `json:"lineage"`
	Version       int                    `json:"version"`
	TotalFindings int                    `json:"total_findings"`
	Fatal         int                    `json:"fatal"`
	Categories    map[string]CategorySum `json:"categories"`
	Findings      []Finding              `json:"findings"`
}

// CategorySum summarizes findings for a single category.
type CategorySum struct {
	Total    int    `json:"total"`
	Fatal    int    `json:"fatal"`
	Warnings int    `json:"warnings"`
	Label    string `json:"label"`
}

var categoryLabels = map[Category]string{
	CatHeader:    "Header Flags and Version",
	CatMandatory: "Missing Mandatory Header Flags",
	CatCounts:    "Declared Counts",
	CatIntegrity: "Referential Integrity",
	CatFlags:     "Unknown Object Flags and Powers",
	CatAttrFlags: "Attribute Flag Anomalies",
	CatAttrNames: "Invalid Attribute Names",
	CatLocks:     "Lock Keys",
	CatEncoding:  "Text Encoding",
}

// GenerateReport builds a Report from the validator's current findings.
func GenerateReport(v *Validator) *Report {
	r := &Report{
		Lineage:       v.Snap.Lineage.ID,
		Version:       v.Snap.Version,
		TotalFindings: len(v.findings),
		Categories:    make(map[string]CategorySum),
		Findings:      v.findings,
	}
	if r.Findings == nil {
		r.Findings = []Finding{}
	}

	// Build category summaries
	catCounts := make(map[Category]*CategorySum)
	for _, f := range v.findings {
		cs, ok := catCounts[f.Category]
		if !ok {
			cs = &CategorySum{Label: categoryLabels[f.Category]}
			catCounts[f.Category] = cs
		}
		cs.Total++
		switch f.Severity {
		case SevFatal:
			cs.Fatal++
			r.Fatal++
		case SevWarning:
			cs.Warnings++
		}
	}
	for cat, cs := range catCounts {
		r.Categories[cat.String()] = *cs
	}

	return r
}

// WriteJSON writes the report as JSON to the given writer.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteJSONFindings writes just the findings array as JSON.
func WriteJSONFindings(w io.Writer, findings []Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
