package presentation

import (
	"fmt"

	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

// ExportFilename is the default name for a downloaded review.
const ExportFilename = "prd-review.json"

// Export returns the copy/download text for a review.
func Export(r *review.ReviewResponse) (string, error) {
	data, err := review.Export(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RubricRow is a rubric item with its derived values.
type RubricRow struct {
	Item  review.RubricItem
	Ratio float64
	Band  RubricBand
	// Deficient rows are drawn with an emphasised score.
	Deficient bool
}

// Rows derives one row per rubric item, keeping server order.
func Rows(r *review.ReviewResponse) []RubricRow {
	rows := make([]RubricRow, 0, len(r.DecisionTrace.ScoringRubric))
	for _, item := range r.DecisionTrace.ScoringRubric {
		ratio := RubricRatio(item)
		rows = append(rows, RubricRow{
			Item:      item,
			Ratio:     ratio,
			Band:      RubricBandFor(ratio),
			Deficient: ratio < 0.6,
		})
	}
	return rows
}

// Header holds the values shown above the rubric.
type Header struct {
	Score      int
	ScoreBand  ScoreBand
	Readiness  Tag
	HasReady   bool
	Confidence int
	Impact     []Tag
}

// HeaderFor derives the score header.
func (t Tags) HeaderFor(r *review.ReviewResponse) Header {
	readiness, ok := t.Readiness(r.DecisionTrace.ReadinessLevel)
	return Header{
		Score:      r.OverallScore,
		ScoreBand:  ScoreBandFor(r.OverallScore),
		Readiness:  readiness,
		HasReady:   ok,
		Confidence: r.DecisionTrace.Confidence,
		Impact:     t.ImpactChips(r.DecisionTrace.ImpactProfile),
	}
}

// Section is a titled list of display lines.
type Section struct {
	Title string
	// Open sections are expanded by default.
	Open  bool
	Items []SectionItem
}

// SectionItem is one entry in a section. Detail lines are optional.
type SectionItem struct {
	Title  string
	Detail []string
}

// Count is the number of entries shown next to the title.
func (s Section) Count() int {
	return len(s.Items)
}

// Sections returns the non-empty list sections in display order.
func Sections(r *review.ReviewResponse) []Section {
	var out []Section
	add := func(title string, open bool, items []SectionItem) {
		if len(items) > 0 {
			out = append(out, Section{Title: title, Open: open, Items: items})
		}
	}

	add("Strengths", true, plain(r.Strengths))
	add("Gaps", false, mapItems(r.Gaps, func(g review.Gap) SectionItem {
		return SectionItem{Title: g.Area, Detail: []string{g.Why, "→ " + g.SuggestedFix}}
	}))
	add("Risks", false, mapItems(r.Risks, func(k review.Risk) SectionItem {
		return SectionItem{Title: k.Risk, Detail: []string{"Impact: " + k.Impact, "Mitigation: " + k.Mitigation}}
	}))
	add("Open Questions", false, plain(r.Questions))
	add("Suggested Metrics", false, mapItems(r.Metrics, func(m review.Metric) SectionItem {
		return SectionItem{Title: m.Metric, Detail: []string{m.Definition}}
	}))
	add("Experiments", false, mapItems(r.SuggestedExperiments, func(e review.Experiment) SectionItem {
		return SectionItem{Title: e.Hypothesis, Detail: []string{"Metric: " + e.Metric, "Design: " + e.Design}}
	}))
	add("Assumptions", false, plain(r.DecisionTrace.Assumptions))
	return out
}

func plain(lines []string) []SectionItem {
	return mapItems(lines, func(s string) SectionItem { return SectionItem{Title: s} })
}

func mapItems[T any](in []T, fn func(T) SectionItem) []SectionItem {
	out := make([]SectionItem, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// FormatNumber prints rubric weights and scores without a trailing ".0".
func FormatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
