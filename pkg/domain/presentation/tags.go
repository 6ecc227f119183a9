package presentation

import (
	"fmt"

	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

// Tag is a labelled badge.
type Tag struct {
	Label string
	Value string
	Tone  Tone
}

// NeutralTag is used for values the tables do not know about.
func NeutralTag(label, value string) Tag {
	return Tag{Label: label, Value: value, Tone: ToneNeutral}
}

var readinessTones = map[review.ReadinessLevel]Tone{
	review.ReadinessBoardReady:      ToneGood,
	review.ReadinessBuildReady:      ToneInfo,
	review.ReadinessValidationReady: ToneCaution,
	review.ReadinessPreDiscovery:    ToneWarning,
	review.ReadinessDraft:           ToneBad,
}

var impactLabels = map[review.ImpactDimension]string{
	review.DimensionDeliveryRisk:        "Delivery Risk",
	review.DimensionStrategicAlignment:  "Alignment",
	review.DimensionMeasurementMaturity: "Measurement",
}

// Tags maps enum values onto badges. With Strict set an unknown value
// panics, which is what development builds want; otherwise it degrades to a
// neutral tag.
type Tags struct {
	Strict bool
}

func (t Tags) unknown(kind, value string) {
	if t.Strict {
		panic(fmt.Sprintf("presentation: no %s style for %q", kind, value))
	}
}

// Readiness returns the badge for a readiness level. The second result is
// false when the review did not report a level.
func (t Tags) Readiness(level review.ReadinessLevel) (Tag, bool) {
	if level == "" {
		return Tag{}, false
	}
	tone, ok := readinessTones[level]
	if !ok {
		t.unknown("readiness", string(level))
		return NeutralTag("Readiness", string(level)), true
	}
	return Tag{Label: "Readiness", Value: string(level), Tone: tone}, true
}

// Impact returns the chip for one impact dimension. Delivery risk is
// inverted: low is good.
func (t Tags) Impact(dim review.ImpactDimension, level review.Level) Tag {
	label, ok := impactLabels[dim]
	if !ok {
		t.unknown("impact dimension", string(dim))
		return NeutralTag(string(dim), string(level))
	}
	if !level.IsValid() {
		t.unknown("impact level", string(level))
		return NeutralTag(label, string(level))
	}

	good, bad := review.LevelHigh, review.LevelLow
	if dim == review.DimensionDeliveryRisk {
		good, bad = review.LevelLow, review.LevelHigh
	}
	tone := ToneCaution
	switch level {
	case good:
		tone = ToneGood
	case bad:
		tone = ToneBad
	}
	return Tag{Label: label, Value: string(level), Tone: tone}
}

// ImpactChips returns one chip per dimension in display order, or nil when
// the review has no impact profile.
func (t Tags) ImpactChips(p *review.ImpactProfile) []Tag {
	if p == nil {
		return nil
	}
	chips := make([]Tag, 0, 3)
	for _, dim := range review.AllDimensions() {
		chips = append(chips, t.Impact(dim, p.Get(dim)))
	}
	return chips
}
