// Package presentation derives display values from a review. Every function
// here is pure.
package presentation

import "github.com/felixgeelhaar/prdreview/pkg/domain/review"

// Tone is the qualitative colour family a value is drawn with.
type Tone string

const (
	ToneGood    Tone = "good"
	ToneInfo    Tone = "info"
	ToneCaution Tone = "caution"
	ToneWarning Tone = "warning"
	ToneBad     Tone = "bad"
	ToneNeutral Tone = "neutral"
)

// ScoreBand classifies an overall score.
type ScoreBand string

const (
	ScoreExcellent ScoreBand = "excellent"
	ScoreGood      ScoreBand = "good"
	ScoreFair      ScoreBand = "fair"
	ScoreWeak      ScoreBand = "weak"
	ScorePoor      ScoreBand = "poor"
)

// ScoreBands lists the bands from highest to lowest.
func ScoreBands() []ScoreBand {
	return []ScoreBand{ScoreExcellent, ScoreGood, ScoreFair, ScoreWeak, ScorePoor}
}

// ScoreBandFor maps a 0-100 score onto exactly one band.
func ScoreBandFor(score int) ScoreBand {
	switch {
	case score >= 80:
		return ScoreExcellent
	case score >= 65:
		return ScoreGood
	case score >= 45:
		return ScoreFair
	case score >= 25:
		return ScoreWeak
	default:
		return ScorePoor
	}
}

// Tone returns the colour family of the band.
func (b ScoreBand) Tone() Tone {
	switch b {
	case ScoreExcellent:
		return ToneGood
	case ScoreGood:
		return ToneInfo
	case ScoreFair:
		return ToneCaution
	case ScoreWeak:
		return ToneWarning
	case ScorePoor:
		return ToneBad
	default:
		return ToneNeutral
	}
}

// RubricBand classifies a rubric row by its score/weight ratio.
type RubricBand string

const (
	RubricStrong   RubricBand = "strong"
	RubricAdequate RubricBand = "adequate"
	RubricPartial  RubricBand = "partial"
	RubricWeak     RubricBand = "weak"
)

// RubricBands lists the bands from highest to lowest.
func RubricBands() []RubricBand {
	return []RubricBand{RubricStrong, RubricAdequate, RubricPartial, RubricWeak}
}

// RubricRatio is score/weight, or 0 when the weight is zero.
func RubricRatio(item review.RubricItem) float64 {
	if item.Weight > 0 {
		return item.Score / item.Weight
	}
	return 0
}

// RubricBandFor maps a ratio onto a band. It is monotone in ratio.
func RubricBandFor(ratio float64) RubricBand {
	switch {
	case ratio >= 0.8:
		return RubricStrong
	case ratio >= 0.6:
		return RubricAdequate
	case ratio >= 0.4:
		return RubricPartial
	default:
		return RubricWeak
	}
}

// Tone returns the colour family of the band.
func (b RubricBand) Tone() Tone {
	switch b {
	case RubricStrong:
		return ToneGood
	case RubricAdequate:
		return ToneInfo
	case RubricPartial:
		return ToneCaution
	case RubricWeak:
		return ToneBad
	default:
		return ToneNeutral
	}
}
