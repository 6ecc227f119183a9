package presentation

import (
	"testing"

	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/stretchr/testify/assert"
)

func TestTags_ReadinessTable(t *testing.T) {
	tags := Tags{Strict: true}
	for _, level := range review.AllReadinessLevels() {
		tag, ok := tags.Readiness(level)
		assert.True(t, ok)
		assert.NotEqual(t, ToneNeutral, tag.Tone, level)
		assert.Equal(t, string(level), tag.Value)
	}

	_, ok := tags.Readiness("")
	assert.False(t, ok)
}

func TestTags_UnknownReadiness(t *testing.T) {
	assert.Panics(t, func() {
		Tags{Strict: true}.Readiness("Ship It")
	})

	tag, ok := Tags{}.Readiness("Ship It")
	assert.True(t, ok)
	assert.Equal(t, ToneNeutral, tag.Tone)
	assert.Equal(t, "Ship It", tag.Value)
}

func TestTags_Impact(t *testing.T) {
	tags := Tags{Strict: true}
	tests := []struct {
		dim   review.ImpactDimension
		level review.Level
		want  Tone
	}{
		{review.DimensionDeliveryRisk, review.LevelLow, ToneGood},
		{review.DimensionDeliveryRisk, review.LevelMedium, ToneCaution},
		{review.DimensionDeliveryRisk, review.LevelHigh, ToneBad},
		{review.DimensionStrategicAlignment, review.LevelHigh, ToneGood},
		{review.DimensionStrategicAlignment, review.LevelLow, ToneBad},
		{review.DimensionMeasurementMaturity, review.LevelMedium, ToneCaution},
		{review.DimensionMeasurementMaturity, review.LevelHigh, ToneGood},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tags.Impact(tt.dim, tt.level).Tone, "%s=%s", tt.dim, tt.level)
	}
}

func TestTags_UnknownImpact(t *testing.T) {
	assert.Panics(t, func() {
		Tags{Strict: true}.Impact(review.DimensionDeliveryRisk, "extreme")
	})
	assert.Panics(t, func() {
		Tags{Strict: true}.Impact("velocity", review.LevelLow)
	})

	tag := Tags{}.Impact("velocity", review.LevelLow)
	assert.Equal(t, ToneNeutral, tag.Tone)
	assert.Equal(t, "velocity", tag.Label)
}

func TestTags_ImpactChipsNil(t *testing.T) {
	assert.Nil(t, Tags{}.ImpactChips(nil))
}
