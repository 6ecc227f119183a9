package review

// Level is a low/medium/high rating used by ImpactProfile.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// AllLevels returns the impact levels from lowest to highest.
func AllLevels() []Level {
	return []Level{LevelLow, LevelMedium, LevelHigh}
}

// IsValid reports whether l is a known impact level.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	default:
		return false
	}
}

// ImpactDimension names one of the fixed ImpactProfile keys.
type ImpactDimension string

const (
	DimensionDeliveryRisk        ImpactDimension = "delivery_risk"
	DimensionStrategicAlignment  ImpactDimension = "strategic_alignment"
	DimensionMeasurementMaturity ImpactDimension = "measurement_maturity"
)

// AllDimensions returns the impact dimensions in display order.
func AllDimensions() []ImpactDimension {
	return []ImpactDimension{
		DimensionDeliveryRisk,
		DimensionStrategicAlignment,
		DimensionMeasurementMaturity,
	}
}

// Get returns the level recorded for dimension d.
func (p ImpactProfile) Get(d ImpactDimension) Level {
	switch d {
	case DimensionDeliveryRisk:
		return p.DeliveryRisk
	case DimensionStrategicAlignment:
		return p.StrategicAlignment
	case DimensionMeasurementMaturity:
		return p.MeasurementMaturity
	default:
		return ""
	}
}

// ReadinessLevel is a stage-gate label. The zero value means "not reported".
type ReadinessLevel string

const (
	ReadinessDraft           ReadinessLevel = "Draft"
	ReadinessPreDiscovery    ReadinessLevel = "Pre-Discovery"
	ReadinessValidationReady ReadinessLevel = "Validation Ready"
	ReadinessBuildReady      ReadinessLevel = "Build Ready"
	ReadinessBoardReady      ReadinessLevel = "Board Ready"
)

// AllReadinessLevels returns the readiness levels in ascending order.
func AllReadinessLevels() []ReadinessLevel {
	return []ReadinessLevel{
		ReadinessDraft,
		ReadinessPreDiscovery,
		ReadinessValidationReady,
		ReadinessBuildReady,
		ReadinessBoardReady,
	}
}

// Rank returns the 1-based position of the level, or 0 when unknown.
func (r ReadinessLevel) Rank() int {
	for i, l := range AllReadinessLevels() {
		if l == r {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether r is one of the known readiness levels.
func (r ReadinessLevel) IsValid() bool {
	return r.Rank() > 0
}

// Less reports whether r is an earlier stage than other.
func (r ReadinessLevel) Less(other ReadinessLevel) bool {
	return r.Rank() < other.Rank()
}

func (r ReadinessLevel) String() string {
	return string(r)
}
