// Package review defines the PRD review request and the structured verdict
// returned by the scoring API.
package review

// Mode selects how the server produces a review.
type Mode string

const (
	// ModeAuto lets the server pick the LLM when one is configured.
	ModeAuto Mode = "auto"
	// ModeMock forces the deterministic fixture.
	ModeMock Mode = "mock"
)

// ReviewRequest is the body of POST /review.
type ReviewRequest struct {
	PRDMarkdown    string         `json:"prd_markdown" validate:"required,notblank"`
	ProductContext map[string]any `json:"product_context,omitempty"`
	Audience       string         `json:"audience,omitempty"`
	Mode           Mode           `json:"mode,omitempty" validate:"omitempty,oneof=auto mock"`
}

type Gap struct {
	Area         string `json:"area"`
	Why          string `json:"why"`
	SuggestedFix string `json:"suggested_fix"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
}

type Metric struct {
	Metric     string `json:"metric"`
	Definition string `json:"definition"`
}

type Experiment struct {
	Hypothesis string `json:"hypothesis"`
	Metric     string `json:"metric"`
	Design     string `json:"design"`
}

// RubricItem is one weighted scoring criterion.
type RubricItem struct {
	Criterion string  `json:"criterion"`
	Weight    float64 `json:"weight"`
	Score     float64 `json:"score"`
	Notes     string  `json:"notes"`
}

// ImpactProfile rates the PRD along three fixed dimensions.
type ImpactProfile struct {
	DeliveryRisk        Level `json:"delivery_risk"`
	StrategicAlignment  Level `json:"strategic_alignment"`
	MeasurementMaturity Level `json:"measurement_maturity"`
}

// DecisionTrace carries the scoring rationale behind OverallScore.
type DecisionTrace struct {
	ScoringRubric  []RubricItem   `json:"scoring_rubric"`
	Assumptions    []string       `json:"assumptions"`
	Confidence     int            `json:"confidence"`
	ImpactProfile  *ImpactProfile `json:"impact_profile,omitempty"`
	ReadinessLevel ReadinessLevel `json:"readiness_level,omitempty"`
}

// ReviewResponse is the verdict for one PRD. It is never mutated after
// validation.
type ReviewResponse struct {
	OverallScore         int           `json:"overall_score"`
	Summary              string        `json:"summary"`
	Strengths            []string      `json:"strengths"`
	Gaps                 []Gap         `json:"gaps"`
	Risks                []Risk        `json:"risks"`
	Questions            []string      `json:"questions"`
	Metrics              []Metric      `json:"metrics"`
	SuggestedExperiments []Experiment  `json:"suggested_experiments"`
	DecisionTrace        DecisionTrace `json:"decision_trace"`
}

// Criterion returns the rubric item with the given criterion name.
func (r *ReviewResponse) Criterion(name string) (RubricItem, bool) {
	for _, item := range r.DecisionTrace.ScoringRubric {
		if item.Criterion == name {
			return item, true
		}
	}
	return RubricItem{}, false
}
