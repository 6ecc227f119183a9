package review

import (
	"encoding/json"
	"fmt"
)

// Export serializes r as canonical two-space-indented JSON. Nil arrays are
// written as [] so the output always decodes back to an equal response.
func Export(r *ReviewResponse) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("export: nil review")
	}
	data, err := json.MarshalIndent(normalized(*r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

func normalized(r ReviewResponse) ReviewResponse {
	r.Strengths = nonNil(r.Strengths)
	r.Gaps = nonNil(r.Gaps)
	r.Risks = nonNil(r.Risks)
	r.Questions = nonNil(r.Questions)
	r.Metrics = nonNil(r.Metrics)
	r.SuggestedExperiments = nonNil(r.SuggestedExperiments)
	r.DecisionTrace.ScoringRubric = nonNil(r.DecisionTrace.ScoringRubric)
	r.DecisionTrace.Assumptions = nonNil(r.DecisionTrace.Assumptions)
	return r
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
