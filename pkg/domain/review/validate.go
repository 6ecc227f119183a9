package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Decode parses a single JSON document and validates it as a ReviewResponse.
func Decode(data []byte) (*ReviewResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode review payload: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode review payload: unexpected data after the JSON document")
	}
	return Validate(v)
}

// Validate checks a decoded JSON value field by field and returns a typed
// response, or a *SchemaError for the first offending field in document
// order. Unknown fields are ignored and missing arrays are treated as empty.
// Values are never coerced across JSON types. Impact and readiness levels are
// only type-checked: a value this client does not know is kept as sent and
// styled by the presentation layer.
func Validate(v any) (*ReviewResponse, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("$", "must be an object")
	}

	var out ReviewResponse
	var err error

	if out.OverallScore, err = percent(obj, "overall_score", "overall_score"); err != nil {
		return nil, err
	}
	if out.Summary, err = requiredString(obj, "summary", "summary"); err != nil {
		return nil, err
	}
	if out.Strengths, err = stringList(obj, "strengths", "strengths"); err != nil {
		return nil, err
	}
	if out.Gaps, err = records(obj, "gaps", "gaps", func(rec map[string]any, path string) (Gap, error) {
		var g Gap
		var err error
		if g.Area, err = requiredString(rec, "area", path+".area"); err != nil {
			return g, err
		}
		if g.Why, err = requiredString(rec, "why", path+".why"); err != nil {
			return g, err
		}
		g.SuggestedFix, err = requiredString(rec, "suggested_fix", path+".suggested_fix")
		return g, err
	}); err != nil {
		return nil, err
	}
	if out.Risks, err = records(obj, "risks", "risks", func(rec map[string]any, path string) (Risk, error) {
		var r Risk
		var err error
		if r.Risk, err = requiredString(rec, "risk", path+".risk"); err != nil {
			return r, err
		}
		if r.Impact, err = requiredString(rec, "impact", path+".impact"); err != nil {
			return r, err
		}
		r.Mitigation, err = requiredString(rec, "mitigation", path+".mitigation")
		return r, err
	}); err != nil {
		return nil, err
	}
	if out.Questions, err = stringList(obj, "questions", "questions"); err != nil {
		return nil, err
	}
	if out.Metrics, err = records(obj, "metrics", "metrics", func(rec map[string]any, path string) (Metric, error) {
		var m Metric
		var err error
		if m.Metric, err = requiredString(rec, "metric", path+".metric"); err != nil {
			return m, err
		}
		m.Definition, err = requiredString(rec, "definition", path+".definition")
		return m, err
	}); err != nil {
		return nil, err
	}
	if out.SuggestedExperiments, err = records(obj, "suggested_experiments", "suggested_experiments", func(rec map[string]any, path string) (Experiment, error) {
		var e Experiment
		var err error
		if e.Hypothesis, err = requiredString(rec, "hypothesis", path+".hypothesis"); err != nil {
			return e, err
		}
		if e.Metric, err = requiredString(rec, "metric", path+".metric"); err != nil {
			return e, err
		}
		e.Design, err = requiredString(rec, "design", path+".design")
		return e, err
	}); err != nil {
		return nil, err
	}

	raw, present := obj["decision_trace"]
	if !present || raw == nil {
		return nil, missing("decision_trace")
	}
	traceObj, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed("decision_trace", "must be an object")
	}
	if out.DecisionTrace, err = validateTrace(traceObj); err != nil {
		return nil, err
	}

	return &out, nil
}

func validateTrace(obj map[string]any) (DecisionTrace, error) {
	const prefix = "decision_trace."
	var trace DecisionTrace
	var err error

	seen := make(map[string]int)
	trace.ScoringRubric, err = records(obj, "scoring_rubric", prefix+"scoring_rubric", func(rec map[string]any, path string) (RubricItem, error) {
		var item RubricItem
		var err error
		if item.Criterion, err = requiredString(rec, "criterion", path+".criterion"); err != nil {
			return item, err
		}
		if first, dup := seen[item.Criterion]; dup {
			return item, malformed(path+".criterion", "duplicates scoring_rubric[%d] (%q)", first, item.Criterion)
		}
		// every earlier item holds a distinct criterion, so len(seen) is this index
		seen[item.Criterion] = len(seen)
		if item.Weight, err = number(rec, "weight", path+".weight"); err != nil {
			return item, err
		}
		if item.Weight < 0 {
			return item, malformed(path+".weight", "must be non-negative")
		}
		if item.Score, err = number(rec, "score", path+".score"); err != nil {
			return item, err
		}
		if item.Notes, err = requiredString(rec, "notes", path+".notes"); err != nil {
			return item, err
		}
		return item, nil
	})
	if err != nil {
		return trace, err
	}
	if trace.Assumptions, err = stringList(obj, "assumptions", prefix+"assumptions"); err != nil {
		return trace, err
	}
	if trace.Confidence, err = percent(obj, "confidence", prefix+"confidence"); err != nil {
		return trace, err
	}

	if raw, ok := obj["impact_profile"]; ok && raw != nil {
		rec, ok := raw.(map[string]any)
		if !ok {
			return trace, malformed(prefix+"impact_profile", "must be an object")
		}
		var profile ImpactProfile
		if profile.DeliveryRisk, err = level(rec, DimensionDeliveryRisk, prefix+"impact_profile"); err != nil {
			return trace, err
		}
		if profile.StrategicAlignment, err = level(rec, DimensionStrategicAlignment, prefix+"impact_profile"); err != nil {
			return trace, err
		}
		if profile.MeasurementMaturity, err = level(rec, DimensionMeasurementMaturity, prefix+"impact_profile"); err != nil {
			return trace, err
		}
		trace.ImpactProfile = &profile
	}

	if raw, ok := obj["readiness_level"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return trace, malformed(prefix+"readiness_level", "must be a string")
		}
		trace.ReadinessLevel = ReadinessLevel(s)
	}

	return trace, nil
}

func requiredString(obj map[string]any, key, path string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", missing(path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(path, "must be a string")
	}
	return s, nil
}

func number(obj map[string]any, key, path string) (float64, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return 0, missing(path)
	}
	f, ok := toFloat(raw)
	if !ok {
		return 0, malformed(path, "must be a number")
	}
	return f, nil
}

// percent reads an integral number in [0,100].
func percent(obj map[string]any, key, path string) (int, error) {
	f, err := number(obj, key, path)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, malformed(path, "must be an integer")
	}
	if f < 0 || f > 100 {
		return 0, malformed(path, "not in [0,100]")
	}
	return int(f), nil
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func list(obj map[string]any, key, path string) ([]any, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, malformed(path, "must be an array")
	}
	return items, nil
}

func stringList(obj map[string]any, key, path string) ([]string, error) {
	items, err := list(obj, key, path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, malformed(fmt.Sprintf("%s[%d]", path, i), "must be a string")
		}
		out = append(out, s)
	}
	return out, nil
}

func records[T any](obj map[string]any, key, path string, fn func(map[string]any, string) (T, error)) ([]T, error) {
	items, err := list(obj, key, path)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, malformed(itemPath, "must be an object")
		}
		v, err := fn(rec, itemPath)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func level(obj map[string]any, dim ImpactDimension, parent string) (Level, error) {
	path := parent + "." + string(dim)
	s, err := requiredString(obj, string(dim), path)
	if err != nil {
		return "", err
	}
	return Level(s), nil
}
