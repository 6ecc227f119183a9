package review

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the draft-07 schema of an exported ReviewResponse. It is
// stricter than Validate about required arrays because exports always
// carry every array.
const JSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overall_score", "summary", "strengths", "gaps", "risks", "questions", "metrics", "suggested_experiments", "decision_trace"],
  "definitions": {
    "text": { "type": "string" },
    "level": { "type": "string", "enum": ["low", "medium", "high"] }
  },
  "properties": {
    "overall_score": { "type": "integer", "minimum": 0, "maximum": 100 },
    "summary": { "$ref": "#/definitions/text" },
    "strengths": { "type": "array", "items": { "$ref": "#/definitions/text" } },
    "gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["area", "why", "suggested_fix"],
        "properties": {
          "area": { "$ref": "#/definitions/text" },
          "why": { "$ref": "#/definitions/text" },
          "suggested_fix": { "$ref": "#/definitions/text" }
        }
      }
    },
    "risks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["risk", "impact", "mitigation"],
        "properties": {
          "risk": { "$ref": "#/definitions/text" },
          "impact": { "$ref": "#/definitions/text" },
          "mitigation": { "$ref": "#/definitions/text" }
        }
      }
    },
    "questions": { "type": "array", "items": { "$ref": "#/definitions/text" } },
    "metrics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["metric", "definition"],
        "properties": {
          "metric": { "$ref": "#/definitions/text" },
          "definition": { "$ref": "#/definitions/text" }
        }
      }
    },
    "suggested_experiments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["hypothesis", "metric", "design"],
        "properties": {
          "hypothesis": { "$ref": "#/definitions/text" },
          "metric": { "$ref": "#/definitions/text" },
          "design": { "$ref": "#/definitions/text" }
        }
      }
    },
    "decision_trace": {
      "type": "object",
      "required": ["scoring_rubric", "assumptions", "confidence"],
      "properties": {
        "scoring_rubric": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["criterion", "weight", "score", "notes"],
            "properties": {
              "criterion": { "$ref": "#/definitions/text" },
              "weight": { "type": "number", "minimum": 0 },
              "score": { "type": "number" },
              "notes": { "$ref": "#/definitions/text" }
            }
          }
        },
        "assumptions": { "type": "array", "items": { "$ref": "#/definitions/text" } },
        "confidence": { "type": "integer", "minimum": 0, "maximum": 100 },
        "impact_profile": {
          "type": "object",
          "required": ["delivery_risk", "strategic_alignment", "measurement_maturity"],
          "properties": {
            "delivery_risk": { "$ref": "#/definitions/level" },
            "strategic_alignment": { "$ref": "#/definitions/level" },
            "measurement_maturity": { "$ref": "#/definitions/level" }
          }
        },
        "readiness_level": {
          "type": "string",
          "enum": ["Draft", "Pre-Discovery", "Validation Ready", "Build Ready", "Board Ready"]
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(JSONSchema)

// FieldViolation is a single JSON Schema violation.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string {
	return v.Field + ": " + v.Message
}

// CheckDocument validates a JSON document against JSONSchema and returns
// every violation. Criterion uniqueness is not expressible in the schema and
// is reported through Decode instead.
func CheckDocument(data []byte) ([]FieldViolation, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	out := make([]FieldViolation, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		out = append(out, FieldViolation{Field: e.Field(), Message: e.Description()})
	}
	return out, nil
}
