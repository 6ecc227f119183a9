package review

import _ "embed"

//go:embed sample_prd.md
var samplePRD string

// Sample returns a small but complete PRD used to try the reviewer.
func Sample() string {
	return samplePRD
}
