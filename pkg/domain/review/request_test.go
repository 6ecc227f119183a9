package review

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ReviewRequest
		wantErr error
		ok      bool
	}{
		{"plain", NewRequest("# PRD"), nil, true},
		{"mock mode", ReviewRequest{PRDMarkdown: "x", Mode: ModeMock}, nil, true},
		{"with context", ReviewRequest{PRDMarkdown: "x", ProductContext: map[string]any{"stage": "beta"}}, nil, true},
		{"empty", NewRequest(""), ErrEmptyPRD, false},
		{"whitespace", NewRequest(" \n\t "), ErrEmptyPRD, false},
		{"bad mode", ReviewRequest{PRDMarkdown: "x", Mode: "fast"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestReadinessLevel_Order(t *testing.T) {
	levels := AllReadinessLevels()
	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i-1].Less(levels[i]), "%s < %s", levels[i-1], levels[i])
	}
	assert.Equal(t, 0, ReadinessLevel("Ship It").Rank())
	assert.False(t, ReadinessLevel("").IsValid())
}

func TestSample_NotBlank(t *testing.T) {
	assert.False(t, NewRequest(Sample()).IsBlank())
}
