package review

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrEmptyPRD is returned when the PRD text is empty or whitespace only.
var ErrEmptyPRD = errors.New("prd_markdown must not be empty")

var (
	validateOnce    sync.Once
	structValidator *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		structValidator = v
	})
	return structValidator
}

// NewRequest builds a request for the given PRD text.
func NewRequest(markdown string) ReviewRequest {
	return ReviewRequest{PRDMarkdown: markdown}
}

// IsBlank reports whether the PRD text carries no content.
func (r ReviewRequest) IsBlank() bool {
	return strings.TrimSpace(r.PRDMarkdown) == ""
}

// Validate checks the request before it is sent.
func (r ReviewRequest) Validate() error {
	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "PRDMarkdown":
			return ErrEmptyPRD
		case "Mode":
			return fmt.Errorf("mode must be one of auto, mock (got %q)", r.Mode)
		}
	}
	return err
}
