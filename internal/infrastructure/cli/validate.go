package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/spf13/cobra"
)

var (
	validateJSON   bool
	validateRender bool
)

type validateReport struct {
	Valid      bool                    `json:"valid"`
	Violations []review.FieldViolation `json:"violations"`
	Error      string                  `json:"error,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Check a saved review JSON file against the review schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return NewCLIError("failed to read review", "Check the file path", err)
		}

		violations, err := review.CheckDocument(data)
		if err != nil {
			return NewCLIError("file is not valid JSON", "Export a review with 'prdreview review --json'", err)
		}
		report := validateReport{Violations: violations}
		if report.Violations == nil {
			report.Violations = []review.FieldViolation{}
		}

		res, decodeErr := review.Decode(data)
		if decodeErr != nil {
			report.Error = decodeErr.Error()
		}
		report.Valid = len(violations) == 0 && decodeErr == nil

		out := cmd.OutOrStdout()
		switch {
		case validateJSON:
			enc, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			fmt.Fprintln(out, string(enc))
		case report.Valid:
			fmt.Fprintln(out, "✓ review is valid")
			if validateRender {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, render.New(presentation.Tags{Strict: cfg.Strict()}).Report(res))
			}
		default:
			fmt.Fprintln(out, "✗ review is invalid")
			for _, v := range violations {
				fmt.Fprintf(out, "  - %s\n", v)
			}
			if report.Error != "" {
				fmt.Fprintf(out, "  - %s\n", report.Error)
			}
		}

		if !report.Valid {
			e := NewCLIError("review does not match the expected shape", "Fix the fields listed above", decodeErr)
			e.ExitCode = ExitInvalidReview
			return e
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the report as JSON")
	validateCmd.Flags().BoolVar(&validateRender, "render", false, "Render the review when it is valid")
	RootCmd.AddCommand(validateCmd)
}
