package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/spf13/cobra"
)

var (
	reviewMock     bool
	reviewSample   bool
	reviewJSON     bool
	reviewCopy     bool
	reviewOut      string
	reviewAudience string
	reviewContext  map[string]string
	reviewCollapse bool
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

var reviewCmd = &cobra.Command{
	Use:   "review [file|-]",
	Short: "Submit a PRD for review and print the verdict",
	Long: `Submit a PRD for review and print the verdict.

The PRD is read from FILE, from stdin when FILE is "-", or from the built-in
sample with --sample.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, err := readPRD(cmd, args)
		if err != nil {
			return err
		}

		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		req := buildRequest(markdown)
		if !reviewJSON {
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %d chars against %s...\n", utf8.RuneCountInString(markdown), services.Client.BaseURL())
		}

		snap, err := services.Session.SubmitAndWait(cmd.Context(), req)
		if err != nil {
			return MapError(err)
		}

		r := render.New(services.Tags)
		r.Expand = !reviewCollapse

		if snap.Status == submission.StatusFailure && snap.Failure != nil {
			if !reviewJSON {
				fmt.Fprintln(cmd.OutOrStdout(), r.Failure(*snap.Failure))
			}
			return failureError(*snap.Failure)
		}

		return emitResult(cmd, r, snap.Result)
	},
}

func readPRD(cmd *cobra.Command, args []string) (string, error) {
	if reviewSample {
		return review.Sample(), nil
	}
	if len(args) == 0 {
		return "", NewCLIError("no PRD given", "Pass a markdown file, '-' for stdin, or --sample", nil)
	}

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
		return "", NewCLIError("failed to read PRD", "Check the file path", err)
	}
	return string(data), nil
}

func buildRequest(markdown string) review.ReviewRequest {
	req := review.NewRequest(markdown)
	req.Audience = strings.TrimSpace(reviewAudience)
	if reviewMock {
		req.Mode = review.ModeMock
	}
	if len(reviewContext) > 0 {
		req.ProductContext = make(map[string]any, len(reviewContext))
		for k, v := range reviewContext {
			req.ProductContext[k] = v
		}
	}
	return req
}

func emitResult(cmd *cobra.Command, r *render.Renderer, res *review.ReviewResponse) error {
	out := cmd.OutOrStdout()

	if reviewJSON || reviewOut != "" || reviewCopy {
		data, err := presentation.Export(res)
		if err != nil {
			return fmt.Errorf("failed to export review: %w", err)
		}
		if reviewOut != "" {
			if err := os.WriteFile(reviewOut, []byte(data+"\n"), 0o644); err != nil {
				return NewCLIError("failed to write review", "Check that the directory exists", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved review to %s\n", reviewOut)
		}
		if reviewCopy {
			if err := writeClipboard(data); err != nil {
				return NewCLIError("failed to copy review", "No clipboard is available; use --out instead", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied review JSON to clipboard")
		}
		if reviewJSON {
			fmt.Fprintln(out, data)
			return nil
		}
	}

	fmt.Fprintln(out, r.Report(res))
	return nil
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewMock, "mock", false, "Ask the API for its deterministic mock review")
	reviewCmd.Flags().BoolVar(&reviewSample, "sample", false, "Review the built-in sample PRD")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the review as JSON")
	reviewCmd.Flags().BoolVar(&reviewCopy, "copy", false, "Copy the review JSON to the clipboard")
	reviewCmd.Flags().StringVarP(&reviewOut, "out", "o", "", "Also write the review JSON to this file")
	reviewCmd.Flags().StringVar(&reviewAudience, "audience", "", "Who the review is written for")
	reviewCmd.Flags().StringToStringVar(&reviewContext, "context", nil, "Product context as key=value pairs")
	reviewCmd.Flags().BoolVar(&reviewCollapse, "collapse", false, "Show section headings only")
	RootCmd.AddCommand(reviewCmd)
}
