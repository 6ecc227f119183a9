package cli

import (
	"os"

	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:     "tui [file]",
	Aliases: []string{"ui"},
	Short:   "Open the interactive PRD editor and review viewer",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initial := ""
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return NewCLIError("failed to read PRD", "Check the file path", err)
			}
			initial = string(data)
		}

		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		if os.Getenv("PRDREVIEW_SKIP_TUI_RUN") == "true" {
			return nil
		}

		cwd, _ := os.Getwd()
		return tui.Run(tui.Options{
			Session:        services.Session,
			Health:         services.Client,
			Renderer:       render.New(services.Tags),
			HealthInterval: services.Config.Health.Interval,
			Initial:        initial,
			Request:        buildRequest,
			ExportDir:      cwd,
		})
	},
}

func init() {
	tuiCmd.Flags().BoolVar(&reviewMock, "mock", false, "Ask the API for its deterministic mock review")
	tuiCmd.Flags().StringVar(&reviewAudience, "audience", "", "Who the review is written for")
	tuiCmd.Flags().StringToStringVar(&reviewContext, "context", nil, "Product context as key=value pairs")
	RootCmd.AddCommand(tuiCmd)
}
