package cli

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/spf13/cobra"
)

var healthJSON bool

type healthReport struct {
	Online  bool   `json:"online"`
	APIBase string `json:"api_base"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the review API is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		report := healthReport{
			Online:  services.Client.CheckHealth(cmd.Context()),
			APIBase: services.Client.BaseURL(),
		}

		if healthJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode health: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", render.Health(report.Online), report.APIBase)
		}

		if !report.Online {
			return NewCLIError("review API is offline", "Start the API or point --api-base at it", nil)
		}
		return nil
	},
}

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Print the API documentation and schema URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "API:    %s\n", services.Client.BaseURL())
		fmt.Fprintf(cmd.OutOrStdout(), "Docs:   %s\n", services.Client.DocsURL())
		fmt.Fprintf(cmd.OutOrStdout(), "Schema: %s\n", services.Client.SchemaURL())
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample PRD",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), review.Sample())
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print the result as JSON")
	RootCmd.AddCommand(healthCmd)
	RootCmd.AddCommand(linksCmd)
	RootCmd.AddCommand(sampleCmd)
}
