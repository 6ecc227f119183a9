package cli

import (
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/config"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/logging"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configFile string
	apiBase    string
	logLevel   string
	logFormat  string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "prdreview",
	Version: Version,
	Short:   "Score product requirement documents against a review rubric",
	Long: `prdreview sends a PRD to the review API and shows the verdict:
an overall score, the weighted rubric behind it, and the gaps, risks and
experiments the reviewer found.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./"+config.FileName+" or ~/"+config.FileName+")")
	RootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "Review API base URL (overrides config)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

// loadConfig resolves the configuration and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	opts := config.DefaultOptions()
	opts.File = configFile

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, MapError(err)
	}
	if apiBase != "" {
		cfg.API.BaseURL = apiBase
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, MapError(err)
	}
	return cfg, nil
}

// loadServices builds the client and session for one command run. Callers
// must Close the result.
func loadServices(cmd *cobra.Command) (*wiring.AppServices, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, NewCLIError("failed to set up logging", "Check log.format in your config", err)
	}

	services, err := wiring.BuildAppServices(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, MapError(err)
	}
	return services, nil
}
