package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var envFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Serve and sync portfolio site content",
	Long: `folio stores the content of a portfolio site (projects, services, bio,
contact details, theme settings and images) as one document and serves it over
a small JSON API. Edits made through the API are pushed to open pages, which
refresh their copy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if envFile != "" {
			err = config.LoadEnvFile(envFile)
		}
		return err
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "extra dotenv file to load (default is ./.env)")
}

// loadConfig reads the environment and builds the process logger.
func loadConfig() (cfg config.Config, logger *slog.Logger, err error) {
	cfg, err = config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger = cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
