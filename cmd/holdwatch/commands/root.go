package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wonny/holdwatch/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "holdwatch",
	Short: "holdwatch - portfolio weight change attribution",
	Long: `holdwatch watches a portfolio's published holdings and splits every
day-over-day weight change into an active part (buying/selling) and a
passive part (price drift).

Usage:
  go run ./cmd/holdwatch [command]

Examples:
  go run ./cmd/holdwatch run
  go run ./cmd/holdwatch attribute --today today.json --yesterday yesterday.json
  go run ./cmd/holdwatch history list
  go run ./cmd/holdwatch scheduler start
  go run ./cmd/holdwatch api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig applies the global flags on top of the environment
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
