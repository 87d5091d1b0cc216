package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/config"
	"github.com/garyjia/fatura-reader/pkg/utils"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "fatura",
	Short: "Read electricity invoices and produce summary reports",
	Long: `fatura extracts the fields of electricity invoice PDFs with a language
model, recomputes the derived values and renders one PDF report per invoice.

Configuration is read from configs/config.yaml when present, a .env file in
the working directory and the environment (OPENAI_API_KEY, GEMINI_API_KEY,
MODEL_PROVIDER, MODEL_NAME, CHROME_PATH).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "Configuration file (optional)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging on stderr")
}

// loadConfig reads configuration using the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(config.DefaultPath(path))
}

// newLogger builds the stderr logger for a command
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return utils.NewCLILogger(verbose)
}
