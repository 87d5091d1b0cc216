package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/ai"
	"github.com/garyjia/fatura-reader/internal/container"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the configured language model connection",
	Long: `Send one small request to the configured provider and model and print
the response and latency. Useful to check API keys before a batch run.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Provider: %s\n", cfg.Model.Provider)
	fmt.Fprintf(out, "Model:    %s\n", cfg.Model.Name)
	fmt.Fprintf(out, "Timeout:  %v\n", cfg.Model.Timeout)

	completer, err := container.ProvideCompleter(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := completer.Complete(cmd.Context(), ai.Request{
		System: "Responda somente com JSON.",
		Prompt: `Retorne exatamente {"ok": true}`,
	})
	if err != nil {
		logger.Error("Model call failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(out, "Latency:  %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Response: %s\n", resp)
	return nil
}
