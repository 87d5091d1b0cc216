package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/fatura-reader/internal/config"
	"github.com/garyjia/fatura-reader/internal/container"
)

var textCmd = &cobra.Command{
	Use:   "text [pdf-file]",
	Short: "Print the text extracted from a PDF",
	Long: `Print the plain text the pipeline would send to the language model.
No model call is made, so no API key is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func init() {
	rootCmd.AddCommand(textCmd)

	textCmd.Flags().String("engine", container.EngineFitz, "Text engine: fitz or pure")
	textCmd.Flags().Bool("fallback", true, "Try the other engine when the first finds no text")
}

func runText(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, _ := cmd.Flags().GetString("engine")
	fallback, _ := cmd.Flags().GetBool("fallback")

	reader, err := container.ProvideReader(config.ExtractionConfig{Engine: engine, Fallback: fallback}, logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	text, err := reader.ReadText(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
