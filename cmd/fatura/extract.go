package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/container"
	"github.com/garyjia/fatura-reader/internal/export"
	"github.com/garyjia/fatura-reader/internal/pipeline"
	"github.com/garyjia/fatura-reader/internal/storage"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file...]",
	Short: "Process invoice PDFs and write reports to a directory",
	Long: `Process each invoice PDF through text extraction, the language model,
validation, derivation and report rendering. For every invoice that succeeds
<name>.pdf (the report) and <name>.json (the extracted fields) are written to
the output directory. Failures are listed and the command exits non-zero.`,
	Example: `  # Process two invoices into ./output
  fatura extract agosto.pdf setembro.pdf

  # Also bundle the reports into a zip archive
  fatura extract faturas/*.pdf -o relatorios --archive

  # Use the divided prompt variant
  fatura extract agosto.pdf --variant divided`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output-dir", "o", "", "Output directory (default: storage.output_dir)")
	extractCmd.Flags().Bool("archive", false, "Also write the zip archive of all reports")
	extractCmd.Flags().String("variant", "", "Prompt variant: standard or divided")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if variant, _ := cmd.Flags().GetString("variant"); variant != "" {
		cfg.Pipeline.Variant = variant
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = cfg.Storage.OutputDir
	}
	withArchive, _ := cmd.Flags().GetBool("archive")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, err := container.ProvidePipeline(ctx, cfg, nil, nil, logger)
	if err != nil {
		return err
	}

	uploads, err := readUploads(args)
	if err != nil {
		return err
	}

	batch := bundle.Processor.ProcessBatch(ctx, uploads)
	return writeBatch(cmd, batch, outputDir, withArchive, cfg.Render.ArchiveName, cfg.Render.IncludeSummary, logger)
}

func readUploads(paths []string) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func writeBatch(
	cmd *cobra.Command,
	batch *pipeline.BatchResult,
	outputDir string,
	withArchive bool,
	archiveName string,
	includeSummary bool,
	logger *zap.Logger,
) error {
	out := cmd.OutOrStdout()
	store := storage.NewLocalFileStorage(outputDir, logger)

	for _, res := range batch.Results {
		pdfPath, jsonPath, err := store.SaveInvoice(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "ok    %s -> %s, %s\n", res.Filename, pdfPath, jsonPath)
	}

	if withArchive && len(batch.Results) > 0 {
		data, err := export.NewExporter(includeSummary, logger).Archive(batch.Results)
		if err != nil {
			return err
		}
		path, err := store.SaveArchive(archiveName, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "zip   %s\n", path)
	}

	for _, f := range batch.Failures {
		fmt.Fprintf(out, "fail  %s [%s] %s\n", f.File, f.Stage, f.Message)
	}

	if len(batch.Failures) > 0 {
		return fmt.Errorf("%d of %d invoices failed", len(batch.Failures), len(batch.Failures)+len(batch.Results))
	}
	return nil
}
