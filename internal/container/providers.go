// Package container wires configuration into ready components and manages
// the lifecycle of the long running ones.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/ai"
	"github.com/garyjia/fatura-reader/internal/config"
	"github.com/garyjia/fatura-reader/internal/invoice"
	"github.com/garyjia/fatura-reader/internal/pipeline"
	"github.com/garyjia/fatura-reader/internal/prompt"
	"github.com/garyjia/fatura-reader/internal/report"
)

// Text reader engines accepted in configuration
const (
	EngineFitz = "fitz"
	EnginePure = "pure"
)

// PipelineBundle holds the per-invoice components.
type PipelineBundle struct {
	Reader    pipeline.TextReader
	Completer ai.Completer
	Extractor *invoice.Extractor
	Deriver   *invoice.DerivationEngine
	Renderer  *report.Renderer
	Processor *pipeline.Processor
}

// ProvideReader builds the PDF text reader for the configured engine. With
// fallback enabled the other engine is tried when the first yields nothing.
func ProvideReader(cfg config.ExtractionConfig, logger *zap.Logger) (pipeline.TextReader, error) {
	fitz := invoice.NewPDFReader(logger)
	pure := invoice.NewPlainReader(logger)

	var readers []invoice.TextReader
	var names []string
	switch cfg.Engine {
	case EngineFitz, "":
		readers = []invoice.TextReader{fitz, pure}
		names = []string{EngineFitz, EnginePure}
	case EnginePure:
		readers = []invoice.TextReader{pure, fitz}
		names = []string{EnginePure, EngineFitz}
	default:
		return nil, fmt.Errorf("unknown extraction engine %q", cfg.Engine)
	}

	if !cfg.Fallback {
		return readers[0], nil
	}
	return invoice.NewFallbackReader(readers, names, logger), nil
}

// ProvideCompleter builds the model client for the configured provider.
// Each call is bounded by the model timeout.
func ProvideCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ai.Completer, error) {
	var completer ai.Completer
	switch cfg.Model.Provider {
	case ai.ProviderOpenAI:
		completer = ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.Model.Name,
			Temperature: cfg.Model.Temperature,
			MaxTokens:   cfg.Model.MaxTokens,
		}, logger)
	case ai.ProviderGemini:
		client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			Model:       cfg.Model.Name,
			Temperature: cfg.Model.Temperature,
			MaxTokens:   cfg.Model.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		completer = client
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}

	return ai.WithTimeout(completer, cfg.Model.Timeout), nil
}

// ProvideExtractor builds the prompt, model and validation chain
func ProvideExtractor(cfg config.PipelineConfig, completer ai.Completer, logger *zap.Logger) (*invoice.Extractor, error) {
	prompts, err := prompt.LoadConfig(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	builder, err := prompt.NewBuilder(prompts, prompt.Variant(cfg.Variant), prompt.Factors{
		Amount:  cfg.AmountFactor,
		Savings: cfg.SavingsFactor,
	})
	if err != nil {
		return nil, err
	}

	validator, err := invoice.NewValidator(logger)
	if err != nil {
		return nil, err
	}

	return invoice.NewExtractor(builder, completer, validator, logger), nil
}

// ProvideRenderer builds the report renderer backed by headless Chrome
func ProvideRenderer(cfg config.RenderConfig, converter report.Converter, logger *zap.Logger) (*report.Renderer, error) {
	assets, err := report.LoadAssets(cfg.AssetsDir)
	if err != nil {
		return nil, err
	}
	if assets.LogoURI == "" {
		logger.Warn("Report logo not found, reports will omit it", zap.String("assets_dir", cfg.AssetsDir))
	}

	if converter == nil {
		converter = report.NewChromeConverter(report.ChromeConfig{
			ExecPath: cfg.ChromePath,
			Timeout:  cfg.Timeout,
		}, logger)
	}
	return report.NewRenderer(converter, assets, logger)
}

// ProvidePipeline builds every per-invoice component from cfg. A nil
// completer or converter is built from configuration.
func ProvidePipeline(
	ctx context.Context,
	cfg *config.Config,
	completer ai.Completer,
	converter report.Converter,
	logger *zap.Logger,
) (*PipelineBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	reader, err := ProvideReader(cfg.Extraction, logger)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}

	if completer == nil {
		completer, err = ProvideCompleter(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("completer: %w", err)
		}
	}

	extractor, err := ProvideExtractor(cfg.Pipeline, completer, logger)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}

	deriver, err := invoice.NewDerivationEngine(invoice.DerivationConfig{
		AmountFactor:  cfg.Pipeline.AmountFactor,
		SavingsFactor: cfg.Pipeline.SavingsFactor,
		CodeStrategy:  cfg.Pipeline.CodeStrategy,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("derivation: %w", err)
	}

	renderer, err := ProvideRenderer(cfg.Render, converter, logger)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	return &PipelineBundle{
		Reader:    reader,
		Completer: completer,
		Extractor: extractor,
		Deriver:   deriver,
		Renderer:  renderer,
		Processor: pipeline.NewProcessor(reader, extractor, deriver, renderer, logger),
	}, nil
}
