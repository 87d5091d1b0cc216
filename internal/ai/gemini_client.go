package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig holds the Gemini generation settings
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// GeminiClient implements Completer with the Gemini generate content API
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewGeminiClient creates a new Gemini completer. No request is sent here.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Complete sends the instruction and returns the concatenated response text
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	temperature := c.temperature
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}
	if c.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.maxTokens)
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	c.logger.Debug("Calling Gemini",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(req.Prompt)))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		c.logger.Error("Gemini API call failed", zap.Error(err))
		return "", callError(ProviderGemini, err)
	}

	text := resp.Text()
	if text == "" {
		return "", callError(ProviderGemini, errors.New("empty response from model"))
	}

	c.logger.Debug("Gemini response received", zap.Int("content_length", len(text)))
	return text, nil
}
