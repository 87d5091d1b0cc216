package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_USERNAME", "")
	t.Setenv("APP_PASSWORD", "")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 120*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "fitz", cfg.Extraction.Engine)
	assert.True(t, cfg.Extraction.Fallback)
	assert.Equal(t, "standard", cfg.Pipeline.Variant)
	assert.Equal(t, "heuristic", cfg.Pipeline.CodeStrategy)
	assert.Equal(t, "0.7", cfg.Pipeline.AmountFactor)
	assert.Equal(t, "0.3", cfg.Pipeline.SavingsFactor)
	assert.Equal(t, "faturas_boeira.zip", cfg.Render.ArchiveName)
	assert.Equal(t, "boeira.pereira", cfg.Auth.Username)
	assert.False(t, cfg.LoginEnabled())
	assert.Equal(t, "0.0.0.0:8501", cfg.Address())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_USERNAME", "operador")
	t.Setenv("APP_PASSWORD", "segredo")
	t.Setenv("PIPELINE_VARIANT", "divided")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "g-test", cfg.Gemini.APIKey)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "operador", cfg.Auth.Username)
	assert.True(t, cfg.LoginEnabled())
	assert.Equal(t, "divided", cfg.Pipeline.Variant)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8600
model:
  name: gpt-4o-mini
  timeout: 30s
pipeline:
  code_strategy: strict
render:
  include_summary: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8600, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "strict", cfg.Pipeline.CodeStrategy)
	assert.False(t, cfg.Render.IncludeSummary)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingCredentialIsFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8501},
			Model:      ModelConfig{Provider: "openai", Name: "gpt-5", Timeout: time.Minute},
			OpenAI:     ProviderConfig{APIKey: "sk"},
			Extraction: ExtractionConfig{Engine: "fitz"},
			Pipeline:   PipelineConfig{Variant: "standard", CodeStrategy: "heuristic"},
			Render:     RenderConfig{ArchiveName: "faturas.zip"},
			Auth:       AuthConfig{Username: "u"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown provider", mutate: func(c *Config) { c.Model.Provider = "llama" }},
		{name: "gemini without key", mutate: func(c *Config) { c.Model.Provider = "gemini" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Model.Timeout = 0 }},
		{name: "unknown engine", mutate: func(c *Config) { c.Extraction.Engine = "ocr" }},
		{name: "unknown variant", mutate: func(c *Config) { c.Pipeline.Variant = "triple" }},
		{name: "unknown code strategy", mutate: func(c *Config) { c.Pipeline.CodeStrategy = "guess" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "no archive name", mutate: func(c *Config) { c.Render.ArchiveName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.Equal(t, "", DefaultPath(path))

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	assert.Equal(t, path, DefaultPath(path))
}
