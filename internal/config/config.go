package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/garyjia/fatura-reader/internal/ai"
	"github.com/garyjia/fatura-reader/internal/invoice"
	"github.com/garyjia/fatura-reader/internal/prompt"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Model      ModelConfig      `mapstructure:"model"`
	OpenAI     ProviderConfig   `mapstructure:"openai"`
	Gemini     ProviderConfig   `mapstructure:"gemini"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Render     RenderConfig     `mapstructure:"render"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Session    SessionConfig    `mapstructure:"session"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// ModelConfig selects and tunes the completion service
type ModelConfig struct {
	Provider    string        `mapstructure:"provider"` // openai or gemini
	Name        string        `mapstructure:"name"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ProviderConfig holds one provider's credentials
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ExtractionConfig selects the PDF text reader
type ExtractionConfig struct {
	Engine   string `mapstructure:"engine"` // fitz or pure
	Fallback bool   `mapstructure:"fallback"`
}

// PipelineConfig holds the prompt and derivation settings
type PipelineConfig struct {
	Variant       string `mapstructure:"variant"`
	CodeStrategy  string `mapstructure:"code_strategy"`
	AmountFactor  string `mapstructure:"amount_factor"`
	SavingsFactor string `mapstructure:"savings_factor"`
	PromptsPath   string `mapstructure:"prompts_path"`
}

// RenderConfig holds report rendering settings
type RenderConfig struct {
	ChromePath     string        `mapstructure:"chrome_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	AssetsDir      string        `mapstructure:"assets_dir"`
	ArchiveName    string        `mapstructure:"archive_name"`
	IncludeSummary bool          `mapstructure:"include_summary"`
}

// AuthConfig holds the single application login
type AuthConfig struct {
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// SessionConfig holds in-memory session settings
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// StorageConfig holds local output settings used by the CLI
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file, a .env file in the
// working directory and environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultPath returns path when it exists and "" otherwise, so callers can
// pass a conventional location without requiring the file.
func DefaultPath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.max_upload_mb", 50)

	// Model defaults
	v.SetDefault("model.provider", ai.ProviderOpenAI)
	v.SetDefault("model.name", "gpt-5")
	v.SetDefault("model.temperature", 0)
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.timeout", 120*time.Second)
	v.SetDefault("openai.base_url", "")
	v.SetDefault("gemini.base_url", "")

	// Extraction defaults
	v.SetDefault("extraction.engine", "fitz")
	v.SetDefault("extraction.fallback", true)

	// Pipeline defaults
	v.SetDefault("pipeline.variant", string(prompt.VariantStandard))
	v.SetDefault("pipeline.code_strategy", invoice.CodeStrategyHeuristic)
	v.SetDefault("pipeline.amount_factor", invoice.DefaultAmountFactor)
	v.SetDefault("pipeline.savings_factor", invoice.DefaultSavingsFactor)
	v.SetDefault("pipeline.prompts_path", "")

	// Render defaults
	v.SetDefault("render.timeout", 60*time.Second)
	v.SetDefault("render.assets_dir", "assets")
	v.SetDefault("render.archive_name", "faturas_boeira.zip")
	v.SetDefault("render.include_summary", true)

	// Auth and session defaults
	v.SetDefault("auth.username", "boeira.pereira")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)

	v.SetDefault("storage.output_dir", "output")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known names that do not follow the section_key pattern
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("model.provider", "MODEL_PROVIDER")
	_ = v.BindEnv("model.name", "MODEL_NAME")
	_ = v.BindEnv("auth.username", "APP_USERNAME")
	_ = v.BindEnv("auth.password", "APP_PASSWORD")
	_ = v.BindEnv("auth.jwt_secret", "APP_JWT_SECRET")
	_ = v.BindEnv("render.chrome_path", "CHROME_PATH")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ai.ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY)")
		}
	case ai.ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini.api_key is required (set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("model.provider must be %q or %q, got %q", ai.ProviderOpenAI, ai.ProviderGemini, c.Model.Provider)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be positive")
	}

	switch c.Extraction.Engine {
	case "fitz", "pure":
	default:
		return fmt.Errorf("extraction.engine must be fitz or pure, got %q", c.Extraction.Engine)
	}

	switch prompt.Variant(c.Pipeline.Variant) {
	case prompt.VariantStandard, prompt.VariantDivided:
	default:
		return fmt.Errorf("pipeline.variant must be %q or %q, got %q",
			prompt.VariantStandard, prompt.VariantDivided, c.Pipeline.Variant)
	}
	if _, err := invoice.NewCodeNormalizer(c.Pipeline.CodeStrategy); err != nil {
		return fmt.Errorf("pipeline.code_strategy: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Render.ArchiveName == "" {
		return fmt.Errorf("render.archive_name is required")
	}
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}

	return nil
}

// LoginEnabled reports whether a password was configured
func (c *Config) LoginEnabled() bool {
	return c.Auth.Password != ""
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
