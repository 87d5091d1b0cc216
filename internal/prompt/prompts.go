// Package prompt builds the instruction string sent to the completion service.
// It performs plain text substitution into a fixed template and never looks at
// the invoice text itself.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/garyjia/fatura-reader/internal/models"
	"gopkg.in/yaml.v3"
)

// Variant selects how the injected energy field is described to the model.
type Variant string

const (
	// VariantStandard sums the injected energy lines and flips the sign.
	VariantStandard Variant = "standard"
	// VariantDivided additionally divides the sum by the unit price.
	VariantDivided Variant = "divided"
)

//go:embed templates/prompts.yaml
var defaultPrompts []byte

// Config holds the instruction templates
type Config struct {
	System   string `yaml:"system"`
	Variants map[Variant]struct {
		InjectedEnergy string `yaml:"injected_energy"`
	} `yaml:"variants"`
	UserTemplate string `yaml:"user_template"`
}

// LoadConfig reads a template set from path; an empty path yields the embedded set
func LoadConfig(path string) (*Config, error) {
	data := defaultPrompts
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts file: %w", err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	return &cfg, nil
}

// Factors are the multipliers quoted in the derivation instructions.
type Factors struct {
	Amount  string
	Savings string
}

// DefaultFactors are the 70/30 split between amount due and savings.
var DefaultFactors = Factors{Amount: "0.7", Savings: "0.3"}

type templateData struct {
	Labels             []string
	HistoryLabel       string
	InjectedEnergyRule string
	AmountFactor       string
	SavingsFactor      string
	Text               string
}

// Builder renders the instruction for one invoice text
type Builder struct {
	system  string
	tmpl    *template.Template
	variant Variant
	base    templateData
}

// NewBuilder compiles the user template for the given variant. The template is
// executed once here so that Build cannot fail later.
func NewBuilder(cfg *Config, variant Variant, factors Factors) (*Builder, error) {
	if variant == "" {
		variant = VariantStandard
	}
	v, ok := cfg.Variants[variant]
	if !ok {
		return nil, fmt.Errorf("unknown prompt variant %q", variant)
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(cfg.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	b := &Builder{
		system:  cfg.System,
		tmpl:    tmpl,
		variant: variant,
		base: templateData{
			Labels:             models.Labels(),
			HistoryLabel:       models.FieldConsumptionHistory.Label(),
			InjectedEnergyRule: v.InjectedEnergy,
			AmountFactor:       factors.Amount,
			SavingsFactor:      factors.Savings,
		},
	}
	if _, err := b.render(""); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return b, nil
}

// Build substitutes text into the instruction template
func (b *Builder) Build(text string) (string, error) {
	out, err := b.render(text)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return out, nil
}

// System returns the system instruction that accompanies every prompt
func (b *Builder) System() string {
	return b.system
}

// Variant returns the formula variant this builder was compiled for
func (b *Builder) Variant() Variant {
	return b.variant
}

func (b *Builder) render(text string) (string, error) {
	data := b.base
	data.Text = text
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
