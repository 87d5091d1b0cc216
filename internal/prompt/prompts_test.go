package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Embedded(t *testing.T) {
	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.NotEmpty(t, cfg.System)
	assert.Contains(t, cfg.Variants, VariantStandard)
	assert.Contains(t, cfg.Variants, VariantDivided)
	assert.Contains(t, cfg.UserTemplate, "{{.Text}}")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `system: sys
variants:
  standard:
    injected_energy: regra
user_template: "{{.InjectedEnergyRule}}|{{.Text}}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	b, err := NewBuilder(cfg, "", DefaultFactors)
	require.NoError(t, err)
	assert.Equal(t, VariantStandard, b.Variant())
	assert.Equal(t, "sys", b.System())
	out, err := b.Build("abc")
	require.NoError(t, err)
	assert.Equal(t, "regra|abc", out)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuilder_Build(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	t.Run("lists every label and embeds the text", func(t *testing.T) {
		b, err := NewBuilder(cfg, VariantStandard, DefaultFactors)
		require.NoError(t, err)

		out, err := b.Build("PAGADOR FULANO DE TAL")
		require.NoError(t, err)

		for _, label := range models.Labels() {
			assert.Contains(t, out, `"`+label+`"`)
		}
		assert.Contains(t, out, "PAGADOR FULANO DE TAL")
		assert.Contains(t, out, "* 0.7")
		assert.Contains(t, out, "* 0.3")
		assert.Contains(t, out, cfg.Variants[VariantStandard].InjectedEnergy)
	})

	t.Run("variants differ only in the injected energy rule", func(t *testing.T) {
		standard, err := NewBuilder(cfg, VariantStandard, DefaultFactors)
		require.NoError(t, err)
		divided, err := NewBuilder(cfg, VariantDivided, DefaultFactors)
		require.NoError(t, err)

		s, err := standard.Build("x")
		require.NoError(t, err)
		d, err := divided.Build("x")
		require.NoError(t, err)

		assert.NotEqual(t, s, d)
		assert.Equal(t, s,
			strings.Replace(d, cfg.Variants[VariantDivided].InjectedEnergy, cfg.Variants[VariantStandard].InjectedEnergy, 1))
	})

	t.Run("text is substituted verbatim", func(t *testing.T) {
		b, err := NewBuilder(cfg, VariantStandard, DefaultFactors)
		require.NoError(t, err)

		text := "{{.Text}} <b>R$ 1.234,56</b>"
		out, err := b.Build(text)
		require.NoError(t, err)
		assert.Contains(t, out, text)
	})

	t.Run("custom factors", func(t *testing.T) {
		b, err := NewBuilder(cfg, VariantStandard, Factors{Amount: "0.8", Savings: "0.2"})
		require.NoError(t, err)

		out, err := b.Build("x")
		require.NoError(t, err)
		assert.Contains(t, out, "* 0.8")
		assert.Contains(t, out, "* 0.2")
	})
}

func TestBuilder_Build_TemplateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `system: sys
variants:
  standard:
    injected_energy: regra
user_template: "{{if .Text}}{{.Unknown}}{{end}}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// executes cleanly for the empty text NewBuilder checks with
	b, err := NewBuilder(cfg, VariantStandard, DefaultFactors)
	require.NoError(t, err)

	out, err := b.Build("PAGADOR")

	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestNewBuilder_Errors(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	_, err = NewBuilder(cfg, Variant("triple"), DefaultFactors)
	assert.Error(t, err)

	broken := *cfg
	broken.UserTemplate = "{{.Missing}}"
	_, err = NewBuilder(&broken, VariantStandard, DefaultFactors)
	assert.Error(t, err)

	broken.UserTemplate = "{{.Text"
	_, err = NewBuilder(&broken, VariantStandard, DefaultFactors)
	assert.Error(t, err)
}
