package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockConverter mocks the Converter interface
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func sampleRecord() *models.InvoiceRecord {
	rec := models.NewInvoiceRecord()
	rec.CustomerName = "MARIA DA SILVA"
	rec.CustomerCode = "10/03352527-6"
	rec.ReferenceMonth = "AGO/25"
	rec.IssueDate = "05/08/2025"
	rec.ConsumptionKWh = "1365,5"
	rec.AmountDue = "115,46"
	rec.Savings = "49,48"
	rec.UnitPriceWithTaxes = "1,099590"
	rec.InjectedActiveEnergy = "150,00"
	rec.ConsumptionHistory = []models.HistoryItem{
		{Month: "JUL/25", Consumption: "162,00"},
		{Month: "AGO/25", Consumption: "365,00"},
		{Month: "set 2024", Consumption: "0"},
		{Month: "OUT/24", Consumption: ""},
		{Month: "", Consumption: "ilegível"},
	}
	return rec
}

func TestSplitMonthYear(t *testing.T) {
	tests := []struct {
		label, month, year string
	}{
		{label: "AGO/25", month: "AGO", year: "2025"},
		{label: "jul/2024", month: "JUL", year: "2024"},
		{label: "Março de 2025", month: "MARÇO", year: "2025"},
		{label: "  set 24 ", month: "SET", year: "2024"},
		{label: "2025", month: "2025", year: ""},
		{label: "JAN", month: "JAN", year: ""},
		{label: "", month: Placeholder, year: ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			month, year := SplitMonthYear(tt.label)
			assert.Equal(t, tt.month, month)
			assert.Equal(t, tt.year, year)
		})
	}
}

func TestBuildContext(t *testing.T) {
	now := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)

	t.Run("formats present values", func(t *testing.T) {
		ctx := BuildContext(sampleRecord(), now, Assets{LogoURI: "data:image/png;base64,AA=="})

		assert.Equal(t, "03/09/2025", ctx.CurrentDate)
		assert.Equal(t, "MARIA DA SILVA", ctx.Customer.Name)
		assert.Equal(t, "R$ 115,46", ctx.AmountDueDisplay)
		assert.Equal(t, "R$ 49,48", ctx.SavingsDisplay)
		assert.Equal(t, "1.365,50 kWh", ctx.ConsumptionDisplay)
		assert.Equal(t, "150,00 kWh", ctx.InjectedEnergyDisplay)
		assert.Equal(t, "1,099590", ctx.UnitPriceDisplay)
		assert.Equal(t, Placeholder, ctx.BalanceDisplay)
		assert.Equal(t, Placeholder, ctx.DueDate)
		assert.NotEmpty(t, ctx.LogoURI)
	})

	t.Run("history rows and rollup", func(t *testing.T) {
		ctx := BuildContext(sampleRecord(), now, Assets{})

		assert.Equal(t, []HistoryRow{
			{Label: "JUL/2025", ConsumptionDisplay: "162,00 kWh", HasConsumption: true},
			{Label: "AGO/2025", ConsumptionDisplay: "365,00 kWh", HasConsumption: true},
			{Label: "SET/2024", ConsumptionDisplay: "0,00 kWh"},
			{Label: "OUT/2024", ConsumptionDisplay: "Sem dados"},
			{Label: Placeholder, ConsumptionDisplay: "ilegível"},
		}, ctx.History)
		assert.Equal(t, "2 meses com consumo registrado | Média: 263,50 kWh", ctx.HistorySummary)
	})

	t.Run("empty record shows placeholders", func(t *testing.T) {
		ctx := BuildContext(models.NewInvoiceRecord(), now, Assets{})

		assert.Equal(t, Placeholder, ctx.Customer.Name)
		assert.Equal(t, Placeholder, ctx.AmountDueDisplay)
		assert.Equal(t, Placeholder, ctx.SavingsDisplay)
		assert.Equal(t, Placeholder, ctx.UnitPriceDisplay)
		assert.Empty(t, ctx.History)
		assert.Empty(t, ctx.HistorySummary)
	})

	t.Run("unparseable values are shown as written", func(t *testing.T) {
		rec := models.NewInvoiceRecord()
		rec.AmountDue = "a confirmar"

		ctx := BuildContext(rec, now, Assets{})
		assert.Equal(t, "a confirmar", ctx.AmountDueDisplay)
	})
}

func TestRenderer_RenderHTML(t *testing.T) {
	r, err := NewRenderer(new(MockConverter), Assets{QRCodeURI: "data:image/svg+xml;base64,PHN2Zz4="}, zap.NewNop())
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC) }

	rec := sampleRecord()
	rec.CustomerName = "<script>alert(1)</script>"

	html, err := r.RenderHTML(rec)

	require.NoError(t, err)
	assert.Contains(t, html, "R$ 115,46")
	assert.Contains(t, html, "2 meses com consumo registrado")
	// html/template writes "+" inside attributes as "&#43;"; browsers decode it back.
	assert.Contains(t, html, `src="data:image/svg&#43;xml;base64,PHN2Zz4="`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, `class="logo"`)
}

func TestRenderer_Render(t *testing.T) {
	ctx := context.Background()

	t.Run("returns converter output", func(t *testing.T) {
		conv := new(MockConverter)
		conv.On("Convert", ctx, mock.MatchedBy(func(html string) bool {
			return strings.Contains(html, "MARIA DA SILVA")
		})).Return([]byte("%PDF-1.4 report"), nil).Once()

		r, err := NewRenderer(conv, Assets{}, zap.NewNop())
		require.NoError(t, err)

		pdf, err := r.Render(ctx, sampleRecord())

		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 report"), pdf)
		conv.AssertExpectations(t)
	})

	t.Run("conversion failure is a rendering failure", func(t *testing.T) {
		cause := errors.New("chrome not found")
		conv := new(MockConverter)
		conv.On("Convert", ctx, mock.Anything).Return(nil, cause).Once()

		r, err := NewRenderer(conv, Assets{}, zap.NewNop())
		require.NoError(t, err)

		_, err = r.Render(ctx, sampleRecord())

		assert.ErrorIs(t, err, models.ErrRenderingFailure)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty output is a rendering failure", func(t *testing.T) {
		conv := new(MockConverter)
		conv.On("Convert", ctx, mock.Anything).Return([]byte{}, nil).Once()

		r, err := NewRenderer(conv, Assets{}, zap.NewNop())
		require.NoError(t, err)

		_, err = r.Render(ctx, sampleRecord())
		assert.ErrorIs(t, err, models.ErrRenderingFailure)
	})
}

func TestLoadAssets(t *testing.T) {
	t.Run("picks first existing candidate", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "boeira_logo.jpg"), []byte{0xff, 0xd8}, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "qrcode.svg"), []byte("<svg/>"), 0o644))

		assets, err := LoadAssets(dir)

		require.NoError(t, err)
		assert.Equal(t, "data:image/jpeg;base64,/9g=", string(assets.LogoURI))
		assert.Equal(t, "data:image/svg+xml;base64,PHN2Zy8+", string(assets.QRCodeURI))
	})

	t.Run("missing files are empty", func(t *testing.T) {
		assets, err := LoadAssets(t.TempDir())

		require.NoError(t, err)
		assert.Empty(t, assets.LogoURI)
		assert.Empty(t, assets.QRCodeURI)
	})

	t.Run("no directory", func(t *testing.T) {
		assets, err := LoadAssets("")

		require.NoError(t, err)
		assert.Equal(t, Assets{}, assets)
	})
}
