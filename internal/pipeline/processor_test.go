package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/fatura-reader/internal/invoice"
	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTextReader struct{ mock.Mock }

func (m *MockTextReader) ReadText(ctx context.Context, pdf []byte) (string, error) {
	args := m.Called(ctx, pdf)
	return args.String(0), args.Error(1)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) ExtractFromText(ctx context.Context, text string) (*models.InvoiceRecord, error) {
	args := m.Called(ctx, text)
	rec, _ := args.Get(0).(*models.InvoiceRecord)
	return rec, args.Error(1)
}

type MockRenderer struct{ mock.Mock }

func (m *MockRenderer) Render(ctx context.Context, rec *models.InvoiceRecord) ([]byte, error) {
	args := m.Called(ctx, rec)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func newTestProcessor(t *testing.T, reader TextReader, extractor FieldExtractor, renderer ReportRenderer) *Processor {
	t.Helper()
	engine, err := invoice.NewDerivationEngine(invoice.DerivationConfig{}, zap.NewNop())
	require.NoError(t, err)
	return NewProcessor(reader, extractor, engine, renderer, zap.NewNop())
}

func extractedRecord() *models.InvoiceRecord {
	rec := models.NewInvoiceRecord()
	rec.CustomerName = "MARIA DA SILVA"
	rec.InjectedActiveEnergy = "-100,00 -50,00"
	rec.UnitPriceWithTaxes = "1,099590"
	return rec
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	data := []byte("%PDF-1.7 fatura")

	t.Run("runs every stage and derives before rendering", func(t *testing.T) {
		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		reader.On("ReadText", ctx, data).Return("texto da fatura", nil).Once()
		extractor.On("ExtractFromText", ctx, "texto da fatura").Return(extractedRecord(), nil).Once()
		renderer.On("Render", ctx, mock.MatchedBy(func(rec *models.InvoiceRecord) bool {
			return rec.AmountDue == "115,46" && rec.Savings == "49,48" && rec.InjectedActiveEnergy == "150,00"
		})).Return([]byte("%PDF report"), nil).Once()

		p := newTestProcessor(t, reader, extractor, renderer)
		res, err := p.Process(ctx, "uploads/fatura_agosto.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, "fatura_agosto", res.Filename)
		assert.Equal(t, []byte("%PDF report"), res.PDF)
		assert.Equal(t, "115,46", res.Record.AmountDue)
		renderer.AssertExpectations(t)
	})

	t.Run("empty text never reaches the model", func(t *testing.T) {
		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		reader.On("ReadText", ctx, data).Return("", models.ErrExtractionEmpty).Once()

		p := newTestProcessor(t, reader, extractor, renderer)
		_, err := p.Process(ctx, "vazia.pdf", data)

		assert.ErrorIs(t, err, models.ErrExtractionEmpty)
		var pe *ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, StageRead, pe.Stage)
		assert.Equal(t, "vazia.pdf", pe.File)
		extractor.AssertNotCalled(t, "ExtractFromText", mock.Anything, mock.Anything)
		renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	})

	t.Run("validation failure renders nothing", func(t *testing.T) {
		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		reader.On("ReadText", ctx, data).Return("texto", nil).Once()
		extractor.On("ExtractFromText", ctx, "texto").Return(nil, models.ErrSchemaMismatch).Once()

		p := newTestProcessor(t, reader, extractor, renderer)
		_, err := p.Process(ctx, "a.pdf", data)

		assert.ErrorIs(t, err, models.ErrSchemaMismatch)
		renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	})

	t.Run("rendering failure", func(t *testing.T) {
		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		reader.On("ReadText", ctx, data).Return("texto", nil).Once()
		extractor.On("ExtractFromText", ctx, "texto").Return(extractedRecord(), nil).Once()
		renderer.On("Render", ctx, mock.Anything).Return(nil, models.ErrRenderingFailure).Once()

		p := newTestProcessor(t, reader, extractor, renderer)
		_, err := p.Process(ctx, "a.pdf", data)

		var pe *ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, StageRender, pe.Stage)
		assert.ErrorIs(t, err, models.ErrRenderingFailure)
	})
}

func TestProcessor_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("failures do not stop the batch", func(t *testing.T) {
		good := []byte("%PDF good")
		bad := []byte("%PDF bad")
		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		reader.On("ReadText", ctx, bad).Return("", errors.New("broken xref")).Once()
		reader.On("ReadText", ctx, good).Return("texto", nil).Twice()
		extractor.On("ExtractFromText", ctx, "texto").Return(extractedRecord(), nil).Twice()
		renderer.On("Render", ctx, mock.Anything).Return([]byte("%PDF report"), nil).Twice()

		p := newTestProcessor(t, reader, extractor, renderer)
		result := p.ProcessBatch(ctx, []Upload{
			{Name: "um.pdf", Data: good},
			{Name: "dois.pdf", Data: bad},
			{Name: "tres.pdf", Data: good},
		})

		require.Len(t, result.Results, 2)
		assert.Equal(t, "um", result.Results[0].Filename)
		assert.Equal(t, "tres", result.Results[1].Filename)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, models.Failure{File: "dois.pdf", Stage: StageRead, Message: "broken xref"}, result.Failures[0])
	})

	t.Run("canceled context skips remaining uploads", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		reader, extractor, renderer := new(MockTextReader), new(MockExtractor), new(MockRenderer)
		p := newTestProcessor(t, reader, extractor, renderer)
		result := p.ProcessBatch(canceled, []Upload{{Name: "um.pdf"}, {Name: "dois.pdf"}})

		assert.Empty(t, result.Results)
		require.Len(t, result.Failures, 2)
		assert.Equal(t, StageCanceled, result.Failures[0].Stage)
		reader.AssertNotCalled(t, "ReadText", mock.Anything, mock.Anything)
	})
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"fatura.pdf":              "fatura",
		"dir/fatura.agosto.pdf":   "fatura.agosto",
		`C:\Users\ana\fatura.PDF`: "fatura",
		"sem_extensao":            "sem_extensao",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Stem(in), in)
	}
}
