package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTextReader mocks the TextReader interface
type MockTextReader struct {
	mock.Mock
}

func (m *MockTextReader) ReadText(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.True(t, IsPDF([]byte("\r\n %PDF-1.4")))
	assert.False(t, IsPDF([]byte("PK\x03\x04")))
	assert.False(t, IsPDF(nil))
}

func TestJoinPages(t *testing.T) {
	t.Run("joins non-empty pages", func(t *testing.T) {
		text, err := joinPages([]string{"  página 1 \n", "", "   ", "página 3"})

		require.NoError(t, err)
		assert.Equal(t, "página 1\n\npágina 3", text)
	})

	t.Run("no text", func(t *testing.T) {
		_, err := joinPages([]string{"", " \n "})
		assert.ErrorIs(t, err, models.ErrExtractionEmpty)
	})
}

func TestReaders_RejectNonPDF(t *testing.T) {
	ctx := context.Background()
	data := []byte("not a pdf")

	_, err := NewPDFReader(zap.NewNop()).ReadText(ctx, data)
	assert.ErrorIs(t, err, models.ErrUnsupportedInput)

	_, err = NewPlainReader(zap.NewNop()).ReadText(ctx, data)
	assert.ErrorIs(t, err, models.ErrUnsupportedInput)
}

func TestFallbackReader_ReadText(t *testing.T) {
	ctx := context.Background()
	data := []byte("%PDF-1.7")

	t.Run("first success wins", func(t *testing.T) {
		first, second := new(MockTextReader), new(MockTextReader)
		first.On("ReadText", ctx, data).Return("texto", nil).Once()

		r := NewFallbackReader([]TextReader{first, second}, []string{"fitz", "pure"}, zap.NewNop())
		text, err := r.ReadText(ctx, data)

		require.NoError(t, err)
		assert.Equal(t, "texto", text)
		second.AssertNotCalled(t, "ReadText", mock.Anything, mock.Anything)
	})

	t.Run("falls back after failure", func(t *testing.T) {
		first, second := new(MockTextReader), new(MockTextReader)
		first.On("ReadText", ctx, data).Return("", errors.New("cannot open")).Once()
		second.On("ReadText", ctx, data).Return("texto", nil).Once()

		r := NewFallbackReader([]TextReader{first, second}, nil, zap.NewNop())
		text, err := r.ReadText(ctx, data)

		require.NoError(t, err)
		assert.Equal(t, "texto", text)
	})

	t.Run("empty from any reader reports extraction empty", func(t *testing.T) {
		first, second := new(MockTextReader), new(MockTextReader)
		first.On("ReadText", ctx, data).Return("", models.ErrExtractionEmpty).Once()
		second.On("ReadText", ctx, data).Return("", errors.New("cannot open")).Once()

		r := NewFallbackReader([]TextReader{first, second}, nil, zap.NewNop())
		_, err := r.ReadText(ctx, data)

		assert.ErrorIs(t, err, models.ErrExtractionEmpty)
	})

	t.Run("last error when all fail", func(t *testing.T) {
		last := errors.New("broken xref")
		first, second := new(MockTextReader), new(MockTextReader)
		first.On("ReadText", ctx, data).Return("", errors.New("cannot open")).Once()
		second.On("ReadText", ctx, data).Return("", last).Once()

		r := NewFallbackReader([]TextReader{first, second}, nil, zap.NewNop())
		_, err := r.ReadText(ctx, data)

		assert.ErrorIs(t, err, last)
	})

	t.Run("unsupported input stops the chain", func(t *testing.T) {
		first, second := new(MockTextReader), new(MockTextReader)
		first.On("ReadText", ctx, data).Return("", models.ErrUnsupportedInput).Once()

		r := NewFallbackReader([]TextReader{first, second}, nil, zap.NewNop())
		_, err := r.ReadText(ctx, data)

		assert.ErrorIs(t, err, models.ErrUnsupportedInput)
		second.AssertNotCalled(t, "ReadText", mock.Anything, mock.Anything)
	})
}
