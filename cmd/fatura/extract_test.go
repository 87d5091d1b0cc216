package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/garyjia/fatura-reader/internal/pipeline"
)

func TestReadUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agosto.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	uploads, err := readUploads([]string{path})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "agosto.pdf", uploads[0].Name)
	assert.Equal(t, []byte("%PDF-1.4"), uploads[0].Data)

	_, err = readUploads([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}

func TestWriteBatch(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	batch := &pipeline.BatchResult{
		Results: []models.ProcessedInvoice{
			{Filename: "agosto", Record: models.NewInvoiceRecord(), PDF: []byte("%PDF agosto")},
		},
		Failures: []models.Failure{},
	}

	require.NoError(t, writeBatch(cmd, batch, dir, true, "faturas_boeira.zip", false, zap.NewNop()))

	assert.FileExists(t, filepath.Join(dir, "agosto.pdf"))
	assert.FileExists(t, filepath.Join(dir, "agosto.json"))
	assert.FileExists(t, filepath.Join(dir, "faturas_boeira.zip"))
	assert.Contains(t, out.String(), "ok    agosto")
	assert.Contains(t, out.String(), "zip   ")
}

func TestWriteBatch_ReportsFailures(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	batch := &pipeline.BatchResult{
		Results: []models.ProcessedInvoice{},
		Failures: []models.Failure{
			{File: "ruim.pdf", Stage: pipeline.StageRead, Message: "unsupported input"},
		},
	}

	err := writeBatch(cmd, batch, t.TempDir(), true, "faturas.zip", true, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 invoices failed")
	assert.Contains(t, out.String(), "fail  ruim.pdf [read] unsupported input")
	assert.NotContains(t, out.String(), "zip")
}
