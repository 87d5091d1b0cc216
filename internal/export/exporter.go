// Package export bundles processed invoices for download.
package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// SummaryName is the workbook entry added to archives
	SummaryName  = "resumo.xlsx"
	summarySheet = "Faturas"
)

// ErrNothingToExport is returned when there are no results to bundle
var ErrNothingToExport = errors.New("no processed invoices to export")

// Exporter builds download bundles from processed invoices
type Exporter struct {
	includeSummary bool
	now            func() time.Time
	logger         *zap.Logger
}

// NewExporter creates a new exporter. includeSummary adds the workbook to archives.
func NewExporter(includeSummary bool, logger *zap.Logger) *Exporter {
	return &Exporter{
		includeSummary: includeSummary,
		now:            time.Now,
		logger:         logger,
	}
}

// Archive returns a DEFLATE compressed zip with one <filename>.pdf per result.
// Repeated filenames get a numeric suffix.
func (e *Exporter) Archive(results []models.ProcessedInvoice) ([]byte, error) {
	if len(results) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := e.now()
	seen := make(map[string]int, len(results))

	for _, res := range results {
		name := uniqueName(seen, res.Filename)
		if err := writeEntry(zw, name+".pdf", res.PDF, modified); err != nil {
			return nil, err
		}
	}

	if e.includeSummary {
		summary, err := e.Workbook(results)
		if err != nil {
			return nil, err
		}
		if err := writeEntry(zw, SummaryName, summary, modified); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	e.logger.Info("Archive built",
		zap.Int("invoices", len(results)),
		zap.Bool("summary", e.includeSummary),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func uniqueName(seen map[string]int, stem string) string {
	stem = strings.TrimSpace(stem)
	if stem == "" {
		stem = "fatura"
	}
	seen[stem]++
	if n := seen[stem]; n > 1 {
		return fmt.Sprintf("%s-%d", stem, n)
	}
	return stem
}

// Workbook returns an xlsx file with one row per invoice and one column per field
func (e *Exporter) Workbook(results []models.ProcessedInvoice) ([]byte, error) {
	if len(results) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []string{"arquivo"}
	for _, field := range models.Fields {
		if !field.IsList() {
			header = append(header, field.Label())
		}
	}
	header = append(header, "meses no historico")

	for col, title := range header {
		e.setCell(f, cellName(col, 1), title)
	}

	for i, res := range results {
		row := i + 2
		rec := res.Record
		if rec == nil {
			rec = models.NewInvoiceRecord()
		}

		col := 0
		e.setCell(f, cellName(col, row), res.Filename)
		for _, field := range models.Fields {
			if field.IsList() {
				continue
			}
			col++
			e.setCell(f, cellName(col, row), rec.Get(field))
		}
		col++
		e.setCell(f, cellName(col, row), len(rec.ConsumptionHistory))
	}

	e.styleHeader(f, summarySheet)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// setCell sets a cell value in the summary sheet
// styleHeader bolds and freezes the header row. Failures are logged only.
func (e *Exporter) styleHeader(f *excelize.File, sheet string) {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		e.logger.Warn("Failed to create header style", zap.Error(err))
	} else if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		e.logger.Warn("Failed to set header style",
			zap.String("sheet", sheet),
			zap.Error(err))
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		e.logger.Warn("Failed to freeze header row",
			zap.String("sheet", sheet),
			zap.Error(err))
	}
}

func (e *Exporter) setCell(f *excelize.File, cell string, value any) {
	if err := f.SetCellValue(summarySheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
