package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"cryptotracker/internal/market"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	DefaultSheetName = "Crypto Market Data"
	headerFill       = "FFFF00"
	widthPadding     = 2
)

// Writer stores each snapshot as an xlsx workbook, replacing the previous file.
type Writer struct {
	Path      string
	SheetName string
	Logger    *zap.Logger
}

func NewWriter(path, sheetName string, logger *zap.Logger) *Writer {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Writer{Path: path, SheetName: sheetName, Logger: logger}
}

func (w *Writer) Name() string { return "excel" }

// Write saves t with a highlighted bold header and columns sized to fit.
func (w *Writer) Write(_ context.Context, t market.Table) error {
	if err := os.MkdirAll(filepath.Dir(w.Path), 0755); err != nil {
		return fmt.Errorf("create excel directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := w.SheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(market.Columns))
	header := make([]any, len(market.Columns))
	for i, col := range market.Columns {
		header[i] = col
		widths[i] = utf8.RuneCountInString(col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range t {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := a.Values()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
		for c, s := range a.Record() {
			widths[c] = max(widths[c], utf8.RuneCountInString(s))
		}
	}

	if err := styleHeader(f, sheet); err != nil {
		return err
	}
	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(width+widthPadding)); err != nil {
			return fmt.Errorf("set width of column %s: %w", name, err)
		}
	}

	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("save %s: %w", w.Path, err)
	}

	if w.Logger != nil {
		w.Logger.Info("excel file updated", zap.String("path", w.Path), zap.Int("rows", len(t)))
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(market.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

// Read loads the first sheet of an xlsx file written by Writer.
func Read(path string) (market.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return market.Table{}, nil
	}
	if err := market.CheckHeader(rows[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	table := make(market.Table, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		a, err := market.ParseRecord(i+2, row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		table = append(table, a)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
