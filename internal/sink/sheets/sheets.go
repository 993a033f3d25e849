package sheets

import (
	"context"
	"fmt"

	"cryptotracker/internal/market"

	"go.uber.org/zap"
)

// Worksheet is the part of a remote spreadsheet tab the writer needs.
type Worksheet interface {
	Clear(ctx context.Context) error
	AppendRows(ctx context.Context, rows [][]any) error
}

// Writer mirrors each snapshot into a remote worksheet: clear, then header
// and rows in table order. It assumes it is the only writer of the sheet.
type Writer struct {
	ws     Worksheet
	logger *zap.Logger
}

func NewWriter(ws Worksheet, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{ws: ws, logger: logger}
}

func (w *Writer) Name() string { return "sheets" }

func (w *Writer) Write(ctx context.Context, t market.Table) error {
	if err := w.ws.Clear(ctx); err != nil {
		return fmt.Errorf("clear worksheet: %w", err)
	}

	rows := make([][]any, 0, len(t)+1)
	header := make([]any, len(market.Columns))
	for i, c := range market.Columns {
		header[i] = c
	}
	rows = append(rows, header)
	for _, a := range t {
		rows = append(rows, a.Values())
	}

	if err := w.ws.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append rows: %w", err)
	}

	w.logger.Info("google sheet updated", zap.Int("rows", len(t)))
	return nil
}
