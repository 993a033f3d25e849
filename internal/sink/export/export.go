package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cryptotracker/internal/market"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

const baseName = "crypto_data"

// Row is the flat export shape of one asset. Change is nil when unknown.
type Row struct {
	Name             string   `json:"name" parquet:"name"`
	Symbol           string   `json:"symbol" parquet:"symbol"`
	Price            string   `json:"price_usd" parquet:"price_usd"`
	MarketCap        int64    `json:"market_cap" parquet:"market_cap"`
	Volume24h        int64    `json:"volume_24h" parquet:"volume_24h"`
	PercentChange24h *float64 `json:"percent_change_24h" parquet:"percent_change_24h,optional"`
}

func ToRows(t market.Table) []Row {
	rows := make([]Row, len(t))
	for i, a := range t {
		rows[i] = Row{
			Name:      a.Name,
			Symbol:    a.Symbol,
			Price:     a.Price.String(),
			MarketCap: a.MarketCap,
			Volume24h: a.Volume24h,
		}
		if a.HasChange() {
			c := a.PercentChange24h
			rows[i].PercentChange24h = &c
		}
	}
	return rows
}

// Saver writes a whole table to one file.
type Saver interface {
	Save(t market.Table, path string) error
	Extension() string
}

// NewSaver returns the saver for format (csv, json, parquet), or nil if the
// format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(t market.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(market.Columns); err != nil {
		return err
	}
	for _, a := range t {
		if err := w.Write(a.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(t market.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToRows(t)); err != nil {
		return err
	}
	return f.Close()
}

type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(t market.Table, path string) error {
	return parquet.WriteFile(path, ToRows(t))
}

// Sink writes every snapshot to <Dir>/crypto_data.<ext>, replacing the last one.
type Sink struct {
	Dir    string
	saver  Saver
	logger *zap.Logger
}

func NewSink(dir, format string, logger *zap.Logger) (*Sink, error) {
	s := NewSaver(format)
	if s == nil {
		return nil, fmt.Errorf("unsupported export format %q (use csv, json or parquet)", format)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{Dir: dir, saver: s, logger: logger}, nil
}

func (s *Sink) Name() string { return "export" }

func (s *Sink) Path() string {
	return filepath.Join(s.Dir, baseName+"."+s.saver.Extension())
}

func (s *Sink) Write(_ context.Context, t market.Table) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := s.Path()
	if err := s.saver.Save(t, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	s.logger.Info("table exported", zap.String("path", path), zap.Int("rows", len(t)))
	return nil
}
