package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptotracker/internal/market"
	"cryptotracker/internal/stats"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	DefaultPath = "data/crypto_report.pdf"

	pageMargin = 15.0
	lineHeight = 8.0
	fontFamily = "Helvetica"
	footerText = "Report generated using live cryptocurrency data."
)

// Generator renders market statistics into a one-file PDF report.
type Generator struct {
	Path   string
	TopN   int
	Logger *zap.Logger

	// Now is stamped into the report header; defaults to time.Now.
	Now func() time.Time
}

func NewGenerator(path string, topN int, logger *zap.Logger) *Generator {
	if path == "" {
		path = DefaultPath
	}
	if topN <= 0 {
		topN = stats.DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Path: path, TopN: topN, Logger: logger, Now: time.Now}
}

// Generate writes the report for t to g.Path, replacing any previous file.
// An empty table writes nothing and returns market.ErrNoData.
func (g *Generator) Generate(t market.Table) error {
	s, err := stats.Summarize(t, g.TopN)
	if err != nil {
		if errors.Is(err, market.ErrNoData) {
			g.Logger.Warn("no data available for report")
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(g.Path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	pdf := g.render(s)
	if err := pdf.OutputFileAndClose(g.Path); err != nil {
		return fmt.Errorf("write report %s: %w", g.Path, err)
	}

	g.Logger.Info("pdf report generated", zap.String("path", g.Path))
	return nil
}

func (g *Generator) render(s stats.Summary) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 12, "Cryptocurrency Market Report", "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, lineHeight, "Report Generated: "+now().UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading(pdf, topHeading(s))
	for i, r := range s.Top {
		line(pdf, fmt.Sprintf("%d. %s (%s) - Market Cap: %s", i+1, r.Name, r.Symbol, stats.FormatCap(r.MarketCap)))
	}
	pdf.Ln(4)

	heading(pdf, fmt.Sprintf("Average Price of Top %d Cryptocurrencies", s.Count))
	line(pdf, stats.FormatUSD(s.MeanPrice, 2))
	pdf.Ln(4)

	heading(pdf, "Highest & Lowest 24h Price Change")
	if s.HasChanges {
		line(pdf, fmt.Sprintf("Highest: %s (%s)", s.Highest.Name, stats.FormatChange(s.Highest)))
		line(pdf, fmt.Sprintf("Lowest: %s (%s)", s.Lowest.Name, stats.FormatChange(s.Lowest)))
	} else {
		line(pdf, "Highest: n/a")
		line(pdf, "Lowest: n/a")
	}
	pdf.Ln(8)

	pdf.SetFont(fontFamily, "I", 9)
	pdf.CellFormat(0, lineHeight, footerText, "", 1, "C", false, 0, "")
	return pdf
}

// topHeading counts the ranked rows, which is fewer than TopN for short tables.
func topHeading(s stats.Summary) string {
	return fmt.Sprintf("Top %d Cryptocurrencies by Market Cap", len(s.Top))
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont(fontFamily, "B", 13)
	pdf.CellFormat(0, lineHeight+2, text, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func line(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont(fontFamily, "", 11)
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
}

// Sink adapts a Generator to the collector's sink contract. A table without
// rows is skipped instead of failing the cycle.
type Sink struct {
	*Generator
}

func (s Sink) Name() string { return "report" }

func (s Sink) Write(_ context.Context, t market.Table) error {
	if err := s.Generate(t); err != nil && !errors.Is(err, market.ErrNoData) {
		return err
	}
	return nil
}
