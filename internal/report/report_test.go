package report

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptotracker/internal/market"
	"cryptotracker/internal/stats"

	"github.com/shopspring/decimal"
)

func sample() market.Table {
	return market.Table{
		{Name: "Bitcoin", Symbol: "BTC", Price: decimal.RequireFromString("64123.51"), MarketCap: 1262000000000, Volume24h: 31000000000, PercentChange24h: -1.25},
		{Name: "Ethereum", Symbol: "ETH", Price: decimal.RequireFromString("3120.40"), MarketCap: 375000000000, Volume24h: 15000000000, PercentChange24h: 2.5},
		{Name: "Tether", Symbol: "USDT", Price: decimal.RequireFromString("1"), MarketCap: 110000000000, Volume24h: 50000000000, PercentChange24h: math.NaN()},
	}
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "crypto_report.pdf")
	g := NewGenerator(path, 0, nil)
	g.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	if err := g.Generate(sample()); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Errorf("report does not start with %%PDF: %q", b[:min(8, len(b))])
	}
	if g.TopN != stats.DefaultTopN {
		t.Errorf("TopN = %d, want default %d", g.TopN, stats.DefaultTopN)
	}
}

func TestGenerate_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_report.pdf")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewGenerator(path, 5, nil).Generate(sample()); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("previous report not replaced")
	}
}

func TestGenerate_NoChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_report.pdf")
	table := sample()
	for i := range table {
		table[i].PercentChange24h = math.NaN()
	}
	if err := NewGenerator(path, 5, nil).Generate(table); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestGenerate_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_report.pdf")

	err := NewGenerator(path, 5, nil).Generate(market.Table{})
	if !errors.Is(err, market.ErrNoData) {
		t.Errorf("Generate(empty) error = %v, want ErrNoData", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("report file exists after empty table: %v", err)
	}
}

func TestSink(t *testing.T) {
	dir := t.TempDir()
	s := Sink{NewGenerator(filepath.Join(dir, "r.pdf"), 5, nil)}

	if s.Name() != "report" {
		t.Errorf("Name() = %q", s.Name())
	}
	if err := s.Write(context.Background(), nil); err != nil {
		t.Errorf("Write(empty) error = %v, want skip", err)
	}
	if err := s.Write(context.Background(), sample()); err != nil {
		t.Errorf("Write() error = %v", err)
	}

	// a directory in place of the file is an I/O failure, not a skip
	blocked := Sink{NewGenerator(dir, 5, nil)}
	if err := blocked.Write(context.Background(), sample()); err == nil {
		t.Error("Write() expected error when the path is a directory")
	}
}

func TestTopHeading(t *testing.T) {
	short, err := stats.Summarize(sample(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := topHeading(short); got != "Top 3 Cryptocurrencies by Market Cap" {
		t.Errorf("topHeading(3 rows, N=5) = %q", got)
	}

	// matches the console printout
	var buf bytes.Buffer
	if err := stats.WriteText(&buf, short); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(topHeading(short)+":")) {
		t.Errorf("console heading differs from %q:\n%s", topHeading(short), buf.String())
	}

	long, err := stats.Summarize(sample(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := topHeading(long); got != "Top 2 Cryptocurrencies by Market Cap" {
		t.Errorf("topHeading(3 rows, N=2) = %q", got)
	}
}
