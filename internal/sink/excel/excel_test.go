package excel

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cryptotracker/internal/market"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleTable() market.Table {
	return market.Table{
		{Name: "Bitcoin", Symbol: "BTC", Price: decimal.RequireFromString("64123.51"), MarketCap: 1262000000000, Volume24h: 31000000000, PercentChange24h: -1.25},
		{Name: "Ethereum", Symbol: "ETH", Price: decimal.RequireFromString("3120.4"), MarketCap: 375000000000, Volume24h: 15000000000, PercentChange24h: 2.5},
		{Name: "Tether", Symbol: "USDT", Price: decimal.RequireFromString("1"), MarketCap: 110000000000, Volume24h: 50000000000, PercentChange24h: math.NaN()},
		{Name: "Shiba Inu", Symbol: "SHIB", Price: decimal.RequireFromString("0.000012"), MarketCap: 7000000000, Volume24h: 200000000, PercentChange24h: 0},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "crypto_data.xlsx")
	w := NewWriter(path, "", zap.NewNop())

	in := sampleTable()
	if err := w.Write(context.Background(), in); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}

	for i := range in {
		a, b := in[i], out[i]
		if a.Name != b.Name || a.Symbol != b.Symbol {
			t.Errorf("row %d: got %s/%s, want %s/%s", i, b.Name, b.Symbol, a.Name, a.Symbol)
		}
		if !a.Price.Equal(b.Price) {
			t.Errorf("row %d: Price = %s, want %s", i, b.Price, a.Price)
		}
		if a.MarketCap != b.MarketCap || a.Volume24h != b.Volume24h {
			t.Errorf("row %d: MarketCap/Volume = %d/%d, want %d/%d", i, b.MarketCap, b.Volume24h, a.MarketCap, a.Volume24h)
		}
		if a.HasChange() != b.HasChange() || (a.HasChange() && a.PercentChange24h != b.PercentChange24h) {
			t.Errorf("row %d: PercentChange24h = %v, want %v", i, b.PercentChange24h, a.PercentChange24h)
		}
	}
}

func TestWrite_Formatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_data.xlsx")
	if err := NewWriter(path, "", nil).Write(context.Background(), sampleTable()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetName(0); got != DefaultSheetName {
		t.Errorf("sheet name = %q, want %q", got, DefaultSheetName)
	}

	for _, cell := range []string{"A1", "F1"} {
		id, err := f.GetCellStyle(DefaultSheetName, cell)
		if err != nil {
			t.Fatal(err)
		}
		style, err := f.GetStyle(id)
		if err != nil {
			t.Fatal(err)
		}
		if style.Font == nil || !style.Font.Bold {
			t.Errorf("%s is not bold", cell)
		}
		if len(style.Fill.Color) == 0 || !strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), headerFill) {
			t.Errorf("%s fill = %v, want %s", cell, style.Fill.Color, headerFill)
		}
	}

	// width = longest cell + 2; header included
	tests := []struct {
		col   string
		width float64
	}{
		{"A", float64(len("Shiba Inu") + 2)},
		{"B", float64(len("Symbol") + 2)},
		{"C", float64(len("Price (USD)") + 2)},
		{"D", float64(len("1262000000000") + 2)},
		{"F", float64(len("24h % Change") + 2)},
	}
	for _, tt := range tests {
		got, err := f.GetColWidth(DefaultSheetName, tt.col)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.width {
			t.Errorf("column %s width = %v, want %v", tt.col, got, tt.width)
		}
	}
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_data.xlsx")
	w := NewWriter(path, "", nil)

	if err := w.Write(context.Background(), sampleTable()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(context.Background(), sampleTable()[:1]); err != nil {
		t.Fatal(err)
	}

	out, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Symbol != "BTC" {
		t.Errorf("Read() after overwrite = %+v", out)
	}
}

func TestWriteRead_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_data.xlsx")
	if err := NewWriter(path, "", nil).Write(context.Background(), market.Table{}); err != nil {
		t.Fatal(err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !out.Empty() {
		t.Errorf("Read() = %d rows, want 0", len(out))
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.xlsx"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error = %v, want fs.ErrNotExist", err)
	}
	if err != nil && strings.Count(err.Error(), "missing.xlsx") != 1 {
		t.Errorf("Read() error names the path more than once: %v", err)
	}

	// legacy header from the update script
	legacy := filepath.Join(dir, "legacy.xlsx")
	f := excelize.NewFile()
	header := []any{"Name", "Symbol", "Price", "Market Cap", "24h Change %"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(legacy); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := Read(legacy); err == nil {
		t.Error("Read() expected error for legacy header")
	}

	notXLSX := filepath.Join(dir, "plain.xlsx")
	if err := os.WriteFile(notXLSX, []byte("not a workbook"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(notXLSX); err == nil {
		t.Error("Read() expected error for a non-xlsx file")
	}
}
