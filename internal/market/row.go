package market

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record renders an asset as spreadsheet-ready cell values in Columns order.
// An unknown 24h change becomes an empty string.
func (a Asset) Record() []string {
	change := ""
	if a.HasChange() {
		change = strconv.FormatFloat(a.PercentChange24h, 'f', -1, 64)
	}
	return []string{
		a.Name,
		a.Symbol,
		a.Price.String(),
		strconv.FormatInt(a.MarketCap, 10),
		strconv.FormatInt(a.Volume24h, 10),
		change,
	}
}

// Values is Record with typed numbers, for sinks that keep cell types.
func (a Asset) Values() []any {
	var change any = ""
	if a.HasChange() {
		change = a.PercentChange24h
	}
	return []any{
		a.Name,
		a.Symbol,
		a.Price.InexactFloat64(),
		a.MarketCap,
		a.Volume24h,
		change,
	}
}

// ParseRecord is the inverse of Record. Row is the 1-based sheet row, used
// only in error messages.
func ParseRecord(row int, cells []string) (Asset, error) {
	// trailing empty cells are dropped by most readers
	for len(cells) < len(Columns) {
		cells = append(cells, "")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(cells[2]))
	if err != nil {
		return Asset{}, fmt.Errorf("row %d: %s: %w", row, Columns[2], err)
	}
	marketCap, err := parseWhole(cells[3])
	if err != nil {
		return Asset{}, fmt.Errorf("row %d: %s: %w", row, Columns[3], err)
	}
	volume, err := parseWhole(cells[4])
	if err != nil {
		return Asset{}, fmt.Errorf("row %d: %s: %w", row, Columns[4], err)
	}

	change := math.NaN()
	if s := strings.TrimSpace(cells[5]); s != "" {
		change, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Asset{}, fmt.Errorf("row %d: %s: %w", row, Columns[5], err)
		}
	}

	return Asset{
		Name:             cells[0],
		Symbol:           cells[1],
		Price:            price,
		MarketCap:        marketCap,
		Volume24h:        volume,
		PercentChange24h: change,
	}, nil
}

// CheckHeader verifies a header row against Columns.
func CheckHeader(header []string) error {
	if len(header) < len(Columns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(Columns))
	}
	for i, want := range Columns {
		if got := strings.TrimSpace(header[i]); got != want {
			return fmt.Errorf("column %d is %q, want %q", i+1, got, want)
		}
	}
	return nil
}

// parseWhole accepts integers and integral floats ("1.2E+12" from some sheets).
func parseWhole(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s is out of the int64 range", s)
	}
	return int64(math.Round(f)), nil
}
