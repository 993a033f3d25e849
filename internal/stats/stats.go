package stats

import (
	"math"
	"slices"

	"cryptotracker/internal/market"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the size of the market-cap leaderboard in reports.
const DefaultTopN = 5

// Ranked is an asset reduced to its market-cap ranking fields.
type Ranked struct {
	Name      string
	Symbol    string
	MarketCap int64
}

// Change is an asset reduced to its 24h change.
type Change struct {
	Name             string
	Symbol           string
	PercentChange24h float64
}

// TopByMarketCap returns the n assets with the largest market cap, largest
// first. Equal caps keep table order. The input is not modified.
func TopByMarketCap(t market.Table, n int) []Ranked {
	if n <= 0 || len(t) == 0 {
		return nil
	}

	sorted := slices.Clone(t)
	slices.SortStableFunc(sorted, func(a, b market.Asset) int {
		switch {
		case a.MarketCap > b.MarketCap:
			return -1
		case a.MarketCap < b.MarketCap:
			return 1
		}
		return 0
	})

	n = min(n, len(sorted))
	out := make([]Ranked, n)
	for i, a := range sorted[:n] {
		out[i] = Ranked{Name: a.Name, Symbol: a.Symbol, MarketCap: a.MarketCap}
	}
	return out
}

// MeanPrice is the arithmetic mean of all prices, NaN for an empty table.
func MeanPrice(t market.Table) float64 {
	if len(t) == 0 {
		return math.NaN()
	}
	sum := decimal.Zero
	for _, a := range t {
		sum = sum.Add(a.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(t)))).InexactFloat64()
}

// Extremes returns the assets with the highest and lowest 24h change.
// Assets without a known change are skipped; on ties the earliest row wins.
// ok is false when no asset has a known change.
func Extremes(t market.Table) (highest, lowest Change, ok bool) {
	for _, a := range t {
		if !a.HasChange() {
			continue
		}
		c := Change{Name: a.Name, Symbol: a.Symbol, PercentChange24h: a.PercentChange24h}
		if !ok {
			highest, lowest, ok = c, c, true
			continue
		}
		if c.PercentChange24h > highest.PercentChange24h {
			highest = c
		}
		if c.PercentChange24h < lowest.PercentChange24h {
			lowest = c
		}
	}
	return highest, lowest, ok
}

// Summary bundles every statistic the report shows.
type Summary struct {
	Count      int
	Top        []Ranked
	MeanPrice  float64
	Highest    Change
	Lowest     Change
	HasChanges bool
}

// Summarize computes a Summary, or market.ErrNoData for an empty table.
func Summarize(t market.Table, topN int) (Summary, error) {
	if t.Empty() {
		return Summary{}, market.ErrNoData
	}
	hi, lo, ok := Extremes(t)
	return Summary{
		Count:      len(t),
		Top:        TopByMarketCap(t, topN),
		MeanPrice:  MeanPrice(t),
		Highest:    hi,
		Lowest:     lo,
		HasChanges: ok,
	}, nil
}
