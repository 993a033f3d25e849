package market

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned by stages that need at least one asset.
var ErrNoData = errors.New("no market data available")

// Columns is the header shared by every tabular sink and by the readers.
var Columns = []string{
	"Name",
	"Symbol",
	"Price (USD)",
	"Market Cap",
	"24h Volume",
	"24h % Change",
}

// Asset is one row of a snapshot, as reported by the markets endpoint.
type Asset struct {
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`     // upper-cased ticker, e.g. "BTC"
	Price            decimal.Decimal `json:"price"`      // quote currency
	MarketCap        int64           `json:"market_cap"` // quote currency
	Volume24h        int64           `json:"volume_24h"`
	PercentChange24h float64         `json:"percent_change_24h"` // NaN when unknown
}

// HasChange reports whether the 24h change is known.
func (a Asset) HasChange() bool {
	return !math.IsNaN(a.PercentChange24h)
}

// Table is an ordered snapshot of assets, market-cap descending as fetched.
type Table []Asset

func (t Table) Len() int { return len(t) }

func (t Table) Empty() bool { return len(t) == 0 }
