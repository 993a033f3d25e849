package coingecko

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"cryptotracker/internal/market"

	"github.com/shopspring/decimal"
)

// MarketsParams are the query parameters of GET /coins/markets.
type MarketsParams struct {
	VsCurrency string // e.g. "usd"
	Order      string // e.g. "market_cap_desc"
	PerPage    int    // 1..250
	Page       int    // 1-based
	Sparkline  bool
}

// DefaultMarketsParams is the top-50-by-market-cap USD query.
func DefaultMarketsParams() MarketsParams {
	return MarketsParams{
		VsCurrency: "usd",
		Order:      "market_cap_desc",
		PerPage:    50,
		Page:       1,
		Sparkline:  false,
	}
}

func (p MarketsParams) query() map[string]string {
	return map[string]string{
		"vs_currency": p.VsCurrency,
		"order":       p.Order,
		"per_page":    strconv.Itoa(p.PerPage),
		"page":        strconv.Itoa(p.Page),
		"sparkline":   strconv.FormatBool(p.Sparkline),
	}
}

// Field names of a /coins/markets element that make up an Asset.
const (
	fieldName      = "name"
	fieldSymbol    = "symbol"
	fieldPrice     = "current_price"
	fieldMarketCap = "market_cap"
	fieldVolume    = "total_volume"
	fieldChange24h = "price_change_percentage_24h"
)

// decodeMarkets turns the raw response array into a table, in response order.
func decodeMarkets(body []byte) (market.Table, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, &DecodeError{Index: -1, Reason: "expected a JSON array", Cause: err}
	}

	table := make(market.Table, 0, len(elems))
	for i, raw := range elems {
		asset, err := decodeAsset(i, raw)
		if err != nil {
			return nil, err
		}
		table = append(table, asset)
	}
	return table, nil
}

func decodeAsset(idx int, raw json.RawMessage) (market.Asset, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return market.Asset{}, &DecodeError{Index: idx, Reason: "element is not an object", Cause: err}
	}

	d := elementDecoder{idx: idx, obj: obj}
	a := market.Asset{
		Name:             d.str(fieldName),
		Symbol:           strings.ToUpper(d.str(fieldSymbol)),
		Price:            d.dec(fieldPrice),
		MarketCap:        d.whole(fieldMarketCap),
		Volume24h:        d.whole(fieldVolume),
		PercentChange24h: d.nullableFloat(fieldChange24h),
	}
	if d.err != nil {
		return market.Asset{}, d.err
	}
	return a, nil
}

// elementDecoder keeps the first field error and turns later lookups into
// no-ops.
type elementDecoder struct {
	idx int
	obj map[string]json.RawMessage
	err error
}

func (d *elementDecoder) fail(field, reason string, cause error) {
	if d.err == nil {
		d.err = &DecodeError{Index: d.idx, Field: field, Reason: reason, Cause: cause}
	}
}

func (d *elementDecoder) lookup(field string) (json.RawMessage, bool) {
	if d.err != nil {
		return nil, false
	}
	raw, ok := d.obj[field]
	if !ok {
		d.fail(field, "missing field", nil)
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (d *elementDecoder) str(field string) string {
	raw, ok := d.lookup(field)
	if !ok {
		return ""
	}
	var s string
	if isNull(raw) {
		d.fail(field, "null value", nil)
		return ""
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		d.fail(field, "expected a string", err)
		return ""
	}
	return s
}

func (d *elementDecoder) number(field string) (json.Number, bool) {
	raw, ok := d.lookup(field)
	if !ok {
		return "", false
	}
	if isNull(raw) {
		d.fail(field, "null value", nil)
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		d.fail(field, "expected a number", err)
		return "", false
	}
	n, ok := v.(json.Number)
	if !ok {
		d.fail(field, "expected a number", nil)
		return "", false
	}
	return n, true
}

func (d *elementDecoder) dec(field string) decimal.Decimal {
	n, ok := d.number(field)
	if !ok {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		d.fail(field, "expected a decimal", err)
		return decimal.Zero
	}
	return v
}

// whole accepts integral JSON numbers, including float spellings such as
// 1.2e12 that the API emits for large caps.
func (d *elementDecoder) whole(field string) int64 {
	n, ok := d.number(field)
	if !ok {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		return v
	}
	f, err := n.Float64()
	if err != nil {
		d.fail(field, "expected an integer", err)
		return 0
	}
	// float64(math.MaxInt64) rounds up to 2^63, itself out of range
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		d.fail(field, "integer out of range", nil)
		return 0
	}
	return int64(math.Round(f))
}

// nullableFloat maps JSON null to NaN.
func (d *elementDecoder) nullableFloat(field string) float64 {
	raw, ok := d.lookup(field)
	if !ok {
		return math.NaN()
	}
	if isNull(raw) {
		return math.NaN()
	}
	n, ok := d.number(field)
	if !ok {
		return math.NaN()
	}
	f, err := n.Float64()
	if err != nil {
		d.fail(field, "expected a number", err)
		return math.NaN()
	}
	return f
}
