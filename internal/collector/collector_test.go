package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptotracker/internal/market"
	"cryptotracker/internal/report"
	"cryptotracker/internal/sink/excel"
	"cryptotracker/internal/sink/memory"
	"cryptotracker/pkg/coingecko"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const marketsBody = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64123.51,"market_cap":1262000000000,"total_volume":31000000000,"price_change_percentage_24h":-1.25},
	{"id":"tether","symbol":"usdt","name":"Tether","current_price":1.0,"market_cap":110000000000,"total_volume":50000000000,"price_change_percentage_24h":null}
]`

type mockFetcher struct {
	table market.Table
	err   error
	calls int
}

func (m *mockFetcher) FetchTable(context.Context) (market.Table, error) {
	m.calls++
	return m.table, m.err
}

func sample() market.Table {
	return market.Table{{Name: "Bitcoin", Symbol: "BTC", Price: decimal.RequireFromString("1"), MarketCap: 1, Volume24h: 1}}
}

func TestRunOnce_WritesEverySinkInOrder(t *testing.T) {
	first, second := memory.NewSink("first"), memory.NewSink("second")
	c := New(&mockFetcher{table: sample()}, nil, first, second)

	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	for _, s := range []*memory.Sink{first, second} {
		got, ok := s.Latest()
		if !ok || len(got) != 1 || got[0].Symbol != "BTC" {
			t.Errorf("%s sink = %+v, %v", s.Name(), got, ok)
		}
	}
}

func TestRunOnce_FetchErrorSkipsWrites(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := memory.NewSink("")
	fetchErr := &coingecko.FetchError{Type: coingecko.ErrorTypeRateLimit, StatusCode: http.StatusTooManyRequests, Message: "slow down"}

	c := New(&mockFetcher{err: fetchErr}, zap.New(core), sink)
	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v, want nil for a failed fetch", err)
	}
	if len(sink.Tables()) != 0 {
		t.Error("sink written after failed fetch")
	}

	entries := logs.FilterMessage("failed to fetch market data, skipping cycle").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d fetch warnings, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["type"]; got != "rate_limit" {
		t.Errorf("logged type = %v, want rate_limit", got)
	}
}

func TestRunOnce_DecodeErrorLogsIndexAndField(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := memory.NewSink("")
	decodeErr := &coingecko.DecodeError{Index: 3, Field: "market_cap", Reason: "null value"}

	c := New(&mockFetcher{err: decodeErr}, zap.New(core), sink)
	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v, want nil for an undecodable response", err)
	}
	if len(sink.Tables()) != 0 {
		t.Error("sink written after a decode failure")
	}

	entries := logs.FilterMessage("failed to decode market data, skipping cycle").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d decode warnings, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["index"] != int64(3) || fields["field"] != "market_cap" {
		t.Errorf("logged fields = %v, want index 3 and field market_cap", fields)
	}
}

func TestRunOnce_SinkErrorAborts(t *testing.T) {
	broken := memory.NewSink("broken")
	broken.Err = errors.New("disk full")
	after := memory.NewSink("after")

	c := New(&mockFetcher{table: sample()}, nil, broken, after)
	err := c.RunOnce(context.Background())
	if !errors.Is(err, broken.Err) {
		t.Fatalf("RunOnce() error = %v, want sink error", err)
	}
	if len(after.Tables()) != 0 {
		t.Error("later sink written after an earlier one failed")
	}
}

func TestRunOnce_EmptyTable(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "crypto_report.pdf")
	sink := memory.NewSink("")

	c := New(&mockFetcher{table: market.Table{}}, nil,
		sink,
		report.Sink{Generator: report.NewGenerator(reportPath, 5, nil)},
	)
	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	if got, ok := sink.Latest(); !ok || !got.Empty() {
		t.Errorf("empty table not passed through: %+v, %v", got, ok)
	}
	if _, err := os.Stat(reportPath); !os.IsNotExist(err) {
		t.Errorf("report written for an empty table: %v", err)
	}
}

func TestRunOnce_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsBody))
	}))
	defer server.Close()

	client := coingecko.NewRESTClient(server.URL, 5*time.Second, 0)
	defer client.Close()

	xlsx := filepath.Join(t.TempDir(), "crypto_data.xlsx")
	c := New(client, zap.NewNop(), excel.NewWriter(xlsx, "", nil))
	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	table, err := excel.Read(xlsx)
	if err != nil {
		t.Fatalf("excel.Read() error: %v", err)
	}
	if len(table) != 2 || table[0].Symbol != "BTC" || table[1].HasChange() {
		t.Errorf("stored table = %+v", table)
	}
}
