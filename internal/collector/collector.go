package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptotracker/internal/market"
	"cryptotracker/pkg/coingecko"

	"go.uber.org/zap"
)

// Fetcher produces the current market snapshot.
type Fetcher interface {
	FetchTable(ctx context.Context) (market.Table, error)
}

// Sink persists one snapshot. Every write replaces what the sink held before.
type Sink interface {
	Name() string
	Write(ctx context.Context, t market.Table) error
}

// Collector runs the fetch → write pipeline for one cycle.
type Collector struct {
	fetcher Fetcher
	sinks   []Sink
	logger  *zap.Logger
}

func New(fetcher Fetcher, logger *zap.Logger, sinks ...Sink) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{fetcher: fetcher, sinks: sinks, logger: logger}
}

// RunOnce fetches one snapshot and hands it to every sink in order.
// A failed fetch is logged and the cycle's writes are skipped (nil error);
// the first sink failure aborts the cycle and is returned.
func (c *Collector) RunOnce(ctx context.Context) error {
	start := time.Now()

	table, err := c.fetcher.FetchTable(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logFetchError(err)
		return nil
	}
	c.logger.Info("market data fetched", zap.Int("rows", table.Len()))

	for _, s := range c.sinks {
		if err := s.Write(ctx, table); err != nil {
			return fmt.Errorf("%s sink: %w", s.Name(), err)
		}
	}

	c.logger.Info("cycle completed",
		zap.Int("rows", table.Len()),
		zap.Int("sinks", len(c.sinks)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (c *Collector) logFetchError(err error) {
	var fetchErr *coingecko.FetchError
	var decodeErr *coingecko.DecodeError
	switch {
	case errors.As(err, &fetchErr):
		c.logger.Warn("failed to fetch market data, skipping cycle",
			zap.String("type", string(fetchErr.Type)),
			zap.Int("status", fetchErr.StatusCode),
			zap.Error(err),
		)
	case errors.As(err, &decodeErr):
		c.logger.Warn("failed to decode market data, skipping cycle",
			zap.Int("index", decodeErr.Index),
			zap.String("field", decodeErr.Field),
			zap.Error(err),
		)
	default:
		c.logger.Warn("failed to fetch market data, skipping cycle", zap.Error(err))
	}
}
