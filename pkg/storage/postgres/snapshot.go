package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"cryptotracker/internal/market"

	"gorm.io/gorm"
)

const insertBatchSize = 100

// ReplaceSnapshot swaps the stored snapshot for t in a single transaction,
// so readers see either the old table or the new one.
func (p *PostgresClient) ReplaceSnapshot(ctx context.Context, t market.Table, fetchedAt time.Time) error {
	records := ToAssetRecords(t, fetchedAt)

	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&AssetRecord{}).Error; err != nil {
			return fmt.Errorf("delete previous snapshot: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot returns the stored snapshot in its original table order.
func (p *PostgresClient) LoadSnapshot(ctx context.Context) (market.Table, error) {
	var records []AssetRecord
	if err := p.DB.WithContext(ctx).Order("rank asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return FromAssetRecords(records), nil
}

func (p *PostgresClient) Name() string { return "postgres" }

// Write implements the collector sink contract.
func (p *PostgresClient) Write(ctx context.Context, t market.Table) error {
	return p.ReplaceSnapshot(ctx, t, time.Now().UTC())
}

// ToAssetRecords converts t for insertion; NaN changes become NULL.
func ToAssetRecords(t market.Table, fetchedAt time.Time) []AssetRecord {
	records := make([]AssetRecord, len(t))
	for i, a := range t {
		records[i] = AssetRecord{
			Rank:      i + 1,
			Name:      a.Name,
			Symbol:    a.Symbol,
			Price:     a.Price,
			MarketCap: a.MarketCap,
			Volume24h: a.Volume24h,
			FetchedAt: fetchedAt,
		}
		if a.HasChange() {
			c := a.PercentChange24h
			records[i].PercentChange24h = &c
		}
	}
	return records
}

func FromAssetRecords(records []AssetRecord) market.Table {
	t := make(market.Table, len(records))
	for i, r := range records {
		t[i] = market.Asset{
			Name:             r.Name,
			Symbol:           r.Symbol,
			Price:            r.Price,
			MarketCap:        r.MarketCap,
			Volume24h:        r.Volume24h,
			PercentChange24h: math.NaN(),
		}
		if r.PercentChange24h != nil {
			t[i].PercentChange24h = *r.PercentChange24h
		}
	}
	return t
}
