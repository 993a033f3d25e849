package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetRecord is one row of the latest market snapshot. Rank is the row's
// position in the fetched table, starting at 1.
type AssetRecord struct {
	ID uint `gorm:"primaryKey"`

	Rank   int    `gorm:"not null;uniqueIndex:idx_asset_snapshot_rank"`
	Name   string `gorm:"type:text;not null"`
	Symbol string `gorm:"type:text;not null;index:idx_asset_snapshot_symbol"`

	Price     decimal.Decimal `gorm:"type:numeric;not null"`
	MarketCap int64           `gorm:"not null"`
	Volume24h int64           `gorm:"not null"`

	// nil when the market did not report a change
	PercentChange24h *float64 `gorm:"type:double precision"`

	FetchedAt  time.Time `gorm:"not null;index:idx_asset_snapshot_fetched_at"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (AssetRecord) TableName() string {
	return "asset_snapshot"
}
