package rarityclaim

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClaimPool distributes deposited tokens to item holders weighted by the
// rarity class of each item.
type ClaimPool struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	PoolID          int64           `json:"pool_id" gorm:"uniqueIndex;not null"`
	Title           string          `json:"title" gorm:"size:255"`
	ItemCollection  string          `json:"item_collection" gorm:"not null;size:64"`
	TokenAsset      string          `json:"token_asset" gorm:"not null;size:64"`
	TokenPrice      decimal.Decimal `json:"token_price" gorm:"type:decimal(38,18);default:0"`
	TotalAllocation int64           `json:"total_allocation" gorm:"default:0"`
	Published       bool            `json:"published" gorm:"default:false"`
	ClaimedTotal    decimal.Decimal `json:"claimed_total" gorm:"type:decimal(38,18);default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (ClaimPool) TableName() string {
	return "claim_pools"
}

// RarityAllocation is one rarity class's share of the pool distribution.
type RarityAllocation struct {
	ID     uint  `json:"id" gorm:"primaryKey"`
	PoolID int64 `json:"pool_id" gorm:"uniqueIndex:idx_claim_rarity;not null"`
	Rarity     int64 `json:"rarity" gorm:"uniqueIndex:idx_claim_rarity;not null"`
	Allocation int64 `json:"allocation" gorm:"not null"`
}

func (RarityAllocation) TableName() string {
	return "claim_rarity_allocations"
}

// ClaimedItem records one item's consumed claim.
type ClaimedItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	PoolID    int64           `json:"pool_id" gorm:"uniqueIndex:idx_claimed_item;not null"`
	ItemID    int64           `json:"item_id" gorm:"uniqueIndex:idx_claimed_item;not null"`
	Address   string          `json:"address" gorm:"index;not null;size:64"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(38,18);default:0"`
	CreatedAt time.Time       `json:"created_at"`
}

func (ClaimedItem) TableName() string {
	return "claim_claimed_items"
}
