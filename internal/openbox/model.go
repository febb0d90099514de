package openbox

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BoxPool exchanges box tokens for freshly minted items with sequential ids.
type BoxPool struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	PoolID         int64  `json:"pool_id" gorm:"uniqueIndex;not null"`
	Title          string `json:"title" gorm:"size:255"`
	ItemCollection string `json:"item_collection" gorm:"not null;size:64"`
	BoxTokenAsset  string `json:"box_token_asset" gorm:"not null;size:64"`
	BoxPrice       decimal.Decimal `json:"box_price" gorm:"type:decimal(38,18);default:0"`
	StartID        int64           `json:"start_id" gorm:"not null"`
	EndID          int64           `json:"end_id" gorm:"not null"`
	// CurrentID is the next item id to mint.
	CurrentID   int64          `json:"current_id" gorm:"not null"`
	TotalOpened int64          `json:"total_opened" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (BoxPool) TableName() string {
	return "box_pools"
}

// Remaining returns how many items are still mintable.
func (p *BoxPool) Remaining() int64 {
	return p.EndID - p.CurrentID + 1
}

// OpenedBox records one box-opening and the item it minted.
type OpenedBox struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	PoolID    int64           `json:"pool_id" gorm:"uniqueIndex:idx_opened_item;not null"`
	ItemID    int64           `json:"item_id" gorm:"uniqueIndex:idx_opened_item;not null"`
	Opener    string          `json:"opener" gorm:"index;not null;size:64"`
	BoxPrice  decimal.Decimal `json:"box_price" gorm:"type:decimal(38,18);default:0"`
	CreatedAt time.Time       `json:"created_at"`
}

func (OpenedBox) TableName() string {
	return "box_opened"
}
