package pool

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind selects the sale family a pool belongs to.
type Kind string

const (
	KindAuction   Kind = "auction"
	KindFixedSwap Kind = "fixedswap"
)

// Pool is one sale campaign. Config fields are mutable only while the pool is
// not public; running totals are maintained by the sale services. Pools are
// soft-deleted only, never destroyed.
type Pool struct {
	ID     uint  `json:"-" gorm:"primaryKey"`
	PoolID int64 `json:"pool_id" gorm:"uniqueIndex;not null"`
	Kind   Kind  `json:"kind" gorm:"not null;size:16"`
	Title  string `json:"title" gorm:"size:128"`

	// ItemAsset is the unique-item collection, or the sale token address when
	// IsSaleToken is set (token-sale variants sell fungible units).
	ItemAsset    string `json:"item_asset" gorm:"not null;size:42"`
	IsSaleToken  bool   `json:"is_sale_token"`
	PaymentAsset string `json:"payment_asset" gorm:"not null;size:42"`

	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	StartPrice decimal.Decimal `json:"start_price" gorm:"type:decimal(36,18);not null"`

	RequireWhitelist bool `json:"require_whitelist"`
	// WhitelistOverrideAfter opens a whitelist-required pool to everyone this
	// many seconds after StartTime. Zero means never.
	WhitelistOverrideAfter int64 `json:"whitelist_override_after"`

	MaxBuyPerAddress int64 `json:"max_buy_per_address"`
	MaxBuyPerOrder   int64 `json:"max_buy_per_order"`

	// TotalItems bounds the sale when no explicit item-id set is attached.
	TotalItems int64 `json:"total_items"`

	IsPublic bool `json:"is_public"`
	// IsEnded is set by the first auction settlement batch; claims are only
	// possible afterwards.
	IsEnded bool `json:"is_ended"`

	TotalBid         int64           `json:"total_bid"`
	TotalBidQuantity int64           `json:"total_bid_quantity"`
	TotalBidAmount   decimal.Decimal `json:"total_bid_amount" gorm:"type:decimal(36,18)"`
	TotalSold        int64           `json:"total_sold"`
	TotalSoldAmount  decimal.Decimal `json:"total_sold_amount" gorm:"type:decimal(36,18)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Pool) TableName() string {
	return "sale_pools"
}

// Remaining reports how many units are still unsold against the declared
// bound.
func (p *Pool) Remaining() int64 {
	return p.TotalItems - p.TotalSold
}

// PoolWhitelist links a pool to an external whitelist list id. Row order
// preserves the order the ids were configured in.
type PoolWhitelist struct {
	ID     uint  `json:"-" gorm:"primaryKey"`
	PoolID int64 `json:"pool_id" gorm:"index;not null"`
	ListID int64 `json:"list_id" gorm:"not null"`
}

func (PoolWhitelist) TableName() string {
	return "sale_pool_whitelists"
}

// InlineEntry is the per-pool whitelist of the token-sale variants
// (setWhitelist), used when a pool references no external lists.
type InlineEntry struct {
	ID      uint   `json:"-" gorm:"primaryKey"`
	PoolID  int64  `json:"pool_id" gorm:"index:idx_pool_inline,unique;not null"`
	Address string `json:"address" gorm:"index:idx_pool_inline,unique;not null;size:42"`
	Allowed bool   `json:"allowed" gorm:"default:true"`
}

func (InlineEntry) TableName() string {
	return "sale_pool_inline_whitelists"
}

// SaleItem is one custodied unique item attached to a pool, consumed in
// insertion order as sales settle.
type SaleItem struct {
	ID     uint  `json:"-" gorm:"primaryKey"`
	PoolID int64 `json:"pool_id" gorm:"index:idx_pool_sale_item,unique;not null"`
	ItemID int64 `json:"item_id" gorm:"index:idx_pool_sale_item,unique;not null"`
	Sold   bool  `json:"sold"`
}

func (SaleItem) TableName() string {
	return "sale_pool_items"
}

// BuyerTotal is the per-buyer aggregate the per-address cap is enforced
// against. For fixed-swap it is the only per-order state that persists.
type BuyerTotal struct {
	ID       uint            `json:"-" gorm:"primaryKey"`
	PoolID   int64           `json:"pool_id" gorm:"index:idx_pool_buyer,unique;not null"`
	Address  string          `json:"address" gorm:"index:idx_pool_buyer,unique;not null;size:42"`
	Quantity int64           `json:"quantity"`
	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(36,18)"`
}

func (BuyerTotal) TableName() string {
	return "sale_pool_buyer_totals"
}
