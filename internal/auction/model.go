package auction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is one auction commitment. It is created by PlaceBid, grown by
// IncreaseBid, given a win quantity once by HandleEndAuction and terminal
// after Claim.
type Bid struct {
	ID       uint  `json:"-" gorm:"primaryKey"`
	PoolID   int64 `json:"pool_id" gorm:"index:idx_pool_bid,unique;not null"`
	BidIndex int64 `json:"bid_index" gorm:"index:idx_pool_bid,unique;not null"`

	Bidder    string          `json:"bidder" gorm:"index;not null;size:42"`
	Quantity  int64           `json:"quantity" gorm:"not null"`
	PriceEach decimal.Decimal `json:"price_each" gorm:"type:decimal(36,18);not null"`

	WinQuantity int64 `json:"win_quantity"`
	IsSettled   bool  `json:"is_settled"` // admin recorded a win quantity for this index
	IsClaimed   bool  `json:"is_claimed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Bid) TableName() string {
	return "auction_bids"
}

// Amount is the escrowed payment backing this bid.
func (b *Bid) Amount() decimal.Decimal {
	return b.PriceEach.Mul(decimal.NewFromInt(b.Quantity))
}

// RefundAmount is what returns to the bidder at claim time.
func (b *Bid) RefundAmount() decimal.Decimal {
	return b.PriceEach.Mul(decimal.NewFromInt(b.Quantity - b.WinQuantity))
}
