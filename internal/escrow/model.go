package escrow

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a money or item movement through the engine account.
type EntryKind string

const (
	KindDeposit  EntryKind = "deposit"  // buyer payment pulled into escrow
	KindRefund   EntryKind = "refund"   // escrow returned to a buyer
	KindPayout   EntryKind = "payout"   // sale items or tokens delivered to a buyer
	KindWithdraw EntryKind = "withdraw" // admin withdrawal of collected funds
)

// Entry is one movement in the settlement ledger. Every pull, refund, payout
// and withdrawal leaves a row, so refund liability stays auditable even
// though withdrawals and refunds draw from the same balance.
type Entry struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	PoolID    int64           `json:"pool_id" gorm:"index"`
	Kind      EntryKind       `json:"kind" gorm:"index;not null;size:16"`
	Asset     string          `json:"asset" gorm:"index;not null;size:42"`
	Address   string          `json:"address" gorm:"not null;size:42"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(36,18)"`
	Quantity  int64           `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Entry) TableName() string {
	return "escrow_entries"
}

// Setting is a single keyed engine setting (withdraw address).
type Setting struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null;size:64"`
	Value     string    `json:"value" gorm:"size:128"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "engine_settings"
}

const settingWithdrawAddress = "withdraw_address"
