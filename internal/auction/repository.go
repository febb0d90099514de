package auction

import (
	"errors"

	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/pool"
	"gorm.io/gorm"
)

// Repository defines auction ledger database operations. Atomically runs a
// function against a transaction-bound repository; every write inside it
// commits or rolls back as one unit, including the collaborator transfer
// invoked last.
type Repository interface {
	Atomically(fn func(Repository) error) error

	GetPool(poolID int64) (*pool.Pool, error)
	SavePool(p *pool.Pool) error

	CountBids(poolID int64) (int64, error)
	GetBid(poolID, bidIndex int64) (*Bid, error)
	GetBidsByBidder(poolID int64, bidder string) ([]*Bid, error)
	CreateBid(bid *Bid) error
	SaveBid(bid *Bid) error

	GetBuyerTotal(poolID int64, address string) (*pool.BuyerTotal, error)
	SaveBuyerTotal(total *pool.BuyerTotal) error

	// TakeSaleItems marks the next n unsold sale items sold and returns their
	// item ids in insertion order.
	TakeSaleItems(poolID int64, n int64) ([]int64, error)

	RecordEscrow(entry *escrow.Entry) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed auction repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Atomically(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) GetPool(poolID int64) (*pool.Pool, error) {
	var p pool.Pool
	err := r.db.Where("pool_id = ?", poolID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SavePool(p *pool.Pool) error {
	if p == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Save(p).Error
}

func (r *repository) CountBids(poolID int64) (int64, error) {
	var count int64
	err := r.db.Model(&Bid{}).Where("pool_id = ?", poolID).Count(&count).Error
	return count, err
}

func (r *repository) GetBid(poolID, bidIndex int64) (*Bid, error) {
	var bid Bid
	err := r.db.Where("pool_id = ? AND bid_index = ?", poolID, bidIndex).First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *repository) GetBidsByBidder(poolID int64, bidder string) ([]*Bid, error) {
	var bids []*Bid
	err := r.db.Where("pool_id = ? AND bidder = ?", poolID, bidder).Order("bid_index").Find(&bids).Error
	return bids, err
}

func (r *repository) CreateBid(bid *Bid) error {
	if bid == nil {
		return errors.New("bid cannot be nil")
	}
	return r.db.Create(bid).Error
}

func (r *repository) SaveBid(bid *Bid) error {
	if bid == nil {
		return errors.New("bid cannot be nil")
	}
	return r.db.Save(bid).Error
}

func (r *repository) GetBuyerTotal(poolID int64, address string) (*pool.BuyerTotal, error) {
	var total pool.BuyerTotal
	err := r.db.Where("pool_id = ? AND address = ?", poolID, address).First(&total).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &total, nil
}

func (r *repository) SaveBuyerTotal(total *pool.BuyerTotal) error {
	if total == nil {
		return errors.New("buyer total cannot be nil")
	}
	return r.db.Save(total).Error
}

func (r *repository) TakeSaleItems(poolID int64, n int64) ([]int64, error) {
	var items []pool.SaleItem
	err := r.db.Where("pool_id = ? AND sold = ?", poolID, false).
		Order("id").Limit(int(n)).Find(&items).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for i := range items {
		items[i].Sold = true
		if err := r.db.Save(&items[i]).Error; err != nil {
			return nil, err
		}
		ids = append(ids, items[i].ItemID)
	}
	return ids, nil
}

func (r *repository) RecordEscrow(entry *escrow.Entry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	return r.db.Create(entry).Error
}
