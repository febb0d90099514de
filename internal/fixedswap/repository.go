package fixedswap

import (
	"errors"

	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/pool"
	"gorm.io/gorm"
)

// Repository defines fixed-price swap database operations. Atomically binds
// the repository to a transaction; all writes inside commit or roll back as
// one unit.
type Repository interface {
	Atomically(fn func(Repository) error) error

	GetPool(poolID int64) (*pool.Pool, error)
	SavePool(p *pool.Pool) error

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

// NewRepository creates a gorm-backed swap repository.
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
