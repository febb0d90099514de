package rarityclaim

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines claim engine database operations.
type Repository interface {
	Atomically(fn func(Repository) error) error

	CreatePool(p *ClaimPool) error
	GetPool(poolID int64) (*ClaimPool, error)
	SavePool(p *ClaimPool) error

	ReplaceAllocations(poolID int64, allocations []RarityAllocation) error
	GetAllocations(poolID int64) ([]RarityAllocation, error)
	GetAllocation(poolID, rarity int64) (*RarityAllocation, error)

	CreateClaimedItem(item *ClaimedItem) error
	GetClaimedItem(poolID, itemID int64) (*ClaimedItem, error)
	GetClaimedItems(poolID int64, address string) ([]*ClaimedItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed claim repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Atomically(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) CreatePool(p *ClaimPool) error {
	if p == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Create(p).Error
}

func (r *repository) GetPool(poolID int64) (*ClaimPool, error) {
	var p ClaimPool
	err := r.db.Where("pool_id = ?", poolID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SavePool(p *ClaimPool) error {
	if p == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Save(p).Error
}

func (r *repository) ReplaceAllocations(poolID int64, allocations []RarityAllocation) error {
	if err := r.db.Where("pool_id = ?", poolID).Delete(&RarityAllocation{}).Error; err != nil {
		return err
	}
	for i := range allocations {
		allocations[i].PoolID = poolID
		if err := r.db.Create(&allocations[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) GetAllocations(poolID int64) ([]RarityAllocation, error) {
	var allocations []RarityAllocation
	err := r.db.Where("pool_id = ?", poolID).Order("id").Find(&allocations).Error
	return allocations, err
}

func (r *repository) GetAllocation(poolID, rarity int64) (*RarityAllocation, error) {
	var allocation RarityAllocation
	err := r.db.Where("pool_id = ? AND rarity = ?", poolID, rarity).First(&allocation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &allocation, nil
}

func (r *repository) CreateClaimedItem(item *ClaimedItem) error {
	if item == nil {
		return errors.New("claimed item cannot be nil")
	}
	return r.db.Create(item).Error
}

func (r *repository) GetClaimedItem(poolID, itemID int64) (*ClaimedItem, error) {
	var item ClaimedItem
	err := r.db.Where("pool_id = ? AND item_id = ?", poolID, itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetClaimedItems(poolID int64, address string) ([]*ClaimedItem, error) {
	var items []*ClaimedItem
	err := r.db.Where("pool_id = ? AND address = ?", poolID, address).Order("item_id").Find(&items).Error
	return items, err
}
