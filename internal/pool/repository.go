package pool

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository defines sale-pool registry database operations.
type Repository interface {
	Create(pool *Pool) error
	GetByPoolID(poolID int64) (*Pool, error)
	Save(pool *Pool) error
	ListPoolIDs() ([]int64, error)
	List(limit, offset int) ([]*Pool, error)

	ReplaceWhitelistIDs(poolID int64, listIDs []int64) error
	GetWhitelistIDs(poolID int64) ([]int64, error)

	SetInlineEntries(poolID int64, addresses []string, allowed bool) error
	GetInlineEntry(poolID int64, address string) (*InlineEntry, error)

	ReplaceSaleItems(poolID int64, itemIDs []int64) error
	CountSaleItems(poolID int64) (total int64, sold int64, err error)

	GetBuyerTotal(poolID int64, address string) (*BuyerTotal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed pool registry repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(pool *Pool) error {
	if pool == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Create(pool).Error
}

func (r *repository) GetByPoolID(poolID int64) (*Pool, error) {
	var pool Pool
	err := r.db.Where("pool_id = ?", poolID).First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pool, nil
}

func (r *repository) Save(pool *Pool) error {
	if pool == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Save(pool).Error
}

// ListPoolIDs returns pool ids in insertion order.
func (r *repository) ListPoolIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&Pool{}).Order("id").Pluck("pool_id", &ids).Error
	return ids, err
}

func (r *repository) List(limit, offset int) ([]*Pool, error) {
	var pools []*Pool
	err := r.db.Order("id").Limit(limit).Offset(offset).Find(&pools).Error
	return pools, err
}

func (r *repository) ReplaceWhitelistIDs(poolID int64, listIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", poolID).Delete(&PoolWhitelist{}).Error; err != nil {
			return err
		}
		for _, listID := range listIDs {
			if err := tx.Create(&PoolWhitelist{PoolID: poolID, ListID: listID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) GetWhitelistIDs(poolID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&PoolWhitelist{}).Where("pool_id = ?", poolID).Order("id").Pluck("list_id", &ids).Error
	return ids, err
}

func (r *repository) SetInlineEntries(poolID int64, addresses []string, allowed bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, addr := range addresses {
			// Stored lowercased so checksummed admin input matches the
			// lowercased caller addresses at lookup time.
			addr = strings.ToLower(addr)
			entry := InlineEntry{PoolID: poolID, Address: addr, Allowed: allowed}
			err := tx.Where("pool_id = ? AND address = ?", poolID, addr).
				Assign(map[string]interface{}{"allowed": allowed}).
				FirstOrCreate(&entry).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) GetInlineEntry(poolID int64, address string) (*InlineEntry, error) {
	var entry InlineEntry
	err := r.db.Where("pool_id = ? AND address = ?", poolID, strings.ToLower(address)).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ReplaceSaleItems(poolID int64, itemIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", poolID).Delete(&SaleItem{}).Error; err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			if err := tx.Create(&SaleItem{PoolID: poolID, ItemID: itemID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) CountSaleItems(poolID int64) (int64, int64, error) {
	var total, sold int64
	if err := r.db.Model(&SaleItem{}).Where("pool_id = ?", poolID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&SaleItem{}).Where("pool_id = ? AND sold = ?", poolID, true).Count(&sold).Error; err != nil {
		return 0, 0, err
	}
	return total, sold, nil
}

func (r *repository) GetBuyerTotal(poolID int64, address string) (*BuyerTotal, error) {
	var total BuyerTotal
	err := r.db.Where("pool_id = ? AND address = ?", poolID, address).First(&total).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &total, nil
}
