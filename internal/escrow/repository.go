package escrow

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines escrow ledger database operations.
type Repository interface {
	Create(entry *Entry) error
	SumByKind(asset string, kind EntryKind) (decimal.Decimal, error)
	ListByPool(poolID int64, limit, offset int) ([]*Entry, error)
	GetSetting(key string) (string, error)
	PutSetting(key, value string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed escrow repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(entry *Entry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	return r.db.Create(entry).Error
}

func (r *repository) SumByKind(asset string, kind EntryKind) (decimal.Decimal, error) {
	var raw *string
	err := r.db.Model(&Entry{}).
		Where("asset = ? AND kind = ?", asset, kind).
		Select("SUM(amount)").Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) ListByPool(poolID int64, limit, offset int) ([]*Entry, error) {
	var entries []*Entry
	err := r.db.Where("pool_id = ?", poolID).Order("id").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, err
}

func (r *repository) GetSetting(key string) (string, error) {
	var setting Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (r *repository) PutSetting(key, value string) error {
	setting := Setting{Key: key}
	return r.db.Where("key = ?", key).
		Assign(map[string]interface{}{"value": value}).
		FirstOrCreate(&setting).Error
}
