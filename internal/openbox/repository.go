package openbox

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines box pool database operations.
type Repository interface {
	Atomically(fn func(Repository) error) error

	CreatePool(p *BoxPool) error
	GetPool(poolID int64) (*BoxPool, error)
	SavePool(p *BoxPool) error

	CreateOpenedBox(box *OpenedBox) error
	GetOpenedBoxes(poolID int64, opener string) ([]*OpenedBox, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed box repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Atomically(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) CreatePool(p *BoxPool) error {
	if p == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Create(p).Error
}

func (r *repository) GetPool(poolID int64) (*BoxPool, error) {
	var p BoxPool
	err := r.db.Where("pool_id = ?", poolID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SavePool(p *BoxPool) error {
	if p == nil {
		return errors.New("pool cannot be nil")
	}
	return r.db.Save(p).Error
}

func (r *repository) CreateOpenedBox(box *OpenedBox) error {
	if box == nil {
		return errors.New("opened box cannot be nil")
	}
	return r.db.Create(box).Error
}

func (r *repository) GetOpenedBoxes(poolID int64, opener string) ([]*OpenedBox, error) {
	var boxes []*OpenedBox
	err := r.db.Where("pool_id = ? AND opener = ?", poolID, opener).Order("item_id").Find(&boxes).Error
	return boxes, err
}
