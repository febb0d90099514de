package whitelist

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines whitelist database operations.
type Repository interface {
	CreateList(list *List) error
	GetList(listID int64) (*List, error)
	SaveList(list *List) error
	CountLists() (int64, error)
	AddAddresses(listID int64, addresses []string) error
	GetAddresses(listID int64) ([]string, error)
	HasAddress(listID int64, address string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed whitelist repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateList(list *List) error {
	if list == nil {
		return errors.New("list cannot be nil")
	}
	return r.db.Create(list).Error
}

func (r *repository) GetList(listID int64) (*List, error) {
	var list List
	err := r.db.Where("list_id = ?", listID).First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

func (r *repository) SaveList(list *List) error {
	if list == nil {
		return errors.New("list cannot be nil")
	}
	return r.db.Save(list).Error
}

func (r *repository) CountLists() (int64, error) {
	var count int64
	err := r.db.Model(&List{}).Count(&count).Error
	return count, err
}

func (r *repository) AddAddresses(listID int64, addresses []string) error {
	if len(addresses) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(addresses))
	for _, addr := range addresses {
		// Admins paste checksummed addresses; lookups run lowercased.
		entries = append(entries, Entry{ListID: listID, Address: strings.ToLower(addr)})
	}
	// Re-adding an address to the same list is a no-op.
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
}

func (r *repository) GetAddresses(listID int64) ([]string, error) {
	var addresses []string
	err := r.db.Model(&Entry{}).Where("list_id = ?", listID).Order("id").Pluck("address", &addresses).Error
	return addresses, err
}

func (r *repository) HasAddress(listID int64, address string) (bool, error) {
	var count int64
	err := r.db.Model(&Entry{}).Where("list_id = ? AND address = ?", listID, strings.ToLower(address)).Count(&count).Error
	return count > 0, err
}
