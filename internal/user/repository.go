package user

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines user database operations.
type Repository interface {
	Create(user *User) error
	GetByAddress(address string) (*User, error)
	Update(user *User) error
	List(limit, offset int) ([]*User, error)
	UpdateNonce(address, nonce string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed user repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(user *User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	return r.db.Create(user).Error
}

func (r *repository) GetByAddress(address string) (*User, error) {
	if address == "" {
		return nil, errors.New("address cannot be empty")
	}
	var user User
	err := r.db.Where("address = ?", address).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) Update(user *User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	return r.db.Save(user).Error
}

func (r *repository) List(limit, offset int) ([]*User, error) {
	var users []*User
	err := r.db.Limit(limit).Offset(offset).Order("id").Find(&users).Error
	return users, err
}

func (r *repository) UpdateNonce(address, nonce string) error {
	return r.db.Model(&User{}).Where("address = ?", address).Update("nonce", nonce).Error
}
