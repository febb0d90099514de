package user

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// RoleAdmin grants access to the engine's admin surface.
const RoleAdmin = "admin"

// User is a wallet address known to the engine.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Address   string         `json:"address" gorm:"uniqueIndex;not null;size:42"`
	Nonce     string         `json:"nonce" gorm:"size:64"`
	Roles     pq.StringArray `json:"roles" gorm:"type:text[]"`
	IsActive  *bool          `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets default roles.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Roles == nil {
		u.Roles = pq.StringArray{"user"}
	}
	return nil
}

// HasRole reports whether the user carries role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
