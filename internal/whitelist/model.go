package whitelist

import (
	"time"

	"gorm.io/gorm"
)

// List is a named address set. ListID is assigned sequentially starting at 0
// so pools can reference lists by their insertion order.
type List struct {
	ID        uint           `json:"-" gorm:"primaryKey"`
	ListID    int64          `json:"list_id" gorm:"uniqueIndex;not null"`
	Title     string         `json:"title" gorm:"size:128"`
	Allow     bool           `json:"allow" gorm:"default:true"` // deny-listed lists never validate
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (List) TableName() string {
	return "whitelist_lists"
}

// Entry is one address inside a list.
type Entry struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	ListID    int64     `json:"list_id" gorm:"index:idx_whitelist_entry,unique;not null"`
	Address   string    `json:"address" gorm:"index:idx_whitelist_entry,unique;not null;size:42"`
	CreatedAt time.Time `json:"created_at"`
}

func (Entry) TableName() string {
	return "whitelist_entries"
}
