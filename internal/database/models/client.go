package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a billable customer of a user
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`
	Address   string         `gorm:"size:1024" json:"address,omitempty"`
	GSTIN     string         `gorm:"size:20" json:"gstin,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Client) TableName() string {
	return "clients"
}
