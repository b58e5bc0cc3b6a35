package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a sellable item or service line on invoices
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"size:1024" json:"description,omitempty"`
	UnitPrice   int64          `gorm:"not null;default:0" json:"unit_price"` // minor units (paise)
	TaxRate     float64        `gorm:"not null;default:0" json:"tax_rate"`   // percent
	Unit        string         `gorm:"size:50;default:pcs" json:"unit"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}
