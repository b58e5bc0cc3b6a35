package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// Scan implements the sql.Scanner interface for InvoiceStatus
func (s *InvoiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceStatusDraft
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = InvoiceStatus(v)
	case string:
		*s = InvoiceStatus(v)
	default:
		return errors.New("invalid invoice status type")
	}
	return nil
}

// Value implements the driver.Valuer interface for InvoiceStatus
func (s InvoiceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Invoice represents an invoice owned by a user
type Invoice struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	ClientID      *uint          `gorm:"index" json:"client_id,omitempty"`
	InvoiceNumber string         `gorm:"not null;size:64;index" json:"invoice_number"`
	Template      string         `gorm:"not null;size:64;default:default" json:"template"`
	Status        InvoiceStatus  `gorm:"not null;default:DRAFT;index" json:"status"`
	IssueDate     time.Time      `gorm:"not null" json:"issue_date"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	Currency      string         `gorm:"size:8;default:INR" json:"currency"`
	Subtotal      int64          `gorm:"not null;default:0" json:"subtotal"`  // minor units
	TaxTotal      int64          `gorm:"not null;default:0" json:"tax_total"` // minor units
	Total         int64          `gorm:"not null;default:0" json:"total"`     // minor units
	Notes         string         `gorm:"size:2048" json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is a single line on an invoice
type InvoiceItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID   *uint     `gorm:"index" json:"product_id,omitempty"`
	Description string    `gorm:"not null;size:512" json:"description"`
	Quantity    float64   `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   int64     `gorm:"not null;default:0" json:"unit_price"` // minor units
	TaxRate     float64   `gorm:"not null;default:0" json:"tax_rate"`   // percent
	Amount      int64     `gorm:"not null;default:0" json:"amount"`     // minor units
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (InvoiceItem) TableName() string {
	return "invoice_items"
}
