package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/invomate/backend-go/internal/config"
)

// ResourceUsage is the persisted counter row for explicitly tracked resources
// (invoice_exports, email_shares). One row per user per resource type.
// limit_count mirrors the plan quota at the time of the last increment and is
// the ceiling for the conditional increment.
type ResourceUsage struct {
	ID           uint                `gorm:"primarykey" json:"id"`
	UserID       uint                `gorm:"not null;uniqueIndex:idx_usage_user_type" json:"user_id"`
	ResourceType config.ResourceType `gorm:"not null;size:32;uniqueIndex:idx_usage_user_type" json:"resource_type"`
	CurrentCount int64               `gorm:"not null;default:0" json:"current_count"`
	LimitCount   int64               `gorm:"not null;default:-1" json:"limit_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TableName overrides the table name
func (ResourceUsage) TableName() string {
	return "resource_usage"
}

// UsageLog is an append-only audit record of tracked actions.
// Written once, never mutated; consumed by analytics, never by limit decisions.
type UsageLog struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uint                `gorm:"not null;index" json:"user_id"`
	Action       string              `gorm:"not null;size:64" json:"action"`
	ResourceType config.ResourceType `gorm:"not null;size:32;index" json:"resource_type"`
	ResourceID   string              `gorm:"size:64" json:"resource_id,omitempty"`
	UserTier     config.PlanTier     `gorm:"not null;size:16" json:"user_tier"`
	Details      string              `gorm:"type:text" json:"details,omitempty"` // JSON blob
	CreatedAt    time.Time           `json:"created_at"`
}

// TableName overrides the table name
func (UsageLog) TableName() string {
	return "usage_logs"
}

// UsageCounts is a per-user snapshot of current resource counts.
// clients/products/invoices are live table counts; invoice_exports and
// email_shares come from the resource_usage counters.
type UsageCounts struct {
	Clients        int64 `json:"clients"`
	Products       int64 `json:"products"`
	Invoices       int64 `json:"invoices"`
	InvoiceExports int64 `json:"invoice_exports"`
	EmailShares    int64 `json:"email_shares"`
}

// Get returns the count for a resource type
func (c UsageCounts) Get(rt config.ResourceType) int64 {
	switch rt {
	case config.ResourceClients:
		return c.Clients
	case config.ResourceProducts:
		return c.Products
	case config.ResourceInvoices:
		return c.Invoices
	case config.ResourceInvoiceExports:
		return c.InvoiceExports
	case config.ResourceEmailShares:
		return c.EmailShares
	default:
		return 0
	}
}
