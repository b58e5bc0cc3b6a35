package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/invomate/backend-go/internal/config"
)

// User represents the user domain entity
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string         `gorm:"not null" json:"full_name"`
	Password  string         `gorm:"not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Subscription fields; the payment collaborator writes these through the
	// subscription endpoint, everything else only reads them
	SubscriptionTier    config.PlanTier           `gorm:"not null;default:free" json:"subscription_tier"`
	SubscriptionStatus  config.SubscriptionStatus `gorm:"not null;default:active" json:"subscription_status"`
	SubscriptionEndDate *time.Time                `json:"subscription_end_date,omitempty"`
	PaymentCustomerID   *string                   `json:"payment_customer_id,omitempty"`

	// Relationships
	Clients  []Client  `gorm:"foreignKey:UserID" json:"clients,omitempty"`
	Products []Product `gorm:"foreignKey:UserID" json:"products,omitempty"`
	Invoices []Invoice `gorm:"foreignKey:UserID" json:"invoices,omitempty"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// GetPlan returns the catalog plan for this user's tier
func (u *User) GetPlan() config.Plan {
	return config.GetPlan(u.SubscriptionTier)
}

// GetPlanLimits returns the plan limitations for this user's tier
func (u *User) GetPlanLimits() config.Limitations {
	return config.GetResourceLimits(u.SubscriptionTier)
}
