package config

// PlanTier represents subscription tier levels
type PlanTier string

const (
	PlanFree     PlanTier = "free"
	PlanPro      PlanTier = "pro"
	PlanBusiness PlanTier = "business"
)

// PlanTiers lists all tiers in ascending order
var PlanTiers = []PlanTier{PlanFree, PlanPro, PlanBusiness}

// SubscriptionStatus represents the billing state of a user subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCanceled  SubscriptionStatus = "canceled"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// ResourceType identifies a countable entity subject to plan quotas
type ResourceType string

const (
	ResourceClients        ResourceType = "clients"
	ResourceProducts       ResourceType = "products"
	ResourceInvoices       ResourceType = "invoices"
	ResourceInvoiceExports ResourceType = "invoice_exports"
	ResourceEmailShares    ResourceType = "email_shares"
)

// CounterResources are the resource types tracked as explicit persisted counters.
// The remaining types are counted live from their resource tables.
var CounterResources = map[ResourceType]bool{
	ResourceInvoiceExports: true,
	ResourceEmailShares:    true,
}

// IsValidResourceType checks if a resource type is known to the catalog
func IsValidResourceType(rt ResourceType) bool {
	switch rt {
	case ResourceClients, ResourceProducts, ResourceInvoices, ResourceInvoiceExports, ResourceEmailShares:
		return true
	}
	return false
}

// ExportFormat identifies an invoice export target
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportDrive ExportFormat = "drive"
	ExportCSV   ExportFormat = "csv"
	ExportXLSX  ExportFormat = "xlsx"
	ExportJSON  ExportFormat = "json"
)

// AutoSyncFrequency controls how often cloud backup sync runs
type AutoSyncFrequency string

const (
	SyncManual AutoSyncFrequency = "manual"
	Sync30Min  AutoSyncFrequency = "30min"
	Sync5Min   AutoSyncFrequency = "5min"
)

// SyncIntervalMinutes returns the backup sync cadence for a frequency, or 0 for manual
func (f AutoSyncFrequency) SyncIntervalMinutes() int {
	switch f {
	case Sync30Min:
		return 30
	case Sync5Min:
		return 5
	default:
		return 0
	}
}

// SupportLevel identifies the support channel bundled with a plan
type SupportLevel string

const (
	SupportNone     SupportLevel = "none"
	SupportEmail    SupportLevel = "email"
	SupportPriority SupportLevel = "priority"
)

// BillingOption describes the price of a plan for one billing cycle
type BillingOption struct {
	Price    int64  `json:"price"` // minor units (paise)
	Currency string `json:"currency"`
	Interval string `json:"interval"`
	Savings  string `json:"savings,omitempty"`
}

// Unlimited is the sentinel quota value meaning "no limit".
// It is the only negative value the catalog ever emits.
const Unlimited = -1

// Limitations defines the resource quotas and feature gates for a plan.
// Integer quotas use -1 to mean unlimited.
type Limitations struct {
	ExportFormats      []ExportFormat           `json:"export_formats"`
	AutoSyncFrequency  AutoSyncFrequency        `json:"auto_sync_frequency"`
	TemplateAccess     []string                 `json:"template_access"`
	CustomTemplates    bool                     `json:"custom_templates"`
	SupportLevel       SupportLevel             `json:"support_level"`
	InvoicesSaveExport int                      `json:"invoices_save_export"`
	Clients            int                      `json:"clients"`
	Products           int                      `json:"products"`
	ExportToDrive      bool                     `json:"export_to_drive"`
	EmailShare         bool                     `json:"email_share"`
	Billing            map[string]BillingOption `json:"billing"`

	// PermissionChecksPerMinute throttles the pre-flight check endpoints,
	// not the gated actions themselves. Zero or negative means unthrottled.
	PermissionChecksPerMinute int `json:"permission_checks_per_minute"`
}

// Plan is an immutable subscription catalog entry
type Plan struct {
	ID          PlanTier    `json:"id"`
	Name        string      `json:"name"`
	Features    []string    `json:"features"`
	Limitations Limitations `json:"limitations"`
}

// Plans is the single source of truth for every quota and feature gate.
// No other component may hard-code a limit value.
var Plans = map[PlanTier]Plan{
	PlanFree: {
		ID:   PlanFree,
		Name: "Free",
		Features: []string{
			"1 client",
			"1 product",
			"3 invoice saves & exports",
			"PDF export",
			"Default template",
		},
		Limitations: Limitations{
			ExportFormats:      []ExportFormat{ExportPDF},
			AutoSyncFrequency:  SyncManual,
			TemplateAccess:     []string{"default"},
			CustomTemplates:    false,
			SupportLevel:       SupportNone,
			InvoicesSaveExport: 3,
			Clients:            1,
			Products:           1,
			ExportToDrive:      false,
			EmailShare:         false,
			Billing: map[string]BillingOption{
				"monthly": {Price: 0, Currency: "INR", Interval: "month"},
			},
			PermissionChecksPerMinute: 60,
		},
	},
	PlanPro: {
		ID:   PlanPro,
		Name: "Pro",
		Features: []string{
			"50 clients",
			"50 products",
			"50 invoice saves & exports",
			"PDF, Drive & CSV export",
			"Modern & formal templates",
			"Email sharing",
			"Auto-sync every 30 minutes",
			"Email support",
		},
		Limitations: Limitations{
			ExportFormats:      []ExportFormat{ExportPDF, ExportDrive, ExportCSV},
			AutoSyncFrequency:  Sync30Min,
			TemplateAccess:     []string{"default", "modern", "formal"},
			CustomTemplates:    false,
			SupportLevel:       SupportEmail,
			InvoicesSaveExport: 50,
			Clients:            50,
			Products:           50,
			ExportToDrive:      true,
			EmailShare:         true,
			Billing: map[string]BillingOption{
				"monthly": {Price: 29900, Currency: "INR", Interval: "month"},
				"yearly":  {Price: 299900, Currency: "INR", Interval: "year", Savings: "16%"},
			},
			PermissionChecksPerMinute: 240,
		},
	},
	PlanBusiness: {
		ID:   PlanBusiness,
		Name: "Business",
		Features: []string{
			"Unlimited clients",
			"Unlimited products",
			"Unlimited invoice saves & exports",
			"All export formats",
			"All templates + custom templates",
			"Email sharing",
			"Auto-sync every 5 minutes",
			"Priority support",
		},
		Limitations: Limitations{
			ExportFormats:      []ExportFormat{ExportPDF, ExportDrive, ExportCSV, ExportXLSX, ExportJSON},
			AutoSyncFrequency:  Sync5Min,
			TemplateAccess:     []string{"default", "modern", "formal", "custom"},
			CustomTemplates:    true,
			SupportLevel:       SupportPriority,
			InvoicesSaveExport: Unlimited,
			Clients:            Unlimited,
			Products:           Unlimited,
			ExportToDrive:      true,
			EmailShare:         true,
			Billing: map[string]BillingOption{
				"monthly": {Price: 59900, Currency: "INR", Interval: "month"},
				"yearly":  {Price: 599900, Currency: "INR", Interval: "year", Savings: "16%"},
			},
			PermissionChecksPerMinute: Unlimited,
		},
	},
}

// GetPlan returns the plan for a given tier, defaulting to free if unknown
func GetPlan(tier PlanTier) Plan {
	if plan, ok := Plans[tier]; ok {
		return plan
	}
	return Plans[PlanFree]
}

// GetResourceLimits returns the limitations record for a given tier
func GetResourceLimits(tier PlanTier) Limitations {
	return GetPlan(tier).Limitations
}

// NextTier returns the next tier up, or business for the top tier
func NextTier(tier PlanTier) PlanTier {
	switch tier {
	case PlanFree:
		return PlanPro
	default:
		return PlanBusiness
	}
}

// IsValidTier checks if a tier is valid
func IsValidTier(tier PlanTier) bool {
	_, ok := Plans[tier]
	return ok
}

// QuotaFor maps a resource type to its quota in the limitations record.
// Invoice saves, invoice exports and email shares share a single quota.
func (l Limitations) QuotaFor(rt ResourceType) int {
	switch rt {
	case ResourceClients:
		return l.Clients
	case ResourceProducts:
		return l.Products
	case ResourceInvoices, ResourceInvoiceExports, ResourceEmailShares:
		return l.InvoicesSaveExport
	default:
		return Unlimited
	}
}

// AllowsExportFormat checks membership in the plan's export format set
func (l Limitations) AllowsExportFormat(format ExportFormat) bool {
	for _, f := range l.ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// AllowsTemplate checks membership in the plan's template access set.
// The default template is always allowed.
func (l Limitations) AllowsTemplate(name string) bool {
	if name == "default" {
		return true
	}
	for _, t := range l.TemplateAccess {
		if t == name {
			return true
		}
	}
	return false
}

// QuotaError represents a quota limit exceeded error
type QuotaError struct {
	Resource string
	Limit    int64
	Current  int64
	Message  string
}

func (e *QuotaError) Error() string {
	return e.Message
}

// NewQuotaError creates a new quota error
func NewQuotaError(resource string, limit, current int64, message string) *QuotaError {
	return &QuotaError{
		Resource: resource,
		Limit:    limit,
		Current:  current,
		Message:  message,
	}
}
