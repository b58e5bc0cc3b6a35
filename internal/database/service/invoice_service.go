package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
	"github.com/invomate/backend-go/internal/export"
)

// InvoiceService defines the interface for invoice business logic.
// Create, export and share are the plan-gated flows: the permission check
// completes before the side effect, and tracking runs only after it succeeds.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, user *models.User, invoice *models.Invoice) error
	GetInvoice(user *models.User, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(user *models.User, limit, offset int) ([]models.Invoice, int64, error)
	UpdateInvoice(user *models.User, invoice *models.Invoice) error
	DeleteInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID) error

	ExportInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID, format config.ExportFormat) (*export.Result, error)
	ShareInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID, recipient string) error
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	subscription SubscriptionService
	exporter     export.Exporter
	logger       *slog.Logger
}

// NewInvoiceService creates a new invoice service instance
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	subscription SubscriptionService,
	exporter export.Exporter,
	logger *slog.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		subscription: subscription,
		exporter:     exporter,
		logger:       logger,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, user *models.User, invoice *models.Invoice) error {
	if !s.subscription.CanCreateResource(ctx, user, config.ResourceInvoices) {
		info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceInvoices)
		return config.NewQuotaError(
			string(config.ResourceInvoices),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Invoice limit reached for the %s plan", info.PlanName),
		)
	}

	if invoice.Template == "" {
		invoice.Template = "default"
	}
	if !s.subscription.CanUseTemplate(user.SubscriptionTier, invoice.Template) {
		return ErrTemplateNotAllowed
	}

	invoice.UserID = user.ID
	if err := s.invoiceRepo.Create(invoice); err != nil {
		s.logger.Error("❌ [InvoiceService] Failed to create invoice", "user_id", user.ID, "error", err)
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceInvoices, invoice.ID.String(), map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"template":       invoice.Template,
	})

	s.logger.Info("✅ [InvoiceService] Invoice created",
		"user_id", user.ID,
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
	)
	return nil
}

func (s *invoiceService) GetInvoice(user *models.User, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.UserID != user.ID {
		return nil, ErrNotResourceOwner
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(user *models.User, limit, offset int) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.ListByUser(user.ID, limit, offset)
}

func (s *invoiceService) UpdateInvoice(user *models.User, invoice *models.Invoice) error {
	existing, err := s.invoiceRepo.FindByID(invoice.ID)
	if err != nil {
		return err
	}
	if existing.UserID != user.ID {
		return ErrNotResourceOwner
	}

	if invoice.Template != "" && !s.subscription.CanUseTemplate(user.SubscriptionTier, invoice.Template) {
		return ErrTemplateNotAllowed
	}

	invoice.UserID = user.ID
	return s.invoiceRepo.Update(invoice)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByID(invoiceID)
	if err != nil {
		return err
	}
	if invoice.UserID != user.ID {
		return ErrNotResourceOwner
	}

	if err := s.invoiceRepo.Delete(invoiceID); err != nil {
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceInvoices, invoiceID.String(), map[string]interface{}{
		"deleted": true,
	})

	return nil
}

func (s *invoiceService) ExportInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID, format config.ExportFormat) (*export.Result, error) {
	invoice, err := s.GetInvoice(user, invoiceID)
	if err != nil {
		return nil, err
	}

	// The permission check must resolve before the export side effect begins
	if !s.subscription.CanExportFormat(ctx, user, format) {
		info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceInvoiceExports)
		return nil, config.NewQuotaError(
			string(config.ResourceInvoiceExports),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Export format %s is not available on the %s plan or the export limit is reached", format, info.PlanName),
		)
	}

	result, err := s.exporter.Export(invoice, format)
	if err != nil {
		s.logger.Error("❌ [InvoiceService] Export failed",
			"user_id", user.ID,
			"invoice_id", invoiceID,
			"format", format,
			"error", err,
		)
		return nil, err
	}

	// Tracking runs only after the export succeeded, so failed attempts are
	// never counted. A tracking failure does not undo the export.
	s.subscription.TrackAction(ctx, user, config.ResourceInvoiceExports, invoiceID.String(), map[string]interface{}{
		"format": string(format),
	})

	s.logger.Info("✅ [InvoiceService] Invoice exported",
		"user_id", user.ID,
		"invoice_id", invoiceID,
		"format", format,
	)
	return result, nil
}

func (s *invoiceService) ShareInvoice(ctx context.Context, user *models.User, invoiceID uuid.UUID, recipient string) error {
	invoice, err := s.GetInvoice(user, invoiceID)
	if err != nil {
		return err
	}

	if !s.subscription.CanUseFeature(user.SubscriptionTier, "email_share") {
		info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceEmailShares)
		return config.NewQuotaError(
			string(config.ResourceEmailShares),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Email sharing is not available on the %s plan", info.PlanName),
		)
	}

	if info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceEmailShares); s.subscription.HasReachedLimit(user.SubscriptionTier, config.ResourceEmailShares, info.CurrentUsage) {
		return config.NewQuotaError(
			string(config.ResourceEmailShares),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Email share limit reached for the %s plan", info.PlanName),
		)
	}

	// Mail delivery is the external collaborator; the backend records the
	// share and flips the invoice state
	if err := s.invoiceRepo.UpdateStatus(invoiceID, models.InvoiceStatusSent); err != nil {
		s.logger.Error("❌ [InvoiceService] Failed to mark invoice sent", "invoice_id", invoiceID, "error", err)
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceEmailShares, invoiceID.String(), map[string]interface{}{
		"recipient":      recipient,
		"invoice_number": invoice.InvoiceNumber,
	})

	s.logger.Info("✅ [InvoiceService] Invoice shared",
		"user_id", user.ID,
		"invoice_id", invoiceID,
	)
	return nil
}

// Service errors
var (
	ErrTemplateNotAllowed = errors.New("template not available on current plan")
)
