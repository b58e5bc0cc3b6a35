package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invomate/backend-go/internal/database/models"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	FindByID(id uuid.UUID) (*models.Invoice, error)
	ListByUser(userID uint, limit, offset int) ([]models.Invoice, int64, error)
	CountByUser(userID uint) (int64, error)
	Update(invoice *models.Invoice) error
	UpdateStatus(id uuid.UUID, status models.InvoiceStatus) error
	Delete(id uuid.UUID) error
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *invoiceRepository) FindByID(id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Preload("Items").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByUser(userID uint, limit, offset int) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	baseQuery := r.db.Model(&models.Invoice{}).Where("user_id = ?", userID)

	if err := baseQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *invoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

func (r *invoiceRepository) UpdateStatus(id uuid.UUID, status models.InvoiceStatus) error {
	result := r.db.Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status)

	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}

	return result.Error
}

func (r *invoiceRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&models.Invoice{}).Error
}

// Repository errors
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
)
