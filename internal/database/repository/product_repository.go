package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/invomate/backend-go/internal/database/models"
)

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(product *models.Product) error
	FindByID(id uint) (*models.Product, error)
	ListByUser(userID uint) ([]models.Product, error)
	CountByUser(userID uint) (int64, error)
	Update(product *models.Product) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) FindByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListByUser(userID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// Repository errors
var (
	ErrProductNotFound = errors.New("product not found")
)
