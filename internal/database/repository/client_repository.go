package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/invomate/backend-go/internal/database/models"
)

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(client *models.Client) error
	FindByID(id uint) (*models.Client, error)
	ListByUser(userID uint) ([]models.Client, error)
	CountByUser(userID uint) (int64, error)
	Update(client *models.Client) error
	Delete(id uint) error
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository instance
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

func (r *clientRepository) FindByID(id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.First(&client, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) ListByUser(userID uint) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&clients).Error
	return clients, err
}

func (r *clientRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Client{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *clientRepository) Update(client *models.Client) error {
	return r.db.Save(client).Error
}

func (r *clientRepository) Delete(id uint) error {
	return r.db.Delete(&models.Client{}, id).Error
}

// Repository errors
var (
	ErrClientNotFound = errors.New("client not found")
)
