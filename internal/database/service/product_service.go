package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
)

// ProductService defines the interface for product business logic
type ProductService interface {
	CreateProduct(ctx context.Context, user *models.User, product *models.Product) error
	GetProduct(user *models.User, productID uint) (*models.Product, error)
	ListProducts(user *models.User) ([]models.Product, error)
	UpdateProduct(user *models.User, product *models.Product) error
	DeleteProduct(ctx context.Context, user *models.User, productID uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	subscription SubscriptionService
	logger       *slog.Logger
}

// NewProductService creates a new product service instance
func NewProductService(
	productRepo repository.ProductRepository,
	subscription SubscriptionService,
	logger *slog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		subscription: subscription,
		logger:       logger,
	}
}

func (s *productService) CreateProduct(ctx context.Context, user *models.User, product *models.Product) error {
	if !s.subscription.CanCreateResource(ctx, user, config.ResourceProducts) {
		info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceProducts)
		return config.NewQuotaError(
			string(config.ResourceProducts),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Product limit reached for the %s plan", info.PlanName),
		)
	}

	product.UserID = user.ID
	if err := s.productRepo.Create(product); err != nil {
		s.logger.Error("❌ [ProductService] Failed to create product", "user_id", user.ID, "error", err)
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceProducts, fmt.Sprintf("%d", product.ID), map[string]interface{}{
		"name": product.Name,
	})

	s.logger.Info("✅ [ProductService] Product created", "user_id", user.ID, "product_id", product.ID)
	return nil
}

func (s *productService) GetProduct(user *models.User, productID uint) (*models.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != user.ID {
		return nil, ErrNotResourceOwner
	}
	return product, nil
}

func (s *productService) ListProducts(user *models.User) ([]models.Product, error) {
	return s.productRepo.ListByUser(user.ID)
}

func (s *productService) UpdateProduct(user *models.User, product *models.Product) error {
	existing, err := s.productRepo.FindByID(product.ID)
	if err != nil {
		return err
	}
	if existing.UserID != user.ID {
		return ErrNotResourceOwner
	}

	product.UserID = user.ID
	return s.productRepo.Update(product)
}

func (s *productService) DeleteProduct(ctx context.Context, user *models.User, productID uint) error {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return err
	}
	if product.UserID != user.ID {
		return ErrNotResourceOwner
	}

	if err := s.productRepo.Delete(productID); err != nil {
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceProducts, fmt.Sprintf("%d", productID), map[string]interface{}{
		"deleted": true,
	})

	return nil
}
