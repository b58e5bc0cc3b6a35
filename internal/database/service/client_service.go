package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
)

// ClientService defines the interface for client business logic
type ClientService interface {
	CreateClient(ctx context.Context, user *models.User, client *models.Client) error
	GetClient(user *models.User, clientID uint) (*models.Client, error)
	ListClients(user *models.User) ([]models.Client, error)
	UpdateClient(user *models.User, client *models.Client) error
	DeleteClient(ctx context.Context, user *models.User, clientID uint) error
}

type clientService struct {
	clientRepo   repository.ClientRepository
	subscription SubscriptionService
	logger       *slog.Logger
}

// NewClientService creates a new client service instance
func NewClientService(
	clientRepo repository.ClientRepository,
	subscription SubscriptionService,
	logger *slog.Logger,
) ClientService {
	return &clientService{
		clientRepo:   clientRepo,
		subscription: subscription,
		logger:       logger,
	}
}

func (s *clientService) CreateClient(ctx context.Context, user *models.User, client *models.Client) error {
	if !s.subscription.CanCreateResource(ctx, user, config.ResourceClients) {
		info := s.subscription.GetUpgradeInfo(ctx, user, config.ResourceClients)
		return config.NewQuotaError(
			string(config.ResourceClients),
			int64(info.Limit),
			info.CurrentUsage,
			fmt.Sprintf("Client limit reached for the %s plan", info.PlanName),
		)
	}

	client.UserID = user.ID
	if err := s.clientRepo.Create(client); err != nil {
		s.logger.Error("❌ [ClientService] Failed to create client", "user_id", user.ID, "error", err)
		return err
	}

	s.subscription.TrackAction(ctx, user, config.ResourceClients, fmt.Sprintf("%d", client.ID), map[string]interface{}{
		"name": client.Name,
	})

	s.logger.Info("✅ [ClientService] Client created", "user_id", user.ID, "client_id", client.ID)
	return nil
}

func (s *clientService) GetClient(user *models.User, clientID uint) (*models.Client, error) {
	client, err := s.clientRepo.FindByID(clientID)
	if err != nil {
		return nil, err
	}
	if client.UserID != user.ID {
		return nil, ErrNotResourceOwner
	}
	return client, nil
}

func (s *clientService) ListClients(user *models.User) ([]models.Client, error) {
	return s.clientRepo.ListByUser(user.ID)
}

func (s *clientService) UpdateClient(user *models.User, client *models.Client) error {
	existing, err := s.clientRepo.FindByID(client.ID)
	if err != nil {
		return err
	}
	if existing.UserID != user.ID {
		return ErrNotResourceOwner
	}

	client.UserID = user.ID
	return s.clientRepo.Update(client)
}

func (s *clientService) DeleteClient(ctx context.Context, user *models.User, clientID uint) error {
	client, err := s.clientRepo.FindByID(clientID)
	if err != nil {
		return err
	}
	if client.UserID != user.ID {
		return ErrNotResourceOwner
	}

	if err := s.clientRepo.Delete(clientID); err != nil {
		return err
	}

	// Deletion frees quota; the cached snapshot must not keep the old count
	s.subscription.TrackAction(ctx, user, config.ResourceClients, fmt.Sprintf("%d", clientID), map[string]interface{}{
		"deleted": true,
	})

	return nil
}

// Service errors
var (
	ErrNotResourceOwner = errors.New("resource does not belong to user")
)
