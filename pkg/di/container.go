package di

import (
	"context"
	"fmt"

	"chat-relay/backend/internal/llm"
	"chat-relay/backend/internal/repository"
	"chat-relay/backend/internal/service"
	"chat-relay/backend/pkg/config"
	"chat-relay/backend/pkg/logger"
	"chat-relay/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB          *gorm.DB
	Logger      *logger.Logger
	Config      *config.Config
	Repository  repository.SessionRepository
	Gateway     *llm.Gateway
	ChatService *service.ChatService
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	// The gateway credential comes through the secrets manager so that a
	// Vault-backed deployment and a plain env deployment behave the same.
	if err := secrets.Init(log); err != nil {
		return nil, fmt.Errorf("failed to initialize secrets manager: %w", err)
	}

	apiKey := secrets.GetSecretWithDefault(context.Background(), "openai_api_key", cfg.OpenAI.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("completion provider credential is not configured")
	}

	client := llm.NewClient(apiKey, cfg.OpenAI.BaseURL)
	gateway := llm.NewGateway(client, cfg.OpenAI.Model, cfg.OpenAI.Timeout)

	repo := repository.NewGormSessionRepository(db)
	accountant := service.NewAccountant(cfg.Cost.RatePerThousandTokens)
	chatService := service.NewChatService(repo, gateway, accountant)

	return &Container{
		DB:          db,
		Logger:      log,
		Config:      cfg,
		Repository:  repo,
		Gateway:     gateway,
		ChatService: chatService,
	}, nil
}
