package repository

import (
	"context"
	"errors"

	"chat-relay/backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists chat sessions and their ordered message lists.
type SessionRepository interface {
	// Create inserts an empty session with zero totals.
	Create(ctx context.Context) (*models.ChatSession, error)
	// GetByID fetches a session with its messages eagerly loaded in
	// insertion order. Returns ErrSessionNotFound for unknown ids.
	GetByID(ctx context.Context, id uint) (*models.ChatSession, error)
	// AppendTurn atomically inserts a user/assistant message pair and
	// increments the session's running totals. All-or-nothing: a failure
	// anywhere leaves no messages and unchanged totals.
	AppendTurn(ctx context.Context, sessionID uint, userMsg, assistantMsg *models.Message, tokenDelta int, costDelta decimal.Decimal) error
}

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context) (*models.ChatSession, error) {
	session := &models.ChatSession{
		CreatedAt:   models.Now(),
		TotalTokens: 0,
		TotalCost:   decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *GormSessionRepository) GetByID(ctx context.Context, id uint) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.id ASC")
		}).
		First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) AppendTurn(ctx context.Context, sessionID uint, userMsg, assistantMsg *models.Message, tokenDelta int, costDelta decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		userMsg.SessionID = sessionID
		assistantMsg.SessionID = sessionID

		// The user message must precede the reply in insertion order
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return err
		}

		return tx.Model(&session).Updates(map[string]interface{}{
			"total_tokens": gorm.Expr("total_tokens + ?", tokenDelta),
			"total_cost":   gorm.Expr("total_cost + ?", costDelta),
		}).Error
	})
}
