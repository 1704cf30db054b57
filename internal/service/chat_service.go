package service

import (
	"context"
	"errors"
	"sync"

	"chat-relay/backend/internal/models"
	"chat-relay/backend/internal/repository"
	apperrors "chat-relay/backend/pkg/errors"

	"github.com/sashabaranov/go-openai"
)

// CompletionGateway is the boundary to the upstream LLM provider: ordered
// conversation in, one reply plus total token count out.
type CompletionGateway interface {
	Complete(ctx context.Context, conversation []openai.ChatCompletionMessage) (string, int, error)
}

// ChatService orchestrates session lifecycle, conversation projection,
// completion calls and usage accounting.
type ChatService struct {
	repo       repository.SessionRepository
	gateway    CompletionGateway
	accountant *Accountant
	locks      *sessionLocks
}

// NewChatService creates a new chat service.
func NewChatService(repo repository.SessionRepository, gateway CompletionGateway, accountant *Accountant) *ChatService {
	return &ChatService{
		repo:       repo,
		gateway:    gateway,
		accountant: accountant,
		locks:      newSessionLocks(),
	}
}

// StartChat creates an empty session and returns its identifier.
func (s *ChatService) StartChat(ctx context.Context) (uint, error) {
	session, err := s.repo.Create(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return session.ID, nil
}

// SendMessage relays one conversation turn: it loads the session, submits
// the accumulated history plus text to the completion provider, accounts
// for the reported usage, and persists the user/assistant pair together
// with the updated totals in one transaction. A failure at any step before
// persistence leaves the session untouched.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uint, text string) (string, error) {
	// Concurrent sends against the same session are serialized so totals
	// cannot lose updates and message order stays deterministic. Sends
	// against different sessions proceed in parallel.
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return "", mapRepositoryError(err, sessionID)
	}

	conversation := ProjectConversation(session.Messages, text)

	reply, tokens, err := s.gateway.Complete(ctx, conversation)
	if err != nil {
		// No partial state: nothing has been written yet.
		return "", err
	}

	cost := s.accountant.CostForTokens(tokens)

	userMsg := models.NewUserMessage(sessionID, text)
	assistantMsg := models.NewAssistantMessage(sessionID, reply, tokens, cost)

	if err := s.repo.AppendTurn(ctx, sessionID, userMsg, assistantMsg, tokens, cost); err != nil {
		return "", mapRepositoryError(err, sessionID)
	}

	return reply, nil
}

// GetHistory returns the session with its ordered messages and running
// totals. Read-only: never mutates session state.
func (s *ChatService) GetHistory(ctx context.Context, sessionID uint) (*models.ChatSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, mapRepositoryError(err, sessionID)
	}
	return session, nil
}

func mapRepositoryError(err error, sessionID uint) error {
	if errors.Is(err, repository.ErrSessionNotFound) {
		return apperrors.NewSessionNotFoundError(sessionID)
	}
	return apperrors.NewStorageError(err)
}

// sessionLocks provides per-session mutual exclusion keyed by session id.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *sessionLocks) acquire(sessionID uint) func() {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
