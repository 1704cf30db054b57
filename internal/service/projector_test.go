package service

import (
	"testing"

	"chat-relay/backend/internal/models"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestProjectConversationEmptyHistory(t *testing.T) {
	conversation := ProjectConversation(nil, "hi")

	assert.Equal(t, []openai.ChatCompletionMessage{
		{Role: "user", Content: "hi"},
	}, conversation)
}

func TestProjectConversationPreservesOrder(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "Hello"},
		{Role: models.RoleAssistant, Content: "Hi there"},
		{Role: models.RoleUser, Content: "How are you?"},
		{Role: models.RoleAssistant, Content: "Doing well"},
	}

	conversation := ProjectConversation(history, "Tell me a joke")

	assert.Equal(t, []openai.ChatCompletionMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "user", Content: "How are you?"},
		{Role: "assistant", Content: "Doing well"},
		{Role: "user", Content: "Tell me a joke"},
	}, conversation)
}

func TestProjectConversationDoesNotMutateHistory(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "Hello"},
	}

	_ = ProjectConversation(history, "again")

	assert.Len(t, history, 1)
	assert.Equal(t, "Hello", history[0].Content)
}
