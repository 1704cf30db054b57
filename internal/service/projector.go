package service

import (
	"chat-relay/backend/internal/models"

	"github.com/sashabaranov/go-openai"
)

// ProjectConversation builds the ordered role/content sequence submitted to
// the completion provider: the stored history verbatim, followed by the new
// user utterance. The full history is always resubmitted; there is no
// truncation or filtering policy.
func ProjectConversation(history []models.Message, userText string) []openai.ChatCompletionMessage {
	conversation := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		conversation = append(conversation, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return append(conversation, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
}
