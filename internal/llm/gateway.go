package llm

import (
	"context"
	"errors"
	"time"

	apperrors "chat-relay/backend/pkg/errors"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the provider responds without any
// choices to read a reply from.
var ErrEmptyCompletion = errors.New("completion response contained no choices")

// Gateway submits a conversation to the completion provider and returns the
// reply plus total token usage. It is synchronous and blocking: no retries,
// no streaming. Every failure mode, including timeout expiry, surfaces as a
// gateway error.
type Gateway struct {
	client  Client
	model   string
	timeout time.Duration
}

// NewGateway wraps a completion client with the model identifier and an
// upper bound on call latency.
func NewGateway(client Client, model string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Complete submits the ordered conversation and returns the assistant reply
// together with the provider's total token count for the call.
func (g *Gateway) Complete(ctx context.Context, conversation []openai.ChatCompletionMessage) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: conversation,
	})
	if err != nil {
		return "", 0, apperrors.NewGatewayError(err)
	}

	if len(resp.Choices) == 0 {
		return "", 0, apperrors.NewGatewayError(ErrEmptyCompletion)
	}

	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}
