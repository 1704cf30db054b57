package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-relay/backend/internal/models"
	"chat-relay/backend/internal/repository"
	"chat-relay/backend/internal/service"
	apperrors "chat-relay/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubGateway struct {
	reply  string
	tokens int
	err    error
}

func (g *stubGateway) Complete(ctx context.Context, conversation []openai.ChatCompletionMessage) (string, int, error) {
	if g.err != nil {
		return "", 0, apperrors.NewGatewayError(g.err)
	}
	return g.reply, g.tokens, nil
}

func testEngine(t *testing.T, gateway service.CompletionGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChatSession{}, &models.Message{}))

	repo := repository.NewGormSessionRepository(db)
	accountant := service.NewAccountant(decimal.RequireFromString("0.00015"))
	chatService := service.NewChatService(repo, gateway, accountant)

	engine := gin.New()
	engine.Use(apperrors.ErrorHandler())
	NewChatController(chatService).RegisterRoutes(engine)
	return engine
}

func doRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStartChatEndpoint(t *testing.T) {
	engine := testEngine(t, &stubGateway{})

	w := doRequest(engine, http.MethodPost, "/chat/start", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SessionID uint `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.SessionID)
}

func TestSendMessageEndpoint(t *testing.T) {
	engine := testEngine(t, &stubGateway{reply: "Hi there", tokens: 50})

	start := doRequest(engine, http.MethodPost, "/chat/start", nil)
	require.Equal(t, http.StatusOK, start.Code)
	var started struct {
		SessionID uint `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(engine, http.MethodPost,
		fmt.Sprintf("/chat/%d/message", started.SessionID),
		gin.H{"message": "Hello"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hi there", resp.Response)

	// History shows the full turn and totals as JSON numbers
	history := doRequest(engine, http.MethodGet,
		fmt.Sprintf("/chat/%d/history", started.SessionID), nil)
	require.Equal(t, http.StatusOK, history.Code)

	var historyResp struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content string          `json:"content"`
			Tokens  int             `json:"tokens"`
			Cost    decimal.Decimal `json:"cost"`
		} `json:"messages"`
		TotalTokens int             `json:"total_tokens"`
		TotalCost   decimal.Decimal `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &historyResp))

	assert.Equal(t, 50, historyResp.TotalTokens)
	assert.True(t, historyResp.TotalCost.Equal(decimal.RequireFromString("0.0000075")),
		"total cost %s", historyResp.TotalCost.String())

	require.Len(t, historyResp.Messages, 2)
	assert.Equal(t, "user", historyResp.Messages[0].Role)
	assert.Equal(t, "Hello", historyResp.Messages[0].Content)
	assert.Zero(t, historyResp.Messages[0].Tokens)
	assert.True(t, historyResp.Messages[0].Cost.IsZero())
	assert.Equal(t, "assistant", historyResp.Messages[1].Role)
	assert.Equal(t, "Hi there", historyResp.Messages[1].Content)
	assert.Equal(t, 50, historyResp.Messages[1].Tokens)
}

func TestSendMessageUnknownSessionReturns404(t *testing.T) {
	engine := testEngine(t, &stubGateway{reply: "never", tokens: 1})

	w := doRequest(engine, http.MethodPost, "/chat/999/message", gin.H{"message": "Hello"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeSessionNotFound)
}

func TestSendMessageMissingBodyReturns400(t *testing.T) {
	engine := testEngine(t, &stubGateway{})

	start := doRequest(engine, http.MethodPost, "/chat/start", nil)
	var started struct {
		SessionID uint `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(engine, http.MethodPost,
		fmt.Sprintf("/chat/%d/message", started.SessionID), gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidRequest)
}

func TestSendMessageGatewayFailureReturns502AndWritesNothing(t *testing.T) {
	engine := testEngine(t, &stubGateway{err: errors.New("upstream unavailable")})

	start := doRequest(engine, http.MethodPost, "/chat/start", nil)
	var started struct {
		SessionID uint `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(engine, http.MethodPost,
		fmt.Sprintf("/chat/%d/message", started.SessionID),
		gin.H{"message": "Hello"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeGatewayError)

	history := doRequest(engine, http.MethodGet,
		fmt.Sprintf("/chat/%d/history", started.SessionID), nil)
	require.Equal(t, http.StatusOK, history.Code)

	var historyResp struct {
		Messages    []json.RawMessage `json:"messages"`
		TotalTokens int               `json:"total_tokens"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &historyResp))
	assert.Empty(t, historyResp.Messages)
	assert.Zero(t, historyResp.TotalTokens)
}

func TestGetHistoryFreshSession(t *testing.T) {
	engine := testEngine(t, &stubGateway{})

	start := doRequest(engine, http.MethodPost, "/chat/start", nil)
	var started struct {
		SessionID uint `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(engine, http.MethodGet,
		fmt.Sprintf("/chat/%d/history", started.SessionID), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages    []json.RawMessage `json:"messages"`
		TotalTokens int               `json:"total_tokens"`
		TotalCost   decimal.Decimal   `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Messages)
	assert.Zero(t, resp.TotalTokens)
	assert.True(t, resp.TotalCost.IsZero())
}

func TestGetHistoryUnknownSessionReturns404(t *testing.T) {
	engine := testEngine(t, &stubGateway{})

	w := doRequest(engine, http.MethodGet, "/chat/999/history", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeSessionNotFound)
}

func TestInvalidSessionIDReturns400(t *testing.T) {
	engine := testEngine(t, &stubGateway{})

	w := doRequest(engine, http.MethodGet, "/chat/not-a-number/history", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidRequest)
}
