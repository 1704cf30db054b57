package api

import (
	"net/http"
	"strconv"

	"chat-relay/backend/internal/service"
	apperrors "chat-relay/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ChatController handles the chat session endpoints
type ChatController struct {
	chatService *service.ChatService
}

// NewChatController creates a new chat controller
func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// RegisterRoutes registers the chat routes on the given group
func (c *ChatController) RegisterRoutes(r gin.IRouter) {
	chatGroup := r.Group("/chat")
	{
		chatGroup.POST("/start", c.StartChat)
		chatGroup.POST("/:session_id/message", c.SendMessage)
		chatGroup.GET("/:session_id/history", c.GetHistory)
	}
}

// StartChat creates a new empty chat session
func (c *ChatController) StartChat(ctx *gin.Context) {
	sessionID, err := c.chatService.StartChat(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

// SendMessage relays a user message through the completion provider and
// returns the assistant reply
func (c *ChatController) SendMessage(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	var request struct {
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "Invalid request format"))
		return
	}

	reply, err := c.chatService.SendMessage(ctx.Request.Context(), sessionID, request.Message)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"response": reply})
}

// messageView is the history projection of a stored message
type messageView struct {
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Tokens  int             `json:"tokens"`
	Cost    decimal.Decimal `json:"cost"`
}

// GetHistory returns the ordered messages and running totals of a session
func (c *ChatController) GetHistory(ctx *gin.Context) {
	sessionID, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	session, err := c.chatService.GetHistory(ctx.Request.Context(), sessionID)
	if err != nil {
		ctx.Error(err)
		return
	}

	messages := make([]messageView, len(session.Messages))
	for i, m := range session.Messages {
		messages[i] = messageView{
			Role:    m.Role,
			Content: m.Content,
			Tokens:  m.Tokens,
			Cost:    m.Cost,
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"messages":     messages,
		"total_tokens": session.TotalTokens,
		"total_cost":   session.TotalCost,
	})
}

func sessionIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("session_id"), 10, 32)
	if err != nil {
		ctx.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "Invalid session ID"))
		return 0, false
	}
	return uint(id), true
}
