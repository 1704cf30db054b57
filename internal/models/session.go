package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the string layout used for created_at columns. The
// schema stores timestamps as formatted UTC strings rather than native
// timestamp columns.
const TimestampLayout = "2006-01-02 15:04:05.000000"

func init() {
	// Money fields serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ChatSession is a persistent conversation thread. It owns an ordered list
// of messages and carries running usage totals that only the message-send
// path may update.
type ChatSession struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	CreatedAt   string          `json:"created_at" gorm:"column:created_at"`
	TotalTokens int             `json:"total_tokens" gorm:"default:0"`
	TotalCost   decimal.Decimal `json:"total_cost" gorm:"type:numeric(16,8);default:0"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name stable regardless of gorm pluralization.
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// IsEmpty reports whether the session has completed no turns yet. This is
// derived from the message list rather than a stored status column.
func (s *ChatSession) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Message roles. User messages carry zero tokens and cost; the provider's
// usage figure is attributed entirely to the assistant reply.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn entry. Messages are immutable once
// written and are removed only by cascading session deletion.
type Message struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	SessionID uint            `json:"session_id" gorm:"index"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Tokens    int             `json:"tokens"`
	Cost      decimal.Decimal `json:"cost" gorm:"type:numeric(16,8);default:0"`
	CreatedAt string          `json:"created_at" gorm:"column:created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// NewUserMessage builds an unmetered user turn entry.
func NewUserMessage(sessionID uint, content string) *Message {
	return &Message{
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   content,
		Tokens:    0,
		Cost:      decimal.Zero,
		CreatedAt: Now(),
	}
}

// NewAssistantMessage builds an assistant reply entry carrying the token
// count and cost reported for the completion call.
func NewAssistantMessage(sessionID uint, content string, tokens int, cost decimal.Decimal) *Message {
	return &Message{
		SessionID: sessionID,
		Role:      RoleAssistant,
		Content:   content,
		Tokens:    tokens,
		Cost:      cost,
		CreatedAt: Now(),
	}
}

// Now returns the current UTC time in the stored timestamp layout.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}
