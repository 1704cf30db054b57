package service

import (
	"chat-relay/backend/internal/models"

	"github.com/shopspring/decimal"
)

var oneThousand = decimal.NewFromInt(1000)

// Accountant converts token counts into monetary cost. All arithmetic is
// decimal; running totals are summed indefinitely over a session's lifetime
// and must not accumulate floating-point drift.
type Accountant struct {
	ratePerThousand decimal.Decimal
}

// NewAccountant creates an accountant billing at the given rate per 1000
// tokens.
func NewAccountant(ratePerThousand decimal.Decimal) *Accountant {
	return &Accountant{ratePerThousand: ratePerThousand}
}

// CostForTokens computes (tokens / 1000) * ratePerThousand.
func (a *Accountant) CostForTokens(tokens int) decimal.Decimal {
	return decimal.NewFromInt(int64(tokens)).Div(oneThousand).Mul(a.ratePerThousand)
}

// FoldIntoTotals returns a copy of session with the usage deltas folded
// into its running totals. The input session is not mutated.
func FoldIntoTotals(session models.ChatSession, tokenDelta int, costDelta decimal.Decimal) models.ChatSession {
	session.TotalTokens += tokenDelta
	session.TotalCost = session.TotalCost.Add(costDelta)
	return session
}
