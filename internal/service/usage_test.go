package service

import (
	"testing"

	"chat-relay/backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultAccountant(t *testing.T) *Accountant {
	t.Helper()
	rate, err := decimal.NewFromString("0.00015")
	require.NoError(t, err)
	return NewAccountant(rate)
}

func TestCostForTokens(t *testing.T) {
	a := defaultAccountant(t)

	tests := []struct {
		name   string
		tokens int
		want   string
	}{
		{"zero tokens", 0, "0"},
		{"fifty tokens", 50, "0.0000075"},
		{"one thousand tokens", 1000, "0.00015"},
		{"large count", 1234567, "0.18518505"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.CostForTokens(tt.tokens)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got.String(), tt.want)
		})
	}
}

func TestCostForTokensNoDrift(t *testing.T) {
	a := defaultAccountant(t)

	// Summing many small per-call costs must equal the cost of the total,
	// which raw floating point does not guarantee.
	total := decimal.Zero
	for i := 0; i < 10000; i++ {
		total = total.Add(a.CostForTokens(7))
	}
	assert.True(t, total.Equal(a.CostForTokens(70000)),
		"accumulated %s, want %s", total.String(), a.CostForTokens(70000).String())
}

func TestFoldIntoTotals(t *testing.T) {
	session := models.ChatSession{
		TotalTokens: 100,
		TotalCost:   decimal.RequireFromString("0.000015"),
	}

	updated := FoldIntoTotals(session, 50, decimal.RequireFromString("0.0000075"))

	assert.Equal(t, 150, updated.TotalTokens)
	assert.True(t, updated.TotalCost.Equal(decimal.RequireFromString("0.0000225")))

	// Input is untouched
	assert.Equal(t, 100, session.TotalTokens)
	assert.True(t, session.TotalCost.Equal(decimal.RequireFromString("0.000015")))
}

func TestFoldIntoTotalsOrderIndependent(t *testing.T) {
	a := defaultAccountant(t)

	deltas := []int{50, 33, 7, 1200, 999}

	forward := models.ChatSession{TotalCost: decimal.Zero}
	for _, d := range deltas {
		forward = FoldIntoTotals(forward, d, a.CostForTokens(d))
	}

	backward := models.ChatSession{TotalCost: decimal.Zero}
	for i := len(deltas) - 1; i >= 0; i-- {
		backward = FoldIntoTotals(backward, deltas[i], a.CostForTokens(deltas[i]))
	}

	assert.Equal(t, forward.TotalTokens, backward.TotalTokens)
	assert.True(t, forward.TotalCost.Equal(backward.TotalCost))
}
