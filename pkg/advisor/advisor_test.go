package advisor

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/ledger"
)

func TestAnalyzePortfolio_NoClientFallsBack(t *testing.T) {
	a := New(nil, nil)
	got := a.AnalyzePortfolio(context.Background(), ledger.PortfolioStats{})
	assert.Equal(t, FallbackMessage, got)
}

func TestBuildPrompt(t *testing.T) {
	stats := ledger.PortfolioStats{
		Total:       8,
		Pending:     4,
		Late:        2,
		Paid:        2,
		Outstanding: decimal.NewFromFloat(1234.50),
	}

	prompt := buildPrompt(stats)

	assert.Contains(t, prompt, "Total loans: 8")
	assert.Contains(t, prompt, "Late: 2")
	assert.Contains(t, prompt, "Outstanding amount: 1234.50")
	assert.Contains(t, prompt, "Delinquency rate: 25.0%")
	assert.Contains(t, prompt, "microcredit")
}
