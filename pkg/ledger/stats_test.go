package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

func TestDashboard(t *testing.T) {
	l, client := newTestLedger(t)

	_, err := l.CreateLoan(client.ID, decimal.NewFromInt(500), decimal.NewFromInt(0), 0, models.FrequencySingle, "due today")
	require.NoError(t, err)
	_, err = l.CreateLoan(client.ID, decimal.NewFromInt(200), decimal.NewFromInt(0), -3, models.FrequencySingle, "overdue")
	require.NoError(t, err)
	_, err = l.CreateLoan(client.ID, decimal.NewFromInt(300), decimal.NewFromInt(0), 10, models.FrequencySingle, "future")
	require.NoError(t, err)
	_, err = l.SweepLateLoans(time.Now())
	require.NoError(t, err)

	stats, err := l.Dashboard(time.Now())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.ActiveLoans)
	assert.Equal(t, 1, stats.DueToday)
	assert.True(t, stats.AmountDueToday.Equal(decimal.NewFromInt(500)), "got %s", stats.AmountDueToday)
	assert.True(t, stats.AmountLate.Equal(decimal.NewFromInt(200)), "got %s", stats.AmountLate)
}

func TestSummarize(t *testing.T) {
	loans := []*models.Loan{
		{
			Amount:      decimal.NewFromInt(1000),
			TotalAmount: decimal.NewFromInt(1100),
			Status:      models.StatusPending,
			Payments:    []models.Payment{{Amount: decimal.NewFromInt(400)}},
		},
		{
			Amount:      decimal.NewFromInt(500),
			TotalAmount: decimal.NewFromInt(550),
			Status:      models.StatusLate,
		},
		{
			Amount:      decimal.NewFromInt(200),
			TotalAmount: decimal.NewFromInt(220),
			Status:      models.StatusPaid,
			Payments:    []models.Payment{{Amount: decimal.NewFromInt(220)}},
		},
		{
			Amount:      decimal.NewFromInt(300),
			TotalAmount: decimal.NewFromInt(330),
			Status:      models.StatusRenegotiated,
		},
	}

	stats := Summarize(loans)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Late)
	assert.Equal(t, 1, stats.Paid)

	assert.True(t, stats.TotalPrincipal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, stats.TotalProjected.Equal(decimal.NewFromInt(2200)))
	assert.True(t, stats.TotalReceived.Equal(decimal.NewFromInt(620)))
	assert.True(t, stats.ProjectedProfit.Equal(decimal.NewFromInt(200)))

	// Outstanding counts only active loans: (1100-400) + 550.
	assert.True(t, stats.Outstanding.Equal(decimal.NewFromInt(1250)), "got %s", stats.Outstanding)

	assert.InDelta(t, 25.0, stats.DelinquencyRate(), 0.001)
}

func TestDelinquencyRate_EmptyBook(t *testing.T) {
	assert.Equal(t, 0.0, PortfolioStats{}.DelinquencyRate())
}
