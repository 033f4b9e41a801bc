package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

// DashboardStats summarizes what needs attention today. Active means
// PENDING or LATE.
type DashboardStats struct {
	DueToday       int             `json:"dueToday"`
	AmountDueToday decimal.Decimal `json:"amountDueToday"`
	AmountLate     decimal.Decimal `json:"amountLate"`
	ActiveLoans    int             `json:"activeLoans"`
}

// Dashboard aggregates active loans for the given day. Callers must run
// SweepLateLoans first so statuses are normalized; the HTTP layer does.
func (l *Ledger) Dashboard(today time.Time) (*DashboardStats, error) {
	loans, err := l.storage.ListLoans()
	if err != nil {
		return nil, err
	}

	day := dateOnly(today)
	stats := &DashboardStats{
		AmountDueToday: decimal.Zero,
		AmountLate:     decimal.Zero,
	}
	for _, loan := range loans {
		if !loan.Status.IsActive() {
			continue
		}
		stats.ActiveLoans++

		remaining := loan.RemainingBalance()
		if dateOnly(loan.DueDate).Equal(day) {
			stats.DueToday++
			stats.AmountDueToday = stats.AmountDueToday.Add(remaining)
		}
		if loan.Status == models.StatusLate {
			stats.AmountLate = stats.AmountLate.Add(remaining)
		}
	}
	return stats, nil
}

// PortfolioStats aggregates the whole loan book for cash-flow reporting and
// the portfolio advisor.
type PortfolioStats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Late    int `json:"late"`
	Paid    int `json:"paid"`

	TotalPrincipal  decimal.Decimal `json:"totalPrincipal"`  // principal lent out
	TotalProjected  decimal.Decimal `json:"totalProjected"`  // principal + interest across all loans
	TotalReceived   decimal.Decimal `json:"totalReceived"`   // cumulative payments collected
	Outstanding     decimal.Decimal `json:"outstanding"`     // remaining balance of active loans
	ProjectedProfit decimal.Decimal `json:"projectedProfit"` // projected - principal
}

// DelinquencyRate returns the share of late loans as a percentage.
func (s PortfolioStats) DelinquencyRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Late) / float64(s.Total) * 100
}

// Summarize computes portfolio statistics over a set of loans.
func Summarize(loans []*models.Loan) PortfolioStats {
	stats := PortfolioStats{
		TotalPrincipal:  decimal.Zero,
		TotalProjected:  decimal.Zero,
		TotalReceived:   decimal.Zero,
		Outstanding:     decimal.Zero,
		ProjectedProfit: decimal.Zero,
	}
	for _, loan := range loans {
		stats.Total++
		switch loan.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusLate:
			stats.Late++
		case models.StatusPaid:
			stats.Paid++
		}

		stats.TotalPrincipal = stats.TotalPrincipal.Add(loan.Amount)
		stats.TotalProjected = stats.TotalProjected.Add(loan.TotalAmount)
		stats.TotalReceived = stats.TotalReceived.Add(loan.TotalPaid())
		if loan.Status.IsActive() {
			stats.Outstanding = stats.Outstanding.Add(loan.RemainingBalance())
		}
	}
	stats.ProjectedProfit = stats.TotalProjected.Sub(stats.TotalPrincipal)
	return stats
}

// Portfolio summarizes the full loan book from storage.
func (l *Ledger) Portfolio() (PortfolioStats, error) {
	loans, err := l.storage.ListLoans()
	if err != nil {
		return PortfolioStats{}, err
	}
	return Summarize(loans), nil
}
