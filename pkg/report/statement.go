// Package report renders plain-text statements and reports from ledger
// data. It is a read-only consumer: nothing here mutates state.
package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/ledger"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

// FormatAmount renders a decimal amount in the given currency, honoring the
// currency's symbol and fraction digits.
func FormatAmount(v decimal.Decimal, code string) string {
	cur := *money.New(0, code).Currency()
	return cur.Formatter().Format(v.Shift(int32(cur.Fraction)).IntPart())
}

const dateLayout = "2006-01-02"

// LoanStatement renders a statement for a single loan: terms, payment
// history and the remaining balance.
func LoanStatement(loan *models.Loan, client *models.Client, cfg *models.Config) string {
	cur := cfg.Currency
	var b strings.Builder

	if cfg.CompanyName != "" {
		fmt.Fprintf(&b, "%s\n", cfg.CompanyName)
		if cfg.SupportPhone != "" {
			fmt.Fprintf(&b, "Support: %s\n", cfg.SupportPhone)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "LOAN STATEMENT #%s\n", shortID(loan.ID.String()))
	fmt.Fprintf(&b, "Client: %s (%s)\n", client.Name, client.Phone)
	fmt.Fprintf(&b, "Status: %s\n\n", loan.Status)

	fmt.Fprintf(&b, "Principal:    %s\n", FormatAmount(loan.Amount, cur))
	fmt.Fprintf(&b, "Interest:     %s%%\n", loan.InterestRate.String())
	fmt.Fprintf(&b, "Total due:    %s\n", FormatAmount(loan.TotalAmount, cur))
	fmt.Fprintf(&b, "Start date:   %s\n", loan.StartDate.Format(dateLayout))
	fmt.Fprintf(&b, "Due date:     %s\n", loan.DueDate.Format(dateLayout))
	fmt.Fprintf(&b, "Installments: %d (%s)\n\n", loan.Installments, loan.Frequency)

	if len(loan.Payments) == 0 {
		b.WriteString("No payments recorded.\n")
	} else {
		b.WriteString("Payments:\n")
		for _, p := range loan.Payments {
			fmt.Fprintf(&b, "  %s  %-7s  %s\n", p.Date.Format(dateLayout), p.Type, FormatAmount(p.Amount, cur))
		}
	}

	fmt.Fprintf(&b, "\nTotal paid:   %s\n", FormatAmount(loan.TotalPaid(), cur))
	fmt.Fprintf(&b, "Remaining:    %s\n", FormatAmount(loan.RemainingBalance(), cur))
	fmt.Fprintf(&b, "Progress:     %.0f%%\n", loan.ProgressPct())

	return b.String()
}

// PortfolioReport renders a one-line-per-loan report plus portfolio totals.
// filterLabel names the status filter the caller applied ("ALL" for none).
func PortfolioReport(loans []*models.Loan, clients []*models.Client, filterLabel string, cfg *models.Config) string {
	cur := cfg.Currency
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID.String()] = c.Name
	}

	var b strings.Builder
	if cfg.CompanyName != "" {
		fmt.Fprintf(&b, "%s\n", cfg.CompanyName)
	}
	fmt.Fprintf(&b, "LOAN PORTFOLIO (%s)\n\n", filterLabel)

	for _, loan := range loans {
		name := names[loan.ClientID.String()]
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "%-8s %-20s %-12s due %s  total %s  remaining %s\n",
			shortID(loan.ID.String()), name, loan.Status,
			loan.DueDate.Format(dateLayout),
			FormatAmount(loan.TotalAmount, cur),
			FormatAmount(loan.RemainingBalance(), cur))
	}

	stats := ledger.Summarize(loans)
	fmt.Fprintf(&b, "\nLoans: %d  (pending %d, late %d, paid %d)\n", stats.Total, stats.Pending, stats.Late, stats.Paid)
	fmt.Fprintf(&b, "Outstanding: %s\n", FormatAmount(stats.Outstanding, cur))
	fmt.Fprintf(&b, "Projected profit: %s\n", FormatAmount(stats.ProjectedProfit, cur))

	return b.String()
}

func shortID(id string) string {
	if len(id) > 6 {
		return strings.ToUpper(id[:6])
	}
	return strings.ToUpper(id)
}
