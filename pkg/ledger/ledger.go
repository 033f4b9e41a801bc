// Package ledger implements the loan and capital ledger engine: loan
// issuance against the shared capital pool, payment collection, status
// transitions, renegotiation and risk classification.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/store"
)

// ErrInvalidState signals a mutation that is not legal in the loan's current
// status, e.g. a payment against a renegotiated or cancelled loan.
var ErrInvalidState = errors.New("operation not allowed in current loan status")

// ErrAlreadyRenegotiated signals that a loan already has a successor loan.
var ErrAlreadyRenegotiated = errors.New("loan already has a successor")

var (
	hundred = decimal.NewFromInt(100)

	// paidTolerance absorbs rounding on the final installment: a loan is
	// considered fully paid once cumulative payments reach totalAmount - 0.1.
	paidTolerance = decimal.NewFromFloat(0.1)
)

// Ledger handles the business logic for clients, loans and the capital pool.
// It assumes a single serialized actor; operations are not safe for
// concurrent use against the same store.
type Ledger struct {
	storage store.Storage
	log     *zap.Logger
}

// New creates a Ledger backed by the given Storage implementation.
func New(s store.Storage, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{storage: s, log: log}
}

// CapitalBalance returns the current liquid capital available to lend.
func (l *Ledger) CapitalBalance() (decimal.Decimal, error) {
	cfg, err := l.storage.GetConfig()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg.CapitalBalance, nil
}

// SetCapitalBalance overrides the capital balance with an absolute value.
// Used for manual correction; no validation of sign or magnitude.
func (l *Ledger) SetCapitalBalance(value decimal.Decimal) error {
	cfg, err := l.storage.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg.CapitalBalance = value
	cfg.Initialized = true
	if err := l.storage.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	l.log.Info("capital balance overridden", zap.String("balance", value.StringFixed(2)))
	return nil
}

// AdjustCapital applies a relative change to the capital balance: positive
// credits, negative debits. Negative balances are permitted; they signal
// over-commitment to the caller rather than being rejected.
func (l *Ledger) AdjustCapital(delta decimal.Decimal) error {
	cfg, err := l.storage.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg.CapitalBalance = cfg.CapitalBalance.Add(delta)
	if err := l.storage.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// CreateLoan issues a new loan to a client and debits the capital pool by the
// principal, exactly once, at creation. The interest rate is a percentage
// applied once over the term: totalAmount = principal * (1 + rate/100).
//
// The ledger does not block over-commitment (principal greater than the
// current balance); warning the operator is the caller's responsibility.
func (l *Ledger) CreateLoan(clientID uuid.UUID, principal, interestRatePct decimal.Decimal, termDays int, frequency models.PaymentFrequency, notes string) (*models.Loan, error) {
	if _, err := l.storage.GetClient(clientID); err != nil {
		return nil, err
	}

	now := time.Now()
	loan := &models.Loan{
		ID:           uuid.New(),
		ClientID:     clientID,
		Amount:       principal,
		InterestRate: interestRatePct,
		TotalAmount:  principal.Add(principal.Mul(interestRatePct).Div(hundred)),
		StartDate:    now,
		DueDate:      now.AddDate(0, 0, termDays),
		Frequency:    frequency,
		Installments: frequency.DefaultInstallments(),
		Status:       models.StatusPending,
		Payments:     []models.Payment{},
		Notes:        notes,
	}

	if err := l.issue(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// issue is the shared creation path: it persists the loan and debits the
// capital pool by the principal. Renegotiation reuses it.
func (l *Ledger) issue(loan *models.Loan) error {
	if err := l.storage.SaveLoan(loan); err != nil {
		return fmt.Errorf("failed to store loan: %w", err)
	}
	if err := l.AdjustCapital(loan.Amount.Neg()); err != nil {
		return fmt.Errorf("failed to debit capital: %w", err)
	}
	l.log.Info("loan issued",
		zap.String("loan_id", loan.ID.String()),
		zap.String("client_id", loan.ClientID.String()),
		zap.String("principal", loan.Amount.StringFixed(2)),
		zap.String("total", loan.TotalAmount.StringFixed(2)))
	return nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// ListLoans retrieves loans in insertion order, optionally filtered by
// status. An empty filter returns all loans.
func (l *Ledger) ListLoans(filter models.LoanStatus) ([]*models.Loan, error) {
	loans, err := l.storage.ListLoans()
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return loans, nil
	}
	filtered := []*models.Loan{}
	for _, loan := range loans {
		if loan.Status == filter {
			filtered = append(filtered, loan)
		}
	}
	return filtered, nil
}

// PaymentResult reports the outcome of recording a payment. BecamePaid is
// the transition signal for the caller-side profit distribution flow: it is
// true only on the payment that moved the loan into PAID.
type PaymentResult struct {
	Loan       *models.Loan    `json:"loan"`
	Payment    models.Payment  `json:"payment"`
	BecamePaid bool            `json:"becamePaid"`
	Profit     decimal.Decimal `json:"profit"`
}

// AddPayment appends a payment to the loan, credits the capital pool by the
// payment amount and re-evaluates the loan status. Every amount collected
// returns to the lendable pool, including overpayments; there is no
// rejection path for paying past the remaining balance.
//
// Payments against frozen loans (RENEGOTIATED or CANCELLED) fail with
// ErrInvalidState.
func (l *Ledger) AddPayment(loanID uuid.UUID, amount decimal.Decimal, date time.Time, ptype models.PaymentType, notes string) (*PaymentResult, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status.IsFrozen() {
		return nil, fmt.Errorf("add payment to loan %s in status %s: %w", loanID, loan.Status, ErrInvalidState)
	}

	payment := models.Payment{
		ID:     uuid.New(),
		LoanID: loan.ID,
		Amount: amount,
		Date:   date,
		Type:   ptype,
		Notes:  notes,
	}
	loan.Payments = append(loan.Payments, payment)

	becamePaid := false
	if loan.TotalPaid().GreaterThanOrEqual(loan.TotalAmount.Sub(paidTolerance)) {
		if next, ok := models.Transition(loan.Status, models.EventPaidOff); ok {
			loan.Status = next
			becamePaid = true
		}
	}

	if err := l.storage.SaveLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}
	if err := l.AdjustCapital(amount); err != nil {
		return nil, fmt.Errorf("failed to credit capital: %w", err)
	}

	l.log.Info("payment recorded",
		zap.String("loan_id", loan.ID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.Bool("became_paid", becamePaid))

	return &PaymentResult{
		Loan:       loan,
		Payment:    payment,
		BecamePaid: becamePaid,
		Profit:     loan.TotalAmount.Sub(loan.Amount),
	}, nil
}

// SweepLateLoans transitions every PENDING loan whose due date has passed
// into LATE. Comparison is by calendar day in UTC. The sweep is idempotent
// and never touches PAID, RENEGOTIATED or CANCELLED loans. It must run
// before any dashboard aggregation reads statuses.
func (l *Ledger) SweepLateLoans(today time.Time) (int, error) {
	loans, err := l.storage.ListLoans()
	if err != nil {
		return 0, err
	}

	day := dateOnly(today)
	swept := 0
	for _, loan := range loans {
		if loan.Status != models.StatusPending || !dateOnly(loan.DueDate).Before(day) {
			continue
		}
		next, ok := models.Transition(loan.Status, models.EventOverdue)
		if !ok {
			continue
		}
		loan.Status = next
		if err := l.storage.SaveLoan(loan); err != nil {
			return swept, fmt.Errorf("failed to mark loan %s late: %w", loan.ID, err)
		}
		swept++
	}

	if swept > 0 {
		l.log.Info("late sweep complete", zap.Int("loans_marked_late", swept))
	}
	return swept, nil
}

// Renegotiate retires a loan and issues a successor carrying its remaining
// balance as the new principal, plus the extra interest. Only PENDING and
// LATE loans may be renegotiated, and only once.
//
// Capital accounting: the successor goes through the shared creation path,
// which debits the remaining principal, but no physical cash leaves the
// account when a debt is re-papered, so the same amount is credited right
// back. Net capital effect of a renegotiation is zero.
func (l *Ledger) Renegotiate(loanID uuid.UUID, extraDays int, extraRatePct decimal.Decimal, now time.Time) (*models.Loan, error) {
	src, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	next, ok := models.Transition(src.Status, models.EventRenegotiated)
	if !ok {
		return nil, fmt.Errorf("renegotiate loan %s in status %s: %w", loanID, src.Status, ErrInvalidState)
	}

	loans, err := l.storage.ListLoans()
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if loan.OriginalLoanID != nil && *loan.OriginalLoanID == src.ID {
			return nil, fmt.Errorf("renegotiate loan %s: %w", loanID, ErrAlreadyRenegotiated)
		}
	}

	remaining := src.RemainingBalance()

	src.Status = next
	if err := l.storage.SaveLoan(src); err != nil {
		return nil, fmt.Errorf("failed to retire loan: %w", err)
	}

	successor := &models.Loan{
		ID:             uuid.New(),
		ClientID:       src.ClientID,
		Amount:         remaining,
		InterestRate:   extraRatePct,
		TotalAmount:    remaining.Add(remaining.Mul(extraRatePct).Div(hundred)),
		StartDate:      now,
		DueDate:        now.AddDate(0, 0, extraDays),
		Frequency:      src.Frequency,
		Installments:   1,
		Status:         models.StatusPending,
		Payments:       []models.Payment{},
		Notes:          "Renegotiation of the previous loan.",
		OriginalLoanID: &src.ID,
	}
	if err := l.issue(successor); err != nil {
		return nil, err
	}

	// The debt was re-papered, not disbursed: cancel the creation debit.
	if err := l.AdjustCapital(remaining); err != nil {
		return nil, fmt.Errorf("failed to recredit capital: %w", err)
	}

	l.log.Info("loan renegotiated",
		zap.String("source_loan_id", src.ID.String()),
		zap.String("successor_loan_id", successor.ID.String()),
		zap.String("carried_balance", remaining.StringFixed(2)))

	return successor, nil
}

// CancelLoan freezes a loan without settling it. Cancellation is an
// administrative correction, not a financial event: the creation debit is
// not written back and recorded payments keep their capital credits.
func (l *Ledger) CancelLoan(loanID uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	next, ok := models.Transition(loan.Status, models.EventCancelled)
	if !ok {
		return nil, fmt.Errorf("cancel loan %s in status %s: %w", loanID, loan.Status, ErrInvalidState)
	}
	loan.Status = next
	if err := l.storage.SaveLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to cancel loan: %w", err)
	}
	l.log.Info("loan cancelled", zap.String("loan_id", loan.ID.String()))
	return loan, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
