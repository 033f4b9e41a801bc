package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	StatusPending      LoanStatus = "PENDING"
	StatusLate         LoanStatus = "LATE"
	StatusPaid         LoanStatus = "PAID"
	StatusRenegotiated LoanStatus = "RENEGOTIATED"
	StatusCancelled    LoanStatus = "CANCELLED"
)

// IsActive reports whether a loan in this status still counts toward the
// outstanding portfolio. Renegotiated loans handed their balance to a
// successor, so they are excluded along with paid and cancelled ones.
func (s LoanStatus) IsActive() bool {
	return s == StatusPending || s == StatusLate
}

// IsFrozen reports whether a loan in this status accepts no further payments.
func (s LoanStatus) IsFrozen() bool {
	return s == StatusRenegotiated || s == StatusCancelled
}

// LoanEvent is something that happens to a loan and may change its status.
type LoanEvent string

const (
	EventPaidOff      LoanEvent = "paid_off"
	EventOverdue      LoanEvent = "overdue"
	EventRenegotiated LoanEvent = "renegotiated"
	EventCancelled    LoanEvent = "cancelled"
)

// transitions is the single authority on which status changes are legal.
// Terminal statuses (PAID, RENEGOTIATED, CANCELLED) have no outgoing edges.
var transitions = map[LoanStatus]map[LoanEvent]LoanStatus{
	StatusPending: {
		EventPaidOff:      StatusPaid,
		EventOverdue:      StatusLate,
		EventRenegotiated: StatusRenegotiated,
		EventCancelled:    StatusCancelled,
	},
	StatusLate: {
		EventPaidOff:      StatusPaid,
		EventRenegotiated: StatusRenegotiated,
		EventCancelled:    StatusCancelled,
	},
}

// Transition returns the status a loan moves to when the event occurs, or
// ok=false when the event is not legal in the current status.
func Transition(from LoanStatus, event LoanEvent) (LoanStatus, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

// PaymentFrequency is informational: it drives the suggested installment
// count but never changes the total owed.
type PaymentFrequency string

const (
	FrequencySingle   PaymentFrequency = "SINGLE"
	FrequencyWeekly   PaymentFrequency = "WEEKLY"
	FrequencyBiweekly PaymentFrequency = "BIWEEKLY"
	FrequencyMonthly  PaymentFrequency = "MONTHLY"
)

// DefaultInstallments returns the installment count implied by the frequency.
func (f PaymentFrequency) DefaultInstallments() int {
	switch f {
	case FrequencyWeekly:
		return 4
	case FrequencyBiweekly:
		return 2
	default:
		return 1
	}
}

// RiskLevel is a per-client risk tier derived from late-loan counts.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// PaymentType classifies a payment for display. It does not change arithmetic.
type PaymentType string

const (
	PaymentPartial PaymentType = "PARTIAL"
	PaymentFull    PaymentType = "FULL"
)

type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Payment struct {
	ID     uuid.UUID       `json:"id"`
	LoanID uuid.UUID       `json:"loanId"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Type   PaymentType     `json:"type"`
	Notes  string          `json:"notes,omitempty"`
}

type Loan struct {
	ID             uuid.UUID        `json:"id"`
	ClientID       uuid.UUID        `json:"clientId"`
	Amount         decimal.Decimal  `json:"amount"`       // principal disbursed
	InterestRate   decimal.Decimal  `json:"interestRate"` // percentage, applied once over the term
	TotalAmount    decimal.Decimal  `json:"totalAmount"`  // principal + interest, fixed at creation
	StartDate      time.Time        `json:"startDate"`
	DueDate        time.Time        `json:"dueDate"`
	Frequency      PaymentFrequency `json:"frequency"`
	Installments   int              `json:"installments"`
	Status         LoanStatus       `json:"status"`
	Payments       []Payment        `json:"payments"`
	Notes          string           `json:"notes,omitempty"`
	OriginalLoanID *uuid.UUID       `json:"originalLoanId,omitempty"` // lineage to the loan this one superseded
}

// TotalPaid returns the cumulative amount of all payments.
func (l *Loan) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range l.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// RemainingBalance returns the total owed minus cumulative payments.
// Overpayments make it negative; callers clamp for display if needed.
func (l *Loan) RemainingBalance() decimal.Decimal {
	return l.TotalAmount.Sub(l.TotalPaid())
}

// ProgressPct returns the repayment progress as a percentage, capped at 100.
func (l *Loan) ProgressPct() float64 {
	if !l.TotalAmount.IsPositive() {
		return 0
	}
	pct, _ := l.TotalPaid().Div(l.TotalAmount).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}

// Clone returns a deep copy so stored records never alias caller state.
func (l *Loan) Clone() *Loan {
	c := *l
	c.Payments = make([]Payment, len(l.Payments))
	copy(c.Payments, l.Payments)
	if l.OriginalLoanID != nil {
		id := *l.OriginalLoanID
		c.OriginalLoanID = &id
	}
	return &c
}

// DefaultCurrency is used when the config record has no currency set.
const DefaultCurrency = "BRL"

// Config is the single persisted configuration record. CapitalBalance is the
// liquid capital available to lend; every loan disbursement debits it and
// every payment credits it.
type Config struct {
	CapitalBalance decimal.Decimal `json:"capitalBalance"`
	Initialized    bool            `json:"initialized"`
	SecurityPIN    string          `json:"securityPin,omitempty"`
	Currency       string          `json:"currency"`
	CompanyName    string          `json:"companyName,omitempty"`
	SupportPhone   string          `json:"supportPhone,omitempty"`
}
