package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusLate.IsActive())
	assert.False(t, StatusPaid.IsActive())
	assert.False(t, StatusRenegotiated.IsActive())
	assert.False(t, StatusCancelled.IsActive())

	assert.True(t, StatusRenegotiated.IsFrozen())
	assert.True(t, StatusCancelled.IsFrozen())
	assert.False(t, StatusPending.IsFrozen())
	assert.False(t, StatusLate.IsFrozen())
	assert.False(t, StatusPaid.IsFrozen())
}

func TestTransition(t *testing.T) {
	cases := []struct {
		from  LoanStatus
		event LoanEvent
		to    LoanStatus
		ok    bool
	}{
		{StatusPending, EventPaidOff, StatusPaid, true},
		{StatusPending, EventOverdue, StatusLate, true},
		{StatusPending, EventRenegotiated, StatusRenegotiated, true},
		{StatusPending, EventCancelled, StatusCancelled, true},
		{StatusLate, EventPaidOff, StatusPaid, true},
		{StatusLate, EventRenegotiated, StatusRenegotiated, true},
		// A late loan is already past due; there is no edge back.
		{StatusLate, EventOverdue, "", false},
		// Terminal statuses have no outgoing edges at all.
		{StatusPaid, EventPaidOff, "", false},
		{StatusPaid, EventOverdue, "", false},
		{StatusRenegotiated, EventPaidOff, "", false},
		{StatusCancelled, EventRenegotiated, "", false},
	}

	for _, tc := range cases {
		to, ok := Transition(tc.from, tc.event)
		assert.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.event)
		if tc.ok {
			assert.Equal(t, tc.to, to, "%s + %s", tc.from, tc.event)
		}
	}
}

func TestDefaultInstallments(t *testing.T) {
	assert.Equal(t, 1, FrequencySingle.DefaultInstallments())
	assert.Equal(t, 4, FrequencyWeekly.DefaultInstallments())
	assert.Equal(t, 2, FrequencyBiweekly.DefaultInstallments())
	assert.Equal(t, 1, FrequencyMonthly.DefaultInstallments())
}

func TestLoanArithmetic(t *testing.T) {
	loan := &Loan{
		TotalAmount: decimal.NewFromInt(1100),
		Payments: []Payment{
			{Amount: decimal.NewFromInt(300)},
			{Amount: decimal.NewFromInt(200)},
		},
	}

	assert.True(t, loan.TotalPaid().Equal(decimal.NewFromInt(500)))
	assert.True(t, loan.RemainingBalance().Equal(decimal.NewFromInt(600)))
	assert.InDelta(t, 45.45, loan.ProgressPct(), 0.01)
}

func TestProgressPct_Bounds(t *testing.T) {
	overpaid := &Loan{
		TotalAmount: decimal.NewFromInt(100),
		Payments:    []Payment{{Amount: decimal.NewFromInt(150)}},
	}
	assert.Equal(t, 100.0, overpaid.ProgressPct())

	empty := &Loan{TotalAmount: decimal.Zero}
	assert.Equal(t, 0.0, empty.ProgressPct())
}

func TestLoanClone(t *testing.T) {
	src := uuid.New()
	loan := &Loan{
		ID:             uuid.New(),
		Payments:       []Payment{{ID: uuid.New(), Amount: decimal.NewFromInt(10)}},
		OriginalLoanID: &src,
	}

	clone := loan.Clone()
	clone.Payments[0].Amount = decimal.NewFromInt(99)
	*clone.OriginalLoanID = uuid.New()

	assert.True(t, loan.Payments[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, src, *loan.OriginalLoanID)
}
