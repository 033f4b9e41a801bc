package store

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

func newTestStore(t *testing.T, dbFile string) *SQLiteStore {
	t.Helper()
	os.Remove(dbFile)
	t.Cleanup(func() { os.Remove(dbFile) })

	s, err := NewSQLiteStore(dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testClient(name string) *models.Client {
	return &models.Client{
		ID:        uuid.New(),
		Name:      name,
		Phone:     "+55 11 98888-0000",
		CreatedAt: time.Now(),
	}
}

func testLoan(clientID uuid.UUID) *models.Loan {
	now := time.Now()
	return &models.Loan{
		ID:           uuid.New(),
		ClientID:     clientID,
		Amount:       decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromInt(10),
		TotalAmount:  decimal.NewFromInt(1100),
		StartDate:    now,
		DueDate:      now.AddDate(0, 0, 30),
		Frequency:    models.FrequencySingle,
		Installments: 1,
		Status:       models.StatusPending,
		Payments:     []models.Payment{},
	}
}

func TestSQLiteStore_SaveAndGetLoan(t *testing.T) {
	s := newTestStore(t, "test_store_loan.db")

	client := testClient("Ana")
	require.NoError(t, s.SaveClient(client))

	loan := testLoan(client.ID)
	loan.Payments = []models.Payment{
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(300), Date: time.Now(), Type: models.PaymentPartial},
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(200), Date: time.Now(), Type: models.PaymentPartial, Notes: "cash"},
	}
	require.NoError(t, s.SaveLoan(loan))

	fetched, err := s.GetLoan(loan.ID)
	require.NoError(t, err)

	assert.Equal(t, loan.ClientID, fetched.ClientID)
	assert.True(t, fetched.Amount.Equal(loan.Amount))
	assert.True(t, fetched.TotalAmount.Equal(loan.TotalAmount))
	assert.Equal(t, models.StatusPending, fetched.Status)
	require.Len(t, fetched.Payments, 2)
	assert.True(t, fetched.Payments[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "cash", fetched.Payments[1].Notes)
}

func TestSQLiteStore_GetLoan_NotFound(t *testing.T) {
	s := newTestStore(t, "test_store_missing.db")

	_, err := s.GetLoan(uuid.New())
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestSQLiteStore_UpsertKeepsInsertionOrder(t *testing.T) {
	s := newTestStore(t, "test_store_order.db")

	client := testClient("Ana")
	require.NoError(t, s.SaveClient(client))

	first := testLoan(client.ID)
	second := testLoan(client.ID)
	require.NoError(t, s.SaveLoan(first))
	require.NoError(t, s.SaveLoan(second))

	// Re-saving the first loan must not move it to the end of the list.
	first.Status = models.StatusLate
	require.NoError(t, s.SaveLoan(first))

	loans, err := s.ListLoans()
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, models.StatusLate, loans[0].Status)
	assert.Equal(t, second.ID, loans[1].ID)
}

func TestSQLiteStore_OriginalLoanID(t *testing.T) {
	s := newTestStore(t, "test_store_lineage.db")

	client := testClient("Ana")
	require.NoError(t, s.SaveClient(client))

	src := testLoan(client.ID)
	require.NoError(t, s.SaveLoan(src))

	successor := testLoan(client.ID)
	successor.OriginalLoanID = &src.ID
	require.NoError(t, s.SaveLoan(successor))

	fetched, err := s.GetLoan(successor.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.OriginalLoanID)
	assert.Equal(t, src.ID, *fetched.OriginalLoanID)

	fetchedSrc, err := s.GetLoan(src.ID)
	require.NoError(t, err)
	assert.Nil(t, fetchedSrc.OriginalLoanID)
}

func TestSQLiteStore_DeleteClientCascades(t *testing.T) {
	s := newTestStore(t, "test_store_cascade.db")

	client := testClient("Ana")
	other := testClient("Bruno")
	require.NoError(t, s.SaveClient(client))
	require.NoError(t, s.SaveClient(other))

	loan := testLoan(client.ID)
	loan.Payments = []models.Payment{
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(100), Date: time.Now(), Type: models.PaymentPartial},
	}
	require.NoError(t, s.SaveLoan(loan))
	otherLoan := testLoan(other.ID)
	require.NoError(t, s.SaveLoan(otherLoan))

	require.NoError(t, s.DeleteClient(client.ID))

	_, err := s.GetClient(client.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = s.GetLoan(loan.ID)
	assert.ErrorIs(t, err, ErrLoanNotFound)

	// Unrelated records survive.
	_, err = s.GetLoan(otherLoan.ID)
	assert.NoError(t, err)

	err = s.DeleteClient(client.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestSQLiteStore_ConfigRoundTrip(t *testing.T) {
	s := newTestStore(t, "test_store_config.db")

	// Fresh database yields defaults instead of an error.
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.True(t, cfg.CapitalBalance.IsZero())
	assert.Equal(t, models.DefaultCurrency, cfg.Currency)

	cfg.CapitalBalance = decimal.NewFromFloat(2500.50)
	cfg.Initialized = true
	cfg.SecurityPIN = "1234"
	cfg.CompanyName = "Credito Rapido"
	require.NoError(t, s.SaveConfig(cfg))

	got, err := s.GetConfig()
	require.NoError(t, err)
	assert.True(t, got.CapitalBalance.Equal(decimal.NewFromFloat(2500.50)))
	assert.True(t, got.Initialized)
	assert.Equal(t, "1234", got.SecurityPIN)
	assert.Equal(t, "Credito Rapido", got.CompanyName)
}

func TestSQLiteStore_ReplaceAll(t *testing.T) {
	s := newTestStore(t, "test_store_replace.db")

	old := testClient("Old")
	require.NoError(t, s.SaveClient(old))
	require.NoError(t, s.SaveLoan(testLoan(old.ID)))

	client := testClient("Restored")
	loan := testLoan(client.ID)
	loan.Payments = []models.Payment{
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(50), Date: time.Now(), Type: models.PaymentPartial},
	}
	cfg := &models.Config{CapitalBalance: decimal.NewFromInt(777), Initialized: true, Currency: "USD"}

	require.NoError(t, s.ReplaceAll([]*models.Client{client}, []*models.Loan{loan}, cfg))

	clients, err := s.ListClients()
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Restored", clients[0].Name)

	loans, err := s.ListLoans()
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.Len(t, loans[0].Payments, 1)

	got, err := s.GetConfig()
	require.NoError(t, err)
	assert.True(t, got.CapitalBalance.Equal(decimal.NewFromInt(777)))
	assert.Equal(t, "USD", got.Currency)
}
