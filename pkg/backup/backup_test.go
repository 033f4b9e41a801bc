package backup

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/store"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()

	client := &models.Client{ID: uuid.New(), Name: "Ana", Phone: "11 90000-0000", CreatedAt: time.Now()}
	require.NoError(t, s.SaveClient(client))

	loan := &models.Loan{
		ID:           uuid.New(),
		ClientID:     client.ID,
		Amount:       decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromInt(10),
		TotalAmount:  decimal.NewFromInt(1100),
		StartDate:    time.Now(),
		DueDate:      time.Now().AddDate(0, 0, 30),
		Frequency:    models.FrequencySingle,
		Installments: 1,
		Status:       models.StatusPending,
		Payments: []models.Payment{
			{ID: uuid.New(), Amount: decimal.NewFromInt(400), Date: time.Now(), Type: models.PaymentPartial},
		},
	}
	require.NoError(t, s.SaveLoan(loan))

	require.NoError(t, s.SaveConfig(&models.Config{
		CapitalBalance: decimal.NewFromInt(4400),
		Initialized:    true,
		Currency:       "BRL",
	}))
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	src := seededStore(t)

	data, err := Export(src)
	require.NoError(t, err)

	dst := store.NewMemoryStore()
	require.NoError(t, Import(dst, data))

	clients, err := dst.ListClients()
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Ana", clients[0].Name)

	loans, err := dst.ListLoans()
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].TotalAmount.Equal(decimal.NewFromInt(1100)))
	require.Len(t, loans[0].Payments, 1)
	assert.True(t, loans[0].Payments[0].Amount.Equal(decimal.NewFromInt(400)))

	cfg, err := dst.GetConfig()
	require.NoError(t, err)
	assert.True(t, cfg.CapitalBalance.Equal(decimal.NewFromInt(4400)))
	assert.True(t, cfg.Initialized)
}

func TestExport_EmptyStoreHasArrays(t *testing.T) {
	data, err := Export(store.NewMemoryStore())
	require.NoError(t, err)

	// The snapshot must always carry arrays, never null, so it stays
	// importable.
	assert.Contains(t, string(data), `"clients": []`)
	assert.Contains(t, string(data), `"loans": []`)
}

func TestImport_MalformedPayloadRejected(t *testing.T) {
	s := seededStore(t)

	cases := map[string]string{
		"not json":       `{"clients": [`,
		"missing loans":  `{"clients": [], "config": {}}`,
		"missing config": `{"clients": [], "loans": []}`,
		"null clients":   `{"clients": null, "loans": [], "config": {}}`,
	}

	for name, payload := range cases {
		err := Import(s, []byte(payload))
		assert.ErrorIs(t, err, ErrMalformedBackup, name)

		// The rejected import must not have disturbed the existing data.
		clients, lerr := s.ListClients()
		require.NoError(t, lerr)
		assert.Len(t, clients, 1, name)
	}
}
