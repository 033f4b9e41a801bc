package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

// MemoryStore is an in-memory Storage implementation. It keeps insertion
// order and deep-copies records on the way in and out, so callers observe
// the same semantics as the SQLite store. Intended for tests and ephemeral
// runs.
type MemoryStore struct {
	clients []*models.Client
	loans   []*models.Loan
	cfg     *models.Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveClient(client *models.Client) error {
	c := *client
	for i, existing := range m.clients {
		if existing.ID == c.ID {
			m.clients[i] = &c
			return nil
		}
	}
	m.clients = append(m.clients, &c)
	return nil
}

func (m *MemoryStore) GetClient(id uuid.UUID) (*models.Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get client %s: %w", id, ErrClientNotFound)
}

func (m *MemoryStore) ListClients() ([]*models.Client, error) {
	out := make([]*models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MemoryStore) DeleteClient(id uuid.UUID) error {
	found := false
	clients := m.clients[:0]
	for _, c := range m.clients {
		if c.ID == id {
			found = true
			continue
		}
		clients = append(clients, c)
	}
	if !found {
		return fmt.Errorf("delete client %s: %w", id, ErrClientNotFound)
	}
	m.clients = clients

	// Cascade: drop the client's loans so no orphans remain.
	loans := m.loans[:0]
	for _, l := range m.loans {
		if l.ClientID != id {
			loans = append(loans, l)
		}
	}
	m.loans = loans
	return nil
}

func (m *MemoryStore) SaveLoan(loan *models.Loan) error {
	c := loan.Clone()
	for i, existing := range m.loans {
		if existing.ID == c.ID {
			m.loans[i] = c
			return nil
		}
	}
	m.loans = append(m.loans, c)
	return nil
}

func (m *MemoryStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	for _, l := range m.loans {
		if l.ID == id {
			return l.Clone(), nil
		}
	}
	return nil, fmt.Errorf("get loan %s: %w", id, ErrLoanNotFound)
}

func (m *MemoryStore) ListLoans() ([]*models.Loan, error) {
	out := make([]*models.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (m *MemoryStore) GetConfig() (*models.Config, error) {
	if m.cfg == nil {
		return defaultConfig(), nil
	}
	copied := *m.cfg
	return &copied, nil
}

func (m *MemoryStore) SaveConfig(cfg *models.Config) error {
	copied := *cfg
	m.cfg = &copied
	return nil
}

func (m *MemoryStore) ReplaceAll(clients []*models.Client, loans []*models.Loan, cfg *models.Config) error {
	newClients := make([]*models.Client, 0, len(clients))
	for _, c := range clients {
		copied := *c
		newClients = append(newClients, &copied)
	}
	newLoans := make([]*models.Loan, 0, len(loans))
	for _, l := range loans {
		newLoans = append(newLoans, l.Clone())
	}
	copied := *cfg
	m.clients = newClients
	m.loans = newLoans
	m.cfg = &copied
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func defaultConfig() *models.Config {
	return &models.Config{Currency: models.DefaultCurrency}
}
