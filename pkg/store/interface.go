package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrLoanNotFound   = errors.New("loan not found")
)

// ClientRepository persists the client registry. SaveClient upserts.
// DeleteClient cascades to the client's loans so no orphan loans exist;
// it makes no capital adjustment (deletion is data cleanup, not a
// financial event).
type ClientRepository interface {
	SaveClient(client *models.Client) error
	GetClient(id uuid.UUID) (*models.Client, error)
	ListClients() ([]*models.Client, error)
	DeleteClient(id uuid.UUID) error
}

// LoanRepository persists loans together with their payment history.
// ListLoans returns loans in insertion order.
type LoanRepository interface {
	SaveLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	ListLoans() ([]*models.Loan, error)
}

// ConfigRepository persists the single configuration record holding the
// capital balance. Every mutation is written through immediately.
type ConfigRepository interface {
	GetConfig() (*models.Config, error)
	SaveConfig(cfg *models.Config) error
}

// Storage is the full persistence surface the ledger depends on.
type Storage interface {
	ClientRepository
	LoanRepository
	ConfigRepository

	// ReplaceAll swaps the entire database in one shot; used by import.
	// Either everything is replaced or nothing is.
	ReplaceAll(clients []*models.Client, loans []*models.Loan, cfg *models.Config) error

	Close() error
}
