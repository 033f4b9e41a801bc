// Package backup implements full-database snapshot export and import.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/store"
)

// ErrMalformedBackup signals an import payload that is missing the required
// clients/loans arrays or the config object. Imports are all-or-nothing:
// on failure the existing state is left untouched.
var ErrMalformedBackup = errors.New("malformed backup payload")

// Snapshot is the full-database export format.
type Snapshot struct {
	Clients   []*models.Client `json:"clients"`
	Loans     []*models.Loan   `json:"loans"`
	Config    *models.Config   `json:"config"`
	Timestamp time.Time        `json:"timestamp"`
}

// Export serializes all three records as one JSON snapshot, with no
// filtering.
func Export(s store.Storage) ([]byte, error) {
	clients, err := s.ListClients()
	if err != nil {
		return nil, fmt.Errorf("failed to export clients: %w", err)
	}
	loans, err := s.ListLoans()
	if err != nil {
		return nil, fmt.Errorf("failed to export loans: %w", err)
	}
	cfg, err := s.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to export config: %w", err)
	}
	if clients == nil {
		clients = []*models.Client{}
	}
	if loans == nil {
		loans = []*models.Loan{}
	}

	snap := Snapshot{
		Clients:   clients,
		Loans:     loans,
		Config:    cfg,
		Timestamp: time.Now().UTC(),
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import replaces the entire database with the snapshot. The payload must
// carry clients and loans arrays and a config object, else the import is
// rejected wholesale with ErrMalformedBackup.
func Import(s store.Storage, data []byte) error {
	var raw struct {
		Clients *[]*models.Client `json:"clients"`
		Loans   *[]*models.Loan   `json:"loans"`
		Config  *models.Config    `json:"config"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if raw.Clients == nil || raw.Loans == nil || raw.Config == nil {
		return fmt.Errorf("%w: clients, loans and config are required", ErrMalformedBackup)
	}
	return s.ReplaceAll(*raw.Clients, *raw.Loans, raw.Config)
}
