package ledger

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

// CreateClient registers a new client.
func (l *Ledger) CreateClient(name, phone, document, notes string) (*models.Client, error) {
	client := &models.Client{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Document:  document,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if err := l.storage.SaveClient(client); err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateClient applies an explicit edit to an existing client.
func (l *Ledger) UpdateClient(client *models.Client) error {
	existing, err := l.storage.GetClient(client.ID)
	if err != nil {
		return err
	}
	client.CreatedAt = existing.CreatedAt
	return l.storage.SaveClient(client)
}

// GetClient retrieves a client by its ID.
func (l *Ledger) GetClient(id uuid.UUID) (*models.Client, error) {
	return l.storage.GetClient(id)
}

// ListClients retrieves all clients in insertion order.
func (l *Ledger) ListClients() ([]*models.Client, error) {
	return l.storage.ListClients()
}

// DeleteClient removes a client and cascades to its loans. This is a
// destructive data-cleanup operation, not a financial event: outstanding
// principal is NOT written back to the capital balance.
func (l *Ledger) DeleteClient(id uuid.UUID) error {
	if err := l.storage.DeleteClient(id); err != nil {
		return err
	}
	l.log.Info("client deleted with cascading loans", zap.String("client_id", id.String()))
	return nil
}

// ClassifyRisk derives a client's risk tier from the count of loans that are
// currently LATE. Renegotiated loans never count as a delay, even though
// they originated from a troubled loan. Clients with zero loans are LOW.
func (l *Ledger) ClassifyRisk(clientID uuid.UUID) (models.RiskLevel, error) {
	if _, err := l.storage.GetClient(clientID); err != nil {
		return "", err
	}
	loans, err := l.storage.ListLoans()
	if err != nil {
		return "", err
	}

	late := 0
	for _, loan := range loans {
		if loan.ClientID == clientID && loan.Status == models.StatusLate {
			late++
		}
	}

	switch {
	case late == 0:
		return models.RiskLow, nil
	case late <= 2:
		return models.RiskMedium, nil
	default:
		return models.RiskHigh, nil
	}
}
