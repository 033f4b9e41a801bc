package ledger

import (
	"fmt"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
)

// Config returns the current configuration record.
func (l *Ledger) Config() (*models.Config, error) {
	return l.storage.GetConfig()
}

// SaveCompanyInfo updates the company name and support phone shown on
// statements and reports.
func (l *Ledger) SaveCompanyInfo(name, phone string) error {
	return l.updateConfig(func(cfg *models.Config) {
		cfg.CompanyName = name
		cfg.SupportPhone = phone
	})
}

// SetCurrency changes the display currency code.
func (l *Ledger) SetCurrency(code string) error {
	return l.updateConfig(func(cfg *models.Config) {
		cfg.Currency = code
	})
}

// SetPIN sets the security PIN. An empty PIN removes the protection.
func (l *Ledger) SetPIN(pin string) error {
	return l.updateConfig(func(cfg *models.Config) {
		cfg.SecurityPIN = pin
	})
}

// ValidatePIN checks an entered PIN against the configured one. When no PIN
// is configured, access is allowed.
func (l *Ledger) ValidatePIN(input string) (bool, error) {
	cfg, err := l.storage.GetConfig()
	if err != nil {
		return false, err
	}
	if cfg.SecurityPIN == "" {
		return true, nil
	}
	return cfg.SecurityPIN == input, nil
}

func (l *Ledger) updateConfig(mutate func(*models.Config)) error {
	cfg, err := l.storage.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	mutate(cfg)
	if err := l.storage.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
