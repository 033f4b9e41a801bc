package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// Decimal fields are stored as TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		document TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		frequency TEXT NOT NULL,
		installments INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		original_loan_id TEXT,
		FOREIGN KEY(client_id) REFERENCES clients(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		amount TEXT NOT NULL,
		paid_at DATETIME NOT NULL,
		type TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		capital_balance TEXT NOT NULL DEFAULT '0',
		initialized INTEGER NOT NULL DEFAULT 0,
		security_pin TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT 'BRL',
		company_name TEXT NOT NULL DEFAULT '',
		support_phone TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveClient inserts or updates a client record.
func (s *SQLiteStore) SaveClient(client *models.Client) error {
	_, err := s.db.Exec(
		`INSERT INTO clients (id, name, phone, document, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone,
			document = excluded.document, notes = excluded.notes`,
		client.ID.String(), client.Name, client.Phone, client.Document, client.Notes, client.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// GetClient retrieves a client by its ID.
func (s *SQLiteStore) GetClient(id uuid.UUID) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT id, name, phone, document, notes, created_at FROM clients WHERE id = ?`, id.String())
	client, err := scanClient(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get client %s: %w", id, ErrClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// ListClients retrieves all clients in insertion order.
func (s *SQLiteStore) ListClients() ([]*models.Client, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, document, notes, created_at FROM clients ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return clients, nil
}

// DeleteClient removes a client and cascades to its loans and their payments
// within a transaction. No capital adjustment is made.
func (s *SQLiteStore) DeleteClient(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM payments WHERE loan_id IN (SELECT id FROM loans WHERE client_id = ?)`, id.String()); err != nil {
		return fmt.Errorf("failed to delete cascading payments: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM loans WHERE client_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete cascading loans: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM clients WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("delete client %s: %w", id, ErrClientNotFound)
	}

	return tx.Commit()
}

// SaveLoan inserts or updates a loan and rewrites its payment sequence as one
// unit. The whole-record rewrite mirrors the single-writer model: there is no
// partial update of a loan.
func (s *SQLiteStore) SaveLoan(loan *models.Loan) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var origID interface{}
	if loan.OriginalLoanID != nil {
		origID = loan.OriginalLoanID.String()
	}

	_, err = tx.Exec(
		`INSERT INTO loans (id, client_id, amount, interest_rate, total_amount, start_date, due_date, frequency, installments, status, notes, original_loan_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, due_date = excluded.due_date, notes = excluded.notes`,
		loan.ID.String(), loan.ClientID.String(), loan.Amount, loan.InterestRate, loan.TotalAmount,
		loan.StartDate, loan.DueDate, string(loan.Frequency), loan.Installments, string(loan.Status), loan.Notes, origID,
	)
	if err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM payments WHERE loan_id = ?`, loan.ID.String()); err != nil {
		return fmt.Errorf("failed to clear payment rows: %w", err)
	}
	for i, p := range loan.Payments {
		_, err = tx.Exec(
			`INSERT INTO payments (id, loan_id, seq, amount, paid_at, type, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), loan.ID.String(), i, p.Amount, p.Date, string(p.Type), p.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
	}

	return tx.Commit()
}

// GetLoan retrieves a loan with its payments by ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(
		`SELECT id, client_id, amount, interest_rate, total_amount, start_date, due_date, frequency, installments, status, notes, original_loan_id
		FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get loan %s: %w", id, ErrLoanNotFound)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	if loan.Payments, err = s.loadPayments(loan.ID); err != nil {
		return nil, err
	}
	return loan, nil
}

// ListLoans retrieves all loans with their payments, in insertion order.
func (s *SQLiteStore) ListLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(
		`SELECT id, client_id, amount, interest_rate, total_amount, start_date, due_date, frequency, installments, status, notes, original_loan_id
		FROM loans ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	for _, loan := range loans {
		if loan.Payments, err = s.loadPayments(loan.ID); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

func (s *SQLiteStore) loadPayments(loanID uuid.UUID) ([]models.Payment, error) {
	rows, err := s.db.Query(
		`SELECT id, loan_id, amount, paid_at, type, notes FROM payments WHERE loan_id = ? ORDER BY seq`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		var pidStr, loanIDStr string
		var paidAt time.Time
		if err := rows.Scan(&pidStr, &loanIDStr, &p.Amount, &paidAt, &p.Type, &p.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		p.ID = uuid.MustParse(pidStr)
		p.LoanID = uuid.MustParse(loanIDStr)
		p.Date = paidAt
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during payment rows iteration: %w", err)
	}
	return payments, nil
}

// GetConfig retrieves the configuration record, falling back to defaults for
// a fresh database.
func (s *SQLiteStore) GetConfig() (*models.Config, error) {
	var cfg models.Config
	var initialized int
	row := s.db.QueryRow(`SELECT capital_balance, initialized, security_pin, currency, company_name, support_phone FROM config WHERE id = 1`)
	err := row.Scan(&cfg.CapitalBalance, &initialized, &cfg.SecurityPIN, &cfg.Currency, &cfg.CompanyName, &cfg.SupportPhone)
	if err == sql.ErrNoRows {
		return &models.Config{CapitalBalance: decimal.Zero, Currency: models.DefaultCurrency}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	cfg.Initialized = initialized != 0
	if cfg.Currency == "" {
		cfg.Currency = models.DefaultCurrency
	}
	return &cfg, nil
}

// SaveConfig writes the configuration record through immediately.
func (s *SQLiteStore) SaveConfig(cfg *models.Config) error {
	initialized := 0
	if cfg.Initialized {
		initialized = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO config (id, capital_balance, initialized, security_pin, currency, company_name, support_phone)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET capital_balance = excluded.capital_balance, initialized = excluded.initialized,
			security_pin = excluded.security_pin, currency = excluded.currency,
			company_name = excluded.company_name, support_phone = excluded.support_phone`,
		cfg.CapitalBalance, initialized, cfg.SecurityPIN, cfg.Currency, cfg.CompanyName, cfg.SupportPhone,
	)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ReplaceAll swaps the entire database within a single transaction.
func (s *SQLiteStore) ReplaceAll(clients []*models.Client, loans []*models.Loan, cfg *models.Config) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"payments", "loans", "clients", "config"} {
		if _, err = tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range clients {
		_, err = tx.Exec(
			`INSERT INTO clients (id, name, phone, document, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID.String(), c.Name, c.Phone, c.Document, c.Notes, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import client: %w", err)
		}
	}

	for _, l := range loans {
		var origID interface{}
		if l.OriginalLoanID != nil {
			origID = l.OriginalLoanID.String()
		}
		_, err = tx.Exec(
			`INSERT INTO loans (id, client_id, amount, interest_rate, total_amount, start_date, due_date, frequency, installments, status, notes, original_loan_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID.String(), l.ClientID.String(), l.Amount, l.InterestRate, l.TotalAmount,
			l.StartDate, l.DueDate, string(l.Frequency), l.Installments, string(l.Status), l.Notes, origID,
		)
		if err != nil {
			return fmt.Errorf("failed to import loan: %w", err)
		}
		for i, p := range l.Payments {
			_, err = tx.Exec(
				`INSERT INTO payments (id, loan_id, seq, amount, paid_at, type, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.ID.String(), l.ID.String(), i, p.Amount, p.Date, string(p.Type), p.Notes,
			)
			if err != nil {
				return fmt.Errorf("failed to import payment: %w", err)
			}
		}
	}

	initialized := 0
	if cfg.Initialized {
		initialized = 1
	}
	_, err = tx.Exec(
		`INSERT INTO config (id, capital_balance, initialized, security_pin, currency, company_name, support_phone) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		cfg.CapitalBalance, initialized, cfg.SecurityPIN, cfg.Currency, cfg.CompanyName, cfg.SupportPhone,
	)
	if err != nil {
		return fmt.Errorf("failed to import config: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var idStr string
	var created time.Time
	if err := row.Scan(&idStr, &c.Name, &c.Phone, &c.Document, &c.Notes, &created); err != nil {
		return nil, err
	}
	c.ID = uuid.MustParse(idStr)
	c.CreatedAt = created
	return &c, nil
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var l models.Loan
	var idStr, clientIDStr string
	var origID sql.NullString
	var start, due time.Time
	err := row.Scan(&idStr, &clientIDStr, &l.Amount, &l.InterestRate, &l.TotalAmount,
		&start, &due, &l.Frequency, &l.Installments, &l.Status, &l.Notes, &origID)
	if err != nil {
		return nil, err
	}
	l.ID = uuid.MustParse(idStr)
	l.ClientID = uuid.MustParse(clientIDStr)
	l.StartDate = start
	l.DueDate = due
	if origID.Valid {
		id := uuid.MustParse(origID.String)
		l.OriginalLoanID = &id
	}
	return &l, nil
}
