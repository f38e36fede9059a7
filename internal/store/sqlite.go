package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumapay/provision/internal/domain"
)

// SQLiteStore is an AccountStore backed by SQLite.
//
// It expects an *sql.DB opened with a SQLite driver; the caller is
// responsible for importing one, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ AccountStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the accounts schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			provider_type TEXT NOT NULL,
			provider_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	now := time.Now().UTC()
	account.UpdatedAt = now

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
		account.CreatedAt = now

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO accounts (id, first_name, last_name, email, provider_type, provider_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			account.ID.String(),
			account.FirstName,
			account.LastName,
			account.Email,
			string(account.ProviderType),
			account.ProviderID,
			account.CreatedAt,
			account.UpdatedAt,
		)
		if err != nil {
			return domain.Account{}, classifySaveError("insert", err)
		}
		return account, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET first_name = ?, last_name = ?, email = ?, provider_type = ?, provider_id = ?, updated_at = ?
		WHERE id = ?`,
		account.FirstName,
		account.LastName,
		account.Email,
		string(account.ProviderType),
		account.ProviderID,
		account.UpdatedAt,
		account.ID.String(),
	)
	if err != nil {
		return domain.Account{}, classifySaveError("update", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Account{}, &domain.StoreError{Op: "update", Err: err}
	}
	if affected == 0 {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id.String())
	return scanAccount(row, "get by id")
}

func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE email = ?`, email)
	return scanAccount(row, "get by email")
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, selectAccount+` ORDER BY created_at`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows, "list")
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	return accounts, nil
}

const selectAccount = `
	SELECT id, first_name, last_name, email, provider_type, provider_id, created_at, updated_at
	FROM accounts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, op string) (domain.Account, error) {
	var a domain.Account
	var idStr, providerType string
	var providerID sql.NullString

	err := row.Scan(
		&idStr,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&providerType,
		&providerID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, &domain.StoreError{Op: op, Err: err}
	}

	a.ID, err = uuid.Parse(idStr)
	if err != nil {
		return domain.Account{}, &domain.StoreError{Op: op, Err: err}
	}
	a.ProviderType = domain.ProviderType(providerType)
	a.ProviderID = providerID.String
	return a, nil
}

// classifySaveError separates commit-time uniqueness violations (terminal)
// from other storage failures (assumed transient).
func classifySaveError(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.StoreError{Op: op, Err: err, Conflict: true}
	}
	return &domain.StoreError{Op: op, Err: err}
}
