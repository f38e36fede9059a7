// Package store persists account records. The store is the sole arbiter
// of the email-uniqueness invariant: conflicting writes are rejected
// atomically at commit time, regardless of any advisory pre-check done by
// the provisioning service.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapay/provision/internal/domain"
)

// AccountStore persists and retrieves account records.
type AccountStore interface {
	// Save inserts the account if it has no id yet (assigning one), or
	// updates the existing record otherwise. It returns the persisted
	// account and enforces email uniqueness, surfacing a conflict as a
	// non-retryable *domain.StoreError.
	Save(ctx context.Context, account domain.Account) (domain.Account, error)

	// GetByID returns the account with the given id, or domain.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)

	// GetByEmail returns the account with the given email, or domain.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// List returns all accounts.
	List(ctx context.Context) ([]domain.Account, error)
}
