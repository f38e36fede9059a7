package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumapay/provision/internal/domain"
)

// MemoryStore is a goroutine-safe AccountStore backed by maps. It mirrors
// the SQLite store's uniqueness semantics so tests exercise the same
// conflict-at-commit path.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]domain.Account
	byEmail  map[string]uuid.UUID
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]domain.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

var _ AccountStore = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	account.UpdatedAt = now

	if account.ID == uuid.Nil {
		if _, ok := s.byEmail[account.Email]; ok {
			return domain.Account{}, &domain.StoreError{
				Op:       "insert",
				Err:      errors.New("email already taken"),
				Conflict: true,
			}
		}
		account.ID = uuid.New()
		account.CreatedAt = now
		s.accounts[account.ID] = account
		s.byEmail[account.Email] = account.ID
		return account, nil
	}

	existing, ok := s.accounts[account.ID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	if owner, ok := s.byEmail[account.Email]; ok && owner != account.ID {
		return domain.Account{}, &domain.StoreError{
			Op:       "update",
			Err:      errors.New("email already taken"),
			Conflict: true,
		}
	}

	if existing.Email != account.Email {
		delete(s.byEmail, existing.Email)
		s.byEmail[account.Email] = account.ID
	}
	account.CreatedAt = existing.CreatedAt
	s.accounts[account.ID] = account
	return account, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}
