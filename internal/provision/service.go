// Package provision is the front door for account provisioning. The
// service validates requests, performs the advisory uniqueness pre-check,
// and hands the actual side effects to durable workflow runs keyed by
// deterministic workflow ids.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumapay/provision/internal/domain"
	"github.com/lumapay/provision/internal/store"
	"github.com/lumapay/provision/internal/workflow"
)

// CreateAccountRequest carries the caller-supplied fields for a new
// account.
type CreateAccountRequest struct {
	FirstName    string
	LastName     string
	Email        string
	ProviderType domain.ProviderType
}

// UpdateAccountRequest carries a partial update for an existing account.
type UpdateAccountRequest struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
}

// Service orchestrates account provisioning.
type Service struct {
	engine   workflow.Engine
	accounts store.AccountStore
	logger   zerolog.Logger
}

// NewService constructs a Service. The engine must already have the
// provisioning workflows registered (see RegisterWorkflows).
func NewService(engine workflow.Engine, accounts store.AccountStore, logger zerolog.Logger) *Service {
	return &Service{
		engine:   engine,
		accounts: accounts,
		logger:   logger,
	}
}

// CreateAccount provisions a new account: remote customer first, local
// record second, both inside a durable run keyed by the requested email.
// It blocks until the run reaches a terminal state or ctx is done; on
// caller timeout the run keeps executing in the background.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (domain.Account, error) {
	if err := validateCreate(req); err != nil {
		return domain.Account{}, err
	}

	// Advisory pre-check: a fast-path rejection for the common case. Two
	// concurrent creates for the same email can both pass it; the store's
	// unique constraint remains the authoritative guard and fails one of
	// the runs at the save step.
	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return domain.Account{}, fmt.Errorf("%w: email %s", domain.ErrAlreadyExists, req.Email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, err
	}

	details := domain.Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		ProviderType: req.ProviderType,
	}

	s.logger.Info().
		Str("email", req.Email).
		Str("provider_type", string(req.ProviderType)).
		Msg("initiating create-account workflow")

	run, err := s.engine.Run(ctx, WorkflowCreateAccount, req.Email, details)
	if err != nil {
		return domain.Account{}, err
	}
	return accountResult(run)
}

// UpdateAccount loads the target account, applies at most one supplied
// field (first name, else last name, else email), and pushes the merged
// record through a durable run keyed by the account id.
func (s *Service) UpdateAccount(ctx context.Context, req UpdateAccountRequest) (domain.Account, error) {
	if req.ID == uuid.Nil {
		return domain.Account{}, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	existing, err := s.accounts.GetByID(ctx, req.ID)
	if err != nil {
		return domain.Account{}, err
	}

	mergeUpdate(&existing, req)

	s.logger.Info().
		Str("account_id", req.ID.String()).
		Msg("initiating update-account workflow")

	run, err := s.engine.Run(ctx, WorkflowUpdateAccount, req.ID.String(), existing)
	if err != nil {
		return domain.Account{}, err
	}
	return accountResult(run)
}

// GetAccounts returns all accounts. Reads bypass the workflow engine.
func (s *Service) GetAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// mergeUpdate applies the first supplied field and ignores the rest:
// first name wins over last name, which wins over email. Exactly one
// field changes per call even when several are supplied.
func mergeUpdate(existing *domain.Account, req UpdateAccountRequest) {
	if strings.TrimSpace(req.FirstName) != "" {
		existing.FirstName = req.FirstName
	} else if strings.TrimSpace(req.LastName) != "" {
		existing.LastName = req.LastName
	} else if strings.TrimSpace(req.Email) != "" {
		existing.Email = req.Email
	}
}

func validateCreate(req CreateAccountRequest) error {
	switch {
	case strings.TrimSpace(req.FirstName) == "":
		return &domain.ValidationError{Field: "firstName", Reason: "must not be empty"}
	case strings.TrimSpace(req.LastName) == "":
		return &domain.ValidationError{Field: "lastName", Reason: "must not be empty"}
	case strings.TrimSpace(req.Email) == "":
		return &domain.ValidationError{Field: "email", Reason: "must not be empty"}
	case !strings.Contains(req.Email, "@"):
		return &domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	case !req.ProviderType.Valid():
		return &domain.ValidationError{Field: "providerType", Reason: "unsupported provider " + string(req.ProviderType)}
	}
	return nil
}

func accountResult(run *workflow.Run) (domain.Account, error) {
	account, ok := run.Output.(domain.Account)
	if !ok {
		return domain.Account{}, fmt.Errorf("workflow %s returned unexpected output %T", run.Name, run.Output)
	}
	return account, nil
}
