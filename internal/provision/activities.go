package provision

import (
	"context"
	"encoding/gob"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lumapay/provision/internal/domain"
	"github.com/lumapay/provision/internal/provider"
	"github.com/lumapay/provision/internal/store"
)

func init() {
	// Accounts flow through run inputs and step checkpoints, which the
	// run store gob-encodes as interface values.
	gob.Register(domain.Account{})
}

// Activities are the stateless, individually retryable operations the
// provisioning workflows are composed of. Each activity wraps exactly one
// call to a leaf dependency; idempotent re-execution across crashes is
// guaranteed by the engine's checkpointing, not by the activities.
type Activities struct {
	providers *provider.Registry
	accounts  store.AccountStore
	logger    zerolog.Logger
}

// NewActivities wires activities to their leaf dependencies.
func NewActivities(providers *provider.Registry, accounts store.AccountStore, logger zerolog.Logger) *Activities {
	return &Activities{
		providers: providers,
		accounts:  accounts,
		logger:    logger,
	}
}

// CreatePaymentAccount creates the remote customer resource and returns
// the account with its provider-assigned id populated. The local id stays
// empty; SaveAccount assigns it.
func (a *Activities) CreatePaymentAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	p, err := a.providers.Get(account.ProviderType)
	if err != nil {
		return domain.Account{}, err
	}

	customer, err := p.CreateCustomer(ctx, account.FullName(), account.Email)
	if err != nil {
		return domain.Account{}, err
	}

	a.logger.Info().
		Str("email", account.Email).
		Str("provider_type", string(account.ProviderType)).
		Str("provider_id", customer.ID).
		Msg("payment account created at provider")

	account.ProviderID = customer.ID
	return account, nil
}

// UpdatePaymentAccount pushes the account's current name and email to the
// provider-side customer resource.
func (a *Activities) UpdatePaymentAccount(ctx context.Context, account domain.Account) error {
	p, err := a.providers.Get(account.ProviderType)
	if err != nil {
		return err
	}

	if err := p.UpdateCustomer(ctx, account.ProviderID, account.FullName(), account.Email); err != nil {
		return err
	}

	a.logger.Info().
		Str("account_id", account.ID.String()).
		Str("provider_id", account.ProviderID).
		Msg("payment account updated at provider")
	return nil
}

// SaveAccount persists the account and returns the stored record.
func (a *Activities) SaveAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	return a.accounts.Save(ctx, account)
}

// Step adapters between the typed activities and the engine's StepFunc.

func (a *Activities) createPaymentAccountStep(ctx context.Context, input any) (any, error) {
	account, err := asAccount(input)
	if err != nil {
		return nil, err
	}
	return a.CreatePaymentAccount(ctx, account)
}

func (a *Activities) updatePaymentAccountStep(ctx context.Context, input any) (any, error) {
	account, err := asAccount(input)
	if err != nil {
		return nil, err
	}
	// No return value is consumed; the account passes through unchanged
	// so the save step receives it.
	if err := a.UpdatePaymentAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (a *Activities) saveAccountStep(ctx context.Context, input any) (any, error) {
	account, err := asAccount(input)
	if err != nil {
		return nil, err
	}
	return a.SaveAccount(ctx, account)
}

func asAccount(input any) (domain.Account, error) {
	account, ok := input.(domain.Account)
	if !ok {
		return domain.Account{}, fmt.Errorf("unexpected step input type %T", input)
	}
	return account, nil
}
