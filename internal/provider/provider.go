// Package provider defines the narrow contract the provisioning workflows
// need from an external payment provider, and a registry of concrete
// implementations keyed by provider type.
package provider

import (
	"context"

	"github.com/lumapay/provision/internal/domain"
)

// Customer is the provider-side view of an account.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// PaymentProvider creates and updates customer resources on a remote
// payment system. Implementations classify failures via
// *domain.ProviderError: transient infrastructure errors are retryable,
// permanent rejections are not.
type PaymentProvider interface {
	// Type identifies the provider.
	Type() domain.ProviderType

	// CreateCustomer creates a remote customer and returns its
	// provider-assigned id. The call itself carries no idempotency key;
	// callers must not re-invoke it for a logical operation that already
	// completed.
	CreateCustomer(ctx context.Context, name, email string) (Customer, error)

	// UpdateCustomer updates the remote customer identified by providerID.
	UpdateCustomer(ctx context.Context, providerID, name, email string) error
}
