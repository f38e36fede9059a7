package provider

import (
	"github.com/lumapay/provision/internal/domain"
)

// Registry resolves a PaymentProvider by provider type, so orchestration
// code stays polymorphic over concrete providers.
type Registry struct {
	providers map[domain.ProviderType]PaymentProvider
}

// NewRegistry builds a Registry from the given providers.
func NewRegistry(providers ...PaymentProvider) *Registry {
	r := &Registry{providers: make(map[domain.ProviderType]PaymentProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Type()] = p
	}
	return r
}

// Get returns the provider for the given type. An unknown type is a
// request-level error, not a provisioning failure.
func (r *Registry) Get(t domain.ProviderType) (PaymentProvider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, &domain.ValidationError{Field: "providerType", Reason: "unsupported provider " + string(t)}
	}
	return p, nil
}
