// Package stripe adapts the Stripe customers API to the PaymentProvider
// contract.
package stripe

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/lumapay/provision/internal/domain"
	"github.com/lumapay/provision/internal/provider"
)

const providerName = "stripe"

// Provider implements provider.PaymentProvider on top of stripe-go.
type Provider struct {
	api    *client.API
	logger zerolog.Logger
}

var _ provider.PaymentProvider = (*Provider)(nil)

// New creates a Provider authenticated with the given secret key.
func New(apiKey string, logger zerolog.Logger) *Provider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Provider{api: api, logger: logger}
}

// NewWithBackends creates a Provider against custom backends. Tests use
// it to point the client at a local httptest server.
func NewWithBackends(apiKey string, backends *stripeapi.Backends, logger zerolog.Logger) *Provider {
	return &Provider{api: client.New(apiKey, backends), logger: logger}
}

func (p *Provider) Type() domain.ProviderType {
	return domain.ProviderStripe
}

func (p *Provider) CreateCustomer(ctx context.Context, name, email string) (provider.Customer, error) {
	params := &stripeapi.CustomerParams{
		Name:  stripeapi.String(name),
		Email: stripeapi.String(email),
	}
	params.Context = ctx

	customer, err := p.api.Customers.New(params)
	if err != nil {
		p.logger.Error().Err(err).Str("email", email).Msg("stripe customer create failed")
		return provider.Customer{}, classify("create customer", err)
	}

	p.logger.Info().
		Str("email", email).
		Str("provider_id", customer.ID).
		Msg("stripe customer created")

	return provider.Customer{
		ID:    customer.ID,
		Name:  customer.Name,
		Email: customer.Email,
	}, nil
}

func (p *Provider) UpdateCustomer(ctx context.Context, providerID, name, email string) error {
	params := &stripeapi.CustomerParams{
		Name:  stripeapi.String(name),
		Email: stripeapi.String(email),
	}
	params.Context = ctx

	if _, err := p.api.Customers.Update(providerID, params); err != nil {
		p.logger.Error().Err(err).Str("provider_id", providerID).Msg("stripe customer update failed")
		return classify("update customer", err)
	}

	p.logger.Info().
		Str("provider_id", providerID).
		Msg("stripe customer updated")
	return nil
}

// classify maps a stripe-go error onto the domain taxonomy. Server-side
// and rate-limit failures are transient; any other API response is a
// permanent rejection. Errors without a Stripe response (transport
// failures, timeouts) are transient.
func classify(op string, err error) error {
	transient := true

	var sErr *stripeapi.Error
	if errors.As(err, &sErr) {
		transient = sErr.HTTPStatusCode >= 500 || sErr.HTTPStatusCode == 429
	}

	return &domain.ProviderError{
		Provider:  providerName,
		Op:        op,
		Err:       err,
		Transient: transient,
	}
}
