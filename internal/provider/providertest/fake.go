// Package providertest provides an in-memory PaymentProvider for tests.
package providertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lumapay/provision/internal/domain"
	"github.com/lumapay/provision/internal/provider"
)

// FakeProvider records calls and can be programmed to fail a number of
// times before succeeding, or to reject permanently.
type FakeProvider struct {
	mu sync.Mutex

	nextID        int
	createCalls   int
	updateCalls   int
	failuresLeft  int
	rejectCreates bool

	updated map[string]provider.Customer
}

var _ provider.PaymentProvider = (*FakeProvider)(nil)

// New creates a FakeProvider that succeeds immediately.
func New() *FakeProvider {
	return &FakeProvider{updated: make(map[string]provider.Customer)}
}

// FailTimes makes the next n provider calls fail with a transient error.
func (f *FakeProvider) FailTimes(n int) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failuresLeft = n
	return f
}

// RejectCreates makes every create call fail with a permanent rejection.
func (f *FakeProvider) RejectCreates() *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectCreates = true
	return f
}

func (f *FakeProvider) Type() domain.ProviderType {
	return domain.ProviderStripe
}

func (f *FakeProvider) CreateCustomer(ctx context.Context, name, email string) (provider.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++

	if f.rejectCreates {
		return provider.Customer{}, &domain.ProviderError{
			Provider:  "fake",
			Op:        "create customer",
			Err:       errors.New("email domain blocked"),
			Transient: false,
		}
	}
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return provider.Customer{}, &domain.ProviderError{
			Provider:  "fake",
			Op:        "create customer",
			Err:       errors.New("upstream timeout"),
			Transient: true,
		}
	}

	f.nextID++
	return provider.Customer{
		ID:    fmt.Sprintf("cus_%d", f.nextID+122),
		Name:  name,
		Email: email,
	}, nil
}

func (f *FakeProvider) UpdateCustomer(ctx context.Context, providerID, name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++

	if f.failuresLeft > 0 {
		f.failuresLeft--
		return &domain.ProviderError{
			Provider:  "fake",
			Op:        "update customer",
			Err:       errors.New("upstream timeout"),
			Transient: true,
		}
	}

	f.updated[providerID] = provider.Customer{ID: providerID, Name: name, Email: email}
	return nil
}

// CreateCalls returns how many times CreateCustomer was invoked.
func (f *FakeProvider) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// UpdateCalls returns how many times UpdateCustomer was invoked.
func (f *FakeProvider) UpdateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls
}

// Updated returns the last update pushed for the given provider id.
func (f *FakeProvider) Updated(providerID string) (provider.Customer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.updated[providerID]
	return c, ok
}
