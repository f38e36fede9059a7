package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProviderType identifies the external payment provider backing an account.
type ProviderType string

const (
	ProviderStripe ProviderType = "stripe"
)

// Valid reports whether p is a known provider type.
func (p ProviderType) Valid() bool {
	return p == ProviderStripe
}

// Account is the system-of-record view of a provisioned payment account.
//
// ProviderID is empty while provisioning is in flight; an account is only
// handed back to callers once both ID and ProviderID are populated.
type Account struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	ProviderType ProviderType
	ProviderID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Provisioned reports whether the account has completed provisioning on
// both sides: a store-assigned id and a provider-assigned id.
func (a Account) Provisioned() bool {
	return a.ID != uuid.Nil && a.ProviderID != ""
}

// FullName is the display name sent to the provider.
func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
