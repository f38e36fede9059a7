package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProviderTypeValid(t *testing.T) {
	assert.True(t, ProviderStripe.Valid())
	assert.False(t, ProviderType("paypal").Valid())
	assert.False(t, ProviderType("").Valid())
}

func TestAccountProvisioned(t *testing.T) {
	var a Account
	assert.False(t, a.Provisioned())

	a.ID = uuid.New()
	assert.False(t, a.Provisioned(), "missing provider id")

	a.ProviderID = "cus_123"
	assert.True(t, a.Provisioned())
}

func TestAccountFullName(t *testing.T) {
	a := Account{FirstName: "Chandler", LastName: "Bing"}
	assert.Equal(t, "Chandler Bing", a.FullName())
}
