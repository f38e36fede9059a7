package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v78"

	"github.com/lumapay/provision/internal/domain"
)

// newTestProvider points the stripe client at a local server. Network
// retries are disabled so failure tests observe exactly one request.
func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(server.URL),
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
	})

	return NewWithBackends("sk_test_fake", &stripeapi.Backends{API: backend}, zerolog.Nop())
}

func writeCustomer(w http.ResponseWriter, id, name, email string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"object": "customer",
		"name":   name,
		"email":  email,
	})
}

func writeStripeError(w http.ResponseWriter, status int, errType, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	})
}

func TestCreateCustomer(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/customers", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Chandler Bing", r.PostForm.Get("name"))
		require.Equal(t, "cbing@example.com", r.PostForm.Get("email"))

		writeCustomer(w, "cus_123", r.PostForm.Get("name"), r.PostForm.Get("email"))
	}))

	customer, err := p.CreateCustomer(context.Background(), "Chandler Bing", "cbing@example.com")
	require.NoError(t, err)

	assert.Equal(t, "cus_123", customer.ID)
	assert.Equal(t, "Chandler Bing", customer.Name)
	assert.Equal(t, "cbing@example.com", customer.Email)
}

func TestCreateCustomerServerError(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStripeError(w, http.StatusInternalServerError, "api_error", "something went wrong")
	}))

	_, err := p.CreateCustomer(context.Background(), "Chandler Bing", "cbing@example.com")

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Transient, "5xx responses are retryable")
	assert.True(t, domain.IsRetryable(err))
}

func TestCreateCustomerRejected(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStripeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid email address")
	}))

	_, err := p.CreateCustomer(context.Background(), "Chandler Bing", "not-an-email")

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Transient, "4xx rejections must not be retried")
	assert.False(t, domain.IsRetryable(err))
}

func TestUpdateCustomer(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/customers/cus_123", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Joseph Tribbiani", r.PostForm.Get("name"))

		writeCustomer(w, "cus_123", r.PostForm.Get("name"), r.PostForm.Get("email"))
	}))

	err := p.UpdateCustomer(context.Background(), "cus_123", "Joseph Tribbiani", "jtribbiani@example.com")
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{
			name:      "server error",
			err:       &stripeapi.Error{HTTPStatusCode: http.StatusInternalServerError},
			transient: true,
		},
		{
			name:      "rate limited",
			err:       &stripeapi.Error{HTTPStatusCode: http.StatusTooManyRequests},
			transient: true,
		},
		{
			name:      "card declined",
			err:       &stripeapi.Error{HTTPStatusCode: http.StatusPaymentRequired},
			transient: false,
		},
		{
			name:      "invalid request",
			err:       &stripeapi.Error{HTTPStatusCode: http.StatusBadRequest},
			transient: false,
		},
		{
			name:      "transport failure",
			err:       errors.New("connection reset by peer"),
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify("create customer", tt.err)

			var pe *domain.ProviderError
			require.ErrorAs(t, classified, &pe)
			assert.Equal(t, tt.transient, pe.Transient)
			assert.Equal(t, "stripe", pe.Provider)
		})
	}
}
