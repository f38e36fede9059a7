package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumapay/provision/internal/domain"
	"github.com/lumapay/provision/internal/provision"
)

// accountResponse is the wire shape of an account.
type accountResponse struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	ProviderType string    `json:"providerType"`
	ProviderID   string    `json:"providerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type createAccountRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ProviderType string `json:"providerType"`
}

type updateAccountRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AccountHandler exposes the provisioning service over HTTP.
type AccountHandler struct {
	service *provision.Service
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(service *provision.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}

	account, err := h.service.CreateAccount(ctx, provision.CreateAccountRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		ProviderType: domain.ProviderType(req.ProviderType),
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, &domain.ValidationError{Field: "id", Reason: "must be a uuid"})
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}

	account, err := h.service.UpdateAccount(ctx, provision.UpdateAccountRequest{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.service.GetAccounts(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, toAccountResponse(a))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:           a.ID.String(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		ProviderType: string(a.ProviderType),
		ProviderID:   a.ProviderID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// statusFor maps the error taxonomy onto stable response classes. Retry
// counts and transport details never leak into responses.
func statusFor(err error) int {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	if errors.Is(err, domain.ErrAlreadyExists) || domain.IsConflict(err) {
		return http.StatusConflict
	}
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		if pe.Transient {
			// Attempt budget exhausted against the provider.
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zerolog.Ctx(ctx)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
