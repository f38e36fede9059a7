// Package server exposes the provisioning service over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lumapay/provision/internal/provision"
	"github.com/lumapay/provision/internal/server/middleware"
)

// Config describes the WebAPI.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// WebAPI is the HTTP front end.
type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

// NewWebAPI builds the router and server around the provisioning service.
func NewWebAPI(logger zerolog.Logger, config Config, service *provision.Service) *WebAPI {
	handler := NewAccountHandler(service)

	router := chi.NewRouter()
	router.Use(middleware.Logger(&logger))
	router.Use(chimiddleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", handler.CreateAccount)
		r.Patch("/accounts/{id}", handler.UpdateAccount)
		r.Get("/accounts", handler.ListAccounts)
	})

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

// Router returns the underlying handler, mainly for tests.
func (w *WebAPI) Router() http.Handler {
	return w.router
}

// Start serves until an error occurs or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		if err := w.server.Shutdown(ctx); err != nil {
			_ = w.server.Close()
			return err
		}
	}
	return nil
}
