// Package server implements the gateway runtime: one HTTP listener
// that reconciles caller identity and forwards to upstream services.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/authn"

	"github.com/otterscale/otterscale-gateway/internal/middleware"
	"github.com/otterscale/otterscale-gateway/internal/transport"
	"github.com/otterscale/otterscale-gateway/internal/transport/http"
)

// Config holds the runtime parameters for a Server.
type Config struct {
	Address          string
	AllowedOrigins   []string
	AuthEnabled      bool
	KeycloakRealmURL string
	KeycloakClientID string
}

// Server binds the gateway HTTP listener and runs it via
// transport.Serve.
type Server struct {
	handler   *Handler
	reconcile *middleware.Reconcile
}

// NewServer returns a Server wired to the given handler and
// reconciliation middleware.
func NewServer(handler *Handler, reconcile *middleware.Reconcile) *Server {
	return &Server{handler: handler, reconcile: reconcile}
}

// PublicPaths are served without authentication or reconciliation.
func PublicPaths() []string {
	return []string{
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo",
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo",
		MetricsPath,
	}
}

// Run starts the HTTP server. It blocks until ctx is cancelled or an
// unrecoverable error occurs.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	var auth *authn.Middleware
	if cfg.AuthEnabled {
		oidc, err := middleware.NewOIDC(cfg.KeycloakRealmURL, cfg.KeycloakClientID)
		if err != nil {
			return fmt.Errorf("failed to create OIDC middleware: %w", err)
		}
		auth = oidc
	} else {
		slog.Warn("token verification is disabled; identity claims are read without signature checks")
	}

	httpSrv, err := http.NewServer(
		http.WithAddress(cfg.Address),
		http.WithAllowedOrigins(cfg.AllowedOrigins),
		http.WithAuthMiddleware(auth),
		http.WithMiddleware(s.reconcile.Wrap),
		http.WithPublicPaths(PublicPaths()),
		http.WithMount(s.handler.Mount),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return transport.Serve(ctx, httpSrv)
}
