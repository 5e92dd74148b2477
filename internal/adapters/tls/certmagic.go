// Package tls serves the router over HTTPS with certificates managed by
// CertMagic, solving ACME DNS-01 challenges through Azure DNS.
package tls

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/cockroachdb/errors"
	"github.com/libdns/azure"

	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/domain"
)

// Server wraps an HTTP server with automatic TLS.
type Server struct {
	config    config.TLSConfig
	server    config.ServerConfig
	handler   http.Handler
	logger    *slog.Logger
	tlsConfig *tls.Config

	mu   sync.Mutex
	http *http.Server
}

// NewServer creates a server for handler. With TLS disabled it serves plain
// HTTP.
func NewServer(cfg config.TLSConfig, server config.ServerConfig, handler http.Handler, logger *slog.Logger) (*Server, error) {
	s := &Server{
		config:  cfg,
		server:  server,
		handler: handler,
		logger:  logger,
	}
	if !cfg.Enabled {
		return s, nil
	}

	if len(cfg.Domains) == 0 {
		return nil, &domain.ConfigError{Field: "tls.domains", Message: "TLS enabled but no domains specified"}
	}
	if cfg.Email == "" {
		return nil, &domain.ConfigError{Field: "tls.email", Message: "TLS enabled but no email specified"}
	}

	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = cfg.Email
	if cfg.Staging {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}
	if cfg.CacheDir != "" {
		certmagic.Default.Storage = &certmagic.FileStorage{Path: cfg.CacheDir}
	}

	// An empty client ID selects the system assigned managed identity.
	certmagic.DefaultACME.DNS01Solver = &certmagic.DNS01Solver{
		DNSManager: certmagic.DNSManager{
			DNSProvider: &azure.Provider{
				SubscriptionId:    cfg.DNS.SubscriptionID,
				ResourceGroupName: cfg.DNS.ResourceGroupName,
				ClientId:          cfg.DNS.ClientID,
			},
		},
	}

	tlsConfig, err := certmagic.TLS(cfg.Domains)
	if err != nil {
		return nil, errors.Wrap(err, "configuring TLS")
	}
	s.tlsConfig = tlsConfig
	return s, nil
}

// Enabled reports whether the server terminates TLS.
func (s *Server) Enabled() bool {
	return s.config.Enabled
}

// ListenAndServe starts the server on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.server.Address(),
		Handler:           s.handler,
		TLSConfig:         s.tlsConfig,
		ReadTimeout:       s.server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.server.WriteTimeout,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info("starting HTTP server (TLS disabled)", "address", srv.Addr)
		return srv.ListenAndServe()
	}

	s.logger.Info("starting HTTPS server with DNS-01 challenge",
		"address", srv.Addr,
		"domains", s.config.Domains,
	)
	return srv.ListenAndServeTLS("", "")
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// TLSConfig returns the TLS configuration, nil when TLS is disabled.
func (s *Server) TLSConfig() *tls.Config {
	return s.tlsConfig
}

// ManageCertificates obtains certificates for the configured domains before
// the server starts.
func (s *Server) ManageCertificates(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.logger.Info("obtaining certificates", "domains", s.config.Domains)
	if err := certmagic.ManageSync(ctx, s.config.Domains); err != nil {
		return errors.Wrap(err, "managing certificates")
	}
	s.logger.Info("certificates obtained")
	return nil
}
