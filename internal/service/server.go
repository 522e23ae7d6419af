// Package service wires repositories, auth, and the signal bus into the
// two protocol surfaces and exposes a single http.Handler (spec.md §2, §6).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darwis-taxii/taxii-server/internal/adapter/inbound/taxii1x"
	"github.com/darwis-taxii/taxii-server/internal/adapter/inbound/taxii2http"
	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/memory"
	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/sqlstore"
	"github.com/darwis-taxii/taxii-server/internal/config"
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/signalbus"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// Server is the fully wired taxiid process: both TAXII protocol surfaces,
// the management API, metrics, and the background job-cleanup sweep, behind
// one http.Handler.
type Server struct {
	handler  http.Handler
	sqlStore *sqlstore.Store // nil when the memory backend is selected
	cleaner  *JobCleaner
	logger   *slog.Logger
}

// New builds a Server from cfg: opens (or skips) the storage backend,
// constructs both repository sets, seeds the TAXII 1.x service topology,
// and mounts every HTTP surface on one mux.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	var (
		taxii1Repo taxii1.Repository
		taxii2Repo taxii2.Repository
		accounts   auth.AccountStore
		activity   auth.ActivityStore
		sqlStore   *sqlstore.Store
	)

	switch cfg.Storage.Driver {
	case "sqlite":
		st, err := sqlstore.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		sqlStore = st
		taxii1Repo = sqlstore.NewTaxii1Store(st)
		taxii2Repo = sqlstore.NewTaxii2Store(st)
		accounts = sqlstore.NewAuthStore(st)
		activity = sqlstore.NewActivityStore(st)
	default:
		taxii1Repo = memory.NewTaxii1Store()
		taxii2Repo = memory.NewTaxii2Store()
		accounts = memory.NewAuthStore()
		activity = memory.NewActivityStore()
	}

	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)

	services, err := seedTaxii1Services(context.Background(), taxii1Repo, cfg.Taxii1x.Services)
	if err != nil {
		return nil, fmt.Errorf("seeding taxii1x services: %w", err)
	}

	bus := signalbus.New()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	taxii2Handler := taxii2http.New(taxii2Repo, accounts, tokens, taxii2http.Config{
		Title:            cfg.Taxii2.Title,
		Description:      cfg.Taxii2.Description,
		Contact:          cfg.Taxii2.Contact,
		PublicDiscovery:  cfg.Taxii2.PublicDiscovery,
		MaxContentLength: cfg.Taxii2.MaxContentLength,
		DefaultLimit:     cfg.Taxii2.DefaultLimit,
		MaxLimit:         cfg.Taxii2.MaxLimit,
	}, logger)

	taxii1Handler := taxii1x.New(taxii1Repo, accounts, tokens, services, logger).WithBus(bus)

	mux := http.NewServeMux()
	mux.Handle("/taxii2/", taxii2Handler.Routes())
	mux.Handle("/services/", taxii1Handler.Routes())
	mux.HandleFunc("GET /management/health", handleHealth)
	mux.HandleFunc("POST /management/auth", handleAuth(accounts, auth.NewActivityLog(activity), tokens, logger))
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	cleaner := NewJobCleaner(taxii2Repo, DefaultJobCleanupInterval, metrics, logger)

	return &Server{
		handler:  metrics.instrument(mux),
		sqlStore: sqlStore,
		cleaner:  cleaner,
		logger:   logger,
	}, nil
}

// Handler returns the combined HTTP handler for both protocol surfaces plus
// the management API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start launches background maintenance (the job-cleanup sweep). Close must
// be called to release it.
func (s *Server) Start(ctx context.Context) {
	s.cleaner.Start(ctx)
}

// Close stops background work and releases the storage backend.
func (s *Server) Close() error {
	s.cleaner.Stop()
	if s.sqlStore != nil {
		return s.sqlStore.Close()
	}
	return nil
}

// seedTaxii1Services converts the configured service list into
// taxii1x.ServiceInfo and persists each one, so Discovery (which reads from
// the repository, not the config) advertises them.
func seedTaxii1Services(ctx context.Context, repo taxii1.Repository, configured []config.ServiceConfig) ([]taxii1x.ServiceInfo, error) {
	out := make([]taxii1x.ServiceInfo, 0, len(configured))
	for _, svcCfg := range configured {
		props := map[string]any{
			"address":          svcCfg.Address,
			"protocol_binding": firstOrEmpty(svcCfg.ProtocolBindings),
			"message_bindings": svcCfg.MessageBindings,
			"available":        svcCfg.Available,
			"description":      svcCfg.Description,
		}
		if svcCfg.MaxResultSize > 0 {
			props["max_result_size"] = svcCfg.MaxResultSize
		}
		for k, v := range svcCfg.Properties {
			props[k] = v
		}

		if err := repo.UpsertService(ctx, taxii1.Service{
			ID:         svcCfg.ID,
			Type:       svcCfg.Type,
			Properties: props,
		}); err != nil {
			return nil, fmt.Errorf("service %q: %w", svcCfg.ID, err)
		}

		out = append(out, taxii1x.ServiceInfo{
			ID:                     svcCfg.ID,
			Type:                   svcCfg.Type,
			Address:                svcCfg.Address,
			Description:            svcCfg.Description,
			ProtocolBindings:       svcCfg.ProtocolBindings,
			MessageBindings:        svcCfg.MessageBindings,
			Available:              svcCfg.Available,
			AuthenticationRequired: svcCfg.AuthenticationRequired,
			Properties:             props,
		})
	}
	return out, nil
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
