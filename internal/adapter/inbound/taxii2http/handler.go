// Package taxii2http implements the TAXII 2.1 HTTP surface: discovery, API
// root info, collections, object CRUD, manifest, versions, and job status
// (spec.md §4.8).
package taxii2http

import (
	"log/slog"
	"net/http"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// mediaType is the TAXII 2.1 content type used for every request and
// response body on this surface.
const mediaType = "application/taxii+json;version=2.1"

// Config carries the handler's static, deployment-level settings.
type Config struct {
	Title            string
	Description      string
	Contact          string
	PublicDiscovery  bool
	MaxContentLength int64
	DefaultLimit     int
	MaxLimit         int
}

// Handler serves the TAXII 2.1 HTTP surface over a Repository.
type Handler struct {
	repo     taxii2.Repository
	accounts auth.AccountStore
	tokens   *auth.TokenIssuer
	cfg      Config
	logger   *slog.Logger
}

// New builds a Handler. tokens may be nil, in which case every request is
// treated as anonymous (useful for tests against public collections only).
func New(repo taxii2.Repository, accounts auth.AccountStore, tokens *auth.TokenIssuer, cfg Config, logger *slog.Logger) *Handler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 1000
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 1000
	}
	return &Handler{repo: repo, accounts: accounts, tokens: tokens, cfg: cfg, logger: logger}
}

// Routes registers every TAXII 2.1 endpoint on a fresh ServeMux, wrapped in
// the account-resolution middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /taxii2/", h.handleDiscovery)
	mux.HandleFunc("GET /taxii2/{api_root}/", h.handleAPIRoot)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/", h.handleListCollections)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/{id}/", h.handleGetCollection)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/{id}/manifest/", h.handleManifest)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/{id}/objects/", h.handleListObjects)
	mux.HandleFunc("POST /taxii2/{api_root}/collections/{id}/objects/", h.handleAddObjects)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/{id}/objects/{object_id}/", h.handleGetObject)
	mux.HandleFunc("DELETE /taxii2/{api_root}/collections/{id}/objects/{object_id}/", h.handleDeleteObject)
	mux.HandleFunc("GET /taxii2/{api_root}/collections/{id}/objects/{object_id}/versions/", h.handleGetVersions)
	mux.HandleFunc("GET /taxii2/{api_root}/status/{job_id}/", h.handleGetStatus)

	return h.withAccount(mux)
}
