package taxii1x

import (
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/signalbus"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

// Handler serves the TAXII 1.x XML surface: one POST endpoint per
// registered service, dispatching by (X-TAXII-Content-Type,
// root-element-name) (spec.md §4.9).
type Handler struct {
	repo     taxii1.Repository
	accounts auth.AccountStore
	tokens   *auth.TokenIssuer
	registry *HandlerRegistry
	services map[string]ServiceInfo
	logger   *slog.Logger
	bus      *signalbus.Bus
}

// WithBus attaches a signal bus so ingest handlers publish events for
// subscribers (spec.md §4.10). Returns h for chaining with New.
func (h *Handler) WithBus(bus *signalbus.Bus) *Handler {
	h.bus = bus
	return h
}

// New builds a Handler serving the given services.
func New(repo taxii1.Repository, accounts auth.AccountStore, tokens *auth.TokenIssuer, services []ServiceInfo, logger *slog.Logger) *Handler {
	byID := make(map[string]ServiceInfo, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}
	return &Handler{
		repo:     repo,
		accounts: accounts,
		tokens:   tokens,
		registry: NewHandlerRegistry(),
		services: byID,
		logger:   logger,
	}
}

// Routes registers the per-service POST/OPTIONS endpoint.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /services/{service_id}/", h.handleMessage)
	mux.HandleFunc("OPTIONS /services/{service_id}/", h.handleOptions)
	return mux
}

func (h *Handler) resolveAccount(r *http.Request) *auth.Account {
	if h.tokens == nil {
		return nil
	}
	raw := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	accountID, err := h.tokens.Validate(token)
	if err != nil {
		return nil
	}
	acct, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		return nil
	}
	return acct
}

// handleOptions answers a capability probe with the permitted protocol
// and message bindings (spec.md §4.9).
func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.services[r.PathValue("service_id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header()["X-TAXII-Protocol"] = svc.ProtocolBindings
	w.Header()["X-TAXII-Content-Type"] = svc.MessageBindings
	w.WriteHeader(http.StatusOK)
}

// handleMessage is the single POST entrypoint for every TAXII 1.x message
// type: validate headers, sniff the message's XML root element, dispatch
// to the matching HandlerFunc, and write back either its response or a
// Status_Message describing the failure (spec.md §4.9, §7).
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.services[r.PathValue("service_id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := requiredHTTPHeaders(r); err != nil {
		h.writeStatus(w, "", err)
		return
	}
	headers := extractHeaders(r)
	version := headers.Version()
	switch version {
	case VIDMessageXML10:
		err := headers.Validate10()
		if err != nil {
			h.writeStatus(w, "", err)
			return
		}
	case VIDMessageXML11:
		if err := headers.Validate11(); err != nil {
			h.writeStatus(w, "", err)
			return
		}
	default:
		h.writeStatus(w, "", apperr.New(apperr.InvalidInput, "unsupported X-TAXII-Content-Type"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeStatus(w, "", apperr.Wrap(apperr.InvalidInput, "failed to read request body", err))
		return
	}

	messageType, err := rootElementName(body)
	if err != nil {
		h.writeStatus(w, "", err)
		return
	}

	hc := HandlerContext{
		Account: h.resolveAccount(r),
		Repo:    h.repo,
		Service: svc,
		Bus:     h.bus,
	}
	if svc.AuthenticationRequired && hc.Account == nil {
		h.writeStatus(w, "", apperr.New(apperr.Unauthorized, "this service requires authentication"))
		return
	}

	resp, err := h.registry.Dispatch(r.Context(), hc, version, messageType, body)
	if err != nil {
		h.writeStatus(w, version, err)
		return
	}

	h.writeXML(w, version, http.StatusOK, resp)
}

func (h *Handler) contentTypeFor(version string) string {
	switch version {
	case VIDMessageXML11:
		return VIDMessageXML11
	default:
		return VIDMessageXML10
	}
}

func (h *Handler) writeXML(w http.ResponseWriter, version string, status int, data any) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("X-TAXII-Content-Type", h.contentTypeFor(version))
	w.Header().Set("X-TAXII-Services", map[string]string{VIDMessageXML11: VIDServices11, VIDMessageXML10: VIDServices10}[h.contentTypeFor(version)])
	w.WriteHeader(status)
	if err := xml.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode XML response", "error", err)
	}
}

// writeStatus maps err to a Status_Message and writes it with HTTP 200:
// TAXII errors travel inside the message envelope, not the HTTP status
// line (spec.md §7).
func (h *Handler) writeStatus(w http.ResponseWriter, version string, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal || kind == apperr.Transient {
		h.logger.Error("taxii1x internal error", "error", err)
	}
	status := StatusMessage{
		StatusType: apperr.TaxiiStatusType(kind),
		Message:    err.Error(),
	}
	if version == "" {
		version = VIDMessageXML11
	}
	h.writeXML(w, version, http.StatusOK, status)
}
