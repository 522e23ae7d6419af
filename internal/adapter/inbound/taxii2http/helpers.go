package taxii2http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

type contextKey int

const accountContextKey contextKey = 0

// withAccount resolves an optional bearer token into an *auth.Account and
// attaches it to the request context. A missing, malformed, or invalid
// token leaves the request anonymous; handlers that require authentication
// check accountFrom themselves.
func (h *Handler) withAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := h.resolveAccount(r)
		if account != nil {
			r = r.WithContext(context.WithValue(r.Context(), accountContextKey, account))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) resolveAccount(r *http.Request) *auth.Account {
	if h.tokens == nil {
		return nil
	}
	raw := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		return nil
	}
	accountID, err := h.tokens.Validate(token)
	if err != nil {
		return nil
	}
	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		return nil
	}
	return account
}

func accountFrom(r *http.Request) *auth.Account {
	account, _ := r.Context().Value(accountContextKey).(*auth.Account)
	return account
}

// respondJSON writes a JSON response with the TAXII 2.1 media type.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode taxii2 response", "error", err)
	}
}

// errorResponse is the TAXII 2.1 ErrorResponse shape (spec.md §4.8, §7).
type errorResponse struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	HTTPStatus  int    `json:"http_status"`
}

// userFacing reports whether kind's message is safe to echo to the client
// (spec.md §7): InvalidInput, ConstraintViolation, NotFound, TooLarge.
func userFacing(kind apperr.Kind) bool {
	switch kind {
	case apperr.InvalidInput, apperr.ConstraintViolation, apperr.NotFound, apperr.TooLarge:
		return true
	default:
		return false
	}
}

// respondError maps err's apperr.Kind to an HTTP status and ErrorResponse
// body. Internal/Transient errors never leak their message to the client.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	resp := errorResponse{Title: string(kind), HTTPStatus: status}
	if userFacing(kind) {
		resp.Description = err.Error()
	} else {
		resp.Title = "internal_error"
		h.logger.Error("taxii2 internal error", "error", err)
	}
	h.respondJSON(w, status, resp)
}

func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// acceptsTaxii reports whether the request's Accept header permits the
// TAXII 2.1 media type, or has no Accept header at all.
func acceptsTaxii(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" || accept == "*/*" {
		return true
	}
	return strings.Contains(accept, "application/taxii+json") || strings.Contains(accept, "*/*")
}

// parseQueryParams builds a taxii2.QueryParams from the request's query
// string (spec.md §4.6): limit, added_after, next, match_id[], match_type[],
// match_version[], match_spec_version[].
func (h *Handler) parseQueryParams(r *http.Request) (taxii2.QueryParams, error) {
	q := r.URL.Query()
	params := taxii2.QueryParams{
		Next:             q.Get("next"),
		MatchID:          q["match_id[]"],
		MatchType:        q["match_type[]"],
		MatchVersion:     q["match_version[]"],
		MatchSpecVersion: q["match_spec_version[]"],
	}

	limit := h.cfg.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return taxii2.QueryParams{}, apperr.New(apperr.InvalidInput, "limit must be a non-negative integer")
		}
		limit = parsed
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}
	params.Limit = limit

	if raw := q.Get("added_after"); raw != "" {
		ts, err := stixid.ParseTimestamp(raw)
		if err != nil {
			return taxii2.QueryParams{}, apperr.New(apperr.InvalidInput, "added_after is not a valid timestamp")
		}
		t := ts.Time()
		params.AddedAfter = &t
	}

	return params, nil
}
