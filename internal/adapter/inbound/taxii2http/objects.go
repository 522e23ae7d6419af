package taxii2http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/authz"
	"github.com/darwis-taxii/taxii-server/internal/domain/bundle"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// setPaginationHeaders sets X-TAXII-Date-Added-First/-Last from the first
// and last item's date_added (spec.md §4.8).
func setPaginationHeaders(w http.ResponseWriter, first, last time.Time) {
	if first.IsZero() {
		return
	}
	w.Header().Set("X-TAXII-Date-Added-First", first.UTC().Format(time.RFC3339Nano))
	w.Header().Set("X-TAXII-Date-Added-Last", last.UTC().Format(time.RFC3339Nano))
}

type envelopeResponse struct {
	More    bool              `json:"more,omitempty"`
	Next    string            `json:"next,omitempty"`
	Objects []json.RawMessage `json:"objects,omitempty"`
}

// handleListObjects serves GET …/collections/{id}/objects/ (spec.md §4.8).
func (h *Handler) handleListObjects(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.loadReadableCollection(r, root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	params, err := h.parseQueryParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.repo.GetObjects(r.Context(), collection.ID, params)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeObjectsEnvelope(w, result)
}

// handleGetObject serves GET …/objects/{object_id}/: same shape as the
// list, filtered to match_id=[object_id].
func (h *Handler) handleGetObject(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.loadReadableCollection(r, root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	params, err := h.parseQueryParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	params.MatchID = []string{pathParam(r, "object_id")}

	result, err := h.repo.GetObjects(r.Context(), collection.ID, params)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if len(result.Items) == 0 {
		h.respondError(w, apperr.New(apperr.NotFound, "object not found"))
		return
	}
	h.writeObjectsEnvelope(w, result)
}

func (h *Handler) writeObjectsEnvelope(w http.ResponseWriter, result taxii2.PaginatedResult[taxii2.ObjectRow]) {
	resp := envelopeResponse{More: result.More, Next: result.Next}
	var first, last time.Time
	for i, row := range result.Items {
		raw, err := bundle.EncodeObject(row.Object)
		if err != nil {
			h.respondError(w, apperr.Wrap(apperr.Internal, "encode object", err))
			return
		}
		resp.Objects = append(resp.Objects, raw)
		if i == 0 {
			first = row.DateAdded
		}
		last = row.DateAdded
	}
	setPaginationHeaders(w, first, last)
	h.respondJSON(w, http.StatusOK, resp)
}

// handleAddObjects serves POST …/collections/{id}/objects/ (spec.md §4.8).
func (h *Handler) handleAddObjects(w http.ResponseWriter, r *http.Request) {
	if !acceptsTaxii(r) {
		h.respondError(w, apperr.New(apperr.Unsupported, "unacceptable media range"))
		return
	}
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.repo.GetCollection(r.Context(), root.ID, pathParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !authz.CanWrite(toAuthzCollection(*collection), accountFrom(r)) {
		h.respondError(w, apperr.New(apperr.NotFound, "collection not found"))
		return
	}

	if h.cfg.MaxContentLength > 0 && r.ContentLength > h.cfg.MaxContentLength {
		h.respondError(w, apperr.New(apperr.TooLarge, "request exceeds max_content_length"))
		return
	}
	body := r.Body
	if h.cfg.MaxContentLength > 0 {
		body = http.MaxBytesReader(w, body, h.cfg.MaxContentLength)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		h.respondError(w, apperr.New(apperr.TooLarge, "request exceeds max_content_length"))
		return
	}

	bun, err := bundle.Decode(raw, bundle.AllowCustom)
	if err != nil {
		h.respondError(w, err)
		return
	}

	job, err := h.repo.AddObjects(r.Context(), root.ID, collection.ID, bun.Objects)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, toJobResponse(job, nil))
}

// handleDeleteObject serves DELETE …/objects/{object_id}/ (spec.md §4.8).
// Requires both read and write.
func (h *Handler) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.loadReadableCollection(r, root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !authz.CanWrite(toAuthzCollection(*collection), accountFrom(r)) {
		h.respondError(w, apperr.New(apperr.Forbidden, "write access required"))
		return
	}

	q := r.URL.Query()
	err = h.repo.DeleteObject(r.Context(), collection.ID, pathParam(r, "object_id"), q["match_version[]"], q["match_spec_version[]"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetVersions serves GET …/objects/{object_id}/versions/.
func (h *Handler) handleGetVersions(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.loadReadableCollection(r, root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	params, err := h.parseQueryParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.repo.GetVersions(r.Context(), collection.ID, pathParam(r, "object_id"), params)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"more":     result.More,
		"next":     result.Next,
		"versions": result.Items,
	})
}

// handleManifest serves GET …/collections/{id}/manifest/.
func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	collection, err := h.loadReadableCollection(r, root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	params, err := h.parseQueryParams(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.repo.GetManifest(r.Context(), collection.ID, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var first, last time.Time
	for i, entry := range result.Items {
		if i == 0 {
			first = entry.DateAdded
		}
		last = entry.DateAdded
	}
	setPaginationHeaders(w, first, last)
	h.respondJSON(w, http.StatusOK, map[string]any{
		"more":    result.More,
		"next":    result.Next,
		"objects": result.Items,
	})
}
