package taxii2http

import (
	"net/http"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/authz"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

type collectionResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Alias       string   `json:"alias,omitempty"`
	CanRead     bool     `json:"can_read"`
	CanWrite    bool     `json:"can_write"`
	MediaTypes  []string `json:"media_types,omitempty"`
}

func toAuthzCollection(c taxii2.Collection) authz.Collection {
	return authz.Collection{Key: c.ID, IsPublic: c.IsPublic, IsPublicWrite: c.IsPublicWrite}
}

// handleListCollections serves GET /taxii2/{api_root}/collections/
// (spec.md §4.8). The response omits the collections key entirely when the
// caller cannot read any collection in the root.
func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	all, err := h.repo.GetCollections(r.Context(), root.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	account := accountFrom(r)
	var readable []collectionResponse
	for _, c := range all {
		ac := toAuthzCollection(c)
		if !authz.CanRead(ac, account) {
			continue
		}
		readable = append(readable, collectionResponse{
			ID: c.ID, Title: c.Title, Description: c.Description, Alias: c.Alias,
			CanRead: true, CanWrite: authz.CanWrite(ac, account), MediaTypes: c.MediaTypes,
		})
	}

	if readable == nil {
		h.respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string][]collectionResponse{"collections": readable})
}

// handleGetCollection serves GET /taxii2/{api_root}/collections/{id}/.
func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
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
	account := accountFrom(r)
	ac := toAuthzCollection(*collection)
	h.respondJSON(w, http.StatusOK, collectionResponse{
		ID: collection.ID, Title: collection.Title, Description: collection.Description,
		Alias: collection.Alias, CanRead: true, CanWrite: authz.CanWrite(ac, account),
		MediaTypes: collection.MediaTypes,
	})
}

// loadReadableCollection resolves {id} under root, enforcing read access.
// A collection the caller cannot read is indistinguishable from one that
// doesn't exist (spec.md §4.7): both return NotFound.
func (h *Handler) loadReadableCollection(r *http.Request, apiRootID string) (*taxii2.Collection, error) {
	collection, err := h.repo.GetCollection(r.Context(), apiRootID, pathParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if !authz.CanRead(toAuthzCollection(*collection), accountFrom(r)) {
		return nil, apperr.New(apperr.NotFound, "collection not found")
	}
	return collection, nil
}
