package taxii2http

import (
	"net/http"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

type discoveryResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Default     string   `json:"default,omitempty"`
	APIRoots    []string `json:"api_roots,omitempty"`
}

// handleDiscovery serves GET /taxii2/ (spec.md §4.8).
func (h *Handler) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.PublicDiscovery && accountFrom(r) == nil {
		h.respondError(w, apperr.New(apperr.Unauthorized, "discovery requires authentication"))
		return
	}

	roots, err := h.repo.GetAPIRoots(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := discoveryResponse{Title: h.cfg.Title, Description: h.cfg.Description, Contact: h.cfg.Contact}
	for _, root := range roots {
		resp.APIRoots = append(resp.APIRoots, "/taxii2/"+root.ID+"/")
		if root.Default {
			resp.Default = "/taxii2/" + root.ID + "/"
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

type apiRootResponse struct {
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Versions         []string `json:"versions"`
	MaxContentLength int64    `json:"max_content_length"`
}

// handleAPIRoot serves GET /taxii2/{api_root}/ (spec.md §4.8).
func (h *Handler) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !root.IsPublic && accountFrom(r) == nil {
		h.respondError(w, apperr.New(apperr.Unauthorized, "authentication required for this api root"))
		return
	}
	h.respondJSON(w, http.StatusOK, apiRootResponse{
		Title:            root.Title,
		Description:      root.Description,
		Versions:         []string{"application/taxii+json;version=2.1"},
		MaxContentLength: h.cfg.MaxContentLength,
	})
}

// loadAPIRoot resolves the {api_root} path parameter, mapping a missing
// root to NotFound and an unauthenticated request against a non-public
// root to Unauthorized (spec.md §4.8).
func (h *Handler) loadAPIRoot(r *http.Request) (*taxii2.APIRoot, error) {
	root, err := h.repo.GetAPIRoot(r.Context(), pathParam(r, "api_root"))
	if err != nil {
		if apperr.Is(err, apperr.NotFound) && accountFrom(r) == nil {
			return nil, apperr.New(apperr.Unauthorized, "authentication required")
		}
		return nil, err
	}
	return root, nil
}
