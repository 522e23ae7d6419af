package taxii2http

import (
	"net/http"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

type jobDetailResponse struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

type jobResponse struct {
	ID                 string              `json:"id"`
	Status             taxii2.JobStatus    `json:"status"`
	RequestTimestamp   time.Time           `json:"request_timestamp"`
	CompletedTimestamp *time.Time          `json:"completed_timestamp,omitempty"`
	SuccessCount       int                 `json:"success_count"`
	FailureCount       int                 `json:"failure_count"`
	PendingCount       int                 `json:"pending_count"`
	Successes          []jobDetailResponse `json:"successes,omitempty"`
	Failures           []jobDetailResponse `json:"failures,omitempty"`
}

func toJobResponse(job *taxii2.Job, details []taxii2.JobDetail) jobResponse {
	resp := jobResponse{
		ID: job.ID, Status: job.Status, RequestTimestamp: job.RequestTimestamp,
		CompletedTimestamp: job.CompletedTimestamp,
		SuccessCount:       job.SuccessCount, FailureCount: job.FailureCount, PendingCount: job.PendingCount,
	}
	for _, d := range details {
		entry := jobDetailResponse{ID: d.StixID, Version: d.Version, Message: d.Message}
		switch d.Status {
		case taxii2.DetailSuccess:
			resp.Successes = append(resp.Successes, entry)
		case taxii2.DetailFailure:
			resp.Failures = append(resp.Failures, entry)
		}
	}
	return resp
}

// handleGetStatus serves GET /taxii2/{api_root}/status/{job_id}/.
func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	root, err := h.loadAPIRoot(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !root.IsPublic && accountFrom(r) == nil {
		h.respondError(w, apperr.New(apperr.Unauthorized, "authentication required"))
		return
	}

	job, details, err := h.repo.GetJobAndDetails(r.Context(), root.ID, pathParam(r, "job_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toJobResponse(job, details))
}
