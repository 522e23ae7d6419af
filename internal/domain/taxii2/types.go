// Package taxii2 holds the TAXII 2.1 domain types and the repository port
// the persistence layer implements (spec.md §4.6, §4.8).
package taxii2

import (
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
)

// APIRoot is a TAXII 2.1 namespace grouping a set of collections.
type APIRoot struct {
	ID          string
	Title       string
	Description string
	IsPublic    bool
	Default     bool
}

// Collection is a named repository of objects, the unit of access control
// and pagination (spec.md §3).
type Collection struct {
	ID            string
	APIRootID     string
	Title         string
	Description   string
	Alias         string
	IsPublic      bool
	IsPublicWrite bool
	MediaTypes    []string
}

// JobStatus is the lifecycle state of an asynchronous ingest job.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobComplete JobStatus = "complete"
)

// DetailStatus is the per-object outcome within a Job.
type DetailStatus string

const (
	DetailSuccess DetailStatus = "success"
	DetailFailure DetailStatus = "failure"
	DetailPending DetailStatus = "pending"
)

// Job records an asynchronous ingest (spec.md §3).
type Job struct {
	ID                 string
	APIRootID          string
	Status             JobStatus
	RequestTimestamp   time.Time
	CompletedTimestamp *time.Time
	SuccessCount       int
	FailureCount       int
	PendingCount       int
}

// JobDetail is one per-object outcome row within a Job.
type JobDetail struct {
	JobID   string
	StixID  string
	Version string
	Status  DetailStatus
	Message string
}

// QueryParams is the query parameter record shared by the objects and
// manifest endpoints (spec.md §4.6).
type QueryParams struct {
	Limit            int
	AddedAfter       *time.Time
	Next             string
	MatchID          []string
	MatchType        []string
	MatchVersion     []string
	MatchSpecVersion []string
}

// ManifestEntry is one row of a collection's manifest (spec.md §4.8).
type ManifestEntry struct {
	ID        string
	DateAdded time.Time
	Version   string
	MediaType string
}

// PaginatedResult is the generic paginated response envelope
// (spec.md §4.6). Items is any of []ObjectRow, []ManifestEntry, or []string
// (version strings) depending on the endpoint.
type PaginatedResult[T any] struct {
	Items []T
	More  bool
	Next  string
}

// ObjectRow pairs a persisted STIX object with its storage metadata.
type ObjectRow struct {
	Object      stix.Object
	DateAdded   time.Time
	Version     string
	SpecVersion string
}
