package taxii2

import (
	"context"

	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
)

// Repository is the TAXII 2.1 persistence port (spec.md §4.6). Implemented
// by the in-memory and SQL-backed adapters.
type Repository interface {
	GetAPIRoots(ctx context.Context) ([]APIRoot, error)
	GetAPIRoot(ctx context.Context, id string) (*APIRoot, error)

	GetCollections(ctx context.Context, apiRoot string) ([]Collection, error)
	GetCollection(ctx context.Context, apiRoot, idOrAlias string) (*Collection, error)

	GetObjects(ctx context.Context, collectionID string, params QueryParams) (PaginatedResult[ObjectRow], error)
	GetManifest(ctx context.Context, collectionID string, params QueryParams) (PaginatedResult[ManifestEntry], error)
	GetVersions(ctx context.Context, collectionID, objectID string, params QueryParams) (PaginatedResult[string], error)

	// AddObjects ingests objects into collectionID asynchronously, returning
	// immediately with a Job in status=pending.
	AddObjects(ctx context.Context, apiRoot, collectionID string, objects []stix.Object) (*Job, error)

	DeleteObject(ctx context.Context, collectionID, objectID string, matchVersion, matchSpecVersion []string) error

	GetJobAndDetails(ctx context.Context, apiRoot, jobID string) (*Job, []JobDetail, error)

	// JobCleanup deletes jobs whose CompletedTimestamp is older than the
	// retention window (24h, spec.md §3), returning the number removed.
	JobCleanup(ctx context.Context) (int, error)
}
