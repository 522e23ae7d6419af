package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// versionedObject is one row of an object's version chain.
type versionedObject struct {
	obj         stix.Object
	dateAdded   time.Time
	version     string
	specVersion string
}

// Taxii2Store implements taxii2.Repository with in-memory maps, for
// development and tests. Thread-safe; reads return copies so callers cannot
// mutate shared state.
type Taxii2Store struct {
	mu          sync.RWMutex
	apiRoots    map[string]taxii2.APIRoot
	collections map[string][]taxii2.Collection // apiRootID -> collections
	byAlias     map[string]string              // alias -> collectionID
	objects     map[string][]versionedObject    // collectionID -> versions (all ids interleaved)
	jobs        map[string]*taxii2.Job
	jobDetails  map[string][]taxii2.JobDetail
	seq         int
}

// NewTaxii2Store creates an empty in-memory TAXII 2.1 store.
func NewTaxii2Store() *Taxii2Store {
	return &Taxii2Store{
		apiRoots:    make(map[string]taxii2.APIRoot),
		collections: make(map[string][]taxii2.Collection),
		byAlias:     make(map[string]string),
		objects:     make(map[string][]versionedObject),
		jobs:        make(map[string]*taxii2.Job),
		jobDetails:  make(map[string][]taxii2.JobDetail),
	}
}

// SeedAPIRoot registers an API root for tests/bootstrap.
func (s *Taxii2Store) SeedAPIRoot(root taxii2.APIRoot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiRoots[root.ID] = root
}

// SeedCollection registers a collection under its API root for tests/bootstrap.
func (s *Taxii2Store) SeedCollection(c taxii2.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.APIRootID] = append(s.collections[c.APIRootID], c)
	if c.Alias != "" {
		s.byAlias[c.Alias] = c.ID
	}
}

func (s *Taxii2Store) GetAPIRoots(ctx context.Context) ([]taxii2.APIRoot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]taxii2.APIRoot, 0, len(s.apiRoots))
	for _, r := range s.apiRoots {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Taxii2Store) GetAPIRoot(ctx context.Context, id string) (*taxii2.APIRoot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.apiRoots[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "api root %q not found", id)
	}
	return &r, nil
}

func (s *Taxii2Store) GetCollections(ctx context.Context, apiRoot string) ([]taxii2.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]taxii2.Collection(nil), s.collections[apiRoot]...)
	return out, nil
}

func (s *Taxii2Store) GetCollection(ctx context.Context, apiRoot, idOrAlias string) (*taxii2.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections[apiRoot] {
		if c.ID == idOrAlias || c.Alias == idOrAlias {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperr.Newf(apperr.NotFound, "collection %q not found", idOrAlias)
}

func matchQuery(row versionedObject, params taxii2.QueryParams) bool {
	if params.AddedAfter != nil && !row.dateAdded.After(*params.AddedAfter) {
		return false
	}
	if len(params.MatchID) > 0 && !containsStr(params.MatchID, row.obj.ID.String()) {
		return false
	}
	if len(params.MatchType) > 0 && !containsStr(params.MatchType, row.obj.Type) {
		return false
	}
	if len(params.MatchSpecVersion) > 0 && !containsStr(params.MatchSpecVersion, row.specVersion) {
		return false
	}
	return true
}

func containsStr(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// currentVersionsOnly collapses rows to the latest version per object id,
// unless match_version requests otherwise.
func currentVersionsOnly(rows []versionedObject, matchVersion []string) []versionedObject {
	wantsAll := containsStr(matchVersion, "all")
	wantsFirst := containsStr(matchVersion, "first")
	if wantsAll {
		return rows
	}
	if wantsFirst {
		first := make(map[string]versionedObject)
		for _, r := range rows {
			existing, ok := first[r.obj.ID.String()]
			if !ok || r.dateAdded.Before(existing.dateAdded) {
				first[r.obj.ID.String()] = r
			}
		}
		out := make([]versionedObject, 0, len(first))
		for _, v := range first {
			out = append(out, v)
		}
		return out
	}
	// literal timestamp tokens, or default: current (last) version
	hasLiteralVersions := false
	for _, v := range matchVersion {
		if v != "first" && v != "last" && v != "all" {
			hasLiteralVersions = true
			break
		}
	}
	if hasLiteralVersions {
		var out []versionedObject
		for _, r := range rows {
			if containsStr(matchVersion, r.version) {
				out = append(out, r)
			}
		}
		return out
	}
	last := make(map[string]versionedObject)
	for _, r := range rows {
		existing, ok := last[r.obj.ID.String()]
		if !ok || r.dateAdded.After(existing.dateAdded) {
			last[r.obj.ID.String()] = r
		}
	}
	out := make([]versionedObject, 0, len(last))
	for _, v := range last {
		out = append(out, v)
	}
	return out
}

func sortByDateAddedID(rows []versionedObject) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].dateAdded.Equal(rows[j].dateAdded) {
			return rows[i].dateAdded.Before(rows[j].dateAdded)
		}
		return rows[i].obj.ID.String() < rows[j].obj.ID.String()
	})
}

const defaultLimit = 1000
const maxLimit = 1000

func effectiveLimit(requested int) int {
	if requested <= 0 {
		return defaultLimit
	}
	if requested > maxLimit {
		return maxLimit
	}
	return requested
}

func (s *Taxii2Store) GetObjects(ctx context.Context, collectionID string, params taxii2.QueryParams) (taxii2.PaginatedResult[taxii2.ObjectRow], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := currentVersionsOnly(s.objects[collectionID], params.MatchVersion)
	var filtered []versionedObject
	for _, r := range rows {
		if matchQuery(r, params) {
			filtered = append(filtered, r)
		}
	}
	sortByDateAddedID(filtered)

	var cursor *taxii2.Cursor
	if params.Next != "" {
		c, err := taxii2.DecodeCursor(params.Next)
		if err != nil {
			return taxii2.PaginatedResult[taxii2.ObjectRow]{}, err
		}
		cursor = &c
	}

	var page []versionedObject
	for _, r := range filtered {
		if cursor != nil && !cursor.After(r.dateAdded, r.obj.ID.String()) {
			continue
		}
		page = append(page, r)
	}

	limit := effectiveLimit(params.Limit)
	more := len(page) > limit
	if more {
		page = page[:limit]
	}

	items := make([]taxii2.ObjectRow, len(page))
	for i, r := range page {
		items[i] = taxii2.ObjectRow{Object: r.obj, DateAdded: r.dateAdded, Version: r.version, SpecVersion: r.specVersion}
	}

	result := taxii2.PaginatedResult[taxii2.ObjectRow]{Items: items, More: more}
	if more {
		last := page[len(page)-1]
		result.Next = taxii2.EncodeCursor(taxii2.Cursor{DateAdded: last.dateAdded, ObjectID: last.obj.ID.String()})
	}
	return result, nil
}

func (s *Taxii2Store) GetManifest(ctx context.Context, collectionID string, params taxii2.QueryParams) (taxii2.PaginatedResult[taxii2.ManifestEntry], error) {
	objResult, err := s.GetObjects(ctx, collectionID, params)
	if err != nil {
		return taxii2.PaginatedResult[taxii2.ManifestEntry]{}, err
	}
	items := make([]taxii2.ManifestEntry, len(objResult.Items))
	for i, r := range objResult.Items {
		items[i] = taxii2.ManifestEntry{
			ID:        r.Object.ID.String(),
			DateAdded: r.DateAdded,
			Version:   r.Version,
			MediaType: "application/stix+json;version=" + r.SpecVersion,
		}
	}
	return taxii2.PaginatedResult[taxii2.ManifestEntry]{Items: items, More: objResult.More, Next: objResult.Next}, nil
}

func (s *Taxii2Store) GetVersions(ctx context.Context, collectionID, objectID string, params taxii2.QueryParams) (taxii2.PaginatedResult[string], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var versions []versionedObject
	for _, r := range s.objects[collectionID] {
		if r.obj.ID.String() == objectID {
			versions = append(versions, r)
		}
	}
	sortByDateAddedID(versions)

	var cursor *taxii2.Cursor
	if params.Next != "" {
		c, err := taxii2.DecodeCursor(params.Next)
		if err != nil {
			return taxii2.PaginatedResult[string]{}, err
		}
		cursor = &c
	}

	var page []versionedObject
	for _, v := range versions {
		// ObjectID holds the version string here: every row shares the same
		// STIX object id, so (date_added, version) is the keyset instead.
		if cursor != nil && !cursor.After(v.dateAdded, v.version) {
			continue
		}
		page = append(page, v)
	}

	limit := effectiveLimit(params.Limit)
	more := len(page) > limit
	if more {
		page = page[:limit]
	}

	out := make([]string, len(page))
	for i, v := range page {
		out[i] = v.version
	}

	result := taxii2.PaginatedResult[string]{Items: out, More: more}
	if more {
		last := page[len(page)-1]
		result.Next = taxii2.EncodeCursor(taxii2.Cursor{DateAdded: last.dateAdded, ObjectID: last.version})
	}
	return result, nil
}

func (s *Taxii2Store) AddObjects(ctx context.Context, apiRoot, collectionID string, objects []stix.Object) (*taxii2.Job, error) {
	s.mu.Lock()
	s.seq++
	jobID := "job-" + idFromSeq(s.seq)
	job := &taxii2.Job{ID: jobID, APIRootID: apiRoot, Status: taxii2.JobPending, RequestTimestamp: time.Now().UTC(), PendingCount: len(objects)}
	s.jobs[jobID] = job
	s.mu.Unlock()

	// Ingestion happens off the request path; GetJobAndDetails polls for
	// completion (spec.md §3).
	go s.ingest(jobID, collectionID, objects)

	jobCopy := *job
	return &jobCopy, nil
}

func (s *Taxii2Store) ingest(jobID, collectionID string, objects []stix.Object) {
	var details []taxii2.JobDetail
	for _, obj := range objects {
		modified, _ := obj.Modified()
		func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.objects[collectionID] = append(s.objects[collectionID], versionedObject{
				obj:         obj,
				dateAdded:   time.Now().UTC(),
				version:     modified.String(),
				specVersion: "2.1",
			})
		}()
		details = append(details, taxii2.JobDetail{JobID: jobID, StixID: obj.ID.String(), Version: modified.String(), Status: taxii2.DetailSuccess})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[jobID]
	job.Status = taxii2.JobComplete
	job.SuccessCount = len(details)
	job.PendingCount = 0
	completed := time.Now().UTC()
	job.CompletedTimestamp = &completed
	s.jobDetails[jobID] = details
}

func (s *Taxii2Store) DeleteObject(ctx context.Context, collectionID, objectID string, matchVersion, matchSpecVersion []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.objects[collectionID]
	var kept []versionedObject
	found := false
	for _, r := range rows {
		if r.obj.ID.String() != objectID {
			kept = append(kept, r)
			continue
		}
		if len(matchVersion) > 0 && !containsStr(matchVersion, r.version) {
			kept = append(kept, r)
			continue
		}
		if len(matchSpecVersion) > 0 && !containsStr(matchSpecVersion, r.specVersion) {
			kept = append(kept, r)
			continue
		}
		found = true
	}
	if !found {
		return apperr.Newf(apperr.NotFound, "object %q not found in collection", objectID)
	}
	s.objects[collectionID] = kept
	return nil
}

func (s *Taxii2Store) GetJobAndDetails(ctx context.Context, apiRoot, jobID string) (*taxii2.Job, []taxii2.JobDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok || job.APIRootID != apiRoot {
		return nil, nil, apperr.Newf(apperr.NotFound, "job %q not found", jobID)
	}
	jobCopy := *job
	details := append([]taxii2.JobDetail(nil), s.jobDetails[jobID]...)
	return &jobCopy, details, nil
}

func (s *Taxii2Store) JobCleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	removed := 0
	for id, job := range s.jobs {
		if job.CompletedTimestamp != nil && job.CompletedTimestamp.Before(cutoff) {
			delete(s.jobs, id)
			delete(s.jobDetails, id)
			removed++
		}
	}
	return removed, nil
}

var _ taxii2.Repository = (*Taxii2Store)(nil)
