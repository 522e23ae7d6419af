package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/bundle"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

// Taxii2Store implements taxii2.Repository against the opentaxii_* tables.
type Taxii2Store struct {
	store *Store
}

// NewTaxii2Store wraps store for TAXII 2.1 persistence.
func NewTaxii2Store(store *Store) *Taxii2Store {
	return &Taxii2Store{store: store}
}

func (s *Taxii2Store) GetAPIRoots(ctx context.Context) ([]taxii2.APIRoot, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, is_default, title, description, is_public FROM opentaxii_api_root ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii2.APIRoot
	for rows.Next() {
		var (
			r         taxii2.APIRoot
			isDefault int
			isPublic  int
		)
		if err := rows.Scan(&r.ID, &isDefault, &r.Title, &r.Description, &isPublic); err != nil {
			return nil, err
		}
		r.Default = isDefault != 0
		r.IsPublic = isPublic != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Taxii2Store) GetAPIRoot(ctx context.Context, id string) (*taxii2.APIRoot, error) {
	var (
		r         taxii2.APIRoot
		isDefault int
		isPublic  int
	)
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, is_default, title, description, is_public FROM opentaxii_api_root WHERE id = ?`, id)
	if err := row.Scan(&r.ID, &isDefault, &r.Title, &r.Description, &isPublic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "api root %q not found", id)
		}
		return nil, err
	}
	r.ID, r.Default, r.IsPublic = id, isDefault != 0, isPublic != 0
	return &r, nil
}

func (s *Taxii2Store) GetCollections(ctx context.Context, apiRoot string) ([]taxii2.Collection, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, api_root_id, title, description, alias, is_public, is_public_write, media_types
		 FROM opentaxii_collection WHERE api_root_id = ? ORDER BY id`, apiRoot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii2.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Taxii2Store) GetCollection(ctx context.Context, apiRoot, idOrAlias string) (*taxii2.Collection, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, api_root_id, title, description, alias, is_public, is_public_write, media_types
		 FROM opentaxii_collection WHERE api_root_id = ? AND (id = ? OR alias = ?)`,
		apiRoot, idOrAlias, idOrAlias)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "collection %q not found", idOrAlias)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCollection(row interface{ Scan(...any) error }) (taxii2.Collection, error) {
	var (
		c             taxii2.Collection
		isPublic      int
		isPublicWrite int
		mediaTypesCSV string
	)
	if err := row.Scan(&c.ID, &c.APIRootID, &c.Title, &c.Description, &c.Alias, &isPublic, &isPublicWrite, &mediaTypesCSV); err != nil {
		return taxii2.Collection{}, err
	}
	c.IsPublic = isPublic != 0
	c.IsPublicWrite = isPublicWrite != 0
	if err := decodeJSONInto(mediaTypesCSV, &c.MediaTypes); err != nil {
		return taxii2.Collection{}, err
	}
	return c, nil
}

func (s *Taxii2Store) GetObjects(ctx context.Context, collectionID string, params taxii2.QueryParams) (taxii2.PaginatedResult[taxii2.ObjectRow], error) {
	query, args := buildObjectQuery(collectionID, params)
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return taxii2.PaginatedResult[taxii2.ObjectRow]{}, err
	}
	defer rows.Close()

	limit := effectiveLimit(params.Limit)
	var items []taxii2.ObjectRow
	for rows.Next() {
		var (
			dateAddedText string
			version       string
			specVersion   string
			serialized    string
		)
		if err := rows.Scan(&dateAddedText, &version, &specVersion, &serialized); err != nil {
			return taxii2.PaginatedResult[taxii2.ObjectRow]{}, err
		}
		obj, err := bundle.DecodeObject([]byte(serialized), bundle.AllowCustom)
		if err != nil {
			return taxii2.PaginatedResult[taxii2.ObjectRow]{}, fmt.Errorf("sqlstore: decode stored object: %w", err)
		}
		dateAdded, err := parseTime(dateAddedText)
		if err != nil {
			return taxii2.PaginatedResult[taxii2.ObjectRow]{}, err
		}
		items = append(items, taxii2.ObjectRow{Object: obj, DateAdded: dateAdded, Version: version, SpecVersion: specVersion})
		if len(items) > limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return taxii2.PaginatedResult[taxii2.ObjectRow]{}, err
	}

	result := taxii2.PaginatedResult[taxii2.ObjectRow]{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.More = true
		last := result.Items[len(result.Items)-1]
		result.Next = taxii2.EncodeCursor(taxii2.Cursor{DateAdded: last.DateAdded, ObjectID: last.Object.ID.String()})
	}
	return result, nil
}

// buildObjectQuery selects current (or matched) versions for collectionID
// ordered by (date_added, id), the keyset pagination order taxii2.Cursor
// assumes.
func buildObjectQuery(collectionID string, params taxii2.QueryParams) (string, []any) {
	var b strings.Builder
	args := []any{collectionID}

	b.WriteString(`SELECT date_added, version, spec_version, serialized_data FROM opentaxii_stixobject o
		WHERE collection_id = ?`)

	switch {
	case wantsAllVersions(params.MatchVersion):
		// every version of every id: no additional filter
	case wantsFirstVersion(params.MatchVersion):
		b.WriteString(` AND version = (
			SELECT version FROM opentaxii_stixobject
			WHERE collection_id = o.collection_id AND id = o.id
			ORDER BY date_added ASC LIMIT 1)`)
	default:
		if literals := literalVersions(params.MatchVersion); len(literals) > 0 {
			cond, a := inClause("o.version", literals)
			b.WriteString(" AND " + cond)
			args = append(args, a...)
		} else {
			b.WriteString(` AND version = (
				SELECT version FROM opentaxii_stixobject
				WHERE collection_id = o.collection_id AND id = o.id
				ORDER BY date_added DESC LIMIT 1)`)
		}
	}
	if params.AddedAfter != nil {
		b.WriteString(` AND date_added > ?`)
		args = append(args, formatTime(*params.AddedAfter))
	}
	if cond, a := inClause("o.id", params.MatchID); cond != "" {
		b.WriteString(" AND " + cond)
		args = append(args, a...)
	}
	if cond, a := inClause("o.stix_type", params.MatchType); cond != "" {
		b.WriteString(" AND " + cond)
		args = append(args, a...)
	}
	if cond, a := inClause("o.spec_version", params.MatchSpecVersion); cond != "" {
		b.WriteString(" AND " + cond)
		args = append(args, a...)
	}
	if params.Next != "" {
		if cursor, err := taxii2.DecodeCursor(params.Next); err == nil {
			b.WriteString(` AND (date_added > ? OR (date_added = ? AND o.id > ?))`)
			args = append(args, formatTime(cursor.DateAdded), formatTime(cursor.DateAdded), cursor.ObjectID)
		}
	}
	b.WriteString(` ORDER BY date_added, o.id LIMIT ?`)
	args = append(args, effectiveLimit(params.Limit)+1)

	return b.String(), args
}

func wantsAllVersions(matchVersion []string) bool {
	for _, v := range matchVersion {
		if v == "all" {
			return true
		}
	}
	return false
}

func wantsFirstVersion(matchVersion []string) bool {
	for _, v := range matchVersion {
		if v == "first" {
			return true
		}
	}
	return false
}

// literalVersions returns the match_version tokens that name an exact
// version string rather than the first/last/all keywords.
func literalVersions(matchVersion []string) []string {
	var out []string
	for _, v := range matchVersion {
		if v != "first" && v != "last" && v != "all" {
			out = append(out, v)
		}
	}
	return out
}

func inClause(column string, values []string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")), args
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

// GetVersions returns a keyset page of objectID's version chain, ordered by
// (date_added, version) since every row shares the same object id.
func (s *Taxii2Store) GetVersions(ctx context.Context, collectionID, objectID string, params taxii2.QueryParams) (taxii2.PaginatedResult[string], error) {
	var b strings.Builder
	args := []any{collectionID, objectID}
	b.WriteString(`SELECT date_added, version FROM opentaxii_stixobject WHERE collection_id = ? AND id = ?`)
	if params.Next != "" {
		if cursor, err := taxii2.DecodeCursor(params.Next); err == nil {
			b.WriteString(` AND (date_added > ? OR (date_added = ? AND version > ?))`)
			args = append(args, formatTime(cursor.DateAdded), formatTime(cursor.DateAdded), cursor.ObjectID)
		}
	}
	b.WriteString(` ORDER BY date_added, version LIMIT ?`)
	limit := effectiveLimit(params.Limit)
	args = append(args, limit+1)

	rows, err := s.store.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return taxii2.PaginatedResult[string]{}, err
	}
	defer rows.Close()

	type versionRow struct {
		dateAdded time.Time
		version   string
	}
	var out []versionRow
	for rows.Next() {
		var dateAddedText, version string
		if err := rows.Scan(&dateAddedText, &version); err != nil {
			return taxii2.PaginatedResult[string]{}, err
		}
		dateAdded, err := parseTime(dateAddedText)
		if err != nil {
			return taxii2.PaginatedResult[string]{}, err
		}
		out = append(out, versionRow{dateAdded: dateAdded, version: version})
	}
	if err := rows.Err(); err != nil {
		return taxii2.PaginatedResult[string]{}, err
	}

	more := len(out) > limit
	if more {
		out = out[:limit]
	}
	items := make([]string, len(out))
	for i, r := range out {
		items[i] = r.version
	}

	result := taxii2.PaginatedResult[string]{Items: items, More: more}
	if more {
		last := out[len(out)-1]
		result.Next = taxii2.EncodeCursor(taxii2.Cursor{DateAdded: last.dateAdded, ObjectID: last.version})
	}
	return result, nil
}

func (s *Taxii2Store) AddObjects(ctx context.Context, apiRoot, collectionID string, objects []stix.Object) (*taxii2.Job, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()
	job := &taxii2.Job{ID: jobID, APIRootID: apiRoot, Status: taxii2.JobPending, RequestTimestamp: now, PendingCount: len(objects)}

	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO opentaxii_job (id, api_root_id, status, request_timestamp, pending_count)
		 VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.APIRootID, string(job.Status), formatTime(job.RequestTimestamp), job.PendingCount)
	if err != nil {
		return nil, err
	}

	// Ingestion happens off the request path; GetJobAndDetails polls for
	// completion (spec.md §3).
	go s.ingest(jobID, collectionID, objects)

	return job, nil
}

func (s *Taxii2Store) ingest(jobID, collectionID string, objects []stix.Object) {
	ctx := context.Background()
	successCount := 0
	for _, obj := range objects {
		if err := s.insertObjectVersion(ctx, collectionID, obj); err != nil {
			_, _ = s.store.db.ExecContext(ctx,
				`INSERT INTO opentaxii_job_detail (id, job_id, stix_id, version, status, message)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), jobID, obj.ID.String(), "", string(taxii2.DetailFailure), err.Error())
			continue
		}
		modified, _ := obj.Modified()
		_, _ = s.store.db.ExecContext(ctx,
			`INSERT INTO opentaxii_job_detail (id, job_id, stix_id, version, status, message)
			 VALUES (?, ?, ?, ?, ?, '')`,
			uuid.NewString(), jobID, obj.ID.String(), modified.String(), string(taxii2.DetailSuccess))
		successCount++
	}

	completed := formatTime(time.Now().UTC())
	_, _ = s.store.db.ExecContext(ctx,
		`UPDATE opentaxii_job SET status = ?, completed_timestamp = ?, success_count = ?,
		 failure_count = ?, pending_count = 0 WHERE id = ?`,
		string(taxii2.JobComplete), completed, successCount, len(objects)-successCount, jobID)
}

func (s *Taxii2Store) insertObjectVersion(ctx context.Context, collectionID string, obj stix.Object) error {
	serialized, err := bundle.EncodeObject(obj)
	if err != nil {
		return err
	}
	modified, hasModified := obj.Modified()
	version := modified.String()
	if !hasModified {
		version = time.Now().UTC().Format(sqliteTimeLayout)
	}
	specVersion := "2.1"
	if sv, ok := obj.Get("spec_version"); ok {
		if str, ok := sv.(string); ok {
			specVersion = str
		}
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO opentaxii_stixobject (id, collection_id, stix_type, spec_version, date_added, version, serialized_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		obj.ID.String(), collectionID, obj.Type, specVersion, formatTime(time.Now().UTC()), version, string(serialized))
	return err
}

func (s *Taxii2Store) DeleteObject(ctx context.Context, collectionID, objectID string, matchVersion, matchSpecVersion []string) error {
	query := `DELETE FROM opentaxii_stixobject WHERE collection_id = ? AND id = ?`
	args := []any{collectionID, objectID}
	if cond, a := inClause("version", matchVersion); cond != "" {
		query += " AND " + cond
		args = append(args, a...)
	}
	if cond, a := inClause("spec_version", matchSpecVersion); cond != "" {
		query += " AND " + cond
		args = append(args, a...)
	}
	result, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Newf(apperr.NotFound, "object %q not found in collection", objectID)
	}
	return nil
}

func (s *Taxii2Store) GetJobAndDetails(ctx context.Context, apiRoot, jobID string) (*taxii2.Job, []taxii2.JobDetail, error) {
	var (
		job         taxii2.Job
		status      string
		completedNS sql.NullString
	)
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, api_root_id, status, request_timestamp, completed_timestamp, success_count, failure_count, pending_count
		 FROM opentaxii_job WHERE id = ? AND api_root_id = ?`, jobID, apiRoot)
	var requestTimestampText string
	if err := row.Scan(&job.ID, &job.APIRootID, &status, &requestTimestampText, &completedNS,
		&job.SuccessCount, &job.FailureCount, &job.PendingCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.Newf(apperr.NotFound, "job %q not found", jobID)
		}
		return nil, nil, err
	}
	job.Status = taxii2.JobStatus(status)
	requestTimestamp, err := parseTime(requestTimestampText)
	if err != nil {
		return nil, nil, err
	}
	job.RequestTimestamp = requestTimestamp
	completedAt, err := parseTimePtr(completedNS)
	if err != nil {
		return nil, nil, err
	}
	job.CompletedTimestamp = completedAt

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT job_id, stix_id, version, status, message FROM opentaxii_job_detail WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var details []taxii2.JobDetail
	for rows.Next() {
		var d taxii2.JobDetail
		var statusText string
		if err := rows.Scan(&d.JobID, &d.StixID, &d.Version, &statusText, &d.Message); err != nil {
			return nil, nil, err
		}
		d.Status = taxii2.DetailStatus(statusText)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return &job, details, nil
}

func (s *Taxii2Store) JobCleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	result, err := s.store.db.ExecContext(ctx,
		`DELETE FROM opentaxii_job WHERE completed_timestamp IS NOT NULL AND completed_timestamp < ?`,
		formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ taxii2.Repository = (*Taxii2Store)(nil)
