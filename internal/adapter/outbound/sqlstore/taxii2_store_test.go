package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/bundle"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii2"
)

func seedTaxii2Fixture(t *testing.T, store *Taxii2Store) {
	t.Helper()
	_, err := store.store.db.Exec(`INSERT INTO opentaxii_api_root (id, is_default, title) VALUES ('root1', 1, 'Root')`)
	if err != nil {
		t.Fatalf("seed api root: %v", err)
	}
	_, err = store.store.db.Exec(`INSERT INTO opentaxii_collection (id, api_root_id, title) VALUES ('col1', 'root1', 'Collection')`)
	if err != nil {
		t.Fatalf("seed collection: %v", err)
	}
}

func buildTestIndicator(t *testing.T) stix.Object {
	t.Helper()
	obj, err := stix.NewBuilder("indicator").
		Set("pattern", "[ipv4-addr:value = '1.2.3.4']").
		Set("pattern_type", "stix").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return obj
}

func waitForSQLJobComplete(t *testing.T, store *Taxii2Store, apiRoot, jobID string) *taxii2.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, _, err := store.GetJobAndDetails(context.Background(), apiRoot, jobID)
		if err != nil {
			t.Fatalf("GetJobAndDetails: %v", err)
		}
		if job.Status == taxii2.JobComplete {
			return job
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job did not complete in time")
	return nil
}

func TestSQLTaxii2StoreAddAndGetObjects(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	seedTaxii2Fixture(t, store)
	ctx := context.Background()

	obj := buildTestIndicator(t)
	job, err := store.AddObjects(ctx, "root1", "col1", []stix.Object{obj})
	if err != nil {
		t.Fatalf("AddObjects: %v", err)
	}
	waitForSQLJobComplete(t, store, "root1", job.ID)

	result, err := store.GetObjects(ctx, "col1", taxii2.QueryParams{})
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(result.Items))
	}
	if result.Items[0].Object.ID != obj.ID {
		t.Errorf("got %v, want %v", result.Items[0].Object.ID, obj.ID)
	}
}

func TestSQLTaxii2StoreGetCollectionByAlias(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	ctx := context.Background()
	if _, err := store.store.db.Exec(`INSERT INTO opentaxii_api_root (id) VALUES ('root1')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.store.db.Exec(`INSERT INTO opentaxii_collection (id, api_root_id, alias) VALUES ('col1', 'root1', 'my-alias')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, err := store.GetCollection(ctx, "root1", "my-alias")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if c.ID != "col1" {
		t.Errorf("ID = %q, want col1", c.ID)
	}
}

func TestSQLTaxii2StoreDeleteObject(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	seedTaxii2Fixture(t, store)
	ctx := context.Background()

	obj := buildTestIndicator(t)
	job, err := store.AddObjects(ctx, "root1", "col1", []stix.Object{obj})
	if err != nil {
		t.Fatalf("AddObjects: %v", err)
	}
	waitForSQLJobComplete(t, store, "root1", job.ID)

	if err := store.DeleteObject(ctx, "col1", obj.ID.String(), nil, nil); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}

	result, err := store.GetObjects(ctx, "col1", taxii2.QueryParams{})
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	if len(result.Items) != 0 {
		t.Errorf("expected object removed, got %d", len(result.Items))
	}
}

// seedObjectVersions inserts len(versions) rows for obj directly, one hour
// apart starting at base, bypassing AddObjects so tests can construct a
// multi-version chain for a single STIX id.
func seedObjectVersions(t *testing.T, store *Taxii2Store, collectionID string, obj stix.Object, base time.Time, versions []string) {
	t.Helper()
	serialized, err := bundle.EncodeObject(obj)
	if err != nil {
		t.Fatalf("EncodeObject: %v", err)
	}
	for i, v := range versions {
		dateAdded := base.Add(time.Duration(i) * time.Hour)
		_, err := store.store.db.Exec(
			`INSERT INTO opentaxii_stixobject (id, collection_id, stix_type, spec_version, date_added, version, serialized_data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			obj.ID.String(), collectionID, obj.Type, "2.1", formatTime(dateAdded), v, string(serialized))
		if err != nil {
			t.Fatalf("seed object version: %v", err)
		}
	}
}

func TestSQLTaxii2StoreGetVersionsPagination(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	seedTaxii2Fixture(t, store)
	ctx := context.Background()

	obj := buildTestIndicator(t)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	seedObjectVersions(t, store, "col1", obj, base, []string{
		base.Format(sqliteTimeLayout),
		base.Add(time.Hour).Format(sqliteTimeLayout),
		base.Add(2 * time.Hour).Format(sqliteTimeLayout),
	})

	first, err := store.GetVersions(ctx, "col1", obj.ID.String(), taxii2.QueryParams{Limit: 2})
	if err != nil {
		t.Fatalf("GetVersions: %v", err)
	}
	if len(first.Items) != 2 || !first.More {
		t.Fatalf("first page = %d items, more=%v; want 2 items, more=true", len(first.Items), first.More)
	}

	second, err := store.GetVersions(ctx, "col1", obj.ID.String(), taxii2.QueryParams{Limit: 2, Next: first.Next})
	if err != nil {
		t.Fatalf("GetVersions page 2: %v", err)
	}
	if len(second.Items) != 1 || second.More {
		t.Fatalf("second page = %d items, more=%v; want 1 item, more=false", len(second.Items), second.More)
	}
}

func TestSQLTaxii2StoreMatchVersionModes(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	seedTaxii2Fixture(t, store)
	ctx := context.Background()

	obj := buildTestIndicator(t)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	versions := []string{"v1", "v2", "v3"}
	seedObjectVersions(t, store, "col1", obj, base, versions)

	cases := []struct {
		name         string
		matchVersion []string
		want         []string
	}{
		{"default is last", nil, []string{"v3"}},
		{"explicit last", []string{"last"}, []string{"v3"}},
		{"first", []string{"first"}, []string{"v1"}},
		{"all", []string{"all"}, []string{"v1", "v2", "v3"}},
		{"literal", []string{"v2"}, []string{"v2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := store.GetObjects(ctx, "col1", taxii2.QueryParams{MatchVersion: tc.matchVersion})
			if err != nil {
				t.Fatalf("GetObjects: %v", err)
			}
			got := make([]string, len(result.Items))
			for i, item := range result.Items {
				got[i] = item.Version
			}
			if len(got) != len(tc.want) {
				t.Fatalf("versions = %v, want %v", got, tc.want)
			}
			for _, w := range tc.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("versions = %v, want to contain %q", got, w)
				}
			}
		})
	}
}

func TestSQLTaxii2StoreJobCleanupRetainsRecent(t *testing.T) {
	store := NewTaxii2Store(openTestStore(t))
	seedTaxii2Fixture(t, store)
	ctx := context.Background()

	job, err := store.AddObjects(ctx, "root1", "col1", nil)
	if err != nil {
		t.Fatalf("AddObjects: %v", err)
	}
	waitForSQLJobComplete(t, store, "root1", job.ID)

	removed, err := store.JobCleanup(ctx)
	if err != nil {
		t.Fatalf("JobCleanup: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 for a just-completed job", removed)
	}
}
