package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

func TestSQLTaxii1StoreUpsertAndGetCollection(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	err := store.UpsertCollection(ctx, taxii1.Collection{
		Name: "default", Type: "DATA_FEED",
		Bindings: []taxii1.ContentBinding{{BindingID: "b1"}},
	})
	if err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}

	got, err := store.GetCollection(ctx, "default")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if got.Type != "DATA_FEED" || len(got.Bindings) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestSQLTaxii1StoreAddContentBlockIncrementsVolume(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	if err := store.UpsertCollection(ctx, taxii1.Collection{Name: "default"}); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}

	_, err := store.AddContentBlock(ctx, taxii1.ContentBlock{
		Content:       "<indicator/>",
		Binding:       taxii1.ContentBinding{BindingID: "urn:stix.mitre.org:xml:1.1.1"},
		CollectionIDs: []string{"default"},
	})
	if err != nil {
		t.Fatalf("AddContentBlock: %v", err)
	}

	got, err := store.GetCollection(ctx, "default")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if got.Volume != 1 {
		t.Errorf("Volume = %d, want 1", got.Volume)
	}
}

func TestSQLTaxii1StoreGetContentBlocksFiltersByTime(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	if err := store.UpsertCollection(ctx, taxii1.Collection{Name: "default"}); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()
	if _, err := store.AddContentBlock(ctx, taxii1.ContentBlock{
		Content: "old", Binding: taxii1.ContentBinding{BindingID: "b1"},
		CollectionIDs: []string{"default"}, TimestampLabel: old,
	}); err != nil {
		t.Fatalf("AddContentBlock: %v", err)
	}
	if _, err := store.AddContentBlock(ctx, taxii1.ContentBlock{
		Content: "new", Binding: taxii1.ContentBinding{BindingID: "b1"},
		CollectionIDs: []string{"default"}, TimestampLabel: recent,
	}); err != nil {
		t.Fatalf("AddContentBlock: %v", err)
	}

	since := old.Add(time.Hour)
	blocks, err := store.GetContentBlocks(ctx, "default", nil, &since, nil)
	if err != nil {
		t.Fatalf("GetContentBlocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "new" {
		t.Fatalf("expected only the recent block, got %+v", blocks)
	}
}

func TestSQLTaxii1StoreSubscriptionLifecycle(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	created, err := store.UpsertSubscription(ctx, taxii1.Subscription{
		CollectionID: "default", Status: taxii1.SubscriptionActive,
	})
	if err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}

	updated := *created
	updated.Status = taxii1.SubscriptionPaused
	if _, err := store.UpsertSubscription(ctx, updated); err != nil {
		t.Fatalf("UpsertSubscription (update): %v", err)
	}

	got, err := store.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.Status != taxii1.SubscriptionPaused {
		t.Errorf("Status = %v, want PAUSED", got.Status)
	}
}

func TestSQLTaxii1StoreResultSetRoundTrip(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	begin := time.Now().Add(-time.Hour)
	created, err := store.CreateResultSet(ctx, taxii1.ResultSet{CollectionID: "default", Begin: &begin})
	if err != nil {
		t.Fatalf("CreateResultSet: %v", err)
	}

	got, err := store.GetResultSet(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetResultSet: %v", err)
	}
	if got.Begin == nil || got.Begin.Unix() != begin.Unix() {
		t.Errorf("Begin = %v, want ~%v", got.Begin, begin)
	}
	if got.End != nil {
		t.Errorf("End = %v, want nil", got.End)
	}
}

func TestSQLTaxii1StoreUpsertServiceThenAdvertised(t *testing.T) {
	store := NewTaxii1Store(openTestStore(t))
	ctx := context.Background()

	if err := store.UpsertService(ctx, taxii1.Service{ID: "poll", Type: "POLL", Properties: map[string]any{"max_result_size": float64(50)}}); err != nil {
		t.Fatalf("UpsertService: %v", err)
	}

	got, err := store.GetAdvertisedServices(ctx, "poll")
	if err != nil {
		t.Fatalf("GetAdvertisedServices: %v", err)
	}
	if len(got) != 1 || got[0].Type != "POLL" {
		t.Fatalf("got %+v", got)
	}

	if err := store.UpsertService(ctx, taxii1.Service{ID: "poll", Type: "POLL_UPDATED"}); err != nil {
		t.Fatalf("UpsertService (update): %v", err)
	}
	again, err := store.GetAdvertisedServices(ctx, "poll")
	if err != nil {
		t.Fatalf("GetAdvertisedServices: %v", err)
	}
	if again[0].Type != "POLL_UPDATED" {
		t.Errorf("Type = %q, want POLL_UPDATED", again[0].Type)
	}
}
