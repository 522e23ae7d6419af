package taxii1x

import (
	"context"
	"encoding/xml"
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/adapter/outbound/memory"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

func seedBlocks(t *testing.T, store *memory.Taxii1Store, collection string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.AddContentBlock(context.Background(), taxii1.ContentBlock{
			Content:       "<stix/>",
			Binding:       taxii1.ContentBinding{BindingID: "urn:stix.mitre.org:xml:1.1.1"},
			CollectionIDs: []string{collection},
		})
		if err != nil {
			t.Fatalf("seed block %d: %v", i, err)
		}
	}
}

func pollService(maxResultSize int) taxii1.Service {
	return taxii1.Service{ID: "poll", Type: "POLL", Properties: map[string]any{"max_result_size": maxResultSize}}
}

func TestHandlePollPaginatesWhenOverMaxResultSize(t *testing.T) {
	store := memory.NewTaxii1Store()
	if err := store.UpsertCollection(context.Background(), taxii1.Collection{Name: "feed-1", Available: true, AcceptAllContent: true}); err != nil {
		t.Fatalf("upsert collection: %v", err)
	}
	seedBlocks(t, store, "feed-1", 5)

	hc := HandlerContext{Repo: store, Service: ServiceInfo{Properties: map[string]any{"max_result_size": 2}}}
	body, err := xml.Marshal(PollRequest{MessageID: "m1", CollectionName: "feed-1"})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := handlePoll(context.Background(), hc, body)
	if err != nil {
		t.Fatalf("handlePoll: %v", err)
	}
	poll := resp.(PollResponse)
	if !poll.More {
		t.Fatal("expected More=true when total exceeds max_result_size")
	}
	if len(poll.ContentBlock) != 2 {
		t.Fatalf("expected first page of 2 blocks, got %d", len(poll.ContentBlock))
	}
	if poll.RecordCount == nil || poll.RecordCount.Count != 5 {
		t.Fatalf("expected RecordCount.Count=5, got %+v", poll.RecordCount)
	}
	if poll.ResultID == "" {
		t.Fatal("expected a result_id to be issued for pagination")
	}

	// Fulfillment part 2 returns the next 2 of the remaining 3, with More
	// still true since 5/2 = 2.5 > 2.
	fulfillBody, err := xml.Marshal(PollFulfillmentRequest{MessageID: "m2", CollectionName: "feed-1", ResultID: poll.ResultID, ResultPartNumber: 2})
	if err != nil {
		t.Fatalf("marshal fulfillment: %v", err)
	}
	resp2, err := handlePollFulfillment(context.Background(), hc, fulfillBody)
	if err != nil {
		t.Fatalf("handlePollFulfillment: %v", err)
	}
	part2 := resp2.(PollResponse)
	if len(part2.ContentBlock) != 2 {
		t.Fatalf("expected part 2 to hold 2 blocks, got %d", len(part2.ContentBlock))
	}
	if !part2.More {
		t.Fatal("expected More=true for part 2 (5/2=2.5 > 2)")
	}

	// Part 3 holds the final block and More becomes false (5/2=2.5 > 3 is false).
	fulfillBody3, err := xml.Marshal(PollFulfillmentRequest{MessageID: "m3", CollectionName: "feed-1", ResultID: poll.ResultID, ResultPartNumber: 3})
	if err != nil {
		t.Fatalf("marshal fulfillment: %v", err)
	}
	resp3, err := handlePollFulfillment(context.Background(), hc, fulfillBody3)
	if err != nil {
		t.Fatalf("handlePollFulfillment part 3: %v", err)
	}
	part3 := resp3.(PollResponse)
	if len(part3.ContentBlock) != 1 {
		t.Fatalf("expected part 3 to hold 1 block, got %d", len(part3.ContentBlock))
	}
	if part3.More {
		t.Fatal("expected More=false on the final part")
	}
}

func TestHandlePollNoPaginationWhenUnderLimit(t *testing.T) {
	store := memory.NewTaxii1Store()
	if err := store.UpsertCollection(context.Background(), taxii1.Collection{Name: "feed-1", Available: true, AcceptAllContent: true}); err != nil {
		t.Fatalf("upsert collection: %v", err)
	}
	seedBlocks(t, store, "feed-1", 2)

	hc := HandlerContext{Repo: store, Service: ServiceInfo{Properties: map[string]any{"max_result_size": 100}}}
	body, err := xml.Marshal(PollRequest{MessageID: "m1", CollectionName: "feed-1"})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := handlePoll(context.Background(), hc, body)
	if err != nil {
		t.Fatalf("handlePoll: %v", err)
	}
	poll := resp.(PollResponse)
	if poll.More {
		t.Fatal("expected More=false when under the limit")
	}
	if poll.ResultID != "" {
		t.Fatal("expected no result_id when the whole result fits in one page")
	}
	if len(poll.ContentBlock) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(poll.ContentBlock))
	}
}
