package taxii1x

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

// defaultMaxResultSize bounds a single Poll_Response before the rest must
// be retrieved via Poll_Fulfillment_Request (spec.md §4.9), overridable
// per service via the max_result_size property.
const defaultMaxResultSize = 1000000

func toDomainBinding(b ContentBinding) taxii1.ContentBinding {
	out := taxii1.ContentBinding{BindingID: b.BindingID}
	for _, st := range b.Subtype {
		out.Subtypes = append(out.Subtypes, st.SubtypeID)
	}
	return out
}

func parseOptionalTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	ts, err := stixid.ParseTimestamp(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed timestamp", err)
	}
	t := ts.Time()
	return &t, nil
}

func maxResultSizeFor(hc HandlerContext) int {
	if v, ok := hc.Service.GetProperty("max_result_size"); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return defaultMaxResultSize
}

// handlePoll answers a Poll_Request for a collection's content blocks. If
// the result exceeds the service's max_result_size, the first page is
// returned along with a result_id; the remainder is retrieved via
// Poll_Fulfillment_Request (spec.md §4.9).
func handlePoll(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var req PollRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed Poll_Request", err)
	}

	collection, err := hc.Repo.GetCollection(ctx, req.CollectionName)
	if err != nil {
		return nil, err
	}
	if !collection.Available {
		return nil, apperr.Newf(apperr.NotFound, "collection not available: %s", req.CollectionName)
	}

	var requested []taxii1.ContentBinding
	for _, b := range req.ContentBinding {
		requested = append(requested, toDomainBinding(b))
	}
	if len(requested) > 0 && !collection.AcceptAllContent {
		matched := taxii1.GetMatchingBindings(collection.Bindings, requested)
		if len(matched) == 0 {
			return nil, apperr.New(apperr.Unsupported, "no requested content binding is supported by this collection")
		}
		requested = matched
	}

	begin, err := parseOptionalTimestamp(req.ExclusiveBeginTimestampLabel)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTimestamp(req.InclusiveEndTimestampLabel)
	if err != nil {
		return nil, err
	}

	blocks, err := hc.Repo.GetContentBlocks(ctx, req.CollectionName, requested, begin, end)
	if err != nil {
		return nil, err
	}

	resp := PollResponse{
		MessageID:                    req.MessageID,
		InResponseTo:                 req.MessageID,
		CollectionName:               req.CollectionName,
		ExclusiveBeginTimestampLabel: req.ExclusiveBeginTimestampLabel,
		InclusiveEndTimestampLabel:   req.InclusiveEndTimestampLabel,
	}

	maxResultSize := maxResultSizeFor(hc)
	total := len(blocks)
	resp.RecordCount = &RecordCount{Count: int64(total), PartialCount: total > maxResultSize}

	page := blocks
	if total > maxResultSize {
		rs, err := hc.Repo.CreateResultSet(ctx, taxii1.ResultSet{
			CollectionID: req.CollectionName,
			Bindings:     requested,
			Begin:        begin,
			End:          end,
		})
		if err != nil {
			return nil, err
		}
		resp.ResultID = rs.ID
		resp.ResultPartNumber = 1
		resp.More = true
		page = blocks[:maxResultSize]
	}

	for _, block := range page {
		resp.ContentBlock = append(resp.ContentBlock, toContentBlock(block))
	}
	return resp, nil
}

func toContentBlock(block taxii1.ContentBlock) ContentBlock {
	cb := ContentBlock{
		ContentBinding: ContentBinding{BindingID: block.Binding.BindingID},
		Content:        block.Content,
	}
	if !block.TimestampLabel.IsZero() {
		cb.TimestampLabel = stixid.New(block.TimestampLabel).String()
	}
	for _, st := range block.Binding.Subtypes {
		cb.ContentBinding.Subtype = append(cb.ContentBinding.Subtype, Subtype{SubtypeID: st})
	}
	return cb
}
