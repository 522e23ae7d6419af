package taxii1x

import (
	"context"
	"encoding/xml"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// handlePollFulfillment serves a Poll_Fulfillment_Request for a later part
// of a result set created by handlePoll. TAXII 1.1 only (spec.md §4.9).
//
// offset = (result_part_number - 1) * max_result_size
// more   = total_count / max_result_size > result_part_number (float division)
//
// matching the original poll_fulfillment handler's paging arithmetic.
func handlePollFulfillment(ctx context.Context, hc HandlerContext, body []byte) (any, error) {
	var req PollFulfillmentRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed Poll_Fulfillment_Request", err)
	}

	rs, err := hc.Repo.GetResultSet(ctx, req.ResultID)
	if err != nil {
		return nil, err
	}
	if rs.CollectionID != req.CollectionName {
		return nil, apperr.Newf(apperr.NotFound, "result set %s does not belong to collection %s", req.ResultID, req.CollectionName)
	}

	partNumber := req.ResultPartNumber
	if partNumber < 1 {
		partNumber = 1
	}
	maxResultSize := maxResultSizeFor(hc)

	blocks, err := hc.Repo.GetContentBlocks(ctx, rs.CollectionID, rs.Bindings, rs.Begin, rs.End)
	if err != nil {
		return nil, err
	}
	total := len(blocks)

	offset := (partNumber - 1) * maxResultSize
	if offset >= total {
		return nil, apperr.Newf(apperr.NotFound, "result part %d is out of range for result set %s", partNumber, req.ResultID)
	}
	end := offset + maxResultSize
	if end > total {
		end = total
	}
	page := blocks[offset:end]

	more := float64(total)/float64(maxResultSize) > float64(partNumber)

	resp := PollResponse{
		MessageID:         req.MessageID,
		InResponseTo:      req.MessageID,
		CollectionName:    req.CollectionName,
		ResultID:          req.ResultID,
		ResultPartNumber:  partNumber,
		More:              more,
		RecordCount:       &RecordCount{Count: int64(total), PartialCount: more},
	}
	for _, block := range page {
		resp.ContentBlock = append(resp.ContentBlock, toContentBlock(block))
	}
	return resp, nil
}
