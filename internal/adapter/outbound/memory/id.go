package memory

import "strconv"

// idFromSeq formats a monotonically increasing in-process counter as a
// stable string id. Sufficient for the in-memory adapter's own lifetime;
// ids are not meant to survive a restart.
func idFromSeq(seq int) string {
	return strconv.Itoa(seq)
}
