package taxii2

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// cursorTimeLayout is the microsecond-precision ISO-8601 form used inside a
// pagination cursor (spec.md §4.6: "<ISO8601>|<object_id>").
const cursorTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// Cursor is the decoded keyset pagination position: the date_added and
// object_id of the last row returned.
type Cursor struct {
	DateAdded time.Time
	ObjectID  string
}

// EncodeCursor base64-encodes c as "<ISO8601>|<object_id>".
func EncodeCursor(c Cursor) string {
	raw := c.DateAdded.UTC().Format(cursorTimeLayout) + "|" + c.ObjectID
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. A malformed cursor is InvalidInput.
func DecodeCursor(encoded string) (Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, apperr.Wrap(apperr.InvalidInput, "malformed pagination cursor", err)
	}
	dateStr, objectID, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}, apperr.New(apperr.InvalidInput, "malformed pagination cursor")
	}
	t, err := time.Parse(cursorTimeLayout, dateStr)
	if err != nil {
		return Cursor{}, apperr.Wrap(apperr.InvalidInput, "malformed pagination cursor timestamp", err)
	}
	return Cursor{DateAdded: t, ObjectID: objectID}, nil
}

// After reports whether (dateAdded, objectID) comes strictly after the
// cursor in keyset order: (date_added, id) ascending.
func (c Cursor) After(dateAdded time.Time, objectID string) bool {
	if dateAdded.After(c.DateAdded) {
		return true
	}
	if dateAdded.Before(c.DateAdded) {
		return false
	}
	return objectID > c.ObjectID
}
