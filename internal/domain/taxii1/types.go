// Package taxii1 holds the TAXII 1.x domain types and the repository port
// the persistence layer implements (spec.md §4.6, §4.9).
package taxii1

import "time"

// ContentBinding identifies a supported content type, optionally restricted
// to a set of subtypes (spec.md §4.9).
type ContentBinding struct {
	BindingID string
	Subtypes  []string
}

// IsContentSupported reports whether requested matches one of bindings,
// under the "either side's subtype set empty, or non-empty intersection"
// rule (spec.md §4.9, §9 Open Questions).
func IsContentSupported(acceptAll bool, bindings []ContentBinding, requested ContentBinding) bool {
	if acceptAll {
		return true
	}
	for _, b := range bindings {
		if b.BindingID != requested.BindingID {
			continue
		}
		if len(b.Subtypes) == 0 || len(requested.Subtypes) == 0 {
			return true
		}
		if intersects(b.Subtypes, requested.Subtypes) {
			return true
		}
	}
	return false
}

// GetMatchingBindings returns the overlap between bindings and requested:
// binding ids paired with the intersected subtype set.
func GetMatchingBindings(bindings []ContentBinding, requested []ContentBinding) []ContentBinding {
	var out []ContentBinding
	for _, r := range requested {
		for _, b := range bindings {
			if b.BindingID != r.BindingID {
				continue
			}
			switch {
			case len(b.Subtypes) == 0 && len(r.Subtypes) == 0:
				out = append(out, ContentBinding{BindingID: b.BindingID})
			case len(b.Subtypes) == 0:
				out = append(out, ContentBinding{BindingID: b.BindingID, Subtypes: r.Subtypes})
			case len(r.Subtypes) == 0:
				out = append(out, ContentBinding{BindingID: b.BindingID, Subtypes: b.Subtypes})
			default:
				if overlap := intersect(b.Subtypes, r.Subtypes); len(overlap) > 0 {
					out = append(out, ContentBinding{BindingID: b.BindingID, Subtypes: overlap})
				}
			}
		}
	}
	return out
}

func intersects(a, b []string) bool {
	return len(intersect(a, b)) > 0
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	var out []string
	for _, v := range b {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

// Collection is a named TAXII 1.x data repository (spec.md §3, §4.6).
type Collection struct {
	Name             string
	Type             string
	Description      string
	AcceptAllContent bool
	Bindings         []ContentBinding
	Available        bool
	Volume           int
	DateCreated      time.Time
}

// ContentBlock is a single piece of ingested content bound to one or more
// collections (spec.md §4.6).
type ContentBlock struct {
	ID             string
	Content        string
	TimestampLabel time.Time
	Binding        ContentBinding
	InboxMessageID string
	CollectionIDs  []string
}

// InboxMessage retains the original XML body and ingest metadata
// (spec.md §4.6).
type InboxMessage struct {
	ID                     string
	MessageID              string
	OriginalMessage        string
	ContentBlockCount      int
	DestinationCollections []string
	ServiceID              string
	DateCreated            time.Time
}

// SubscriptionStatus discriminates a subscription's lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "ACTIVE"
	SubscriptionPaused       SubscriptionStatus = "PAUSED"
	SubscriptionUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// ResultSet is a server-side saved query keyed by an opaque result id, used
// for partitioned poll-fulfillment retrieval (spec.md §3, §4.9).
type ResultSet struct {
	ID           string
	CollectionID string
	Bindings     []ContentBinding
	Begin        *time.Time
	End          *time.Time
	DateCreated  time.Time
}

// Subscription holds a saved (service, collection, params) triple
// (spec.md §3).
type Subscription struct {
	ID           string
	ServiceID    string
	CollectionID string
	Params       map[string]any
	Status       SubscriptionStatus
	DateCreated  time.Time
}

// Service describes one advertised TAXII 1.x service endpoint.
type Service struct {
	ID          string
	Type        string
	Properties  map[string]any
	DateCreated time.Time
	DateUpdated time.Time
}
