package taxii1x

import (
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
	"github.com/darwis-taxii/taxii-server/internal/domain/signalbus"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

// ServiceInfo describes the one TAXII 1.x service a HandlerContext is
// bound to (spec.md §4.6, §4.9), mirroring handlers/base.rs's
// ServiceInstance.
type ServiceInfo struct {
	ID                     string
	Type                   string
	Address                string
	Description            string
	ProtocolBindings       []string
	MessageBindings        []string
	Available              bool
	AuthenticationRequired bool
	Properties             map[string]any
}

// GetProperty looks up a free-form service property, for the handful of
// per-service knobs (max_result_size, max_part_number) that do not warrant
// a dedicated field.
func (s ServiceInfo) GetProperty(key string) (any, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// HandlerContext carries everything a message handler needs: who is
// calling, where to persist/query, and which service instance received
// the request (spec.md §4.9).
type HandlerContext struct {
	Account *auth.Account
	Repo    taxii1.Repository
	Service ServiceInfo
	// Bus publishes ingest events for subscribers (spec.md §4.10). May be
	// nil, in which case handlers skip publishing.
	Bus *signalbus.Bus
}
