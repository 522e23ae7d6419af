package taxii1x

import (
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

func taxii1Service(t *testing.T) taxii1.Service {
	t.Helper()
	return taxii1.Service{
		ID:   "discovery",
		Type: "DISCOVERY",
		Properties: map[string]any{
			"address":          "/services/discovery/",
			"protocol_binding": VIDProtocolHTTPS10,
			"message_bindings": []string{VIDMessageXML11},
			"available":        true,
			"description":      "Discovery service",
		},
	}
}
