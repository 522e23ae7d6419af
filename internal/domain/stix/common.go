package stix

import (
	"github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"
)

// commonRules are evaluated for every object regardless of type: the
// cross-cutting invariants from spec.md §3 that apply whenever the relevant
// property is present.
func commonRules() []constraint.Rule {
	return []constraint.Rule{
		constraint.TimestampOrder("created", "modified"),
		constraint.Range("confidence", 0, 100),
		constraint.Range("number_observed", 1, 999_999_999),
		constraint.Range("count", 0, 999_999_999),
	}
}
