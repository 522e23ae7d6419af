package stix

import "github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"

// timestampOrderedSDOs are the SDO types whose first_seen/last_seen window
// must be non-decreasing (spec.md §4.1).
var timestampOrderedSDOs = []string{"campaign", "intrusion-set", "threat-actor", "infrastructure", "malware"}

func registerSDOs() {
	for _, name := range timestampOrderedSDOs {
		Register(TypeDef{
			Name:     name,
			Category: SDO,
			Constraints: []constraint.Rule{
				constraint.TimestampOrder("first_seen", "last_seen"),
			},
		})
	}

	Register(TypeDef{
		Name:     "indicator",
		Category: SDO,
		Constraints: []constraint.Rule{
			constraint.TimestampOrderStrict("valid_from", "valid_until"),
		},
	})

	Register(TypeDef{
		Name:     "observed-data",
		Category: SDO,
		Constraints: []constraint.Rule{
			constraint.TimestampOrder("first_observed", "last_observed"),
			constraint.Range("number_observed", 1, 999_999_999),
			constraint.MutuallyExclusive("objects", "object_refs"),
		},
	})

	Register(TypeDef{
		Name:     "location",
		Category: SDO,
		Constraints: []constraint.Rule{
			locationAtLeastOne(),
			constraint.Range("latitude", -90, 90),
			constraint.Range("longitude", -180, 180),
			constraint.Dependency([]string{"latitude", "longitude"}, []string{"precision"}),
			constraint.NonNegative("precision"),
			constraint.BothOrNeither("latitude", "longitude"),
		},
	})

	Register(TypeDef{
		Name:     "identity",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "attack-pattern",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "tool",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "course-of-action",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "vulnerability",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "malware-analysis",
		Category: SDO,
	})

	Register(TypeDef{
		Name:     "incident",
		Category: SDO,
	})

	for _, name := range []string{"grouping", "note", "opinion", "report"} {
		Register(TypeDef{
			Name:     name,
			Category: SDO,
			Constraints: []constraint.Rule{
				constraint.AtLeastOne("object_refs"),
			},
		})
	}
}
