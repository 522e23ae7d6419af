package stix

import "github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"

func registerSROs() {
	Register(TypeDef{
		Name:     "relationship",
		Category: SRO,
	})

	Register(TypeDef{
		Name:     "sighting",
		Category: SRO,
		Constraints: []constraint.Rule{
			constraint.TimestampOrder("first_seen", "last_seen"),
			refsCategory("sighting_of_ref", SDO),
			constraint.RefsType("observed_data_refs", "observed-data"),
			constraint.RefsType("where_sighted_refs", "identity", "location"),
		},
	})
}
