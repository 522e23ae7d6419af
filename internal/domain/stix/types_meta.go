package stix

import "github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"

func registerMeta() {
	Register(TypeDef{
		Name:     "marking-definition",
		Category: Meta,
	})

	Register(TypeDef{
		Name:     "language-content",
		Category: Meta,
		Constraints: []constraint.Rule{
			notRefType("object_ref", "bundle", "language-content", "marking-definition"),
		},
	})
}

func init() {
	registerSDOs()
	registerSROs()
	registerSCOs()
	registerMeta()
}
