package stix

import "github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"

// externalReferenceRules are the constraints applying to each entry of an
// object's external_references list (spec.md §4.1).
var externalReferenceRules = []constraint.Rule{
	constraint.AtLeastOne("description", "external_id", "url"),
	constraint.HashAlgorithms("hashes"),
}

// ValidateExternalReference checks one external-reference property map
// against its constraint set. Called by the codec during decode for each
// entry of an object's external_references array.
func ValidateExternalReference(ref map[string]any) error {
	return constraint.Run(ref, externalReferenceRules...)
}
