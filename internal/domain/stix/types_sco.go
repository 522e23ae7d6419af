package stix

import "github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"

func registerSCOs() {
	Register(TypeDef{
		Name:              "ipv4-addr",
		Category:          SCO,
		ContributingProps: []string{"value"},
		Constraints: []constraint.Rule{
			constraint.RefsType("resolves_to_refs", "mac-addr"),
			constraint.RefsType("belongs_to_refs", "autonomous-system"),
		},
	})

	Register(TypeDef{
		Name:              "ipv6-addr",
		Category:          SCO,
		ContributingProps: []string{"value"},
		Constraints: []constraint.Rule{
			constraint.RefsType("resolves_to_refs", "mac-addr"),
			constraint.RefsType("belongs_to_refs", "autonomous-system"),
		},
	})

	Register(TypeDef{
		Name:              "domain-name",
		Category:          SCO,
		ContributingProps: []string{"value"},
		Constraints: []constraint.Rule{
			constraint.RefsType("resolves_to_refs", "ipv4-addr", "ipv6-addr", "domain-name"),
		},
	})

	Register(TypeDef{
		Name:              "url",
		Category:          SCO,
		ContributingProps: []string{"value"},
	})

	Register(TypeDef{
		Name:              "mac-addr",
		Category:          SCO,
		ContributingProps: []string{"value"},
	})

	Register(TypeDef{
		Name:              "autonomous-system",
		Category:          SCO,
		ContributingProps: []string{"number"},
	})

	Register(TypeDef{
		Name:              "mutex",
		Category:          SCO,
		ContributingProps: []string{"name"},
	})

	Register(TypeDef{
		Name:              "software",
		Category:          SCO,
		ContributingProps: []string{"name", "cpe", "swid", "vendor", "version"},
	})

	Register(TypeDef{
		Name:              "windows-registry-key",
		Category:          SCO,
		ContributingProps: []string{"key", "values"},
	})

	Register(TypeDef{
		Name:              "email-addr",
		Category:          SCO,
		ContributingProps: []string{"value"},
		Constraints: []constraint.Rule{
			constraint.OptionalRefType("belongs_to_ref", "user-account"),
		},
	})

	Register(TypeDef{
		Name:              "email-message",
		Category:          SCO,
		ContributingProps: []string{"from_ref", "subject", "body"},
	})

	Register(TypeDef{
		Name:              "user-account",
		Category:          SCO,
		ContributingProps: []string{"account_type", "user_id", "account_login"},
	})

	Register(TypeDef{
		Name:              "x509-certificate",
		Category:          SCO,
		ContributingProps: []string{"hashes", "serial_number"},
		Constraints: []constraint.Rule{
			constraint.AtLeastOne("is_self_signed", "hashes", "version", "serial_number",
				"signature_algorithm", "issuer", "validity_not_before", "validity_not_after",
				"subject", "subject_public_key_algorithm", "subject_public_key_modulus",
				"subject_public_key_exponent_p"),
		},
	})

	Register(TypeDef{
		Name:              "directory",
		Category:          SCO,
		ContributingProps: []string{"path"},
		Constraints: []constraint.Rule{
			constraint.RefsType("contains_refs", "file", "directory"),
		},
	})

	Register(TypeDef{
		Name:              "file",
		Category:          SCO,
		ContributingProps: []string{"hashes", "name", "extensions"},
		Constraints: []constraint.Rule{
			constraint.AtLeastOne("hashes", "name"),
			constraint.OptionalRefType("parent_directory_ref", "directory"),
			constraint.OptionalRefType("content_ref", "artifact"),
		},
	})

	Register(TypeDef{
		Name:              "artifact",
		Category:          SCO,
		ContributingProps: []string{"hashes", "payload_bin"},
		Constraints: []constraint.Rule{
			constraint.MutuallyExclusive("payload_bin", "url"),
			constraint.Dependency([]string{"hashes"}, []string{"url"}),
		},
	})

	Register(TypeDef{
		Name:     "network-traffic",
		Category: SCO,
		// No ID-contributing properties declared: endpoints, protocols, and
		// ports repeat across genuinely distinct flows too often to serve as
		// a deterministic key.
		Constraints: []constraint.Rule{
			constraint.AtLeastOne("src_ref", "dst_ref"),
			constraint.TimestampOrder("start", "end"),
			networkTrafficEndRequiresInactive(),
			constraint.OptionalRefType("src_ref", "ipv4-addr", "ipv6-addr", "mac-addr", "domain-name"),
			constraint.OptionalRefType("dst_ref", "ipv4-addr", "ipv6-addr", "mac-addr", "domain-name"),
			constraint.RefsType("encapsulates_refs", "network-traffic"),
			constraint.RefsType("payload_refs", "artifact"),
		},
	})

	Register(TypeDef{
		Name:     "process",
		Category: SCO,
		Constraints: []constraint.Rule{
			constraint.AtLeastOne("args", "command_line", "created_time", "cwd",
				"environment_variables", "is_hidden", "pid", "name", "parent_ref", "child_refs"),
			constraint.NonNegative("pid"),
			constraint.OptionalRefType("creator_user_ref", "user-account"),
			constraint.OptionalRefType("image_ref", "file"),
			constraint.OptionalRefType("parent_ref", "process"),
			constraint.RefsType("child_refs", "process"),
			constraint.RefsType("opened_connection_refs", "network-traffic"),
		},
	})
}
