// Package config loads and validates the server's deployment configuration:
// listen addresses, storage backend selection, auth secrets, the set of
// TAXII 1.x services to advertise, and TAXII 2.1 surface settings.
package config

import "time"

// Config is the top-level, typed configuration for the taxiid server.
type Config struct {
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`

	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Auth    AuthConfig    `yaml:"auth" mapstructure:"auth"`
	Taxii2  Taxii2Config  `yaml:"taxii2" mapstructure:"taxii2"`
	Taxii1x Taxii1xConfig `yaml:"taxii1x" mapstructure:"taxii1x"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig holds the process-level listen address and logging settings.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"required"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// StorageConfig selects and configures the persistence backend. Driver
// "memory" backs every repository with the in-memory adapters (tests, demos);
// "sqlite" opens a modernc.org/sqlite-backed *sql.DB at DSN (spec.md §4.6).
type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver" validate:"oneof=memory sqlite"`
	DSN    string `yaml:"dsn" mapstructure:"dsn" validate:"required_if=Driver sqlite"`
}

// AuthConfig configures bearer-token issuance for /management/auth and the
// Authorization header accepted by both protocol surfaces (spec.md §4.7).
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret" mapstructure:"token_secret" validate:"required,min=16"`
	TokenTTL    time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// Taxii2Config mirrors taxii2http.Config; it is copied into that type
// verbatim by internal/service so the HTTP adapter stays config-agnostic.
type Taxii2Config struct {
	Title            string `yaml:"title" mapstructure:"title"`
	Description      string `yaml:"description" mapstructure:"description"`
	Contact          string `yaml:"contact" mapstructure:"contact"`
	PublicDiscovery  bool   `yaml:"public_discovery" mapstructure:"public_discovery"`
	MaxContentLength int64  `yaml:"max_content_length" mapstructure:"max_content_length" validate:"gt=0"`
	DefaultLimit     int    `yaml:"default_limit" mapstructure:"default_limit" validate:"gt=0"`
	MaxLimit         int    `yaml:"max_limit" mapstructure:"max_limit" validate:"gtefield=DefaultLimit"`
}

// Taxii1xConfig declares the fixed set of TAXII 1.x services this server
// advertises through Discovery (spec.md §4.9). Unlike TAXII 2.1's API roots,
// which are read from the repository, 1.x services are a deployment-time
// topology decision, so they are configured rather than stored.
type Taxii1xConfig struct {
	Services []ServiceConfig `yaml:"services" mapstructure:"services"`
}

// ServiceConfig describes one TAXII 1.x service instance. It is converted to
// taxii1x.ServiceInfo by internal/service at startup.
type ServiceConfig struct {
	ID                     string         `yaml:"id" mapstructure:"id" validate:"required"`
	Type                   string         `yaml:"type" mapstructure:"type" validate:"oneof=DISCOVERY INBOX POLL COLLECTION_MANAGEMENT"`
	Address                string         `yaml:"address" mapstructure:"address" validate:"required"`
	Description            string         `yaml:"description" mapstructure:"description"`
	ProtocolBindings       []string       `yaml:"protocol_bindings" mapstructure:"protocol_bindings" validate:"required,min=1"`
	MessageBindings        []string       `yaml:"message_bindings" mapstructure:"message_bindings" validate:"required,min=1"`
	Available              bool           `yaml:"available" mapstructure:"available"`
	AuthenticationRequired bool           `yaml:"authentication_required" mapstructure:"authentication_required"`
	MaxResultSize          int            `yaml:"max_result_size" mapstructure:"max_result_size"`
	Properties             map[string]any `yaml:"properties" mapstructure:"properties"`
}

// MetricsConfig controls the Prometheus metrics endpoint exposed alongside
// the protocol surfaces.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// SetDefaults fills in production defaults for fields the user left zero
// after unmarshaling. viper.IsSet distinguishes "absent from config" from
// "explicitly false/zero" for the loader's caller, so this only runs on
// fields where zero is never a meaningful deployment choice.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":9000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = "taxiid.db"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 30 * time.Minute
	}
	if c.Taxii2.Title == "" {
		c.Taxii2.Title = "taxiid"
	}
	if c.Taxii2.MaxContentLength == 0 {
		c.Taxii2.MaxContentLength = 100 * 1024 * 1024
	}
	if c.Taxii2.DefaultLimit == 0 {
		c.Taxii2.DefaultLimit = 100
	}
	if c.Taxii2.MaxLimit == 0 {
		c.Taxii2.MaxLimit = 1000
	}
	for i := range c.Taxii1x.Services {
		if c.Taxii1x.Services[i].MaxResultSize == 0 {
			c.Taxii1x.Services[i].MaxResultSize = 1_000_000
		}
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9001"
	}
}

// SetDevDefaults fills in a permissive single-node setup when DevMode is on:
// in-memory storage, a fixed token secret, and a default Discovery/Inbox/Poll
// service trio, so `taxiid serve --dev` runs with zero configuration.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Auth.TokenSecret == "" {
		c.Auth.TokenSecret = "dev-mode-insecure-secret-do-not-use-in-prod"
	}
	if len(c.Taxii1x.Services) == 0 {
		c.Taxii1x.Services = []ServiceConfig{
			{
				ID:               "discovery",
				Type:             "DISCOVERY",
				Address:          "/services/discovery/",
				ProtocolBindings: []string{"urn:taxii.mitre.org:protocol:http:1.0"},
				MessageBindings:  []string{"urn:taxii.mitre.org:message:xml:1.1"},
				Available:        true,
			},
			{
				ID:               "inbox",
				Type:             "INBOX",
				Address:          "/services/inbox/",
				ProtocolBindings: []string{"urn:taxii.mitre.org:protocol:http:1.0"},
				MessageBindings:  []string{"urn:taxii.mitre.org:message:xml:1.1"},
				Available:        true,
			},
			{
				ID:               "poll",
				Type:             "POLL",
				Address:          "/services/poll/",
				ProtocolBindings: []string{"urn:taxii.mitre.org:protocol:http:1.0"},
				MessageBindings:  []string{"urn:taxii.mitre.org:message:xml:1.1"},
				Available:        true,
			},
		}
	}
}
