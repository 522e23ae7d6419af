package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TAXIID"

// InitViper wires up config file search paths and environment variable
// overrides. configFile, if non-empty, is used as an explicit path;
// otherwise the standard search locations are tried.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("taxiid")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	bindNestedEnvKeys()
}

// findConfigFile searches the current directory, $HOME/.taxiid/, and
// /etc/taxiid/ for taxiid.yaml or taxiid.yml, in that order.
func findConfigFile() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".taxiid"))
	}
	dirs = append(dirs, "/etc/taxiid")
	return findConfigFileInPaths(dirs)
}

func findConfigFileInPaths(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range []string{"taxiid.yaml", "taxiid.yml"} {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// bindNestedEnvKeys explicitly binds every overridable key so env vars work
// even when the key is absent from the config file (viper.AutomaticEnv alone
// only sees keys viper already knows about from a Set/unmarshal pass).
func bindNestedEnvKeys() {
	keys := []string{
		"dev_mode",
		"server.http_addr",
		"server.log_level",
		"storage.driver",
		"storage.dsn",
		"auth.token_secret",
		"auth.token_ttl",
		"taxii2.title",
		"taxii2.description",
		"taxii2.contact",
		"taxii2.public_discovery",
		"taxii2.max_content_length",
		"taxii2.default_limit",
		"taxii2.max_limit",
		"metrics.enabled",
		"metrics.addr",
	}
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
}

// LoadConfigRaw reads and unmarshals configuration without applying dev
// defaults or validating, so a CLI caller can apply flag overrides first.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// LoadConfig reads, unmarshals, applies defaults, and validates the config
// in one step.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the config file viper actually read,
// or "" if none was found.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
