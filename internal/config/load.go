package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. ACOUSTIC_SERIAL_PORT.
const EnvPrefix = "ACOUSTIC"

// Prepare registers every DefaultConfig value with v and enables environment
// overrides. Viper only consults the environment for keys it already knows, so
// the defaults have to be registered key by key.
func Prepare(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	raw, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load decodes v over DefaultConfig and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// YAML returns the configuration in config file form.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
