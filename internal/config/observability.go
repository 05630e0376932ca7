package config

import "errors"

// ObservabilityConfig controls the optional New Relic agent.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	LicenseKey  string `koanf:"license_key"`
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
}

// DefaultObservabilityConfig returns the disabled default.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{Enabled: false}
}

// Validate checks that an enabled agent has credentials to run with.
func (c *ObservabilityConfig) Validate() error {
	if c.Enabled && c.LicenseKey == "" {
		return errors.New("observability enabled but license_key is empty")
	}
	return nil
}
