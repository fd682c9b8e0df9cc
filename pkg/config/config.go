// Package config holds the runtime configuration of the view maintenance
// engine: the force-full safety valve, evidence emission, and the default
// fallback policy. Configuration is read once at startup from defaults,
// the environment, or a YAML file; the engine never re-reads it.
package config

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/fluxterm/fluxterm/pkg/fallback"
)

// ForceFullEnvVar disables incremental processing and forces a full
// recomputation on every epoch when set to 1, true, or yes. It serves as a
// benchmarking baseline and as a safety fallback.
const ForceFullEnvVar = "FLUXTERM_FULL_RECOMPUTE"

// Config is the engine configuration.
type Config struct {
	// ForceFull recomputes every view on every epoch, bypassing
	// incremental maintenance.
	ForceFull bool `json:"forceFull"`
	// EmitEvidence controls per-epoch JSONL evidence emission.
	EmitEvidence bool `json:"emitEvidence"`
	// DefaultFallback applies to views without a per-view policy.
	DefaultFallback fallback.Policy `json:"defaultFallback"`
}

// Default returns the stock configuration: incremental processing with
// evidence emission and the default fallback policy.
func Default() Config {
	return Config{
		ForceFull:       false,
		EmitEvidence:    true,
		DefaultFallback: fallback.Default(),
	}
}

// FromEnv returns the default configuration with the force-full switch
// taken from the environment.
func FromEnv() Config {
	c := Default()
	switch strings.ToLower(os.Getenv(ForceFullEnvVar)) {
	case "1", "true", "yes":
		c.ForceFull = true
	}
	return c
}

// Load reads a YAML configuration file and merges it over the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML configuration bytes over the defaults.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configured fallback policy.
func (c Config) Validate() error {
	p := c.DefaultFallback
	if p.RatioThreshold <= 0 || p.RatioThreshold > 1 {
		return fmt.Errorf("invalid fallback ratio threshold %v: must be in (0, 1]", p.RatioThreshold)
	}
	if p.MinDeltaForFallback < 0 {
		return fmt.Errorf("invalid minimum delta for fallback %d: must be non-negative", p.MinDeltaForFallback)
	}
	return nil
}
