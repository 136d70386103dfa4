// Package generator wires the constraint, page, vm, resource, iss, and
// solver packages into one owner-per-instance generation session (spec.md
// §5): a single goroutine drives one Generator, one random stream, and one
// dependency-history queue, the same explicit-construction discipline
// Zenith's compile.Pipeline applies to a compilation run.
package generator

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Config configures one Generator instance (spec.md §5, §9's replacement
// for the source's PcSpacing/RestoreLoopManagerRepository singletons): a
// plain struct built by DefaultConfig and threaded explicitly into New,
// mirroring compile.PipelineOptions/DefaultPipelineOptions.
type Config struct {
	// Seed feeds this generator's single math/rand/v2 stream.
	Seed uint64 `yaml:"seed"`

	// RingCapacity is the resource.Queue's stage ring size.
	RingCapacity int `yaml:"ringCapacity"`
	// EntropyOnThreshold/EntropyOffThreshold are the shared hysteresis
	// thresholds applied to every (resource.Type, resource.Direction)
	// entropy counter.
	EntropyOnThreshold  uint64 `yaml:"entropyOnThreshold"`
	EntropyOffThreshold uint64 `yaml:"entropyOffThreshold"`

	// PageAlignMask is the alignment mask applied by a vm.PagedMapper the
	// caller constructs (spec.md §4.3); kept here so a profile can pin page
	// granularity alongside the other tunables.
	PageAlignMask uint64 `yaml:"pageAlignMask"`

	// FactorWindow bounds the data-processing strategies' multiplier/
	// multiplicand search window (spec.md §4.5); 0 disables the bound.
	FactorWindow uint64 `yaml:"factorWindow"`

	// Logger receives recoverable-failure notices at Info, fatal
	// diagnostics at Error, and entropy/aliasing decisions at Debug (spec.md
	// §2.2). Never serialised; LoadConfig leaves it at DefaultConfig's
	// slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the generator's baseline tunables.
func DefaultConfig() *Config {
	return &Config{
		Seed:                1,
		RingCapacity:        8,
		EntropyOnThreshold:  4,
		EntropyOffThreshold: 2,
		PageAlignMask:       ^uint64(0xFFF),
		FactorWindow:        0,
		Logger:              slog.Default(),
	}
}

// LoadConfig reads a YAML profile from path, starting from DefaultConfig so
// an omitted field keeps its default (spec.md §2.3/§3.1, grounded on
// rcornwell/S370's config/configparser entry point, expressed in YAML
// instead of S370's line-oriented format since this module's tunables are a
// flat key/value document rather than a device list).
func LoadConfig(path string) (*Config, error) {
	const op = "generator.LoadConfig"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, forceerr.Wrap(forceerr.ConstraintMalformed, op, "failed to read config file", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, forceerr.Wrap(forceerr.ConstraintMalformed, op, "failed to parse config YAML", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg, nil
}
