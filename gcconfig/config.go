// Package gcconfig defines the tunable knobs a GC instance is
// constructed with, and a YAML loader for them.
//
// Grounded on the reference collector's own use of gopkg.in/yaml.v2 for
// small typed configuration structs (its board/target definition files).
package gcconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/shadowgc/shadowgc/internal/slots"
)

// Config holds every tunable a GC instance is constructed with.
type Config struct {
	// BlockCapacity is the number of slots per handle block. Must be > 0;
	// a zero value is replaced with slots.DefaultCapacity() by Default
	// and by New. Settable to 1-4 to exercise block-growth paths in tests.
	BlockCapacity int `yaml:"blockCapacity"`

	// CollectEveryAlloc, when true (the default), runs a full mark-sweep
	// before every allocation: a correctness stress-test setting that
	// catches a missing or stale root far sooner than amortized
	// collection would.
	CollectEveryAlloc bool `yaml:"collectEveryAlloc"`

	// MinAllocsBetweenCollections and MinHeapGrowthBytes are only
	// consulted when CollectEveryAlloc is false: a collection is
	// triggered once at least one of the two thresholds has been crossed
	// since the previous collection.
	MinAllocsBetweenCollections int   `yaml:"minAllocsBetweenCollections"`
	MinHeapGrowthBytes          int64 `yaml:"minHeapGrowthBytes"`

	// MaxLiveObjects and MaxSlots bound the collector's simulated OOM: 0
	// means unlimited. With CollectEveryAlloc a collection always runs
	// before either limit is checked, so a limit is only hit once
	// genuinely-live state exceeds it; under the threshold policy the
	// check runs after a collection only when a threshold was crossed, so
	// unreclaimed garbage can count toward a limit.
	MaxLiveObjects int `yaml:"maxLiveObjects"`
	MaxSlots       int `yaml:"maxSlots"`

	// Verbose enables the default gcstats.Recorder when one hasn't been
	// set explicitly via GC.SetRecorder.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration a GC is constructed with when the
// caller passes a zero Config: one page's worth of slots per block,
// collect on every allocation, no budget limits, not verbose.
func Default() Config {
	return Config{
		BlockCapacity:     slots.DefaultCapacity(),
		CollectEveryAlloc: true,
	}
}

// Normalize fills in zero-valued fields that must never actually be
// zero at runtime (today, only BlockCapacity) and returns the result.
// CollectEveryAlloc's zero value (false) is a legitimate, explicit
// choice and is left untouched; callers who want the default collection
// policy should start from Default(), not from a zero Config.
func (c Config) Normalize() Config {
	if c.BlockCapacity <= 0 {
		c.BlockCapacity = slots.DefaultCapacity()
	}
	return c
}

// Load reads a YAML configuration file. Fields absent from the file keep
// Go's zero value, not Default()'s values. Calling Normalize after Load
// fills in only an omitted BlockCapacity; an omitted collectEveryAlloc
// stays false. Callers that want Default()'s values for every omitted
// field should start from Default() and overlay the loaded file's fields
// themselves.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gcconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("gcconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}
