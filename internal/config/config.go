// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

// Package config loads spec.md §6's configuration table from an optional
// TOML file, overlaid with environment variables, the way §6 describes as
// "environment or config call".
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/selvadb/selva/internal/autoindex"
)

// Hierarchy holds the HIERARCHY_* tunables.
type Hierarchy struct {
	// InitialVectorLen sizes the initial capacity hint for a node's
	// parent/child slices.
	InitialVectorLen int `toml:"initial_vector_len"`
	// ExpectedRespLen sizes the initial capacity hint for a find result
	// slice.
	ExpectedRespLen int `toml:"expected_resp_len"`
	// CompressionLevel is the deflate level applied to detached subtrees.
	CompressionLevel int `toml:"compression_level"`
	// AutoCompressPeriodMS is the sweep cadence, in milliseconds, of the
	// detached-subtree compressor.
	AutoCompressPeriodMS int `toml:"auto_compress_period_ms"`
	// AutoCompressOldAgeLimMS is the minimum age, in milliseconds, a
	// detached subtree must reach before the sweep compresses it.
	AutoCompressOldAgeLimMS int `toml:"auto_compress_old_age_lim_ms"`
}

// AutoCompressPeriod is AutoCompressPeriodMS as a time.Duration.
func (h Hierarchy) AutoCompressPeriod() time.Duration {
	return time.Duration(h.AutoCompressPeriodMS) * time.Millisecond
}

// AutoCompressOldAgeLim is AutoCompressOldAgeLimMS as a time.Duration.
func (h Hierarchy) AutoCompressOldAgeLim() time.Duration {
	return time.Duration(h.AutoCompressOldAgeLimMS) * time.Millisecond
}

// Find holds the FIND_* auto-indexing tunables.
type Find struct {
	// IndicesMax bounds simultaneously materialized indices; 0 disables
	// indexing outright.
	IndicesMax int `toml:"indices_max"`
	// IndexingThreshold is the minimum average search-domain size
	// considered worth indexing.
	IndexingThreshold float64 `toml:"indexing_threshold"`
	// ICBUpdateIntervalMS is the per-ICB popularity/size stats update
	// cadence, in milliseconds.
	ICBUpdateIntervalMS int `toml:"indexing_icb_update_interval_ms"`
	// IndexingIntervalMS is the top-indices promotion/eviction decision
	// cadence, in milliseconds.
	IndexingIntervalMS int `toml:"indexing_interval_ms"`
	// PopularityAvePeriodMS is the time constant of the popularity
	// low-pass filter, in milliseconds.
	PopularityAvePeriodMS int `toml:"indexing_popularity_ave_period_ms"`
}

// ICBUpdateInterval is ICBUpdateIntervalMS as a time.Duration.
func (f Find) ICBUpdateInterval() time.Duration {
	return time.Duration(f.ICBUpdateIntervalMS) * time.Millisecond
}

// IndexingInterval is IndexingIntervalMS as a time.Duration.
func (f Find) IndexingInterval() time.Duration {
	return time.Duration(f.IndexingIntervalMS) * time.Millisecond
}

// PopularityAvePeriod is PopularityAvePeriodMS as a time.Duration.
func (f Find) PopularityAvePeriod() time.Duration {
	return time.Duration(f.PopularityAvePeriodMS) * time.Millisecond
}

// AutoindexConfig adapts the FIND_* table into internal/autoindex's own
// Config shape, deriving the low-pass smoothing factor from the configured
// averaging period rather than exposing it as a separate knob spec.md §6
// never names.
func (f Find) AutoindexConfig() autoindex.Config {
	return autoindex.Config{
		IndicesMax:        f.IndicesMax,
		IndexingThreshold: f.IndexingThreshold,
		PopLowPass:        f.popLowPass(),
		MinPopularity:     0.5,
	}
}

// popLowPass derives the autoindex low-pass smoothing factor from the
// configured averaging period and update cadence: a shorter update
// interval relative to the averaging period means each sample should move
// the moving average less.
func (f Find) popLowPass() float64 {
	if f.PopularityAvePeriodMS <= 0 || f.ICBUpdateIntervalMS <= 0 {
		return 0.25
	}
	a := float64(f.ICBUpdateIntervalMS) / float64(f.PopularityAvePeriodMS)
	if a > 1 {
		a = 1
	}
	return a
}

// Config is the full configuration table of spec.md §6.
type Config struct {
	Hierarchy Hierarchy `toml:"hierarchy"`
	Find      Find      `toml:"find"`
}

// Default mirrors the kind of defaults spec.md §6 implies without pinning
// exact numbers from the original.
func Default() Config {
	return Config{
		Hierarchy: Hierarchy{
			InitialVectorLen:        4,
			ExpectedRespLen:         16,
			CompressionLevel:        6,
			AutoCompressPeriodMS:    60_000,
			AutoCompressOldAgeLimMS: 300_000,
		},
		Find: Find{
			IndicesMax:            16,
			IndexingThreshold:     32,
			ICBUpdateIntervalMS:   1_000,
			IndexingIntervalMS:    5_000,
			PopularityAvePeriodMS: 60_000,
		},
	}
}

// Load reads path (if non-empty) as TOML over Default, then overlays
// environment variables, matching §6's "environment or config call"
// wording. path == "" skips the file and only applies env overlay and
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"HIERARCHY_INITIAL_VECTOR_LEN", &c.Hierarchy.InitialVectorLen},
		{"HIERARCHY_EXPECTED_RESP_LEN", &c.Hierarchy.ExpectedRespLen},
		{"HIERARCHY_COMPRESSION_LEVEL", &c.Hierarchy.CompressionLevel},
		{"HIERARCHY_AUTO_COMPRESS_PERIOD_MS", &c.Hierarchy.AutoCompressPeriodMS},
		{"HIERARCHY_AUTO_COMPRESS_OLD_AGE_LIM", &c.Hierarchy.AutoCompressOldAgeLimMS},
		{"FIND_INDICES_MAX", &c.Find.IndicesMax},
		{"FIND_INDEXING_ICB_UPDATE_INTERVAL", &c.Find.ICBUpdateIntervalMS},
		{"FIND_INDEXING_INTERVAL", &c.Find.IndexingIntervalMS},
		{"FIND_INDEXING_POPULARITY_AVE_PERIOD", &c.Find.PopularityAvePeriodMS},
	}
	for _, e := range ints {
		raw, ok := os.LookupEnv(e.name)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.name, err)
		}
		*e.dst = v
	}
	if raw, ok := os.LookupEnv("FIND_INDEXING_THRESHOLD"); ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: FIND_INDEXING_THRESHOLD: %w", err)
		}
		c.Find.IndexingThreshold = v
	}
	return nil
}

// Validate rejects a configuration that would leave a component in an
// inconsistent state, per SPEC_FULL §C ("config validation and
// defaults").
func (c Config) Validate() error {
	if c.Hierarchy.InitialVectorLen < 0 {
		return fmt.Errorf("config: hierarchy.initial_vector_len must be >= 0")
	}
	if c.Hierarchy.CompressionLevel < 0 || c.Hierarchy.CompressionLevel > 9 {
		return fmt.Errorf("config: hierarchy.compression_level must be in [0,9]")
	}
	if c.Find.IndicesMax < 0 {
		return fmt.Errorf("config: find.indices_max must be >= 0")
	}
	if c.Find.IndexingThreshold < 0 {
		return fmt.Errorf("config: find.indexing_threshold must be >= 0")
	}
	return nil
}
