// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package config loads the engine's tuning parameters from a TOML file.
// Default gives every field a working value and Load starts from it, so a
// partial file only overrides what it mentions. A zero-value Config is not
// a working configuration (a zero step time leaves no work budget), and
// Load returns an error when the file is absent.
package config

import (
	"os"
	"time"

	"github.com/naoina/toml"
)

// Config holds every tunable constant the execution core's components
// otherwise hardcode. Durations are stored as milliseconds in the TOML
// representation for readability; accessor methods convert.
type Config struct {
	Sequencer struct {
		StepTimeMillis    int64   `toml:"step_time_ms"`
		WorkFraction      float64 `toml:"work_fraction"`
		WarpTimeoutMillis int64   `toml:"warp_timeout_ms"`
	} `toml:"sequencer"`

	Compile struct {
		TokenIntervalMicros int64 `toml:"token_interval_us"`
		TokenCap            int   `toml:"token_cap"`
		CacheSize           int   `toml:"cache_size"`
		HotnessThreshold    int   `toml:"hotness_threshold"`
	} `toml:"compile"`

	Logging struct {
		Pretty bool `toml:"pretty"`
	} `toml:"logging"`
}

// Default returns the baseline tuning: a 33ms (30Hz) step time, 75% work
// fraction, 500ms warp timeout, a 1ms/token compile budget capped at 10
// banked tokens, a 256-entry compiled cache, and a hotness threshold of 20
// executions (see DESIGN.md for how these were chosen).
func Default() Config {
	var c Config
	c.Sequencer.StepTimeMillis = 33
	c.Sequencer.WorkFraction = 0.75
	c.Sequencer.WarpTimeoutMillis = 500
	c.Compile.TokenIntervalMicros = 1000
	c.Compile.TokenCap = 10
	c.Compile.CacheSize = 256
	c.Compile.HotnessThreshold = 20
	c.Logging.Pretty = false
	return c
}

// Load reads and decodes a TOML config file at path, starting from
// Default() so a partial file only overrides the fields it mentions.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

// StepTime returns the configured sequencer tick length as a Duration.
func (c Config) StepTime() time.Duration {
	return time.Duration(c.Sequencer.StepTimeMillis) * time.Millisecond
}

// WarpTimeout returns the configured warp-mode tick budget as a Duration.
func (c Config) WarpTimeout() time.Duration {
	return time.Duration(c.Sequencer.WarpTimeoutMillis) * time.Millisecond
}

// TokenInterval returns the configured compile-token refill interval.
func (c Config) TokenInterval() time.Duration {
	return time.Duration(c.Compile.TokenIntervalMicros) * time.Microsecond
}
