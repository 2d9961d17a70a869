// Copyright (c) 2024-2026, The NRLS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package simulation

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openphy/nr-ls/channel"
	"github.com/openphy/nr-ls/prach"
	"github.com/openphy/nr-ls/types"
)

const (
	DefaultOccasions   = 100
	DefaultSnrMinDb    = -20.0
	DefaultSnrMaxDb    = 10.0
	DefaultSnrStepDb   = 2.0
	DefaultChannelName = "awgn"

	// Conformance tolerance on the reported time advance, TS 38.141-1 style:
	// 1.04 us for the long formats, 0.52/2^mu us for the short ones.
	longToleranceSeconds  = 1.04e-6
	shortToleranceSeconds = 0.52e-6
)

// Config describes one detection campaign: the PRACH configuration under
// test, the channel, the SNR axis and the occasion count per SNR point.
type Config struct {
	Format              types.PreambleFormat
	RootSequenceIndex   int
	ZeroCorrelationZone int
	SubcarrierSpacing   types.SubcarrierSpacing
	RestrictedSet       types.RestrictedSet
	Threshold           float64

	Channel   string
	Occasions int
	SnrDb     []float64

	// Workers caps the occasion parallelism; 0 picks the CPU count.
	Workers int

	// ToleranceSeconds overrides the per-format time-advance tolerance when
	// positive.
	ToleranceSeconds float64

	// Seed pins the root random seed; 0 keeps the current one.
	Seed int64
}

func DefaultConfig() *Config {
	return &Config{
		Format:              types.Format0,
		RootSequenceIndex:   0,
		ZeroCorrelationZone: 1,
		SubcarrierSpacing:   types.Scs15,
		RestrictedSet:       types.RestrictedSetUnrestricted,
		Threshold:           0,
		Channel:             DefaultChannelName,
		Occasions:           DefaultOccasions,
		SnrDb:               SnrRange(DefaultSnrMinDb, DefaultSnrMaxDb, DefaultSnrStepDb),
	}
}

// SnrRange builds an inclusive SNR axis from min to max in the given step.
func SnrRange(minDb, maxDb, stepDb float64) []float64 {
	if stepDb <= 0 || maxDb < minDb {
		return nil
	}
	var out []float64
	for snr := minDb; snr <= maxDb+1e-9; snr += stepDb {
		out = append(out, snr)
	}
	return out
}

// PrachConfig maps the campaign onto the generator/detector configuration.
func (cfg *Config) PrachConfig() prach.Config {
	return prach.Config{
		Format:              cfg.Format,
		RootSequenceIndex:   cfg.RootSequenceIndex,
		ZeroCorrelationZone: cfg.ZeroCorrelationZone,
		RestrictedSet:       cfg.RestrictedSet,
		SubcarrierSpacing:   cfg.SubcarrierSpacing,
		Threshold:           cfg.Threshold,
	}
}

// Tolerance returns the time-advance acceptance bound in seconds.
func (cfg *Config) Tolerance() float64 {
	if cfg.ToleranceSeconds > 0 {
		return cfg.ToleranceSeconds
	}
	if cfg.Format.IsLong() {
		return longToleranceSeconds
	}
	return shortToleranceSeconds / float64(int(1)<<cfg.SubcarrierSpacing.Mu())
}

func (cfg *Config) validate() error {
	if channel.NewModel(cfg.Channel) == nil {
		return errors.Errorf("unknown channel model %q", cfg.Channel)
	}
	if cfg.Occasions < 1 {
		return errors.Errorf("need at least one occasion per SNR point, got %d", cfg.Occasions)
	}
	if len(cfg.SnrDb) == 0 {
		return errors.New("empty SNR axis")
	}
	for _, snr := range cfg.SnrDb {
		if math.IsNaN(snr) || math.IsInf(snr, 0) {
			return errors.Errorf("SNR point %v is not finite", snr)
		}
	}
	if cfg.Workers < 0 {
		return errors.Errorf("negative worker count %d", cfg.Workers)
	}
	if cfg.ToleranceSeconds < 0 {
		return errors.Errorf("negative time-advance tolerance %v", cfg.ToleranceSeconds)
	}
	return nil
}

// FileConfig is the YAML form of a campaign configuration. An explicit snr_db
// list overrides the min/max/step range.
type FileConfig struct {
	Format        string    `yaml:"format" json:"format"`
	Root          int       `yaml:"root" json:"root"`
	Zcz           int       `yaml:"zcz" json:"zcz"`
	ScsKhz        int       `yaml:"scs_khz,omitempty" json:"scs_khz,omitempty"`
	RestrictedSet string    `yaml:"restricted_set,omitempty" json:"restricted_set,omitempty"`
	Threshold     float64   `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Channel       string    `yaml:"channel" json:"channel"`
	Occasions     int       `yaml:"occasions" json:"occasions"`
	SnrMinDb      float64   `yaml:"snr_min_db" json:"snr_min_db"`
	SnrMaxDb      float64   `yaml:"snr_max_db" json:"snr_max_db"`
	SnrStepDb     float64   `yaml:"snr_step_db" json:"snr_step_db"`
	SnrDb         []float64 `yaml:"snr_db,omitempty" json:"snr_db,omitempty"`
	Workers       int       `yaml:"workers,omitempty" json:"workers,omitempty"`
	ToleranceUs   float64   `yaml:"tolerance_us,omitempty" json:"tolerance_us,omitempty"`
	Seed          int64     `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// FileConfig converts the campaign configuration to its YAML form.
func (cfg *Config) FileConfig() *FileConfig {
	fc := &FileConfig{
		Format:      cfg.Format.String(),
		Root:        cfg.RootSequenceIndex,
		Zcz:         cfg.ZeroCorrelationZone,
		Threshold:   cfg.Threshold,
		Channel:     cfg.Channel,
		Occasions:   cfg.Occasions,
		SnrDb:       append([]float64(nil), cfg.SnrDb...),
		Workers:     cfg.Workers,
		ToleranceUs: cfg.ToleranceSeconds * 1e6,
		Seed:        cfg.Seed,
	}
	if !cfg.Format.IsLong() {
		fc.ScsKhz = int(cfg.SubcarrierSpacing)
	}
	if cfg.RestrictedSet != types.RestrictedSetUnrestricted {
		fc.RestrictedSet = cfg.RestrictedSet.String()
	}
	return fc
}

// ToConfig converts the YAML form back into a campaign configuration,
// applying the defaults for absent fields.
func (fc *FileConfig) ToConfig() (*Config, error) {
	cfg := DefaultConfig()
	if fc.Format != "" {
		cfg.Format = types.ParsePreambleFormat(fc.Format)
		if !cfg.Format.Valid() {
			return nil, errors.Errorf("unknown preamble format %q", fc.Format)
		}
	}
	cfg.RootSequenceIndex = fc.Root
	cfg.ZeroCorrelationZone = fc.Zcz
	if fc.ScsKhz != 0 {
		cfg.SubcarrierSpacing = types.SubcarrierSpacing(fc.ScsKhz)
		if !cfg.SubcarrierSpacing.Valid() {
			return nil, errors.Errorf("unknown subcarrier spacing %d kHz", fc.ScsKhz)
		}
	}
	if fc.RestrictedSet != "" {
		cfg.RestrictedSet = types.ParseRestrictedSet(fc.RestrictedSet)
		if cfg.RestrictedSet == types.RestrictedSetInvalid {
			return nil, errors.Errorf("unknown restricted set %q", fc.RestrictedSet)
		}
	}
	cfg.Threshold = fc.Threshold
	if fc.Channel != "" {
		cfg.Channel = fc.Channel
	}
	if fc.Occasions != 0 {
		cfg.Occasions = fc.Occasions
	}
	switch {
	case len(fc.SnrDb) > 0:
		cfg.SnrDb = append([]float64(nil), fc.SnrDb...)
	case fc.SnrStepDb != 0:
		cfg.SnrDb = SnrRange(fc.SnrMinDb, fc.SnrMaxDb, fc.SnrStepDb)
	}
	cfg.Workers = fc.Workers
	cfg.ToleranceSeconds = fc.ToleranceUs * 1e-6
	cfg.Seed = fc.Seed
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML campaign configuration.
func LoadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	fc := &FileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	return fc.ToConfig()
}

// SaveConfigFile writes the campaign configuration as YAML.
func (cfg *Config) SaveConfigFile(filename string) error {
	data, err := yaml.Marshal(cfg.FileConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
