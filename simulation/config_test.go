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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, types.Format0, cfg.Format)
	assert.Equal(t, DefaultChannelName, cfg.Channel)
	assert.Equal(t, DefaultOccasions, cfg.Occasions)
	require.Len(t, cfg.SnrDb, 16)
	assert.Equal(t, -20.0, cfg.SnrDb[0])
	assert.Equal(t, 10.0, cfg.SnrDb[15])
	assert.NoError(t, cfg.validate())
}

func TestSnrRange(t *testing.T) {
	assert.Equal(t, []float64{0}, SnrRange(0, 0, 1))
	assert.Equal(t, []float64{-6, -4.5, -3, -1.5, 0}, SnrRange(-6, 0, 1.5))
	assert.Nil(t, SnrRange(5, 3, 1))
	assert.Nil(t, SnrRange(0, 10, 0))
	assert.Nil(t, SnrRange(0, 10, -2))
}

func TestTolerance(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1.04e-6, cfg.Tolerance())

	cfg.Format = types.FormatC0
	cfg.SubcarrierSpacing = types.Scs15
	assert.Equal(t, 0.52e-6, cfg.Tolerance())

	cfg.Format = types.FormatA1
	cfg.SubcarrierSpacing = types.Scs30
	assert.Equal(t, 0.26e-6, cfg.Tolerance())

	cfg.ToleranceSeconds = 3e-6
	assert.Equal(t, 3e-6, cfg.Tolerance())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channel = "epa"
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.Occasions = 0
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.SnrDb = nil
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.Workers = -1
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.ToleranceSeconds = -1e-6
	assert.Error(t, cfg.validate())
}

func TestFileConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = types.FormatB4
	cfg.RootSequenceIndex = 22
	cfg.ZeroCorrelationZone = 5
	cfg.SubcarrierSpacing = types.Scs30
	cfg.Threshold = 25
	cfg.Channel = "tdlc"
	cfg.Occasions = 10
	cfg.SnrDb = []float64{-10, -5, 0}
	cfg.Workers = 2
	cfg.Seed = 77

	back, err := cfg.FileConfig().ToConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestFileConfigDefaults(t *testing.T) {
	// Zero is a valid zero correlation zone, so an absent zcz maps to 0
	// rather than to the programmatic default.
	cfg, err := (&FileConfig{}).ToConfig()
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.ZeroCorrelationZone = 0
	assert.Equal(t, expected, cfg)

	cfg, err = (&FileConfig{Format: "1", Root: 300, Channel: "tdla", Occasions: 50,
		SnrMinDb: -10, SnrMaxDb: 0, SnrStepDb: 5}).ToConfig()
	require.NoError(t, err)
	assert.Equal(t, types.Format1, cfg.Format)
	assert.Equal(t, 300, cfg.RootSequenceIndex)
	assert.Equal(t, "tdla", cfg.Channel)
	assert.Equal(t, 50, cfg.Occasions)
	assert.Equal(t, []float64{-10, -5, 0}, cfg.SnrDb)
	assert.Equal(t, types.Scs15, cfg.SubcarrierSpacing)

	// An explicit SNR list wins over a range.
	cfg, err = (&FileConfig{SnrMinDb: -10, SnrMaxDb: 0, SnrStepDb: 5,
		SnrDb: []float64{4, 8}}).ToConfig()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 8}, cfg.SnrDb)
}

func TestFileConfigErrors(t *testing.T) {
	_, err := (&FileConfig{Format: "9"}).ToConfig()
	assert.Error(t, err)

	_, err = (&FileConfig{ScsKhz: 45}).ToConfig()
	assert.Error(t, err)

	_, err = (&FileConfig{RestrictedSet: "type-c"}).ToConfig()
	assert.Error(t, err)

	_, err = (&FileConfig{Channel: "epa"}).ToConfig()
	assert.Error(t, err)
}

func TestConfigFileSaveLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = types.Format3
	cfg.RootSequenceIndex = 137
	cfg.ZeroCorrelationZone = 4
	cfg.Channel = "tdlb"
	cfg.Occasions = 20
	cfg.SnrDb = []float64{-12, -6, 0}
	cfg.Seed = 4242

	require.NoError(t, cfg.SaveConfigFile("test_campaign.yaml"))
	back, err := LoadConfigFile("test_campaign.yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	require.NoError(t, os.WriteFile("test_campaign_bad.yaml", []byte("format: [\n"), 0644))
	_, err = LoadConfigFile("test_campaign_bad.yaml")
	assert.Error(t, err)

	_, err = LoadConfigFile("test_campaign_missing.yaml")
	assert.Error(t, err)
}
