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

package prach

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/types"
)

func addNoise(symbols [][]complex128, variance float64, src *rand.Rand) {
	sigma := math.Sqrt(variance / 2)
	for _, row := range symbols {
		for k := range row {
			row[k] += complex(sigma*src.NormFloat64(), sigma*src.NormFloat64())
		}
	}
}

func applyDelay(symbols [][]complex128, scsHz, tau float64) {
	for _, row := range symbols {
		for k := range row {
			row[k] *= cmplx.Exp(complex(0, -2*math.Pi*float64(k)*scsHz*tau))
		}
	}
}

func TestDetectRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"format0", Config{Format: types.Format0, RootSequenceIndex: 0, ZeroCorrelationZone: 1}},
		{"format1", Config{Format: types.Format1, RootSequenceIndex: 300, ZeroCorrelationZone: 5}},
		{"format3", Config{Format: types.Format3, RootSequenceIndex: 22, ZeroCorrelationZone: 2}},
		{"formatA1", Config{Format: types.FormatA1, RootSequenceIndex: 1, ZeroCorrelationZone: 11,
			SubcarrierSpacing: types.Scs30}},
		{"formatC0", Config{Format: types.FormatC0, RootSequenceIndex: 100, ZeroCorrelationZone: 0,
			SubcarrierSpacing: types.Scs15}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := NewGenerator(tc.cfg)
			require.NoError(t, err)
			det, err := NewDetector(tc.cfg)
			require.NoError(t, err)

			for _, index := range []int{0, 17, 50} {
				symbols, err := gen.Symbols(index)
				require.NoError(t, err)
				res, err := det.Detect(symbols)
				require.NoError(t, err)
				require.Len(t, res.Preambles, 1, "index %d", index)
				p := res.Preambles[0]
				assert.Equal(t, index, p.PreambleIndex)
				assert.LessOrEqual(t, p.TimeAdvance, 1.5*det.TimeResolution())
				assert.Greater(t, p.Metric, det.Threshold())
			}
		})
	}
}

func TestDetectWithNoise(t *testing.T) {
	cfg := Config{Format: types.Format0, RootSequenceIndex: 0, ZeroCorrelationZone: 1}
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	det, err := NewDetector(cfg)
	require.NoError(t, err)

	// 10 dB SNR: every occasion detects exactly the sent preamble.
	detected := 0
	for occasion := 0; occasion < 10; occasion++ {
		src := prng.NewSource(prng.UnitSeed(prng.StreamNoise, 0, occasion))
		symbols, err := gen.Symbols(23)
		require.NoError(t, err)
		addNoise(symbols, 0.1, src)
		res, err := det.Detect(symbols)
		require.NoError(t, err)
		if len(res.Preambles) == 1 && res.Preambles[0].PreambleIndex == 23 {
			detected++
		}
	}
	assert.Equal(t, 10, detected)

	// -30 dB SNR: the preamble drowns.
	detected = 0
	for occasion := 0; occasion < 10; occasion++ {
		src := prng.NewSource(prng.UnitSeed(prng.StreamNoise, 1, occasion))
		symbols, err := gen.Symbols(23)
		require.NoError(t, err)
		addNoise(symbols, 1000, src)
		res, err := det.Detect(symbols)
		require.NoError(t, err)
		detected += len(res.Preambles)
	}
	assert.LessOrEqual(t, detected, 2)
}

func TestDetectTimeAdvance(t *testing.T) {
	cfg := Config{Format: types.Format0, RootSequenceIndex: 0, ZeroCorrelationZone: 1}
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	det, err := NewDetector(cfg)
	require.NoError(t, err)
	scsHz := cfg.Format.SubcarrierSpacingHz(0)

	// Noiseless: recovered delay is exact up to the profile bin width.
	for _, tau := range []float64{0, 3e-6, 10e-6} {
		symbols, err := gen.Symbols(42)
		require.NoError(t, err)
		applyDelay(symbols, scsHz, tau)
		res, err := det.Detect(symbols)
		require.NoError(t, err)
		require.Len(t, res.Preambles, 1, "tau=%v", tau)
		p := res.Preambles[0]
		assert.Equal(t, 42, p.PreambleIndex)
		assert.InDelta(t, tau, p.TimeAdvance, det.TimeResolution(), "tau=%v", tau)
		assert.LessOrEqual(t, p.TimeAdvance, det.TimeAdvanceMax())
	}

	// 20 dB SNR: within the conformance tolerance of 1.04 us.
	const tolerance = 1.04e-6
	for occasion := 0; occasion < 20; occasion++ {
		src := prng.NewSource(prng.UnitSeed(prng.StreamTiming, 2, occasion))
		symbols, err := gen.Symbols(42)
		require.NoError(t, err)
		applyDelay(symbols, scsHz, 5e-6)
		addNoise(symbols, 0.01, src)
		res, err := det.Detect(symbols)
		require.NoError(t, err)
		require.Len(t, res.Preambles, 1, "occasion %d", occasion)
		assert.InDelta(t, 5e-6, res.Preambles[0].TimeAdvance, tolerance, "occasion %d", occasion)
	}
}

func TestDetectNoiseOnly(t *testing.T) {
	cfg := Config{Format: types.Format0, RootSequenceIndex: 0, ZeroCorrelationZone: 1}
	det, err := NewDetector(cfg)
	require.NoError(t, err)

	const occasions = 200
	falseAlarms := 0
	for occasion := 0; occasion < occasions; occasion++ {
		src := prng.NewSource(prng.UnitSeed(prng.StreamNoise, 3, occasion))
		symbols := make([][]complex128, cfg.Format.NumSymbols())
		for s := range symbols {
			symbols[s] = make([]complex128, cfg.Format.SequenceLength())
		}
		addNoise(symbols, 1, src)
		res, err := det.Detect(symbols)
		require.NoError(t, err)
		if len(res.Preambles) > 0 {
			falseAlarms++
		}
	}
	assert.LessOrEqual(t, falseAlarms, occasions/100)
}

func TestDetectTwoPreambles(t *testing.T) {
	cfg := Config{Format: types.Format0, RootSequenceIndex: 0, ZeroCorrelationZone: 1}
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	det, err := NewDetector(cfg)
	require.NoError(t, err)

	a, err := gen.Symbols(5)
	require.NoError(t, err)
	b, err := gen.Symbols(40)
	require.NoError(t, err)
	for s := range a {
		for k := range a[s] {
			a[s][k] += b[s][k]
		}
	}
	res, err := det.Detect(a)
	require.NoError(t, err)
	require.Len(t, res.Preambles, 2)
	assert.Equal(t, 5, res.Preambles[0].PreambleIndex)
	assert.Equal(t, 40, res.Preambles[1].PreambleIndex)
}

func TestDetectSearchRange(t *testing.T) {
	cfg := Config{
		Format:              types.Format0,
		ZeroCorrelationZone: 1,
		StartPreambleIndex:  8,
		NumPreambleIndices:  4,
	}
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	det, err := NewDetector(cfg)
	require.NoError(t, err)

	symbols, err := gen.Symbols(9)
	require.NoError(t, err)
	res, err := det.Detect(symbols)
	require.NoError(t, err)
	require.Len(t, res.Preambles, 1)
	assert.Equal(t, 9, res.Preambles[0].PreambleIndex)

	// A preamble outside the searched range is never reported.
	symbols, err = gen.Symbols(20)
	require.NoError(t, err)
	res, err = det.Detect(symbols)
	require.NoError(t, err)
	assert.Empty(t, res.Preambles)
}

func TestDetectorRejectsRestrictedSets(t *testing.T) {
	for _, rs := range []types.RestrictedSet{types.RestrictedSetTypeA, types.RestrictedSetTypeB} {
		cfg := Config{Format: types.Format0, ZeroCorrelationZone: 1, RestrictedSet: rs}
		_, err := NewDetector(cfg)
		assert.Error(t, err, rs.String())
		_, err = NewGenerator(cfg)
		assert.Error(t, err, rs.String())
	}
	cfg := Config{Format: types.Format0, ZeroCorrelationZone: 1, RestrictedSet: types.RestrictedSetInvalid}
	_, err := NewDetector(cfg)
	assert.Error(t, err)
}

func TestDetectorConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"invalid format", Config{Format: types.FormatInvalid}},
		{"long root index too large", Config{Format: types.Format0, RootSequenceIndex: 838, ZeroCorrelationZone: 1}},
		{"negative root index", Config{Format: types.Format0, RootSequenceIndex: -1, ZeroCorrelationZone: 1}},
		{"short root index too large", Config{Format: types.FormatA1, RootSequenceIndex: 138,
			ZeroCorrelationZone: 1, SubcarrierSpacing: types.Scs15}},
		{"zcz out of table", Config{Format: types.Format0, ZeroCorrelationZone: 16}},
		{"short format without scs", Config{Format: types.FormatB4, ZeroCorrelationZone: 1}},
		{"negative threshold", Config{Format: types.Format0, ZeroCorrelationZone: 1, Threshold: -1}},
		{"negative start index", Config{Format: types.Format0, ZeroCorrelationZone: 1, StartPreambleIndex: -1}},
		{"index range past the cell", Config{Format: types.Format0, ZeroCorrelationZone: 1,
			StartPreambleIndex: 60, NumPreambleIndices: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDetector(tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestDetectInputErrors(t *testing.T) {
	cfg := Config{Format: types.Format1, RootSequenceIndex: 0, ZeroCorrelationZone: 1}
	det, err := NewDetector(cfg)
	require.NoError(t, err)

	// Format 1 carries two symbols.
	_, err = det.Detect(make([][]complex128, 1))
	assert.Error(t, err)

	rows := [][]complex128{
		make([]complex128, types.LongSequenceLength),
		make([]complex128, types.LongSequenceLength-1),
	}
	_, err = det.Detect(rows)
	assert.Error(t, err)

	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	_, err = gen.Preamble(64)
	assert.Error(t, err)
	_, err = gen.Preamble(-1)
	assert.Error(t, err)
}
