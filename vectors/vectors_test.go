// Copyright (c) 2025-2026, The NRLS Authors.
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

package vectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/types"
)

func TestSampleFile(t *testing.T) {
	filename := "test_vectors.bin"
	sf, err := NewFile(filename)
	require.NoError(t, err)

	defer func() {
		_ = sf.Close()
	}()

	require.NoError(t, sf.Sync())
	assert.Equal(t, sampleFileHeaderSize, getFileSize(t, filename))

	samples := []complex128{1.5, complex(-0.25, 2), complex(0, -3.5)}
	require.NoError(t, sf.AppendBlock(7, samples))
	require.NoError(t, sf.Sync())
	assert.Equal(t, sampleFileHeaderSize+sampleBlockHeaderSize+8*3, getFileSize(t, filename))
	require.NoError(t, sf.Close())

	blocks, err := ReadFile(filename)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, uint32(7), blocks[0].Id)
	assert.Equal(t, samples, blocks[0].Samples)
}

func TestReadFileRejectsBadMagic(t *testing.T) {
	filename := "test_badmagic.bin"
	require.NoError(t, os.WriteFile(filename, make([]byte, sampleFileHeaderSize), 0644))
	_, err := ReadFile(filename)
	assert.Error(t, err)

	_, err = ReadFile("test_does_not_exist.bin")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	const count = 4
	manifestPath, err := Generate(".", count)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".", ManifestFileName), manifestPath)

	m, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	require.Len(t, m.Estimator, count)
	require.Len(t, m.Detector, count)
	assert.Equal(t, SampleFileName, m.SampleFile)

	blocks, err := ReadFile(filepath.Join(".", m.SampleFile))
	require.NoError(t, err)
	byId := make(map[uint32][]complex128, len(blocks))
	for j, blk := range blocks {
		assert.Equal(t, uint32(j), blk.Id)
		byId[blk.Id] = blk.Samples
	}

	for _, c := range m.Estimator {
		require.Equal(t, len(c.Ports), len(c.GridBlocks), c.Name)
		require.Equal(t, len(c.Ports), len(c.EstimateBlocks), c.Name)
		require.Equal(t, len(c.Ports), len(c.PortMetrics), c.Name)

		planeLen := 8 * types.NumScPerPrb * 14
		for _, id := range c.GridBlocks {
			assert.Len(t, byId[id], planeLen, c.Name)
		}
		for _, id := range c.EstimateBlocks {
			assert.Len(t, byId[id], planeLen, c.Name)
		}
		numPilots := (len(c.DmrsSymbols)*len(c.Prbs) + len(c.DmrsSymbols2)*len(c.Prbs2)) * len(c.DmrsRes)
		assert.Len(t, byId[c.PilotsBlock], numPilots, c.Name)

		for _, pm := range c.PortMetrics {
			assert.Greater(t, pm.Epre, 0.0, c.Name)
			assert.Greater(t, pm.NoiseVar, 0.0, c.Name)
			assert.Greater(t, pm.Sinr, 0.0, c.Name)
		}
	}

	for _, c := range m.Detector {
		format := types.ParsePreambleFormat(c.Format)
		require.True(t, format.Valid(), c.Name)
		require.Len(t, c.SymbolBlocks, format.NumSymbols(), c.Name)
		for _, id := range c.SymbolBlocks {
			assert.Len(t, byId[id], format.SequenceLength(), c.Name)
		}
		assert.Greater(t, c.TimeResolution, 0.0, c.Name)
		assert.Greater(t, c.TimeAdvanceMax, 0.0, c.Name)
	}

	// The 20 dB AWGN case reports its own preamble with the injected delay.
	c := m.Detector[2]
	require.Len(t, c.Detections, 1, c.Name)
	assert.Equal(t, c.PreambleIndex, c.Detections[0].PreambleIndex)
	assert.InDelta(t, c.DelayUs*1e-6, c.Detections[0].TimeAdvance, 2*c.TimeResolution)
}

func getFileSize(t *testing.T, fp string) int {
	info, err := os.Stat(fp)
	if err != nil {
		t.Fatal(err)
	}

	return int(info.Size())
}
