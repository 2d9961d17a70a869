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

// Package prach generates and detects 5G NR random access preambles.
// Preambles are Zadoff-Chu sequences handled in the frequency domain; the
// detector correlates against the candidate roots and searches a delay-domain
// power profile, one window per cyclic shift.
package prach

import (
	"math"

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/dsp"
	"github.com/openphy/nr-ls/types"
)

// DefaultThreshold is the detection metric threshold used when the
// configuration leaves Threshold at zero.
const DefaultThreshold = 20.0

// Config selects the preamble set shared by generator and detector.
// RootSequenceIndex is the logical index into the root tables of TS 38.211.
// SubcarrierSpacing is the PUSCH numerology and only matters for the short
// formats; long formats fix their own subcarrier spacing.
// StartPreambleIndex and NumPreambleIndices bound the detector's candidate
// search; a zero count searches every index from the start to the end of the
// cell's 64. A zero Threshold picks DefaultThreshold.
type Config struct {
	Format              types.PreambleFormat
	RootSequenceIndex   int
	ZeroCorrelationZone int
	RestrictedSet       types.RestrictedSet
	SubcarrierSpacing   types.SubcarrierSpacing
	StartPreambleIndex  int
	NumPreambleIndices  int
	Threshold           float64
}

// dims are the quantities derived from a validated Config.
type dims struct {
	length     int     // ZC sequence length
	dftSize    int     // delay profile size, 2 * NextPow2(length)
	numSymbols int     // preamble repetitions
	scsRaHz    float64 // PRACH subcarrier spacing
	ncs        int
	numShifts  int // preambles per root
	numRoots   int // roots covering the cell's indices
	rootLo     int // first root intersecting the searched range
	rootHi     int // one past the last root intersecting the searched range
	startIndex int // first searched preamble index
	endIndex   int // one past the last searched preamble index
	timeRes    float64
	taMax      float64
	threshold  float64
}

func (cfg *Config) derive() (dims, error) {
	var d dims
	if !cfg.Format.Valid() {
		return d, errors.Errorf("invalid preamble format %d", int(cfg.Format))
	}
	switch cfg.RestrictedSet {
	case types.RestrictedSetUnrestricted:
	case types.RestrictedSetTypeA, types.RestrictedSetTypeB:
		return d, errors.Errorf("restricted set %s is not supported", cfg.RestrictedSet)
	default:
		return d, errors.Errorf("invalid restricted set %d", int(cfg.RestrictedSet))
	}
	d.length = cfg.Format.SequenceLength()
	tableLen := len(rootTableLong)
	if !cfg.Format.IsLong() {
		tableLen = len(rootTableShort)
		if !cfg.SubcarrierSpacing.Valid() {
			return d, errors.Errorf("format %s needs a valid subcarrier spacing", cfg.Format)
		}
	}
	if cfg.RootSequenceIndex < 0 || cfg.RootSequenceIndex >= tableLen {
		return d, errors.Errorf("root sequence index %d outside [0, %d)", cfg.RootSequenceIndex, tableLen)
	}
	ncs, ok := cfg.Format.NCS(cfg.ZeroCorrelationZone)
	if !ok {
		return d, errors.Errorf("zero correlation zone %d outside the N_CS table of format %s",
			cfg.ZeroCorrelationZone, cfg.Format)
	}
	if cfg.Threshold < 0 {
		return d, errors.Errorf("detection threshold must not be negative, got %v", cfg.Threshold)
	}
	start, count := cfg.StartPreambleIndex, cfg.NumPreambleIndices
	if start < 0 || start >= types.MaxPreambleIndices {
		return d, errors.Errorf("start preamble index %d outside [0, %d)", start, types.MaxPreambleIndices)
	}
	if count == 0 {
		count = types.MaxPreambleIndices - start
	}
	if count < 1 || start+count > types.MaxPreambleIndices {
		return d, errors.Errorf("preamble index range [%d, %d) exceeds the cell's %d indices",
			start, start+count, types.MaxPreambleIndices)
	}
	d.startIndex = start
	d.endIndex = start + count

	d.dftSize = 2 * dsp.NextPow2(d.length)
	d.numSymbols = cfg.Format.NumSymbols()
	d.scsRaHz = cfg.Format.SubcarrierSpacingHz(cfg.SubcarrierSpacing)
	d.ncs = ncs
	if ncs == 0 {
		d.numShifts = 1
	} else {
		d.numShifts = d.length / ncs
	}
	d.numRoots = (types.MaxPreambleIndices + d.numShifts - 1) / d.numShifts
	d.rootLo = d.startIndex / d.numShifts
	d.rootHi = (d.endIndex + d.numShifts - 1) / d.numShifts
	d.timeRes = 1 / (float64(d.dftSize) * d.scsRaHz)

	zone := 1 / d.scsRaHz
	if ncs > 0 {
		zone = float64(ncs) / (float64(d.length) * d.scsRaHz)
	}
	d.taMax = math.Min(cfg.Format.CyclicPrefixSeconds(cfg.SubcarrierSpacing), zone)

	d.threshold = cfg.Threshold
	if d.threshold == 0 {
		d.threshold = DefaultThreshold
	}
	return d, nil
}
