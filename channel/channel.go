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

// Package channel provides the propagation models of the Monte-Carlo harness.
// A model describes one random channel realization as a frequency response
// over the subcarriers of a transmission; helper functions inject white noise
// and timing offsets into frequency-domain symbols.
package channel

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/openphy/nr-ls/prng"
)

// Model is one propagation channel. Reset draws a fresh realization for a new
// occasion; fading models return the all-zero response until the first Reset.
// A Model is not safe for concurrent use; each worker owns its own instance.
type Model interface {
	GetName() string
	Reset(seed prng.RandomSeed)

	// Response returns the channel gain at subcarrier k for the given
	// subcarrier spacing.
	Response(k int, scsHz float64) complex128
}

// ModelNames lists the names NewModel accepts.
var ModelNames = []string{"awgn", "tdla", "tdlb", "tdlc"}

// NewModel creates the channel model with the given name, or nil when the
// name is unknown.
func NewModel(name string) Model {
	switch name {
	case "awgn":
		return &awgnModel{}
	case "tdla", "tdlb", "tdlc":
		return newTdlModel(name)
	default:
		return nil
	}
}

// awgnModel leaves the transmitted symbols untouched; the only impairment of
// an occasion is the noise added afterwards.
type awgnModel struct{}

func (m *awgnModel) GetName() string            { return "awgn" }
func (m *awgnModel) Reset(seed prng.RandomSeed) {}

func (m *awgnModel) Response(k int, scsHz float64) complex128 {
	return 1
}

// Apply multiplies every row by the model's frequency response. All rows see
// the same realization, matching a channel that is static over one preamble
// or slot.
func Apply(rows [][]complex128, m Model, scsHz float64) {
	if len(rows) == 0 {
		return
	}
	resp := make([]complex128, len(rows[0]))
	for k := range resp {
		resp[k] = m.Response(k, scsHz)
	}
	for _, row := range rows {
		for k := range row {
			row[k] *= resp[k]
		}
	}
}

// AddNoise adds circularly-symmetric white Gaussian noise of the given
// variance to every sample.
func AddNoise(rows [][]complex128, variance float64, src *rand.Rand) {
	sigma := math.Sqrt(variance / 2)
	for _, row := range rows {
		for k := range row {
			row[k] += complex(sigma*src.NormFloat64(), sigma*src.NormFloat64())
		}
	}
}

// ApplyDelay rotates each row by the linear phase of a time delay in seconds,
// rows[s][k] *= exp(-j 2 pi k scsHz delay).
func ApplyDelay(rows [][]complex128, scsHz, delay float64) {
	for _, row := range rows {
		for k := range row {
			row[k] *= cmplx.Exp(complex(0, -2*math.Pi*float64(k)*scsHz*delay))
		}
	}
}
