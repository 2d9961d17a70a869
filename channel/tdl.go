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

package channel

import (
	"math"
	"math/cmplx"

	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/types"
)

// tdlProfiles holds the tapped-delay-line profiles of the TS 38.104 Annex G
// fixed reference channels (TDLA30, TDLB100, TDLC300): excess tap delays in
// nanoseconds and relative tap powers in dB.
var tdlProfiles = map[string]struct {
	delaysNs []float64
	powersDb []float64
}{
	"tdla": {
		delaysNs: []float64{0, 10, 15, 20, 25, 50, 65, 75, 105, 135, 150, 290},
		powersDb: []float64{-15.5, 0, -5.1, -5.1, -9.6, -8.2, -13.1, -11.5, -11.0, -16.2, -16.6, -26.2},
	},
	"tdlb": {
		delaysNs: []float64{0, 10, 20, 30, 35, 45, 55, 120, 170, 245, 330, 480},
		powersDb: []float64{0, -2.2, -4.0, -3.2, -9.8, -1.2, -3.4, -5.2, -7.6, -3.0, -8.9, -9.0},
	},
	"tdlc": {
		delaysNs: []float64{0, 65, 70, 190, 195, 200, 240, 325, 520, 1045, 1510, 2595},
		powersDb: []float64{-6.9, 0, -7.7, -2.5, -2.4, -9.9, -8.0, -6.6, -7.1, -13.0, -14.2, -16.0},
	},
}

type tap struct {
	delay float64 // seconds
	power float64 // linear, fraction of the total profile power
}

// tdlModel draws one Rayleigh gain per tap at Reset and sums the taps into a
// frequency response. Tap powers are normalized so that the expected response
// power per subcarrier is one and SNR keeps its meaning under fading.
type tdlModel struct {
	name  string
	taps  []tap
	gains []complex128
}

func newTdlModel(name string) *tdlModel {
	profile := tdlProfiles[name]
	m := &tdlModel{
		name:  name,
		taps:  make([]tap, len(profile.delaysNs)),
		gains: make([]complex128, len(profile.delaysNs)),
	}
	total := 0.0
	for i, db := range profile.powersDb {
		m.taps[i].power = types.DbToLinear(db)
		total += m.taps[i].power
	}
	for i := range m.taps {
		m.taps[i].delay = profile.delaysNs[i] * 1e-9
		m.taps[i].power /= total
	}
	return m
}

func (m *tdlModel) GetName() string {
	return m.name
}

func (m *tdlModel) Reset(seed prng.RandomSeed) {
	src := prng.NewSource(seed)
	for i, t := range m.taps {
		sigma := math.Sqrt(t.power / 2)
		m.gains[i] = complex(sigma*src.NormFloat64(), sigma*src.NormFloat64())
	}
}

func (m *tdlModel) Response(k int, scsHz float64) complex128 {
	h := complex(0, 0)
	for i, t := range m.taps {
		h += m.gains[i] * cmplx.Exp(complex(0, -2*math.Pi*float64(k)*scsHz*t.delay))
	}
	return h
}
