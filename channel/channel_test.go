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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/prng"
)

func TestNewModel(t *testing.T) {
	for _, name := range ModelNames {
		m := NewModel(name)
		require.NotNil(t, m, name)
		assert.Equal(t, name, m.GetName())
	}
	assert.Nil(t, NewModel("epa"))
	assert.Nil(t, NewModel(""))
}

func TestAwgnResponse(t *testing.T) {
	m := NewModel("awgn")
	m.Reset(1)
	for k := 0; k < 839; k += 100 {
		assert.Equal(t, complex(1, 0), m.Response(k, 1250.0))
	}
}

func TestTdlReproducible(t *testing.T) {
	a := NewModel("tdlc")
	b := NewModel("tdlc")
	a.Reset(99)
	b.Reset(99)
	for _, k := range []int{0, 1, 100, 838} {
		assert.Equal(t, a.Response(k, 1250.0), b.Response(k, 1250.0))
	}
	b.Reset(100)
	assert.NotEqual(t, a.Response(0, 1250.0), b.Response(0, 1250.0))
}

func TestTdlUnitPower(t *testing.T) {
	prng.Init(7777)
	for _, name := range []string{"tdla", "tdlb", "tdlc"} {
		m := NewModel(name)
		total := 0.0
		const resets = 800
		for i := 0; i < resets; i++ {
			m.Reset(prng.UnitSeed(prng.StreamChannel, 0, i))
			total += math.Pow(cmplx.Abs(m.Response(0, 1250.0)), 2)
		}
		assert.InDelta(t, 1.0, total/resets, 0.15, name)
	}
}

func TestTdlFrequencySelective(t *testing.T) {
	m := NewModel("tdlc")
	m.Reset(5)
	h0 := m.Response(0, 30000.0)
	h200 := m.Response(200, 30000.0)
	assert.Greater(t, cmplx.Abs(h0-h200), 1e-3)
}

func TestTdlZeroBeforeReset(t *testing.T) {
	m := NewModel("tdla")
	assert.Equal(t, complex(0, 0), m.Response(0, 1250.0))
}

func TestAddNoiseVariance(t *testing.T) {
	rows := [][]complex128{make([]complex128, 10000), make([]complex128, 10000)}
	src := prng.NewSource(4242)
	AddNoise(rows, 2.0, src)
	power := 0.0
	for _, row := range rows {
		for _, v := range row {
			power += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	assert.InEpsilon(t, 2.0, power/20000, 0.05)
}

func TestApplyDelay(t *testing.T) {
	const scsHz = 1250.0
	const tau = 2e-6
	row := make([]complex128, 64)
	for k := range row {
		row[k] = 1
	}
	ApplyDelay([][]complex128{row}, scsHz, tau)
	for k := range row {
		want := cmplx.Exp(complex(0, -2*math.Pi*float64(k)*scsHz*tau))
		assert.InDelta(t, real(want), real(row[k]), 1e-12)
		assert.InDelta(t, imag(want), imag(row[k]), 1e-12)
	}
}

func TestApply(t *testing.T) {
	m := NewModel("tdlb")
	m.Reset(31)
	rows := make([][]complex128, 2)
	for s := range rows {
		rows[s] = make([]complex128, 139)
		for k := range rows[s] {
			rows[s][k] = 1
		}
	}
	Apply(rows, m, 15000.0)
	for s := range rows {
		for k := range rows[s] {
			assert.Equal(t, m.Response(k, 15000.0), rows[s][k])
		}
	}
}
