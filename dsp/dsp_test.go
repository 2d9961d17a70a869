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

package dsp

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomVector(r *rand.Rand, n int) []complex128 {
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(r.NormFloat64(), r.NormFloat64())
	}
	return x
}

func TestDFTRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	// 139 and 839 are the prime PRACH lengths; 64 covers the pow-2 path.
	for _, n := range []int{64, 139, 839} {
		d := NewDFT(n)
		assert.Equal(t, n, d.Len())

		x := randomVector(r, n)
		spec := d.Forward(nil, x)
		back := d.Inverse(nil, spec)
		for i := range x {
			assert.InDelta(t, real(x[i]), real(back[i])/float64(n), 1e-9)
			assert.InDelta(t, imag(x[i]), imag(back[i])/float64(n), 1e-9)
		}
	}
}

func TestDFTDelayTheorem(t *testing.T) {
	// A cyclic shift of the input multiplies the spectrum by a phase ramp.
	const n = 128
	r := rand.New(rand.NewSource(2))
	x := randomVector(r, n)

	shifted := make([]complex128, n)
	const shift = 5
	for i := range x {
		shifted[i] = x[(i+shift)%n]
	}

	d := NewDFT(n)
	specX := d.Forward(nil, x)
	specS := d.Forward(nil, shifted)
	for k := 0; k < n; k++ {
		ramp := cmplx.Exp(complex(0, 2.0*math.Pi*float64(k)*float64(shift)/float64(n)))
		want := specX[k] * ramp
		assert.InDelta(t, real(want), real(specS[k]), 1e-8)
		assert.InDelta(t, imag(want), imag(specS[k]), 1e-8)
	}
}

func TestDFTLengthMismatchPanics(t *testing.T) {
	d := NewDFT(16)
	assert.Panics(t, func() { d.Forward(nil, make([]complex128, 8)) })
	assert.Panics(t, func() { d.Inverse(nil, make([]complex128, 17)) })
	assert.Panics(t, func() { NewDFT(0) })
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, NextPow2(0))
	assert.Equal(t, 1, NextPow2(1))
	assert.Equal(t, 2, NextPow2(2))
	assert.Equal(t, 256, NextPow2(139))
	assert.Equal(t, 1024, NextPow2(839))
	assert.Equal(t, 1024, NextPow2(1024))
}

func TestConjMul(t *testing.T) {
	a := []complex128{1 + 1i, 2i}
	b := []complex128{1 - 1i, 3}
	dst := make([]complex128, 2)
	ConjMul(dst, a, b)
	assert.Equal(t, complex128(2i), dst[0]) // (1+i)(1+i) = 2i
	assert.Equal(t, complex128(6i), dst[1])

	assert.Panics(t, func() { ConjMul(dst, a, b[:1]) })
}

func TestMeanPowerAndScale(t *testing.T) {
	assert.Equal(t, 0.0, MeanPower(nil))

	x := []complex128{3, 4i}
	assert.InDelta(t, 12.5, MeanPower(x), 1e-12) // (9+16)/2

	Scale(2.0, x)
	assert.Equal(t, complex128(6), x[0])
	assert.Equal(t, complex128(8i), x[1])
}
