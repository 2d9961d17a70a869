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

package prach

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/dsp"
	"github.com/openphy/nr-ls/types"
)

func TestRootTableLong(t *testing.T) {
	require.Len(t, rootTableLong, 838)
	seen := make(map[int]bool, len(rootTableLong))
	for i, u := range rootTableLong {
		require.True(t, u >= 1 && u <= 838, "entry %d out of range: %d", i, u)
		require.False(t, seen[u], "root %d listed twice", u)
		seen[u] = true
	}
	for i := 0; i < len(rootTableLong); i += 2 {
		assert.Equal(t, 839, rootTableLong[i]+rootTableLong[i+1], "pair at %d", i)
	}
	assert.Equal(t, 129, rootTableLong[0])
	assert.Equal(t, 710, rootTableLong[1])
	assert.Equal(t, 1, rootTableLong[22])
	assert.Equal(t, 838, rootTableLong[23])
	assert.Equal(t, 610, rootTableLong[837])
}

func TestRootTableShort(t *testing.T) {
	require.Len(t, rootTableShort, 138)
	seen := make(map[int]bool, len(rootTableShort))
	for _, u := range rootTableShort {
		require.True(t, u >= 1 && u <= 138)
		require.False(t, seen[u])
		seen[u] = true
	}
	for i := 0; i < len(rootTableShort); i += 2 {
		assert.Equal(t, 139, rootTableShort[i]+rootTableShort[i+1])
	}
	assert.Equal(t, 1, rootTableShort[0])
	assert.Equal(t, 138, rootTableShort[1])
	assert.Equal(t, 69, rootTableShort[136])
	assert.Equal(t, 70, rootTableShort[137])
}

func TestPhysicalRootWraps(t *testing.T) {
	assert.Equal(t, rootTableLong[0], physicalRoot(types.Format0, 837, 1))
	assert.Equal(t, rootTableLong[5], physicalRoot(types.Format1, 2, 3))
	assert.Equal(t, rootTableShort[1], physicalRoot(types.FormatA1, 137, 2))
}

func TestZCSequenceProperties(t *testing.T) {
	for _, tc := range []struct{ u, length int }{
		{129, types.LongSequenceLength},
		{838, types.LongSequenceLength},
		{1, types.ShortSequenceLength},
		{70, types.ShortSequenceLength},
	} {
		x := zcTimeDomain(tc.u, tc.length, 0)
		for n, v := range x {
			assert.InDelta(t, 1.0, cmplx.Abs(v), 1e-12, "u=%d n=%d", tc.u, n)
		}
		// Zero cyclic autocorrelation at nonzero lags.
		for _, lag := range []int{1, 7, tc.length / 2} {
			var acc complex128
			for n := range x {
				acc += x[n] * cmplx.Conj(x[(n+lag)%tc.length])
			}
			assert.InDelta(t, 0, cmplx.Abs(acc), 1e-8, "u=%d lag=%d", tc.u, lag)
		}
		// Flat spectrum: unit power per bin after scaling.
		dft := dsp.NewDFT(tc.length)
		root := freqRoot(dft, tc.u)
		for k, v := range root {
			assert.InDelta(t, 1.0, cmplx.Abs(v), 1e-9, "u=%d k=%d", tc.u, k)
		}
	}
}

func TestApplyCyclicShift(t *testing.T) {
	const u, length, shift = 129, types.LongSequenceLength, 26
	dft := dsp.NewDFT(length)
	root := freqRoot(dft, u)

	shifted := make([]complex128, length)
	applyCyclicShift(shifted, root, shift)

	want := make([]complex128, length)
	dft.Forward(want, zcTimeDomain(u, length, shift))
	dsp.Scale(1/math.Sqrt(float64(length)), want)
	for k := range want {
		assert.InDelta(t, real(want[k]), real(shifted[k]), 1e-6, "k=%d", k)
		assert.InDelta(t, imag(want[k]), imag(shifted[k]), 1e-6, "k=%d", k)
	}
}
