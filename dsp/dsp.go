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

// Package dsp provides the small signal-processing vocabulary shared by the
// channel estimator and the PRACH pipeline: cached DFT plans and a few
// complex-vector helpers.
package dsp

import (
	"math/cmplx"

	"github.com/simonlingoogle/go-simplelogger"
	"gonum.org/v1/gonum/dsp/fourier"
)

// DFT wraps a gonum transform plan of one fixed length. Plans are built once
// per length and reused across calls; arbitrary lengths are supported, which
// the PRACH code needs for the prime sequence lengths 839 and 139.
type DFT struct {
	n   int
	fft *fourier.CmplxFFT
}

// NewDFT builds a plan for length n.
func NewDFT(n int) *DFT {
	if n <= 0 {
		simplelogger.Panicf("invalid DFT length %d", n)
	}
	return &DFT{n: n, fft: fourier.NewCmplxFFT(n)}
}

func (d *DFT) Len() int {
	return d.n
}

// Forward computes X[k] = sum_n x[n] e^(-j2πkn/N). dst may be nil.
func (d *DFT) Forward(dst, src []complex128) []complex128 {
	if len(src) != d.n {
		simplelogger.Panicf("DFT length mismatch: got %d, plan is %d", len(src), d.n)
	}
	return d.fft.Coefficients(dst, src)
}

// Inverse computes the unnormalized inverse x[n] = sum_k X[k] e^(+j2πkn/N).
// A Forward followed by an Inverse multiplies the input by N; callers that
// need a true round trip divide by Len themselves.
func (d *DFT) Inverse(dst, src []complex128) []complex128 {
	if len(src) != d.n {
		simplelogger.Panicf("IDFT length mismatch: got %d, plan is %d", len(src), d.n)
	}
	return d.fft.Sequence(dst, src)
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// ConjMul stores a[i] * conj(b[i]) into dst and returns dst. dst may alias a.
func ConjMul(dst, a, b []complex128) []complex128 {
	if len(a) != len(b) || len(dst) != len(a) {
		simplelogger.Panicf("ConjMul length mismatch: %d, %d, %d", len(dst), len(a), len(b))
	}
	for i := range a {
		dst[i] = a[i] * cmplx.Conj(b[i])
	}
	return dst
}

// MeanPower returns the average of |x[i]|^2, or 0 for an empty slice.
func MeanPower(x []complex128) float64 {
	if len(x) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range x {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum / float64(len(x))
}

// Scale multiplies every element of x by s in place.
func Scale(s float64, x []complex128) {
	c := complex(s, 0)
	for i := range x {
		x[i] *= c
	}
}
