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

package chest

import (
	"github.com/openphy/nr-ls/logger"
)

// Estimate holds the channel coefficients for one receive port, dense over
// the full grid. Subcarriers outside the allocation stay zero.
type Estimate struct {
	numSc      int
	numSymbols int
	coef       []complex128
}

func NewEstimate(numSc, numSymbols int) *Estimate {
	logger.AssertTrue(numSc > 0 && numSymbols > 0)
	return &Estimate{
		numSc:      numSc,
		numSymbols: numSymbols,
		coef:       make([]complex128, numSc*numSymbols),
	}
}

func (e *Estimate) Dimensions() (numSc, numSymbols int) {
	return e.numSc, e.numSymbols
}

// At returns the estimated coefficient at the given subcarrier and symbol.
func (e *Estimate) At(sc, symbol int) complex128 {
	e.check(sc, symbol)
	return e.coef[symbol*e.numSc+sc]
}

func (e *Estimate) set(sc, symbol int, v complex128) {
	e.check(sc, symbol)
	e.coef[symbol*e.numSc+sc] = v
}

func (e *Estimate) check(sc, symbol int) {
	if sc < 0 || sc >= e.numSc || symbol < 0 || symbol >= e.numSymbols {
		logger.Panicf("estimate index (%d,%d) outside %dx%d", sc, symbol, e.numSc, e.numSymbols)
	}
}

// Metrics carries the measurements of one estimation, linear scale.
// TimeAlignment is in seconds, positive when the signal arrives late.
type Metrics struct {
	NoiseVar      float64
	Rsrp          float64
	Epre          float64
	Sinr          float64
	TimeAlignment float64
}

// PortResult is the estimate and measurements of a single receive port.
type PortResult struct {
	Port     int
	Estimate *Estimate
	Metrics  Metrics
}

// Result is the outcome of one Estimate call: one entry per configured port
// plus metrics averaged over ports. The aggregate Sinr is NaN; a combined
// SINR over ports has no single meaningful definition here.
type Result struct {
	Ports     []PortResult
	Aggregate Metrics
}
