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

// Package grid holds the frequency-domain resource grid: complex baseband
// samples addressed by (subcarrier, OFDM symbol, receive port). The channel
// estimator only depends on the Reader contract, so received slots can come
// from this container or from any other source implementing it.
package grid

import (
	"github.com/simonlingoogle/go-simplelogger"
)

// Reader is the read-only access contract of a resource grid. Indices are
// zero-based and bounded by Dimensions; out-of-range access is a programming
// error and panics.
type Reader interface {
	Dimensions() (numSc int, numSymbols int, numPorts int)
	At(sc int, symbol int, port int) complex128
}

// Writer is the write access contract of a resource grid.
type Writer interface {
	Set(sc int, symbol int, port int, value complex128)
}

// Grid is a dense in-memory resource grid, zero-initialized. Subcarrier is
// the fastest-varying storage dimension, then symbol, then port.
type Grid struct {
	numSc      int
	numSymbols int
	numPorts   int
	samples    []complex128
}

var _ Reader = (*Grid)(nil)
var _ Writer = (*Grid)(nil)

// New creates a zeroed grid with the given dimensions.
func New(numSc, numSymbols, numPorts int) *Grid {
	if numSc <= 0 || numSymbols <= 0 || numPorts <= 0 {
		simplelogger.Panicf("invalid grid dimensions (%d, %d, %d)", numSc, numSymbols, numPorts)
	}
	return &Grid{
		numSc:      numSc,
		numSymbols: numSymbols,
		numPorts:   numPorts,
		samples:    make([]complex128, numSc*numSymbols*numPorts),
	}
}

func (g *Grid) Dimensions() (int, int, int) {
	return g.numSc, g.numSymbols, g.numPorts
}

func (g *Grid) index(sc, symbol, port int) int {
	if sc < 0 || sc >= g.numSc || symbol < 0 || symbol >= g.numSymbols || port < 0 || port >= g.numPorts {
		simplelogger.Panicf("grid access (%d, %d, %d) out of range (%d, %d, %d)",
			sc, symbol, port, g.numSc, g.numSymbols, g.numPorts)
	}
	return (port*g.numSymbols+symbol)*g.numSc + sc
}

func (g *Grid) At(sc, symbol, port int) complex128 {
	return g.samples[g.index(sc, symbol, port)]
}

func (g *Grid) Set(sc, symbol, port int, value complex128) {
	g.samples[g.index(sc, symbol, port)] = value
}
