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

package prach

import (
	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/dsp"
	"github.com/openphy/nr-ls/types"
)

// Generator produces frequency-domain preambles for one PRACH configuration.
// It covers every preamble index of the cell regardless of the configured
// search range. The roots are precomputed at construction; a Generator is
// immutable afterwards and safe for concurrent use.
type Generator struct {
	cfg   Config
	dim   dims
	roots [][]complex128
}

func NewGenerator(cfg Config) (*Generator, error) {
	dim, err := cfg.derive()
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:   cfg,
		dim:   dim,
		roots: make([][]complex128, dim.numRoots),
	}
	dft := dsp.NewDFT(dim.length)
	for i := range g.roots {
		u := physicalRoot(cfg.Format, cfg.RootSequenceIndex, i)
		g.roots[i] = freqRoot(dft, u)
	}
	return g, nil
}

// SequenceLength returns the ZC sequence length of the configured format.
func (g *Generator) SequenceLength() int {
	return g.dim.length
}

// NumSymbols returns the number of sequence repetitions in one preamble.
func (g *Generator) NumSymbols() int {
	return g.dim.numSymbols
}

// Preamble returns the frequency-domain sequence of one preamble index,
// unit power per resource element.
func (g *Generator) Preamble(index int) ([]complex128, error) {
	if index < 0 || index >= types.MaxPreambleIndices {
		return nil, errors.Errorf("preamble index %d outside [0, %d)", index, types.MaxPreambleIndices)
	}
	rootIdx := index / g.dim.numShifts
	shift := (index % g.dim.numShifts) * g.dim.ncs
	out := make([]complex128, g.dim.length)
	applyCyclicShift(out, g.roots[rootIdx], shift)
	return out, nil
}

// Symbols returns the preamble repeated over the symbols of the format, one
// fresh slice per symbol so callers can apply per-symbol distortion.
func (g *Generator) Symbols(index int) ([][]complex128, error) {
	seq, err := g.Preamble(index)
	if err != nil {
		return nil, err
	}
	out := make([][]complex128, g.dim.numSymbols)
	out[0] = seq
	for s := 1; s < g.dim.numSymbols; s++ {
		out[s] = append([]complex128(nil), seq...)
	}
	return out, nil
}
