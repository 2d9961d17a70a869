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
	"math/bits"
	"sort"

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/types"
)

// SymbolMask is a bit set over the OFDM symbols of a slot (bit i = symbol i).
type SymbolMask uint16

// NewSymbolMask builds a mask from symbol indices.
func NewSymbolMask(symbols ...int) SymbolMask {
	var m SymbolMask
	for _, s := range symbols {
		m |= 1 << uint(s)
	}
	return m
}

func (m SymbolMask) Has(symbol int) bool {
	return symbol >= 0 && symbol < 16 && m&(1<<uint(symbol)) != 0
}

func (m SymbolMask) Count() int {
	return bits.OnesCount16(uint16(m))
}

// Indices returns the set symbols in ascending order.
func (m SymbolMask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i := 0; i < 16; i++ {
		if m.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// REMask is a bit set over the 12 resource elements of one PRB.
type REMask uint16

// Standard DM-RS RE patterns for one CDM group, TS 38.211 clause 6.4.1.1.3.
const (
	REMaskType1 REMask = 0x555 // configuration type 1, comb-2: REs 0,2,4,6,8,10
	REMaskType2 REMask = 0x0c3 // configuration type 2: REs 0,1,6,7
)

// NewREMask builds a mask from RE offsets 0..11.
func NewREMask(res ...int) REMask {
	var m REMask
	for _, re := range res {
		m |= 1 << uint(re)
	}
	return m
}

func (m REMask) Has(re int) bool {
	return re >= 0 && re < types.NumScPerPrb && m&(1<<uint(re)) != 0
}

func (m REMask) Count() int {
	return bits.OnesCount16(uint16(m))
}

// Indices returns the set RE offsets in ascending order.
func (m REMask) Indices() []int {
	out := make([]int, 0, m.Count())
	for re := 0; re < types.NumScPerPrb; re++ {
		if m.Has(re) {
			out = append(out, re)
		}
	}
	return out
}

// NoHopping is the HopSymbol sentinel for patterns without intra-slot
// frequency hopping.
const NoHopping = -1

// Pattern describes the pilot placement of one frequency hop: which OFDM
// symbols carry pilots, which REs within a PRB, and which PRBs are allocated.
// PRBs2 is a second PRB set for configurations whose allocation alternates
// PRB-to-PRB; pilots in both sets use the same REMask. HopSymbol is the first
// OFDM symbol of hop 2, shared by both hop patterns, or NoHopping.
type Pattern struct {
	Symbols   SymbolMask
	REMask    REMask
	PRBs      []int
	PRBs2     []int
	HopSymbol int
}

// Active reports whether the pattern contributes any pilots.
func (p *Pattern) Active() bool {
	return p != nil && p.Symbols.Count() > 0
}

// allPrbs returns the sorted union of PRBs and PRBs2.
func (p *Pattern) allPrbs() []int {
	merged := make([]int, 0, len(p.PRBs)+len(p.PRBs2))
	merged = append(merged, p.PRBs...)
	merged = append(merged, p.PRBs2...)
	sort.Ints(merged)
	out := merged[:0]
	for i, prb := range merged {
		if i == 0 || prb != merged[i-1] {
			out = append(out, prb)
		}
	}
	return out
}

// PilotsPerSymbol returns the number of pilot REs in one pilot-bearing symbol.
func (p *Pattern) PilotsPerSymbol() int {
	return len(p.allPrbs()) * p.REMask.Count()
}

// pilotSubcarriers returns the pilot subcarrier indices of one pilot symbol,
// ascending. This is also the serialization order of the pilot sequence
// within a symbol.
func (p *Pattern) pilotSubcarriers() []int {
	res := p.REMask.Indices()
	prbs := p.allPrbs()
	out := make([]int, 0, len(prbs)*len(res))
	for _, prb := range prbs {
		for _, re := range res {
			out = append(out, prb*types.NumScPerPrb+re)
		}
	}
	return out
}

// allocatedSubcarriers returns every subcarrier of the allocated PRBs, ascending.
func (p *Pattern) allocatedSubcarriers() []int {
	prbs := p.allPrbs()
	out := make([]int, 0, len(prbs)*types.NumScPerPrb)
	for _, prb := range prbs {
		for re := 0; re < types.NumScPerPrb; re++ {
			out = append(out, prb*types.NumScPerPrb+re)
		}
	}
	return out
}

// nearestPilotRE maps each RE offset of a PRB to the closest pilot RE offset,
// ties resolved toward the lower offset. Used for the zero-order-hold path.
func (p *Pattern) nearestPilotRE() [types.NumScPerPrb]int {
	var nearest [types.NumScPerPrb]int
	pilots := p.REMask.Indices()
	for re := 0; re < types.NumScPerPrb; re++ {
		best := pilots[0]
		for _, pre := range pilots[1:] {
			if abs(pre-re) < abs(best-re) {
				best = pre
			}
		}
		nearest[re] = best
	}
	return nearest
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// validate checks the pattern against the slot allocation [firstSymbol,
// firstSymbol+numSymbols) and the grid width in subcarriers.
func (p *Pattern) validate(firstSymbol, numSymbols, numSc int) error {
	if p.REMask == 0 || p.REMask >= 1<<types.NumScPerPrb {
		return errors.Errorf("pattern needs at least one pilot RE per PRB (mask %#x)", uint16(p.REMask))
	}
	if len(p.PRBs) == 0 {
		return errors.Errorf("pattern has no allocated PRBs")
	}
	prbs := p.allPrbs()
	if prbs[0] < 0 {
		return errors.Errorf("negative PRB index %d", prbs[0])
	}
	if top := prbs[len(prbs)-1]; (top+1)*types.NumScPerPrb > numSc {
		return errors.Errorf("PRB %d does not fit a grid of %d subcarriers", top, numSc)
	}
	for _, sym := range p.Symbols.Indices() {
		if sym < firstSymbol || sym >= firstSymbol+numSymbols {
			return errors.Errorf("pilot symbol %d outside allocation [%d, %d)",
				sym, firstSymbol, firstSymbol+numSymbols)
		}
	}
	return nil
}
