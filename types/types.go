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

package types

import (
	"math"
	"strconv"

	"github.com/simonlingoogle/go-simplelogger"
)

// DbValue is a value in dB or dBm, depending on context.
type DbValue = float64

const (
	// NumScPerPrb is the number of subcarriers in one physical resource block.
	NumScPerPrb = 12

	// MaxPrbs is the widest carrier supported by NR (275 PRBs).
	MaxPrbs = 275
)

// DbToLinear converts a dB quantity to its linear-scale equivalent.
func DbToLinear(db DbValue) float64 {
	return math.Pow(10.0, db/10.0)
}

// LinearToDb converts a non-negative linear quantity to dB. Zero maps to -Inf.
func LinearToDb(lin float64) DbValue {
	if lin <= 0.0 {
		return math.Inf(-1)
	}
	return 10.0 * math.Log10(lin)
}

// SubcarrierSpacing is an NR subcarrier spacing, stored in kHz.
type SubcarrierSpacing int

const (
	ScsInvalid SubcarrierSpacing = 0
	Scs15      SubcarrierSpacing = 15
	Scs30      SubcarrierSpacing = 30
	Scs60      SubcarrierSpacing = 60
	Scs120     SubcarrierSpacing = 120
	Scs240     SubcarrierSpacing = 240
)

var SubcarrierSpacingList = []SubcarrierSpacing{Scs15, Scs30, Scs60, Scs120, Scs240}

// ParseSubcarrierSpacing maps a kHz value onto the closed SCS set, or ScsInvalid.
func ParseSubcarrierSpacing(khz int) SubcarrierSpacing {
	for _, scs := range SubcarrierSpacingList {
		if int(scs) == khz {
			return scs
		}
	}
	return ScsInvalid
}

func (scs SubcarrierSpacing) Valid() bool {
	return ParseSubcarrierSpacing(int(scs)) != ScsInvalid
}

// Hz returns the subcarrier spacing in Hz.
func (scs SubcarrierSpacing) Hz() float64 {
	return float64(scs) * 1000.0
}

// Mu returns the NR numerology index (scs = 15 kHz * 2^mu).
func (scs SubcarrierSpacing) Mu() int {
	switch scs {
	case Scs15:
		return 0
	case Scs30:
		return 1
	case Scs60:
		return 2
	case Scs120:
		return 3
	case Scs240:
		return 4
	default:
		simplelogger.Panicf("invalid subcarrier spacing: %v", int(scs))
		return 0
	}
}

func (scs SubcarrierSpacing) String() string {
	if !scs.Valid() {
		return "invalid"
	}
	return strconv.Itoa(int(scs)) + "kHz"
}

// CyclicPrefix selects between the normal and extended NR cyclic prefix.
type CyclicPrefix int

const (
	CpNormal   CyclicPrefix = 0
	CpExtended CyclicPrefix = 1
	CpInvalid  CyclicPrefix = -1
)

func ParseCyclicPrefix(s string) CyclicPrefix {
	switch s {
	case "normal":
		return CpNormal
	case "extended":
		return CpExtended
	default:
		return CpInvalid
	}
}

func (cp CyclicPrefix) Valid() bool {
	return cp == CpNormal || cp == CpExtended
}

// SymbolsPerSlot returns the number of OFDM symbols in one slot for this prefix.
func (cp CyclicPrefix) SymbolsPerSlot() int {
	switch cp {
	case CpNormal:
		return 14
	case CpExtended:
		return 12
	default:
		simplelogger.Panicf("invalid cyclic prefix: %v", int(cp))
		return 0
	}
}

func (cp CyclicPrefix) String() string {
	switch cp {
	case CpNormal:
		return "normal"
	case CpExtended:
		return "extended"
	default:
		return "invalid"
	}
}
