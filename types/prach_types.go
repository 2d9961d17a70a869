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
	"github.com/simonlingoogle/go-simplelogger"
)

const (
	// LongSequenceLength is the PRACH sequence length of the long preamble formats.
	LongSequenceLength = 839

	// ShortSequenceLength is the PRACH sequence length of the short preamble formats.
	ShortSequenceLength = 139

	// MaxPreambleIndices is the number of preamble indices available in one cell.
	MaxPreambleIndices = 64

	// MaxZeroCorrelationZone is the largest valid zero-correlation-zone config index.
	MaxZeroCorrelationZone = 15

	// BasicTimeUnit is Ts = 1/(15 kHz * 2048) seconds, the unit the PRACH
	// cyclic-prefix durations of TS 38.211 tables 6.3.3.1-1/-2 are stored in.
	BasicTimeUnit = 1.0 / 30720000.0
)

// PreambleFormat is the closed set of PRACH preamble formats supported by the
// detector. Each value carries its sequence length, subcarrier spacing, symbol
// count and cyclic-prefix duration as static data, so that no string matching
// happens once a configuration has been parsed.
type PreambleFormat int

const (
	FormatInvalid PreambleFormat = iota
	Format0
	Format1
	Format2
	Format3
	FormatA1
	FormatA2
	FormatA3
	FormatB1
	FormatB4
	FormatC0
	FormatC2
)

var PreambleFormatList = []PreambleFormat{
	Format0, Format1, Format2, Format3,
	FormatA1, FormatA2, FormatA3, FormatB1, FormatB4, FormatC0, FormatC2,
}

var preambleFormatNamesList = []string{
	"0", "1", "2", "3",
	"A1", "A2", "A3", "B1", "B4", "C0", "C2",
}

// preambleFormatInfo is the per-format static data from TS 38.211 tables
// 6.3.3.1-1 (long) and 6.3.3.1-2 (short). cpTs is the cyclic-prefix length in
// BasicTimeUnit; short formats additionally scale it by 2^-mu.
type preambleFormatInfo struct {
	long    bool
	length  int
	scsHz   float64 // fixed for long formats, 0 for short (taken from config)
	symbols int     // sequence repetitions within one preamble
	cpTs    int
}

var preambleFormatInfos = map[PreambleFormat]preambleFormatInfo{
	Format0:  {long: true, length: LongSequenceLength, scsHz: 1250.0, symbols: 1, cpTs: 3168},
	Format1:  {long: true, length: LongSequenceLength, scsHz: 1250.0, symbols: 2, cpTs: 21024},
	Format2:  {long: true, length: LongSequenceLength, scsHz: 1250.0, symbols: 4, cpTs: 4688},
	Format3:  {long: true, length: LongSequenceLength, scsHz: 5000.0, symbols: 4, cpTs: 3168},
	FormatA1: {long: false, length: ShortSequenceLength, symbols: 2, cpTs: 288},
	FormatA2: {long: false, length: ShortSequenceLength, symbols: 4, cpTs: 576},
	FormatA3: {long: false, length: ShortSequenceLength, symbols: 6, cpTs: 864},
	FormatB1: {long: false, length: ShortSequenceLength, symbols: 2, cpTs: 216},
	FormatB4: {long: false, length: ShortSequenceLength, symbols: 12, cpTs: 936},
	FormatC0: {long: false, length: ShortSequenceLength, symbols: 1, cpTs: 1240},
	FormatC2: {long: false, length: ShortSequenceLength, symbols: 4, cpTs: 2048},
}

// ParsePreambleFormat maps the 3GPP format name ("0".."3", "A1".."C2") onto
// the closed enum, or FormatInvalid when the name is not in the set.
func ParsePreambleFormat(s string) PreambleFormat {
	for i := 0; i < len(preambleFormatNamesList); i++ {
		if s == preambleFormatNamesList[i] {
			return PreambleFormatList[i]
		}
	}
	return FormatInvalid
}

func (f PreambleFormat) Valid() bool {
	_, ok := preambleFormatInfos[f]
	return ok
}

func (f PreambleFormat) String() string {
	for i := 0; i < len(PreambleFormatList); i++ {
		if f == PreambleFormatList[i] {
			return preambleFormatNamesList[i]
		}
	}
	return "invalid"
}

func (f PreambleFormat) info() preambleFormatInfo {
	info, ok := preambleFormatInfos[f]
	if !ok {
		simplelogger.Panicf("invalid preamble format: %d", int(f))
	}
	return info
}

// IsLong reports whether the format uses the 839-sample long sequence.
func (f PreambleFormat) IsLong() bool {
	return f.info().long
}

// SequenceLength returns the ZC sequence length (839 or 139).
func (f PreambleFormat) SequenceLength() int {
	return f.info().length
}

// NumSymbols returns the number of sequence repetitions in one preamble.
func (f PreambleFormat) NumSymbols() int {
	return f.info().symbols
}

// SubcarrierSpacingHz returns the PRACH subcarrier spacing in Hz. Long formats
// carry a fixed spacing; short formats use the configured spacing.
func (f PreambleFormat) SubcarrierSpacingHz(scs SubcarrierSpacing) float64 {
	info := f.info()
	if info.long {
		return info.scsHz
	}
	return scs.Hz()
}

// CyclicPrefixSeconds returns the preamble cyclic-prefix duration in seconds.
func (f PreambleFormat) CyclicPrefixSeconds(scs SubcarrierSpacing) float64 {
	info := f.info()
	cp := float64(info.cpTs) * BasicTimeUnit
	if info.long {
		return cp
	}
	return cp / float64(int(1)<<scs.Mu())
}

// Zero-correlation-zone config to N_CS, unrestricted sets only, from TS 38.211
// tables 6.3.3.1-5 (1.25 kHz), 6.3.3.1-6 (5 kHz) and 6.3.3.1-7 (short formats).
var (
	ncsLong1Dot25kHz = [MaxZeroCorrelationZone + 1]int{0, 13, 15, 18, 22, 26, 32, 38, 46, 59, 76, 93, 119, 167, 279, 419}
	ncsLong5kHz      = [MaxZeroCorrelationZone + 1]int{0, 13, 26, 33, 38, 41, 49, 55, 64, 76, 93, 119, 139, 209, 279, 419}
	ncsShort         = [MaxZeroCorrelationZone + 1]int{0, 2, 4, 6, 8, 10, 12, 13, 15, 17, 19, 23, 27, 34, 46, 69}
)

// NCS returns the cyclic-shift spacing for the format and zero-correlation-zone
// config index. The second return value is false for out-of-table indices,
// which callers must treat as a configuration error.
func (f PreambleFormat) NCS(zeroCorrelationZone int) (int, bool) {
	if zeroCorrelationZone < 0 || zeroCorrelationZone > MaxZeroCorrelationZone {
		return 0, false
	}
	info := f.info()
	switch {
	case !info.long:
		return ncsShort[zeroCorrelationZone], true
	case info.scsHz == 5000.0:
		return ncsLong5kHz[zeroCorrelationZone], true
	default:
		return ncsLong1Dot25kHz[zeroCorrelationZone], true
	}
}

// RestrictedSet is the PRACH restricted-set type. Only the unrestricted set is
// supported; the restricted types exist so that requests for them can be
// rejected explicitly instead of being silently mapped to unrestricted
// behavior.
type RestrictedSet int

const (
	RestrictedSetUnrestricted RestrictedSet = iota
	RestrictedSetTypeA
	RestrictedSetTypeB
	RestrictedSetInvalid RestrictedSet = -1
)

var restrictedSetNamesList = []string{"unrestricted", "type-a", "type-b"}

func ParseRestrictedSet(s string) RestrictedSet {
	switch s {
	case "unrestricted", "":
		return RestrictedSetUnrestricted
	case "type-a", "typeA":
		return RestrictedSetTypeA
	case "type-b", "typeB":
		return RestrictedSetTypeB
	default:
		return RestrictedSetInvalid
	}
}

func (rs RestrictedSet) String() string {
	if rs < RestrictedSetUnrestricted || int(rs) >= len(restrictedSetNamesList) {
		return "invalid"
	}
	return restrictedSetNamesList[rs]
}
