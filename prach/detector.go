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
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/openphy/nr-ls/dsp"
	"github.com/openphy/nr-ls/types"
)

// Detection is one preamble found by the detector. TimeAdvance is in seconds.
// Metric is the peak-to-noise-floor ratio that was compared against the
// threshold; PowerDb and SnrDb are derived diagnostics.
type Detection struct {
	PreambleIndex int
	TimeAdvance   float64
	Metric        float64
	PowerDb       types.DbValue
	SnrDb         types.DbValue
}

// Result is the outcome of one detection run.
type Result struct {
	Preambles      []Detection
	RssiDb         types.DbValue
	TimeResolution float64
	TimeAdvanceMax float64
}

// window is the delay-profile slice belonging to one cyclic shift. Windows
// never wrap: shift zero starts at bin 0, every other shift ends at or below
// the profile size.
type window struct {
	start  int
	length int
}

// Detector searches PRACH symbols for the preambles of one configuration.
// Candidate roots and shift windows are precomputed at construction; Detect
// allocates its own scratch space, so a Detector is safe for concurrent use.
type Detector struct {
	cfg     Config
	dim     dims
	refs    [][]complex128
	windows []window
}

func NewDetector(cfg Config) (*Detector, error) {
	dim, err := cfg.derive()
	if err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:     cfg,
		dim:     dim,
		refs:    make([][]complex128, dim.rootHi-dim.rootLo),
		windows: make([]window, dim.numShifts),
	}
	dft := dsp.NewDFT(dim.length)
	for i := range d.refs {
		u := physicalRoot(cfg.Format, cfg.RootSequenceIndex, dim.rootLo+i)
		d.refs[i] = freqRoot(dft, u)
	}

	// Shift m peaks at bin N - m*ncs*N/L and moves up as the delay grows, so
	// its window spans [N-b(m), N-b(m-1)) with cumulatively rounded bounds.
	n := dim.dftSize
	if dim.ncs == 0 {
		d.windows[0] = window{0, n}
	} else {
		bound := func(m int) int {
			return int(math.Round(float64(m*dim.ncs) * float64(n) / float64(dim.length)))
		}
		d.windows[0] = window{0, bound(1)}
		for m := 1; m < dim.numShifts; m++ {
			d.windows[m] = window{n - bound(m), bound(m) - bound(m-1)}
		}
	}
	return d, nil
}

// TimeResolution returns the delay represented by one profile bin, seconds.
func (d *Detector) TimeResolution() float64 {
	return d.dim.timeRes
}

// TimeAdvanceMax returns the largest reportable time advance, seconds.
func (d *Detector) TimeAdvanceMax() float64 {
	return d.dim.taMax
}

// Threshold returns the effective detection metric threshold.
func (d *Detector) Threshold() float64 {
	return d.dim.threshold
}

// Detect searches the demodulated PRACH symbols, one slice of sequence
// length per repetition of the configured format. Candidates are announced
// when the delay-profile peak of their shift window exceeds the noise floor,
// taken from the bins outside that window, by the configured threshold.
func (d *Detector) Detect(symbols [][]complex128) (*Result, error) {
	if len(symbols) != d.dim.numSymbols {
		return nil, errors.Errorf("got %d symbols, format %s carries %d",
			len(symbols), d.cfg.Format, d.dim.numSymbols)
	}
	for s, row := range symbols {
		if len(row) != d.dim.length {
			return nil, errors.Errorf("symbol %d has %d samples, sequence length is %d",
				s, len(row), d.dim.length)
		}
	}

	n := d.dim.dftSize
	length := d.dim.length
	res := &Result{
		TimeResolution: d.dim.timeRes,
		TimeAdvanceMax: d.dim.taMax,
	}
	var rssi float64
	for _, row := range symbols {
		rssi += dsp.MeanPower(row)
	}
	rssi /= float64(len(symbols))
	res.RssiDb = types.LinearToDb(rssi)

	dftN := dsp.NewDFT(n)
	corr := make([]complex128, n)
	td := make([]complex128, n)
	profile := make([]float64, n)
	scale := 1 / (float64(length) * float64(length) * float64(len(symbols)))

	for i, ref := range d.refs {
		for k := range profile {
			profile[k] = 0
		}
		for _, row := range symbols {
			for k := 0; k < length; k++ {
				corr[k] = row[k] * cmplx.Conj(ref[k])
			}
			for k := length; k < n; k++ {
				corr[k] = 0
			}
			dftN.Inverse(td, corr)
			for k, v := range td {
				profile[k] += real(v)*real(v) + imag(v)*imag(v)
			}
		}

		total := floats.Sum(profile)

		for m, win := range d.windows {
			index := (d.dim.rootLo+i)*d.dim.numShifts + m
			if index < d.dim.startIndex {
				continue
			}
			if index >= d.dim.endIndex {
				break
			}
			peak, peakAt, winSum := 0.0, win.start, 0.0
			for t := 0; t < win.length; t++ {
				v := profile[win.start+t]
				winSum += v
				if v > peak {
					peak = v
					peakAt = win.start + t
				}
			}
			// The correlation peak of a neighboring shift leaks into the
			// adjacent bins of this window. A genuine peak has its apex
			// here, so it must dominate both cyclic neighbors.
			if peak < profile[(peakAt+n-1)%n] || peak < profile[(peakAt+1)%n] {
				continue
			}
			var floor float64
			if bins := n - win.length; bins > 0 {
				floor = (total - winSum) / float64(bins)
			} else {
				floor = (total - peak) / float64(n-1)
			}
			if floor <= 0 {
				continue
			}
			metric := peak / floor
			if metric < d.dim.threshold {
				continue
			}
			ta := math.Min(float64(peakAt-win.start)*d.dim.timeRes, d.dim.taMax)
			res.Preambles = append(res.Preambles, Detection{
				PreambleIndex: index,
				TimeAdvance:   ta,
				Metric:        metric,
				PowerDb:       types.LinearToDb(peak * scale),
				SnrDb:         types.LinearToDb(metric / float64(length)),
			})
		}
	}
	return res, nil
}
