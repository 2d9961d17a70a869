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

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/dsp"
)

// Waveform converts between frequency-domain PRACH symbols and the baseband
// time signal: a single cyclic prefix followed by the symbol repetitions,
// sampled at DFT size times the PRACH subcarrier spacing. One time-domain
// sample equals one delay-profile bin of the detector.
type Waveform struct {
	dim       dims
	dft       *dsp.DFT
	cpSamples int
}

func NewWaveform(cfg Config) (*Waveform, error) {
	dim, err := cfg.derive()
	if err != nil {
		return nil, err
	}
	cp := cfg.Format.CyclicPrefixSeconds(cfg.SubcarrierSpacing)
	return &Waveform{
		dim:       dim,
		dft:       dsp.NewDFT(dim.dftSize),
		cpSamples: int(math.Round(cp * float64(dim.dftSize) * dim.scsRaHz)),
	}, nil
}

// SampleRate returns the baseband sample rate in Hz.
func (w *Waveform) SampleRate() float64 {
	return float64(w.dim.dftSize) * w.dim.scsRaHz
}

// NumSamples returns the length of the modulated signal.
func (w *Waveform) NumSamples() int {
	return w.cpSamples + w.dim.numSymbols*w.dim.dftSize
}

// Modulate maps each symbol onto the lowest bins of the DFT and returns the
// cyclic-prefixed time signal.
func (w *Waveform) Modulate(symbols [][]complex128) ([]complex128, error) {
	if len(symbols) != w.dim.numSymbols {
		return nil, errors.Errorf("got %d symbols, format carries %d", len(symbols), w.dim.numSymbols)
	}
	n := w.dim.dftSize
	freq := make([]complex128, n)
	out := make([]complex128, w.NumSamples())
	for s, row := range symbols {
		if len(row) != w.dim.length {
			return nil, errors.Errorf("symbol %d has %d samples, sequence length is %d",
				s, len(row), w.dim.length)
		}
		copy(freq, row)
		for k := w.dim.length; k < n; k++ {
			freq[k] = 0
		}
		body := out[w.cpSamples+s*n : w.cpSamples+(s+1)*n]
		w.dft.Inverse(body, freq)
		dsp.Scale(1/float64(n), body)
	}
	copy(out[:w.cpSamples], out[n:n+w.cpSamples])
	return out, nil
}

// Demodulate drops the cyclic prefix and returns one frequency-domain slice
// of sequence length per symbol. It inverts Modulate exactly.
func (w *Waveform) Demodulate(samples []complex128) ([][]complex128, error) {
	if len(samples) != w.NumSamples() {
		return nil, errors.Errorf("got %d samples, waveform is %d", len(samples), w.NumSamples())
	}
	n := w.dim.dftSize
	freq := make([]complex128, n)
	out := make([][]complex128, w.dim.numSymbols)
	for s := range out {
		w.dft.Forward(freq, samples[w.cpSamples+s*n:w.cpSamples+(s+1)*n])
		out[s] = append([]complex128(nil), freq[:w.dim.length]...)
	}
	return out, nil
}
