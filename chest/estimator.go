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

// Package chest implements least-squares DM-RS channel estimation over a
// resource grid: raw per-pilot estimates, optional smoothing, propagation to
// the full allocation, and the derived noise, power and timing measurements.
// Estimation runs per frequency hop and per receive port; an Estimator
// combines the hops and ports of one transmission into a Result.
package chest

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/openphy/nr-ls/grid"
	"github.com/openphy/nr-ls/types"
)

// Config drives an Estimator. Scaling is the pilot-to-data amplitude ratio
// (beta DM-RS); raw estimates are divided by it so coefficients come out at
// data-level amplitude. PilotsNoiseAvg is the number of pilots per noise
// averaging group, at least 2 and at most the pilots per PRB of the pattern.
type Config struct {
	SubcarrierSpacing types.SubcarrierSpacing
	CyclicPrefix      types.CyclicPrefix
	FirstSymbol       int
	NumSymbols        int
	Scaling           float64
	UseFilter         bool
	PilotsNoiseAvg    int
	Ports             []int
}

func (cfg *Config) validate() error {
	if !cfg.SubcarrierSpacing.Valid() {
		return errors.Errorf("invalid subcarrier spacing %d", int(cfg.SubcarrierSpacing))
	}
	if !cfg.CyclicPrefix.Valid() {
		return errors.Errorf("invalid cyclic prefix %d", int(cfg.CyclicPrefix))
	}
	slotSymbols := cfg.CyclicPrefix.SymbolsPerSlot()
	if cfg.FirstSymbol < 0 || cfg.NumSymbols < 1 || cfg.FirstSymbol+cfg.NumSymbols > slotSymbols {
		return errors.Errorf("allocation [%d, %d) outside a %d-symbol slot",
			cfg.FirstSymbol, cfg.FirstSymbol+cfg.NumSymbols, slotSymbols)
	}
	if !(cfg.Scaling > 0) || math.IsInf(cfg.Scaling, 0) {
		return errors.Errorf("scaling must be positive and finite, got %v", cfg.Scaling)
	}
	if cfg.PilotsNoiseAvg < 2 {
		return errors.Errorf("noise averaging needs at least 2 pilots, got %d", cfg.PilotsNoiseAvg)
	}
	if len(cfg.Ports) == 0 {
		return errors.New("no receive ports configured")
	}
	seen := make(map[int]bool, len(cfg.Ports))
	for _, p := range cfg.Ports {
		if p < 0 {
			return errors.Errorf("negative port index %d", p)
		}
		if seen[p] {
			return errors.Errorf("duplicate port index %d", p)
		}
		seen[p] = true
	}
	return nil
}

// Estimator runs DM-RS channel estimation over all configured receive ports
// of a grid, one or two frequency hops at a time. The configuration is
// validated once at construction and never mutated afterwards.
type Estimator struct {
	cfg  Config
	port *PortEstimator
}

func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Ports = append([]int(nil), cfg.Ports...)
	pe, err := NewPortEstimator(cfg)
	if err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg, port: pe}, nil
}

// Config returns a copy of the estimator configuration.
func (e *Estimator) Config() Config {
	cfg := e.cfg
	cfg.Ports = append([]int(nil), cfg.Ports...)
	return cfg
}

// Estimate runs the configured ports over one transmission. hop1 and hop2
// describe the pilot placement of the two frequency hops; a nil or
// pilot-less hop is skipped and the other hop covers the whole allocation.
// pilots concatenates the hop-1 pilot values and then the hop-2 ones, each
// hop symbol-major with subcarriers ascending. Metrics of a two-hop call are
// the plain average of the per-hop measurements.
func (e *Estimator) Estimate(g grid.Reader, pilots []complex128, hop1, hop2 *Pattern) (*Result, error) {
	numSc, numSymbols, numPorts := g.Dimensions()
	first, num := e.cfg.FirstSymbol, e.cfg.NumSymbols
	if numSymbols < first+num {
		return nil, errors.Errorf("allocation [%d, %d) does not fit a grid of %d symbols",
			first, first+num, numSymbols)
	}
	for _, p := range e.cfg.Ports {
		if p >= numPorts {
			return nil, errors.Errorf("port %d outside grid with %d ports", p, numPorts)
		}
	}

	h1, h2 := hop1.Active(), hop2.Active()
	if !h1 && !h2 {
		return nil, errors.New("no pilot-bearing symbols in either hop")
	}
	if h1 && h2 {
		hopSym := hop1.HopSymbol
		if hopSym == NoHopping || hop2.HopSymbol != hopSym {
			return nil, errors.Errorf("hop patterns disagree on the hop symbol (%d vs %d)",
				hop1.HopSymbol, hop2.HopSymbol)
		}
		if hopSym <= first || hopSym >= first+num {
			return nil, errors.Errorf("hop symbol %d outside allocation (%d, %d)",
				hopSym, first, first+num)
		}
	}

	type hop struct {
		pat      *Pattern
		from, to int
		pilots   []complex128
	}
	var hops []hop
	if h1 && h2 {
		split := hop1.HopSymbol
		n1 := hop1.Symbols.Count() * hop1.PilotsPerSymbol()
		n2 := hop2.Symbols.Count() * hop2.PilotsPerSymbol()
		if len(pilots) != n1+n2 {
			return nil, errors.Errorf("got %d pilots, hops carry %d+%d", len(pilots), n1, n2)
		}
		hops = []hop{
			{hop1, first, split, pilots[:n1]},
			{hop2, split, first + num, pilots[n1:]},
		}
	} else {
		pat := hop1
		if h2 {
			pat = hop2
		}
		n := pat.Symbols.Count() * pat.PilotsPerSymbol()
		if len(pilots) != n {
			return nil, errors.Errorf("got %d pilots, pattern carries %d", len(pilots), n)
		}
		hops = []hop{{pat, first, first + num, pilots}}
	}
	for _, h := range hops {
		if n := h.pat.REMask.Count(); e.cfg.PilotsNoiseAvg > n {
			return nil, errors.Errorf("noise averaging over %d pilots, pattern has %d per PRB",
				e.cfg.PilotsNoiseAvg, n)
		}
	}

	res := &Result{Ports: make([]PortResult, 0, len(e.cfg.Ports))}
	for _, p := range e.cfg.Ports {
		est := NewEstimate(numSc, numSymbols)
		perHop := make([]HopMetrics, 0, len(hops))
		for _, h := range hops {
			hm, err := e.port.EstimateHop(g, p, h.pilots, h.pat, h.from, h.to, est)
			if err != nil {
				return nil, errors.Wrapf(err, "port %d", p)
			}
			perHop = append(perHop, hm)
		}
		res.Ports = append(res.Ports, PortResult{
			Port:     p,
			Estimate: est,
			Metrics:  e.combine(perHop),
		})
	}
	res.Aggregate = aggregate(res.Ports)
	return res, nil
}

// combine averages the per-hop measurements with equal weight and derives
// the SINR. RSRP is measured at pilot amplitude; dividing it by the squared
// scaling gives the data-level signal power, and its ratio to the noise
// variance is the data-level SINR.
func (e *Estimator) combine(perHop []HopMetrics) Metrics {
	n := len(perHop)
	noise := make([]float64, n)
	rsrp := make([]float64, n)
	epre := make([]float64, n)
	ta := make([]float64, n)
	for i, hm := range perHop {
		noise[i] = hm.NoiseVar
		rsrp[i] = hm.Rsrp
		epre[i] = hm.Epre
		ta[i] = hm.TimeAlignment
	}
	m := Metrics{
		NoiseVar:      stat.Mean(noise, nil),
		Rsrp:          stat.Mean(rsrp, nil),
		Epre:          stat.Mean(epre, nil),
		TimeAlignment: stat.Mean(ta, nil),
	}
	m.Sinr = m.Rsrp / (e.cfg.Scaling * e.cfg.Scaling * m.NoiseVar)
	return m
}

func aggregate(ports []PortResult) Metrics {
	n := len(ports)
	noise := make([]float64, n)
	rsrp := make([]float64, n)
	epre := make([]float64, n)
	ta := make([]float64, n)
	for i, pr := range ports {
		noise[i] = pr.Metrics.NoiseVar
		rsrp[i] = pr.Metrics.Rsrp
		epre[i] = pr.Metrics.Epre
		ta[i] = pr.Metrics.TimeAlignment
	}
	return Metrics{
		NoiseVar:      stat.Mean(noise, nil),
		Rsrp:          stat.Mean(rsrp, nil),
		Epre:          stat.Mean(epre, nil),
		TimeAlignment: stat.Mean(ta, nil),
		Sinr:          math.NaN(),
	}
}
