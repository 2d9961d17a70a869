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

package chest

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/openphy/nr-ls/dsp"
	"github.com/openphy/nr-ls/grid"
	"github.com/openphy/nr-ls/types"
)

// HopMetrics are the measurements of one frequency hop, before hop combining
// and SINR derivation. All power quantities are linear, TimeAlignment is in
// seconds (positive = late).
type HopMetrics struct {
	NoiseVar      float64
	Rsrp          float64
	Epre          float64
	TimeAlignment float64
}

// PortEstimator estimates the channel of a single receive port over a single
// frequency hop. It is stateless and safe for concurrent use.
type PortEstimator struct {
	scaling   float64
	useFilter bool
	noiseAvg  int
	scsHz     float64
}

func NewPortEstimator(cfg Config) (*PortEstimator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &PortEstimator{
		scaling:   cfg.Scaling,
		useFilter: cfg.UseFilter,
		noiseAvg:  cfg.PilotsNoiseAvg,
		scsHz:     float64(cfg.SubcarrierSpacing.Hz()),
	}, nil
}

// EstimateHop runs least-squares estimation for one port over the hop
// described by pat, whose pilot symbols must lie in [fromSymbol, toSymbol).
// pilots holds the transmitted pilot values, symbol-major, subcarriers
// ascending within a symbol. When dst is non-nil the estimated coefficients
// are written to every allocated subcarrier of [fromSymbol, toSymbol);
// subcarriers outside the allocation are left untouched.
func (pe *PortEstimator) EstimateHop(g grid.Reader, port int, pilots []complex128,
	pat *Pattern, fromSymbol, toSymbol int, dst *Estimate) (HopMetrics, error) {

	var hm HopMetrics
	if !pat.Active() {
		return hm, errors.New("pattern carries no pilot symbols")
	}
	numSc, numSymbols, numPorts := g.Dimensions()
	if port < 0 || port >= numPorts {
		return hm, errors.Errorf("port %d outside grid with %d ports", port, numPorts)
	}
	if fromSymbol < 0 || toSymbol > numSymbols || fromSymbol >= toSymbol {
		return hm, errors.Errorf("bad hop symbol range [%d, %d) in a grid of %d symbols",
			fromSymbol, toSymbol, numSymbols)
	}
	if err := pat.validate(fromSymbol, toSymbol-fromSymbol, numSc); err != nil {
		return hm, err
	}
	if dst != nil {
		dsc, dsym := dst.Dimensions()
		if dsc != numSc || dsym != numSymbols {
			return hm, errors.Errorf("estimate is %dx%d, grid is %dx%d", dsc, dsym, numSc, numSymbols)
		}
	}

	scs := pat.pilotSubcarriers()
	syms := pat.Symbols.Indices()
	nPil := len(scs)
	if len(pilots) != nPil*len(syms) {
		return hm, errors.Errorf("got %d pilots, pattern carries %d", len(pilots), nPil*len(syms))
	}

	// Raw least-squares estimates: rx / (pilot * scaling).
	rx := make([]complex128, len(pilots))
	raw := make([]complex128, len(pilots))
	beta := complex(pe.scaling, 0)
	for si, sym := range syms {
		for i, sc := range scs {
			y := g.At(sc, sym, port)
			rx[si*nPil+i] = y
			raw[si*nPil+i] = y / (pilots[si*nPil+i] * beta)
		}
	}

	smoothed := raw
	if pe.useFilter {
		smoothed = make([]complex128, len(raw))
		for si := range syms {
			filterPilots(smoothed[si*nPil:(si+1)*nPil], raw[si*nPil:(si+1)*nPil])
		}
	}

	hm.Epre = dsp.MeanPower(rx)
	hm.Rsrp = pe.scaling * pe.scaling * dsp.MeanPower(smoothed)
	hm.NoiseVar = pe.noiseVariance(raw, nPil, pat.REMask.Count(), len(syms))
	hm.TimeAlignment = pe.timeAlignment(raw, scs, len(syms))

	if dst != nil {
		allocSc := pat.allocatedSubcarriers()
		cols := make([][]complex128, len(syms))
		for si := range syms {
			cols[si] = pe.spreadColumn(smoothed[si*nPil:(si+1)*nPil], scs, allocSc, pat)
		}
		for sym := fromSymbol; sym < toSymbol; sym++ {
			best := 0
			for si := 1; si < len(syms); si++ {
				if abs(syms[si]-sym) < abs(syms[best]-sym) {
					best = si
				}
			}
			for k, sc := range allocSc {
				dst.set(sc, sym, cols[best][k])
			}
		}
	}
	return hm, nil
}

var smoothTaps = [5]float64{1, 2, 3, 2, 1}

// filterPilots applies a short triangular smoother along the pilot sequence,
// renormalizing the taps at the edges so a constant input passes unchanged.
func filterPilots(dst, src []complex128) {
	n := len(src)
	for i := 0; i < n; i++ {
		var acc complex128
		var wsum float64
		for t := -2; t <= 2; t++ {
			j := i + t
			if j < 0 || j >= n {
				continue
			}
			w := smoothTaps[t+2]
			acc += complex(w, 0) * src[j]
			wsum += w
		}
		dst[i] = acc / complex(wsum, 0)
	}
}

// noiseVariance estimates the grid-level noise variance from the dispersion
// of the raw estimates around their per-PRB mean. Each pilot symbol and PRB
// contributes one group of up to noiseAvg pilots; the unbiased sample
// variance of the group is averaged over all groups. PRBs with fewer than
// two pilots cannot contribute; with no usable group the estimate is zero.
func (pe *PortEstimator) noiseVariance(raw []complex128, nPil, pilotsPerPrb, nSym int) float64 {
	if pilotsPerPrb < 2 {
		return 0
	}
	prbCount := nPil / pilotsPerPrb
	reBuf := make([]float64, 0, pe.noiseAvg)
	imBuf := make([]float64, 0, pe.noiseAvg)
	var acc float64
	groups := 0
	for si := 0; si < nSym; si++ {
		base := si * nPil
		for p := 0; p < prbCount; p++ {
			grp := raw[base+p*pilotsPerPrb : base+(p+1)*pilotsPerPrb]
			m := pe.noiseAvg
			if m > len(grp) {
				m = len(grp)
			}
			reBuf = reBuf[:0]
			imBuf = imBuf[:0]
			for _, v := range grp[:m] {
				reBuf = append(reBuf, real(v))
				imBuf = append(imBuf, imag(v))
			}
			acc += stat.Variance(reBuf, nil) + stat.Variance(imBuf, nil)
			groups++
		}
	}
	if groups == 0 {
		return 0
	}
	// Raw estimates carry noise scaled by 1/scaling; undo that.
	return pe.scaling * pe.scaling * acc / float64(groups)
}

// timeAlignment fits the phase slope across subcarriers of the raw estimates.
// Products of neighboring pilots are accumulated per subcarrier stride, then
// a weighted least-squares line through the origin gives the slope. On the
// unfiltered path only pairs within one PRB are used; the filtered path uses
// the full allocation. A delay tau rotates the phase by -2*pi*f*tau, so the
// slope maps to tau with a sign flip and positive tau means a late arrival.
func (pe *PortEstimator) timeAlignment(raw []complex128, scs []int, nSym int) float64 {
	nPil := len(scs)
	zs := make(map[int]complex128)
	for i := 0; i+1 < nPil; i++ {
		if !pe.useFilter && scs[i]/types.NumScPerPrb != scs[i+1]/types.NumScPerPrb {
			continue
		}
		stride := scs[i+1] - scs[i]
		for si := 0; si < nSym; si++ {
			base := si * nPil
			zs[stride] += raw[base+i+1] * cmplx.Conj(raw[base+i])
		}
	}
	strides := make([]int, 0, len(zs))
	for stride := range zs {
		strides = append(strides, stride)
	}
	sort.Ints(strides)
	var num, den float64
	for _, stride := range strides {
		z := zs[stride]
		w := cmplx.Abs(z)
		if w == 0 {
			continue
		}
		num += w * float64(stride) * cmplx.Phase(z)
		den += w * float64(stride*stride)
	}
	if den == 0 {
		return 0
	}
	return -(num / den) / (2 * math.Pi * pe.scsHz)
}

// spreadColumn propagates one symbol's pilot estimates to every allocated
// subcarrier. Zero-order hold picks the nearest pilot within the PRB; the
// filtered path interpolates linearly between pilots and holds the edge
// values constant outside them.
func (pe *PortEstimator) spreadColumn(est []complex128, pilotSc, allocSc []int, pat *Pattern) []complex128 {
	out := make([]complex128, len(allocSc))
	if !pe.useFilter {
		nearest := pat.nearestPilotRE()
		res := pat.REMask.Indices()
		var reIdx [types.NumScPerPrb]int
		for k, re := range res {
			reIdx[re] = k
		}
		nRe := len(res)
		for k, sc := range allocSc {
			prbIdx := k / types.NumScPerPrb
			re := sc % types.NumScPerPrb
			out[k] = est[prbIdx*nRe+reIdx[nearest[re]]]
		}
		return out
	}
	j := 0
	last := len(pilotSc) - 1
	for k, sc := range allocSc {
		for j < last && pilotSc[j+1] <= sc {
			j++
		}
		switch {
		case sc <= pilotSc[0]:
			out[k] = est[0]
		case sc >= pilotSc[last]:
			out[k] = est[last]
		default:
			lo, hi := pilotSc[j], pilotSc[j+1]
			t := float64(sc-lo) / float64(hi-lo)
			out[k] = est[j]*complex(1-t, 0) + est[j+1]*complex(t, 0)
		}
	}
	return out
}
