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

package simulation

import (
	"math"
	"runtime"
	"sync"

	"github.com/openphy/nr-ls/channel"
	"github.com/openphy/nr-ls/logger"
	"github.com/openphy/nr-ls/prach"
	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/progctx"
	"github.com/openphy/nr-ls/types"
)

// noiseSnrIndex is the SNR index of noise-only occasions in seed derivation.
// It lies outside any sweep axis, so false-alarm runs never share generators
// with detection runs.
const noiseSnrIndex = -1

// Runner executes a detection campaign: per SNR point it spreads the
// occasions over a worker pool, transmits one random preamble per occasion
// through the configured channel and scores the detector's answer. Randomness
// is derived per (stream, SNR point, occasion), so the outcome does not
// depend on the worker count.
type Runner struct {
	ctx       *progctx.ProgCtx
	cfg       *Config
	gen       *prach.Generator
	det       *prach.Detector
	tolerance float64
}

func NewRunner(ctx *progctx.ProgCtx, cfg *Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gen, err := prach.NewGenerator(cfg.PrachConfig())
	if err != nil {
		return nil, err
	}
	det, err := prach.NewDetector(cfg.PrachConfig())
	if err != nil {
		return nil, err
	}
	if cfg.Seed != 0 {
		prng.Init(cfg.Seed)
	}
	return &Runner{
		ctx:       ctx,
		cfg:       cfg,
		gen:       gen,
		det:       det,
		tolerance: cfg.Tolerance(),
	}, nil
}

func (r *Runner) workerCount() int {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > r.cfg.Occasions {
		workers = r.cfg.Occasions
	}
	return workers
}

// Run sweeps the configured SNR axis and merges one SnrPoint per value into
// res. progress, when non-nil, is called after each completed point. On
// cancellation the in-flight point is discarded and the context error
// returned; completed points stay merged.
func (r *Runner) Run(res *Results, progress func(SnrPoint)) error {
	r.ctx.WaitAdd("simulation", 1)
	defer r.ctx.WaitDone("simulation")

	res.Seed = prng.RootSeed()
	res.Config = r.cfg.FileConfig()
	logger.Infof("campaign: format %s root %d zcz %d, channel %s, %d SNR points x %d occasions, seed %d",
		r.cfg.Format, r.cfg.RootSequenceIndex, r.cfg.ZeroCorrelationZone, r.cfg.Channel,
		len(r.cfg.SnrDb), r.cfg.Occasions, res.Seed)

	for snrIdx, snrDb := range r.cfg.SnrDb {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		default:
		}
		point := r.runPoint(snrIdx, snrDb)
		if err := r.ctx.Err(); err != nil {
			return err
		}
		res.Merge(point)
		logger.Debugf("snr %+.1f dB: detected %d/%d", point.SnrDb, point.Detected, point.Occasions)
		if progress != nil {
			progress(point)
		}
	}
	return nil
}

func (r *Runner) runPoint(snrIdx int, snrDb float64) SnrPoint {
	workers := r.workerCount()
	counts := make([]int, workers)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			model := channel.NewModel(r.cfg.Channel)
			for occ := w; occ < r.cfg.Occasions; occ += workers {
				if r.ctx.Err() != nil {
					return
				}
				if r.runOccasion(model, snrIdx, occ, snrDb) {
					counts[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	point := SnrPoint{SnrDb: snrDb, Occasions: r.cfg.Occasions}
	for _, c := range counts {
		point.Detected += c
	}
	return point
}

// runOccasion transmits one occasion and reports whether the detector found
// exactly the transmitted preamble with a time advance within tolerance.
func (r *Runner) runOccasion(model channel.Model, snrIdx, occasion int, snrDb float64) bool {
	index := prng.NewSource(prng.UnitSeed(prng.StreamPreamble, snrIdx, occasion)).
		Intn(types.MaxPreambleIndices)
	symbols, err := r.gen.Symbols(index)
	if err != nil {
		logger.Errorf("generating preamble %d: %v", index, err)
		return false
	}

	scsHz := r.cfg.Format.SubcarrierSpacingHz(r.cfg.SubcarrierSpacing)
	model.Reset(prng.UnitSeed(prng.StreamChannel, snrIdx, occasion))
	channel.Apply(symbols, model, scsHz)

	// Delays are drawn from [0, 0.9 taMax] so every transmission stays inside
	// the reportable range of its own cyclic shift window.
	delay := prng.NewSource(prng.UnitSeed(prng.StreamTiming, snrIdx, occasion)).
		Float64() * 0.9 * r.det.TimeAdvanceMax()
	channel.ApplyDelay(symbols, scsHz, delay)

	// Preambles have unit power per resource element, so the per-RE noise
	// variance at snrDb is its inverse linear value.
	noiseVar := types.DbToLinear(-snrDb)
	channel.AddNoise(symbols, noiseVar, prng.NewSource(prng.UnitSeed(prng.StreamNoise, snrIdx, occasion)))

	result, err := r.det.Detect(symbols)
	if err != nil {
		logger.Errorf("detecting occasion %d: %v", occasion, err)
		return false
	}
	if len(result.Preambles) != 1 {
		return false
	}
	det := result.Preambles[0]
	return det.PreambleIndex == index && math.Abs(det.TimeAdvance-delay) <= r.tolerance
}

// RunFalseAlarm feeds the detector the configured number of pure-noise
// occasions and accumulates the alarm counters into res.
func (r *Runner) RunFalseAlarm(res *Results) error {
	r.ctx.WaitAdd("simulation", 1)
	defer r.ctx.WaitDone("simulation")

	res.Seed = prng.RootSeed()
	if res.Config == nil {
		res.Config = r.cfg.FileConfig()
	}

	workers := r.workerCount()
	counts := make([]int, workers)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for occ := w; occ < r.cfg.Occasions; occ += workers {
				if r.ctx.Err() != nil {
					return
				}
				if r.runNoiseOccasion(occ) {
					counts[w]++
				}
			}
		}(w)
	}
	wg.Wait()
	if err := r.ctx.Err(); err != nil {
		return err
	}

	alarms := 0
	for _, c := range counts {
		alarms += c
	}
	res.AddNoiseRun(r.cfg.Occasions, alarms)
	logger.Infof("false alarm: %d/%d noise occasions raised a detection", alarms, r.cfg.Occasions)
	return nil
}

func (r *Runner) runNoiseOccasion(occasion int) bool {
	rows := make([][]complex128, r.gen.NumSymbols())
	for s := range rows {
		rows[s] = make([]complex128, r.gen.SequenceLength())
	}
	channel.AddNoise(rows, 1.0, prng.NewSource(prng.UnitSeed(prng.StreamNoise, noiseSnrIndex, occasion)))

	result, err := r.det.Detect(rows)
	if err != nil {
		logger.Errorf("detecting noise occasion %d: %v", occasion, err)
		return false
	}
	return len(result.Preambles) > 0
}
