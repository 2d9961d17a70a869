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

package vectors

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/channel"
	"github.com/openphy/nr-ls/chest"
	"github.com/openphy/nr-ls/grid"
	"github.com/openphy/nr-ls/prach"
	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/types"
)

const (
	SampleFileName   = "vectors.bin"
	ManifestFileName = "vectors.json"
)

// Generate synthesizes count estimator and count detector cases into dir and
// returns the manifest path. Cases vary DM-RS type, hopping, filtering, port
// count, preamble format and SNR; expected outputs are taken from running the
// estimator and detector on the synthesized inputs.
func Generate(dir string, count int) (string, error) {
	if count < 1 {
		return "", errors.Errorf("need at least one case, got %d", count)
	}

	samplePath := filepath.Join(dir, SampleFileName)
	manifestPath := filepath.Join(dir, ManifestFileName)

	sf, err := NewFile(samplePath)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = sf.Close()
	}()

	b := &caseBuilder{file: sf, count: count}
	m := &Manifest{
		FileTime:   time.Now().Format(time.RFC3339),
		Seed:       prng.RootSeed(),
		SampleFile: SampleFileName,
	}
	for i := 0; i < count; i++ {
		c, err := b.estimatorCase(i)
		if err != nil {
			return "", errors.Wrapf(err, "estimator case %d", i)
		}
		m.Estimator = append(m.Estimator, c)
	}
	for i := 0; i < count; i++ {
		c, err := b.detectorCase(i)
		if err != nil {
			return "", errors.Wrapf(err, "detector case %d", i)
		}
		m.Detector = append(m.Detector, c)
	}

	if err := sf.Sync(); err != nil {
		return "", err
	}
	if err := sf.Close(); err != nil {
		return "", err
	}
	if err := m.Save(manifestPath); err != nil {
		return "", err
	}
	return manifestPath, nil
}

type caseBuilder struct {
	file   File
	count  int
	nextId uint32
}

func (b *caseBuilder) write(samples []complex128) (uint32, error) {
	id := b.nextId
	b.nextId++
	return id, b.file.AppendBlock(id, samples)
}

func qpsk(src *rand.Rand) complex128 {
	return complex(float64(2*src.Intn(2)-1)/math.Sqrt2, float64(2*src.Intn(2)-1)/math.Sqrt2)
}

func (b *caseBuilder) estimatorCase(i int) (EstimatorCase, error) {
	const (
		gridPrbs   = 8
		numSc      = gridPrbs * types.NumScPerPrb
		slotLength = 14
	)
	mask := chest.REMaskType1
	if i%4 >= 2 {
		mask = chest.REMaskType2
	}
	hopping := i%3 == 0
	ports := []int{0}
	if i%2 == 1 {
		ports = []int{0, 1}
	}
	scaling := 1.0
	if i%5 == 0 {
		scaling = math.Sqrt2
	}
	snrDb := 10.0 + 5.0*float64(i%4)
	channelName := "awgn"
	if i%2 == 1 {
		channelName = "tdlc"
	}

	cfg := chest.Config{
		SubcarrierSpacing: types.Scs15,
		CyclicPrefix:      types.CpNormal,
		FirstSymbol:       2,
		NumSymbols:        12,
		Scaling:           scaling,
		UseFilter:         i%2 == 1,
		PilotsNoiseAvg:    2,
		Ports:             ports,
	}
	est, err := chest.NewEstimator(cfg)
	if err != nil {
		return EstimatorCase{}, err
	}

	var hop1, hop2 *chest.Pattern
	if hopping {
		hop1 = &chest.Pattern{
			Symbols:   chest.NewSymbolMask(2, 7),
			REMask:    mask,
			PRBs:      []int{0, 1, 2, 3},
			HopSymbol: 8,
		}
		hop2 = &chest.Pattern{
			Symbols:   chest.NewSymbolMask(11),
			REMask:    mask,
			PRBs:      []int{4, 5, 6, 7},
			HopSymbol: 8,
		}
	} else {
		hop1 = &chest.Pattern{
			Symbols:   chest.NewSymbolMask(2, 7, 11),
			REMask:    mask,
			PRBs:      []int{0, 1, 2, 3},
			HopSymbol: chest.NoHopping,
		}
	}

	src := prng.NewSource(prng.UnitSeed(prng.StreamVectors, 0, i))
	pilots := make([]complex128, 0, 3*hop1.PilotsPerSymbol())
	numPilots := hop1.Symbols.Count() * hop1.PilotsPerSymbol()
	if hop2 != nil {
		numPilots += hop2.Symbols.Count() * hop2.PilotsPerSymbol()
	}
	for k := 0; k < numPilots; k++ {
		pilots = append(pilots, qpsk(src))
	}

	// Place scaled pilots through a per-port channel realization plus noise.
	g := grid.New(numSc, slotLength, len(ports))
	noiseVar := scaling * scaling * types.DbToLinear(-snrDb)
	sigma := math.Sqrt(noiseVar / 2)
	for portIdx, port := range ports {
		model := channel.NewModel(channelName)
		model.Reset(prng.UnitSeed(prng.StreamChannel, i, portIdx))
		offset := 0
		for _, pat := range []*chest.Pattern{hop1, hop2} {
			if pat == nil {
				continue
			}
			scs := patternSubcarriers(pat)
			for _, sym := range pat.Symbols.Indices() {
				for _, sc := range scs {
					h := model.Response(sc, cfg.SubcarrierSpacing.Hz())
					n := complex(sigma*src.NormFloat64(), sigma*src.NormFloat64())
					g.Set(sc, sym, port, complex(scaling, 0)*pilots[offset]*h+n)
					offset++
				}
			}
		}
	}

	res, err := est.Estimate(g, pilots, hop1, hop2)
	if err != nil {
		return EstimatorCase{}, err
	}

	c := EstimatorCase{
		Name:              fmt.Sprintf("chest-%03d", i),
		SubcarrierSpacing: int(cfg.SubcarrierSpacing),
		CyclicPrefix:      cfg.CyclicPrefix.String(),
		FirstSymbol:       cfg.FirstSymbol,
		NumSymbols:        cfg.NumSymbols,
		Scaling:           cfg.Scaling,
		UseFilter:         cfg.UseFilter,
		PilotsNoiseAvg:    cfg.PilotsNoiseAvg,
		Ports:             ports,
		DmrsSymbols:       hop1.Symbols.Indices(),
		DmrsRes:           mask.Indices(),
		Prbs:              hop1.PRBs,
		HopSymbol:         hop1.HopSymbol,
		Channel:           channelName,
		SnrDb:             snrDb,
	}
	if hop2 != nil {
		c.DmrsSymbols2 = hop2.Symbols.Indices()
		c.Prbs2 = hop2.PRBs
	}

	for _, port := range ports {
		plane := make([]complex128, 0, numSc*slotLength)
		for sym := 0; sym < slotLength; sym++ {
			for sc := 0; sc < numSc; sc++ {
				plane = append(plane, g.At(sc, sym, port))
			}
		}
		id, err := b.write(plane)
		if err != nil {
			return EstimatorCase{}, err
		}
		c.GridBlocks = append(c.GridBlocks, id)
	}
	if c.PilotsBlock, err = b.write(pilots); err != nil {
		return EstimatorCase{}, err
	}
	for _, pr := range res.Ports {
		plane := make([]complex128, 0, numSc*slotLength)
		for sym := 0; sym < slotLength; sym++ {
			for sc := 0; sc < numSc; sc++ {
				plane = append(plane, pr.Estimate.At(sc, sym))
			}
		}
		id, err := b.write(plane)
		if err != nil {
			return EstimatorCase{}, err
		}
		c.EstimateBlocks = append(c.EstimateBlocks, id)
		c.PortMetrics = append(c.PortMetrics, CaseMetrics{
			NoiseVar:      pr.Metrics.NoiseVar,
			Rsrp:          pr.Metrics.Rsrp,
			Epre:          pr.Metrics.Epre,
			Sinr:          pr.Metrics.Sinr,
			TimeAlignment: pr.Metrics.TimeAlignment,
		})
	}
	c.Aggregate = AggregateMetrics{
		NoiseVar:      res.Aggregate.NoiseVar,
		Rsrp:          res.Aggregate.Rsrp,
		Epre:          res.Aggregate.Epre,
		TimeAlignment: res.Aggregate.TimeAlignment,
	}
	return c, nil
}

// patternSubcarriers lists the pilot subcarriers of one pilot symbol in the
// pilot serialization order: PRBs ascending, REs ascending within each PRB.
func patternSubcarriers(pat *chest.Pattern) []int {
	res := pat.REMask.Indices()
	out := make([]int, 0, len(pat.PRBs)*len(res))
	for _, prb := range pat.PRBs {
		for _, re := range res {
			out = append(out, prb*types.NumScPerPrb+re)
		}
	}
	return out
}

func (b *caseBuilder) detectorCase(i int) (DetectorCase, error) {
	formats := []types.PreambleFormat{
		types.Format0, types.Format1, types.Format3,
		types.FormatA1, types.FormatB4, types.FormatC0,
	}
	format := formats[i%len(formats)]
	scs := types.Scs15
	if i%2 == 1 {
		scs = types.Scs30
	}
	rootMod := types.LongSequenceLength - 1
	if !format.IsLong() {
		rootMod = types.ShortSequenceLength - 1
	}
	cfg := prach.Config{
		Format:              format,
		RootSequenceIndex:   (37 * i) % rootMod,
		ZeroCorrelationZone: 1 + i%10,
		SubcarrierSpacing:   scs,
	}
	gen, err := prach.NewGenerator(cfg)
	if err != nil {
		return DetectorCase{}, err
	}
	det, err := prach.NewDetector(cfg)
	if err != nil {
		return DetectorCase{}, err
	}

	preamble := (7*i + 13) % types.MaxPreambleIndices
	delay := float64(i%3) * 0.4 * det.TimeAdvanceMax()
	snrDb := []float64{0, 10, 20}[i%3]
	channelName := "awgn"
	if i%4 == 3 {
		channelName = "tdlc"
	}
	scsRa := format.SubcarrierSpacingHz(scs)

	rows, err := gen.Symbols(preamble)
	if err != nil {
		return DetectorCase{}, err
	}
	model := channel.NewModel(channelName)
	model.Reset(prng.UnitSeed(prng.StreamChannel, b.count+i, 0))
	channel.Apply(rows, model, scsRa)
	channel.ApplyDelay(rows, scsRa, delay)
	src := prng.NewSource(prng.UnitSeed(prng.StreamVectors, 1, i))
	channel.AddNoise(rows, types.DbToLinear(-snrDb), src)

	res, err := det.Detect(rows)
	if err != nil {
		return DetectorCase{}, err
	}

	c := DetectorCase{
		Name:              fmt.Sprintf("prach-%s-%03d", format, i),
		Format:            format.String(),
		RootSequenceIndex: cfg.RootSequenceIndex,
		ZeroCorrZone:      cfg.ZeroCorrelationZone,
		Threshold:         det.Threshold(),
		PreambleIndex:     preamble,
		DelayUs:           delay * 1e6,
		Channel:           channelName,
		SnrDb:             snrDb,
		RssiDb:            res.RssiDb,
		TimeResolution:    res.TimeResolution,
		TimeAdvanceMax:    res.TimeAdvanceMax,
	}
	if !format.IsLong() {
		c.SubcarrierSpacing = int(scs)
	}
	for _, row := range rows {
		id, err := b.write(row)
		if err != nil {
			return DetectorCase{}, err
		}
		c.SymbolBlocks = append(c.SymbolBlocks, id)
	}
	for _, p := range res.Preambles {
		c.Detections = append(c.Detections, DetectionRecord{
			PreambleIndex: p.PreambleIndex,
			TimeAdvance:   p.TimeAdvance,
			Metric:        p.Metric,
			PowerDb:       p.PowerDb,
			SnrDb:         p.SnrDb,
		})
	}
	return c, nil
}
