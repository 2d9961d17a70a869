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

package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/openphy/nr-ls/logger"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openphy/nr-ls/channel"
	"github.com/openphy/nr-ls/chest"
	"github.com/openphy/nr-ls/grid"
	"github.com/openphy/nr-ls/prach"
	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/progctx"
	"github.com/openphy/nr-ls/simulation"
	"github.com/openphy/nr-ls/types"
	"github.com/openphy/nr-ls/vectors"
)

const (
	Prompt = "> "

	defaultConfigFile  = "campaign.yaml"
	defaultResultsFile = "results.json"
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner executes console commands against one campaign configuration
// and its accumulated results.
type CmdRunner struct {
	ctx  *progctx.ProgCtx
	cfg  *simulation.Config
	res  *simulation.Results
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, cfg *simulation.Config) *CmdRunner {
	if cfg == nil {
		cfg = simulation.DefaultConfig()
	}
	cr := &CmdRunner{
		ctx:  ctx,
		cfg:  cfg,
		res:  simulation.NewResults(),
		help: newHelp(),
	}
	return cr
}

// Config returns the campaign configuration the runner operates on.
func (rt *CmdRunner) Config() *simulation.Config {
	return rt.cfg
}

// Results returns the results accumulated so far.
func (rt *CmdRunner) Results() *simulation.Results {
	return rt.res
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Format != nil {
		rt.executeFormat(cc, cmd.Format)
	} else if cmd.Root != nil {
		rt.executeRoot(cc, cmd.Root)
	} else if cmd.Zcz != nil {
		rt.executeZcz(cc, cmd.Zcz)
	} else if cmd.Scs != nil {
		rt.executeScs(cc, cmd.Scs)
	} else if cmd.Occasions != nil {
		rt.executeOccasions(cc, cmd.Occasions)
	} else if cmd.Snr != nil {
		rt.executeSnr(cc, cmd.Snr)
	} else if cmd.Threshold != nil {
		rt.executeThreshold(cc, cmd.Threshold)
	} else if cmd.Channel != nil {
		rt.executeChannel(cc, cmd.Channel)
	} else if cmd.Seed != nil {
		rt.executeSeed(cc, cmd.Seed)
	} else if cmd.Config != nil {
		rt.executeConfig(cc)
	} else if cmd.Run != nil {
		rt.executeRun(cc)
	} else if cmd.FalseAlarm != nil {
		rt.executeFalseAlarm(cc)
	} else if cmd.Results != nil {
		rt.executeResults(cc)
	} else if cmd.Clear != nil {
		rt.executeClear(cc)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.Vectors != nil {
		rt.executeVectors(cc, cmd.Vectors)
	} else if cmd.Estimate != nil {
		rt.executeEstimate(cc, cmd.Estimate)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) executeFormat(cc *CommandContext, cmd *FormatCmd) {
	if cmd.Name == "" {
		cc.outputf("%v\n", rt.cfg.Format)
		return
	}
	f := types.ParsePreambleFormat(cmd.Name)
	if !f.Valid() {
		cc.errorf("unknown preamble format '%v'", cmd.Name)
		return
	}
	rt.cfg.Format = f
}

func (rt *CmdRunner) executeRoot(cc *CommandContext, cmd *RootCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", rt.cfg.RootSequenceIndex)
		return
	}
	rt.cfg.RootSequenceIndex = *cmd.Val
}

func (rt *CmdRunner) executeZcz(cc *CommandContext, cmd *ZczCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", rt.cfg.ZeroCorrelationZone)
		return
	}
	rt.cfg.ZeroCorrelationZone = *cmd.Val
}

func (rt *CmdRunner) executeScs(cc *CommandContext, cmd *ScsCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", rt.cfg.SubcarrierSpacing)
		return
	}
	scs := types.ParseSubcarrierSpacing(*cmd.Val)
	if !scs.Valid() {
		cc.errorf("unsupported subcarrier spacing %d kHz", *cmd.Val)
		return
	}
	rt.cfg.SubcarrierSpacing = scs
}

func (rt *CmdRunner) executeOccasions(cc *CommandContext, cmd *OccasionsCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", rt.cfg.Occasions)
		return
	}
	if *cmd.Val < 1 {
		cc.errorf("occasions must be at least 1")
		return
	}
	rt.cfg.Occasions = *cmd.Val
}

func (rt *CmdRunner) executeSnr(cc *CommandContext, cmd *SnrCmd) {
	if cmd.Min == nil {
		cc.outputItemsAsYaml(rt.cfg.SnrDb)
		return
	}
	axis := simulation.SnrRange(cmd.Min.Value(), cmd.Max.Value(), cmd.Step.Value())
	if axis == nil {
		cc.errorf("invalid snr sweep %v:%v:%v", cmd.Min.Value(), cmd.Step.Value(), cmd.Max.Value())
		return
	}
	rt.cfg.SnrDb = axis
}

func (rt *CmdRunner) executeThreshold(cc *CommandContext, cmd *ThresholdCmd) {
	if cmd.Val == nil {
		th := rt.cfg.Threshold
		if th == 0 {
			th = prach.DefaultThreshold
		}
		cc.outputf("%v\n", th)
		return
	}
	v := cmd.Val.Value()
	if v <= 0 {
		cc.errorf("threshold must be positive")
		return
	}
	rt.cfg.Threshold = v
}

func (rt *CmdRunner) executeChannel(cc *CommandContext, cmd *ChannelCmd) {
	if cmd.Name == "" {
		cc.outputf("%v\n", rt.cfg.Channel)
		return
	}
	if model := channel.NewModel(cmd.Name); model == nil {
		cc.errorf("channel model '%v' is not defined", cmd.Name)
		return
	}
	rt.cfg.Channel = cmd.Name
}

func (rt *CmdRunner) executeSeed(cc *CommandContext, cmd *SeedCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", prng.RootSeed())
		return
	}
	rt.cfg.Seed = int64(*cmd.Val)
	prng.Init(rt.cfg.Seed)
}

func (rt *CmdRunner) executeConfig(cc *CommandContext) {
	data, err := yaml.Marshal(rt.cfg.FileConfig())
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(string(data))
}

func (rt *CmdRunner) executeRun(cc *CommandContext) {
	runner, err := simulation.NewRunner(rt.ctx, rt.cfg)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(runner.Run(rt.res, func(p simulation.SnrPoint) {
		cc.outputf("snr %+6.1f dB: %d/%d detected (p=%.3f)\n",
			p.SnrDb, p.Detected, p.Occasions, p.Probability())
	}))
}

func (rt *CmdRunner) executeFalseAlarm(cc *CommandContext) {
	runner, err := simulation.NewRunner(rt.ctx, rt.cfg)
	if err != nil {
		cc.error(err)
		return
	}
	if err := runner.RunFalseAlarm(rt.res); err != nil {
		cc.error(err)
		return
	}
	cc.outputf("false alarm rate %.4f (%d/%d noise occasions)\n",
		rt.res.FalseAlarmRate(), rt.res.NoiseAlarms, rt.res.NoiseOccasions)
}

func (rt *CmdRunner) executeResults(cc *CommandContext) {
	type row struct {
		SnrDb       float64 `yaml:"snr_db"`
		Detected    int     `yaml:"detected"`
		Occasions   int     `yaml:"occasions"`
		Probability float64 `yaml:"probability"`
	}
	rows := make([]row, 0, len(rt.res.Points))
	for _, p := range rt.res.Points {
		rows = append(rows, row{p.SnrDb, p.Detected, p.Occasions, p.Probability()})
	}
	if len(rows) > 0 {
		cc.outputItemsAsYaml(rows)
	}
	if rt.res.NoiseOccasions > 0 {
		cc.outputf("false alarm rate %.4f (%d/%d noise occasions)\n",
			rt.res.FalseAlarmRate(), rt.res.NoiseAlarms, rt.res.NoiseOccasions)
	}
}

func (rt *CmdRunner) executeClear(cc *CommandContext) {
	rt.res.Clear()
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	file := cmd.File
	if cmd.Config != nil {
		if file == "" {
			file = defaultConfigFile
		}
		cc.error(rt.cfg.SaveConfigFile(file))
		return
	}
	if file == "" {
		file = defaultResultsFile
	}
	cc.error(rt.res.Save(file))
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	file := cmd.File
	if cmd.Config != nil {
		if file == "" {
			file = defaultConfigFile
		}
		cfg, err := simulation.LoadConfigFile(file)
		if err != nil {
			cc.error(err)
			return
		}
		*rt.cfg = *cfg
		return
	}
	if file == "" {
		file = defaultResultsFile
	}
	res, err := simulation.LoadResults(file)
	if err != nil {
		cc.error(err)
		return
	}
	*rt.res = *res
}

func (rt *CmdRunner) executeVectors(cc *CommandContext, cmd *VectorsCmd) {
	dir := cmd.Dir
	if dir == "" {
		dir = "."
	}
	count := 8
	if cmd.Count != nil {
		count = *cmd.Count
	}
	manifest, err := vectors.Generate(dir, count)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("%s\n", manifest)
}

func qpsk(src *rand.Rand) complex128 {
	return complex(float64(2*src.Intn(2)-1)/math.Sqrt2, float64(2*src.Intn(2)-1)/math.Sqrt2)
}

// executeEstimate runs the channel estimator once over a synthetic slot, on
// the configured channel model at the requested SNR, and prints the
// estimator measurements per receive port.
func (rt *CmdRunner) executeEstimate(cc *CommandContext, cmd *EstimateCmd) {
	snrDb := 20.0
	if cmd.Snr != nil {
		snrDb = cmd.Snr.Value()
	}
	numPorts := 1
	if cmd.Ports != nil {
		numPorts = *cmd.Ports
	}
	if numPorts < 1 {
		cc.errorf("ports must be at least 1")
		return
	}
	ports := make([]int, numPorts)
	for i := range ports {
		ports[i] = i
	}

	cfg := chest.Config{
		SubcarrierSpacing: types.Scs15,
		CyclicPrefix:      types.CpNormal,
		FirstSymbol:       2,
		NumSymbols:        12,
		Scaling:           1,
		PilotsNoiseAvg:    2,
		Ports:             ports,
	}
	est, err := chest.NewEstimator(cfg)
	if err != nil {
		cc.error(err)
		return
	}
	hop1 := &chest.Pattern{
		Symbols:   chest.NewSymbolMask(2, 7),
		REMask:    chest.REMaskType1,
		PRBs:      []int{0, 1, 2, 3},
		HopSymbol: 8,
	}
	hop2 := &chest.Pattern{
		Symbols:   chest.NewSymbolMask(11),
		REMask:    chest.REMaskType1,
		PRBs:      []int{4, 5, 6, 7},
		HopSymbol: 8,
	}

	numPilots := hop1.Symbols.Count()*hop1.PilotsPerSymbol() +
		hop2.Symbols.Count()*hop2.PilotsPerSymbol()
	src := prng.NewSource(prng.StreamSeed(prng.StreamPilots))
	pilots := make([]complex128, 0, numPilots)
	for k := 0; k < numPilots; k++ {
		pilots = append(pilots, qpsk(src))
	}

	const numSc = 8 * types.NumScPerPrb
	const slotLength = 14
	g := grid.New(numSc, slotLength, numPorts)
	sigma := math.Sqrt(types.DbToLinear(-snrDb) / 2)
	scsHz := cfg.SubcarrierSpacing.Hz()
	for portIdx, port := range ports {
		model := channel.NewModel(rt.cfg.Channel)
		model.Reset(prng.UnitSeed(prng.StreamChannel, 0, portIdx))
		offset := 0
		for _, pat := range []*chest.Pattern{hop1, hop2} {
			for _, sym := range pat.Symbols.Indices() {
				for _, prb := range pat.PRBs {
					for _, re := range pat.REMask.Indices() {
						sc := prb*types.NumScPerPrb + re
						h := model.Response(sc, scsHz)
						n := complex(sigma*src.NormFloat64(), sigma*src.NormFloat64())
						g.Set(sc, sym, port, pilots[offset]*h+n)
						offset++
					}
				}
			}
		}
	}

	res, err := est.Estimate(g, pilots, hop1, hop2)
	if err != nil {
		cc.error(err)
		return
	}
	type row struct {
		Port            int     `yaml:"port"`
		NoiseVar        float64 `yaml:"noise_var"`
		Rsrp            float64 `yaml:"rsrp"`
		Epre            float64 `yaml:"epre"`
		SinrDb          float64 `yaml:"sinr_db"`
		TimeAlignmentUs float64 `yaml:"time_alignment_us"`
	}
	rows := make([]row, 0, len(res.Ports))
	for _, pr := range res.Ports {
		rows = append(rows, row{
			Port:            pr.Port,
			NoiseVar:        pr.Metrics.NoiseVar,
			Rsrp:            pr.Metrics.Rsrp,
			Epre:            pr.Metrics.Epre,
			SinrDb:          types.LinearToDb(pr.Metrics.Sinr),
			TimeAlignmentUs: pr.Metrics.TimeAlignment * 1e6,
		})
	}
	cc.outputItemsAsYaml(rows)
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext) {
	rt.ctx.Cancel("exit")
}
