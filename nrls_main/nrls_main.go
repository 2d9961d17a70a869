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

// Package nrls_main is the shared entry point of the nr-ls binaries. It parses
// the command line, prepares the campaign configuration and either starts the
// interactive console or runs a single batch campaign.
package nrls_main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/cli"
	"github.com/openphy/nr-ls/logger"
	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/progctx"
	"github.com/openphy/nr-ls/simulation"
)

type MainArgs struct {
	ConfigFile  string
	ResultsFile string
	OutFile     string
	LogLevel    string
	Seed        int64
	Batch       bool
	FalseAlarm  bool
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.ConfigFile, "config", "", "load a campaign configuration file (YAML)")
	flag.StringVar(&args.ResultsFile, "results", "", "load previously saved results, to resume an earlier campaign")
	flag.StringVar(&args.OutFile, "out", "results.json", "results file written by batch runs")
	flag.StringVar(&args.LogLevel, "log", "warn", "set logging level: trace, debug, info, note, warn, error.")
	flag.Int64Var(&args.Seed, "seed", 0, "set the root random seed (0 draws one from the clock)")
	flag.BoolVar(&args.Batch, "batch", false, "run the configured campaign and exit, without the interactive console")
	flag.BoolVar(&args.FalseAlarm, "falsealarm", false, "also measure the noise-only false alarm rate in a batch run")

	flag.Parse()
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) {
	parseArgs()
	lv, err := logger.ParseLevelString(args.LogLevel)
	logger.FatalIfError(err)
	logger.SetLevel(lv)

	cfg := createCampaign()
	prng.Init(cfg.Seed)

	// run console in the main goroutine
	ctx.Defer(func() {
		_ = os.Stdin.Close()
	})

	handleSignals(ctx)

	rt := cli.NewCmdRunner(ctx, cfg)
	if args.ResultsFile != "" {
		res, err := simulation.LoadResults(args.ResultsFile)
		logger.FatalIfError(err)
		*rt.Results() = *res
	}

	if args.Batch {
		logger.FatalIfError(runBatch(ctx, rt))
		ctx.Cancel(nil)
		ctx.Wait()
		return
	}

	err = cli.Cli.Run(rt, cliOptions)
	ctx.Cancel(errors.Wrapf(err, "console exit"))

	logger.Debugf("waiting for nr-ls to stop gracefully ...")
	ctx.Wait()
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func createCampaign() *simulation.Config {
	var cfg *simulation.Config
	var err error

	if args.ConfigFile != "" {
		cfg, err = simulation.LoadConfigFile(args.ConfigFile)
		logger.FatalIfError(err)
	} else {
		cfg = simulation.DefaultConfig()
	}
	if args.Seed != 0 {
		cfg.Seed = args.Seed
	}
	return cfg
}

func runBatch(ctx *progctx.ProgCtx, rt *cli.CmdRunner) error {
	runner, err := simulation.NewRunner(ctx, rt.Config())
	if err != nil {
		return err
	}

	res := rt.Results()
	err = runner.Run(res, func(p simulation.SnrPoint) {
		logger.Infof("snr %+6.1f dB: %d/%d detected", p.SnrDb, p.Detected, p.Occasions)
	})
	if err != nil {
		return err
	}
	if args.FalseAlarm {
		if err = runner.RunFalseAlarm(res); err != nil {
			return err
		}
		logger.Infof("false alarm rate %.4f (%d/%d noise occasions)",
			res.FalseAlarmRate(), res.NoiseAlarms, res.NoiseOccasions)
	}
	return res.Save(args.OutFile)
}
