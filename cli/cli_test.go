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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openphy/nr-ls/prng"
	"github.com/openphy/nr-ls/progctx"
	"github.com/openphy/nr-ls/types"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := parseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	assert.True(t, parseBytes([]byte("format"), &cmd) == nil && cmd.Format != nil && cmd.Format.Name == "")
	assert.True(t, parseBytes([]byte("format 0"), &cmd) == nil && cmd.Format.Name == "0")
	assert.True(t, parseBytes([]byte("format A1"), &cmd) == nil && cmd.Format.Name == "A1")
	assert.True(t, parseBytes([]byte("format B4"), &cmd) == nil && cmd.Format.Name == "B4")

	assert.True(t, parseBytes([]byte("root"), &cmd) == nil && cmd.Root != nil && cmd.Root.Val == nil)
	assert.True(t, parseBytes([]byte("root 822"), &cmd) == nil && *cmd.Root.Val == 822)

	assert.True(t, parseBytes([]byte("zcz"), &cmd) == nil && cmd.Zcz != nil && cmd.Zcz.Val == nil)
	assert.True(t, parseBytes([]byte("zcz 5"), &cmd) == nil && *cmd.Zcz.Val == 5)

	assert.True(t, parseBytes([]byte("scs"), &cmd) == nil && cmd.Scs != nil && cmd.Scs.Val == nil)
	assert.True(t, parseBytes([]byte("scs 30"), &cmd) == nil && *cmd.Scs.Val == 30)

	assert.True(t, parseBytes([]byte("occasions"), &cmd) == nil && cmd.Occasions != nil && cmd.Occasions.Val == nil)
	assert.True(t, parseBytes([]byte("occasions 1000"), &cmd) == nil && *cmd.Occasions.Val == 1000)

	assert.True(t, parseBytes([]byte("seed"), &cmd) == nil && cmd.Seed != nil && cmd.Seed.Val == nil)
	assert.True(t, parseBytes([]byte("seed 12345"), &cmd) == nil && *cmd.Seed.Val == 12345)

	assert.True(t, parseBytes([]byte("threshold"), &cmd) == nil && cmd.Threshold != nil && cmd.Threshold.Val == nil)
	assert.True(t, parseBytes([]byte("threshold 12.5"), &cmd) == nil && cmd.Threshold.Val.Value() == 12.5)
	// a negative threshold parses, the executor rejects it.
	assert.True(t, parseBytes([]byte("threshold -1"), &cmd) == nil && cmd.Threshold.Val.Value() == -1.0)

	assert.True(t, parseBytes([]byte("channel"), &cmd) == nil && cmd.Channel != nil && cmd.Channel.Name == "")
	assert.True(t, parseBytes([]byte("channel tdlc"), &cmd) == nil && cmd.Channel.Name == "tdlc")

	assert.True(t, parseBytes([]byte("snr"), &cmd) == nil && cmd.Snr != nil && cmd.Snr.Min == nil)
	assert.True(t, parseBytes([]byte("snr -20 10 2"), &cmd) == nil && cmd.Snr.Min.Value() == -20.0 &&
		cmd.Snr.Max.Value() == 10.0 && cmd.Snr.Step.Value() == 2.0)
	assert.True(t, parseBytes([]byte("snr 0 0 1"), &cmd) == nil && cmd.Snr.Min.Value() == 0.0)
	assert.True(t, parseBytes([]byte("snr -20"), &cmd) != nil) // a sweep needs all three values.

	assert.True(t, parseBytes([]byte("run"), &cmd) == nil && cmd.Run != nil)
	assert.True(t, parseBytes([]byte("falsealarm"), &cmd) == nil && cmd.FalseAlarm != nil)
	assert.True(t, parseBytes([]byte("results"), &cmd) == nil && cmd.Results != nil)
	assert.True(t, parseBytes([]byte("clear"), &cmd) == nil && cmd.Clear != nil)
	assert.True(t, parseBytes([]byte("config"), &cmd) == nil && cmd.Config != nil)
	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	assert.True(t, parseBytes([]byte("save"), &cmd) == nil && cmd.Save != nil && cmd.Save.Config == nil && cmd.Save.File == "")
	assert.True(t, parseBytes([]byte("save \"out.json\""), &cmd) == nil && cmd.Save.File == "out.json")
	assert.True(t, parseBytes([]byte("save config"), &cmd) == nil && cmd.Save.Config != nil && cmd.Save.File == "")
	assert.True(t, parseBytes([]byte("save config \"c.yaml\""), &cmd) == nil && cmd.Save.Config != nil && cmd.Save.File == "c.yaml")
	assert.True(t, parseBytes([]byte("load"), &cmd) == nil && cmd.Load != nil && cmd.Load.Config == nil && cmd.Load.File == "")
	assert.True(t, parseBytes([]byte("load config \"c.yaml\""), &cmd) == nil && cmd.Load.Config != nil && cmd.Load.File == "c.yaml")

	assert.True(t, parseBytes([]byte("vectors"), &cmd) == nil && cmd.Vectors != nil && cmd.Vectors.Dir == "" && cmd.Vectors.Count == nil)
	assert.True(t, parseBytes([]byte("vectors \"out\" 4"), &cmd) == nil && cmd.Vectors.Dir == "out" && *cmd.Vectors.Count == 4)

	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil && cmd.LogLevel.Level == "")
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel.Level == "debug")
	assert.True(t, parseBytes([]byte("log info"), &cmd) == nil && cmd.LogLevel.Level == "info")
	assert.True(t, parseBytes([]byte("log warn"), &cmd) == nil && cmd.LogLevel.Level == "warn")
	assert.True(t, parseBytes([]byte("log error"), &cmd) == nil && cmd.LogLevel.Level == "error")
	assert.True(t, parseBytes([]byte("log fatal"), &cmd) != nil) // not supported.

	assert.True(t, parseBytes([]byte("estimate"), &cmd) == nil && cmd.Estimate != nil &&
		cmd.Estimate.Snr == nil && cmd.Estimate.Ports == nil)
	assert.True(t, parseBytes([]byte("estimate snr -10 ports 2"), &cmd) == nil &&
		cmd.Estimate.Snr.Value() == -10.0 && *cmd.Estimate.Ports == 2)
	assert.True(t, parseBytes([]byte("estimate ports 4"), &cmd) == nil && cmd.Estimate.Snr == nil &&
		*cmd.Estimate.Ports == 4)

	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil && cmd.Help.HelpTopic == "")
	assert.True(t, parseBytes([]byte("help run"), &cmd) == nil && cmd.Help.HelpTopic == "run")
}

func TestRunCommand(t *testing.T) {
	defer prng.Init(0)

	ctx := progctx.New(context.Background())
	rt := NewCmdRunner(ctx, nil)
	var out strings.Builder

	require.NoError(t, rt.RunCommand("format A1", &out))
	assert.Equal(t, types.FormatA1, rt.Config().Format)
	assert.Contains(t, out.String(), "Done")

	out.Reset()
	require.NoError(t, rt.RunCommand("format X9", &out))
	assert.Contains(t, out.String(), "Error:")
	assert.Equal(t, types.FormatA1, rt.Config().Format)

	require.NoError(t, rt.RunCommand("format 0", &out))
	require.NoError(t, rt.RunCommand("scs 30", &out))
	assert.Equal(t, types.Scs30, rt.Config().SubcarrierSpacing)
	require.NoError(t, rt.RunCommand("channel tdlb", &out))
	assert.Equal(t, "tdlb", rt.Config().Channel)
	require.NoError(t, rt.RunCommand("channel awgn", &out))

	out.Reset()
	require.NoError(t, rt.RunCommand("channel epa", &out))
	assert.Contains(t, out.String(), "Error:")
	assert.Equal(t, "awgn", rt.Config().Channel)

	require.NoError(t, rt.RunCommand("snr 0 10 5", &out))
	assert.Equal(t, []float64{0, 5, 10}, rt.Config().SnrDb)
	out.Reset()
	require.NoError(t, rt.RunCommand("snr 10 0 5", &out))
	assert.Contains(t, out.String(), "Error:")

	require.NoError(t, rt.RunCommand("seed 424242", &out))
	assert.Equal(t, int64(424242), prng.RootSeed())

	out.Reset()
	require.NoError(t, rt.RunCommand("config", &out))
	assert.Contains(t, out.String(), "format:")
	assert.Contains(t, out.String(), "channel: awgn")

	// A small campaign end to end.
	require.NoError(t, rt.RunCommand("occasions 4", &out))
	require.NoError(t, rt.RunCommand("snr 20 20 1", &out))
	out.Reset()
	require.NoError(t, rt.RunCommand("run", &out))
	assert.Contains(t, out.String(), "detected")
	require.Len(t, rt.Results().Points, 1)
	point := rt.Results().Points[0]
	assert.Equal(t, 20.0, point.SnrDb)
	assert.Equal(t, 4, point.Occasions)
	assert.Equal(t, 4, point.Detected)

	out.Reset()
	require.NoError(t, rt.RunCommand("results", &out))
	assert.Contains(t, out.String(), "snr_db: 20")

	require.NoError(t, rt.RunCommand("save \"test_cli_results.json\"", &out))
	require.NoError(t, rt.RunCommand("clear", &out))
	assert.Empty(t, rt.Results().Points)
	require.NoError(t, rt.RunCommand("load \"test_cli_results.json\"", &out))
	require.Len(t, rt.Results().Points, 1)
	assert.Equal(t, 4, rt.Results().Points[0].Detected)

	out.Reset()
	require.NoError(t, rt.RunCommand("estimate snr 30", &out))
	assert.Contains(t, out.String(), "port: 0")

	out.Reset()
	require.NoError(t, rt.RunCommand("help", &out))
	assert.Contains(t, out.String(), "run")

	// exit cancels the program context and ends the command loop.
	require.Error(t, rt.RunCommand("exit", &out))
	assert.Error(t, ctx.Err())
}

type mockCliHandler struct {
	expectedCmd string
	handleError error
	handleCount int
	t           *testing.T
}

func (hnd *mockCliHandler) HandleCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return "> "
}

func TestCliStartStop(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "help",
		handleError: nil,
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "help\n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	Cli.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandNotDefined(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "xyz",
		handleError: fmt.Errorf("undefined command"),
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "xyz\n") // unknown command triggers handle-error, which causes CLI exit.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	Cli.Stop() // calling Stop() after CLI has already exited.
}
