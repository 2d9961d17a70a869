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
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Channel    *ChannelCmd    `  @@` //nolint
	Clear      *ClearCmd      `| @@` //nolint
	Config     *ConfigCmd     `| @@` //nolint
	Estimate   *EstimateCmd   `| @@` //nolint
	Exit       *ExitCmd       `| @@` //nolint
	FalseAlarm *FalseAlarmCmd `| @@` //nolint
	Format     *FormatCmd     `| @@` //nolint
	Help       *HelpCmd       `| @@` //nolint
	Load       *LoadCmd       `| @@` //nolint
	LogLevel   *LogLevelCmd   `| @@` //nolint
	Occasions  *OccasionsCmd  `| @@` //nolint
	Results    *ResultsCmd    `| @@` //nolint
	Root       *RootCmd       `| @@` //nolint
	Run        *RunCmd        `| @@` //nolint
	Save       *SaveCmd       `| @@` //nolint
	Scs        *ScsCmd        `| @@` //nolint
	Seed       *SeedCmd       `| @@` //nolint
	Snr        *SnrCmd        `| @@` //nolint
	Threshold  *ThresholdCmd  `| @@` //nolint
	Vectors    *VectorsCmd    `| @@` //nolint
	Zcz        *ZczCmd        `| @@` //nolint
}

// SignedValue is a numeric argument with an optional sign. The lexer emits
// the minus as a separate token, so it has to be captured explicitly.
//
// noinspection GoStructTag
type SignedValue struct {
	Sign string  `[ @("-"|"+") ]` //nolint
	Val  float64 `(@Int|@Float)`  //nolint
}

func (sv *SignedValue) Value() float64 {
	if sv.Sign == "-" {
		return -sv.Val
	}
	return sv.Val
}

// noinspection GoStructTag
type ChannelCmd struct {
	Cmd  struct{} `"channel"`  //nolint
	Name string   `[ @Ident ]` //nolint
}

// noinspection GoStructTag
type ClearCmd struct {
	Cmd struct{} `"clear"` //nolint
}

// noinspection GoStructTag
type ConfigCmd struct {
	Cmd struct{} `"config"` //nolint
}

// noinspection GoStructTag
type EstimateCmd struct {
	Cmd   struct{}     `"estimate"`        //nolint
	Snr   *SignedValue `( "snr" @@`        //nolint
	Ports *int         `| "ports" @Int )*` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type FalseAlarmCmd struct {
	Cmd struct{} `"falsealarm"` //nolint
}

// noinspection GoStructTag
type FormatCmd struct {
	Cmd  struct{} `"format"`          //nolint
	Name string   `[ (@Ident|@Int) ]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type ConfigFlag struct {
	Dummy struct{} `"config"` //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd    struct{}    `"load"`      //nolint
	Config *ConfigFlag `[ @@ ]`      //nolint
	File   string      `[ @String ]` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                 //nolint
	Level string   `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"C"|"E" )]` //nolint
}

// noinspection GoStructTag
type OccasionsCmd struct {
	Cmd struct{} `"occasions"` //nolint
	Val *int     `[ @Int ]`    //nolint
}

// noinspection GoStructTag
type ResultsCmd struct {
	Cmd struct{} `"results"` //nolint
}

// noinspection GoStructTag
type RootCmd struct {
	Cmd struct{} `"root"`   //nolint
	Val *int     `[ @Int ]` //nolint
}

// noinspection GoStructTag
type RunCmd struct {
	Cmd struct{} `"run"` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd    struct{}    `"save"`      //nolint
	Config *ConfigFlag `[ @@ ]`      //nolint
	File   string      `[ @String ]` //nolint
}

// noinspection GoStructTag
type ScsCmd struct {
	Cmd struct{} `"scs"`    //nolint
	Val *int     `[ @Int ]` //nolint
}

// noinspection GoStructTag
type SeedCmd struct {
	Cmd struct{} `"seed"`   //nolint
	Val *int     `[ @Int ]` //nolint
}

// noinspection GoStructTag
type SnrCmd struct {
	Cmd  struct{}     `"snr"` //nolint
	Min  *SignedValue `[ @@`  //nolint
	Max  *SignedValue `@@`    //nolint
	Step *SignedValue `@@ ]`  //nolint
}

// noinspection GoStructTag
type ThresholdCmd struct {
	Cmd struct{}     `"threshold"` //nolint
	Val *SignedValue `[ @@ ]`      //nolint
}

// noinspection GoStructTag
type VectorsCmd struct {
	Cmd   struct{} `"vectors"`   //nolint
	Dir   string   `[ @String ]` //nolint
	Count *int     `[ @Int ]`    //nolint
}

// noinspection GoStructTag
type ZczCmd struct {
	Cmd struct{} `"zcz"`    //nolint
	Val *int     `[ @Int ]` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
