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

package logger

import (
	"github.com/pkg/errors"
)

// levelNames holds the canonical name of each settable level.
var levelNames = map[Level]string{
	TraceLevel: "trace",
	DebugLevel: "debug",
	InfoLevel:  "info",
	NoteLevel:  "note",
	WarnLevel:  "warn",
	ErrorLevel: "crit",
	OffLevel:   "off",
}

// levelAliases maps every accepted spelling, including the single-letter
// forms used on the console, to its level.
var levelAliases = map[string]Level{
	"trace": TraceLevel, "T": TraceLevel,
	"debug": DebugLevel, "D": DebugLevel,
	"info": InfoLevel, "I": InfoLevel,
	"note": NoteLevel, "N": NoteLevel,
	"warn": WarnLevel, "warning": WarnLevel, "W": WarnLevel,
	"crit": ErrorLevel, "critical": ErrorLevel, "error": ErrorLevel,
	"err": ErrorLevel, "C": ErrorLevel, "E": ErrorLevel,
	"off": OffLevel, "none": OffLevel,
	"default": DefaultLevel, "def": DefaultLevel,
}

// ParseLevelString converts a level name from the command line to a Level.
func ParseLevelString(level string) (Level, error) {
	if lv, ok := levelAliases[level]; ok {
		return lv, nil
	}
	return DefaultLevel, errors.Errorf("invalid log level string: %s", level)
}

// GetLevelString returns the canonical name of the level.
func GetLevelString(level Level) string {
	name, ok := levelNames[level]
	if !ok {
		Panicf("Unknown Level: %d", level)
	}
	return name
}
