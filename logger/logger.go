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

// Package logger provides the leveled logging of the campaign harness, backed
// by zap. Log lines go to stderr; when stdout is a terminal the current
// console line is cleared first and a registered callback can redraw the
// prompt afterwards.
package logger

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the log level of the harness as a whole.
type Level int8

const (
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	NoteLevel    Level = 3
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel
)

// StdoutCallback is notified after a log line has been written while stdout
// is a terminal, so an interactive console can restore its prompt.
type StdoutCallback interface {
	OnStdout()
}

var (
	zl           *zap.Logger
	currentLevel = DefaultLevel
	onTerminal   bool
	cbStdout     StdoutCallback
)

func init() {
	if st, err := os.Stdout.Stat(); err == nil {
		onTerminal = (st.Mode() & os.ModeCharDevice) == os.ModeCharDevice
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	zl = zap.New(core)
}

// SetLevel sets the level below which log lines are discarded. Panic and
// fatal messages are always written.
func SetLevel(lv Level) {
	currentLevel = lv
}

// GetLevel returns the current log level.
func GetLevel() Level {
	return currentLevel
}

// SetStdoutCallback registers the callback called after terminal log output;
// nil unregisters it.
func SetStdoutCallback(cb StdoutCallback) {
	cbStdout = cb
}

// TraceError logs the current stack followed by the error itself.
func TraceError(format string, args ...interface{}) {
	logf(ErrorLevel, "%s", []interface{}{string(debug.Stack())})
	Errorf(format, args...)
}

func logf(level Level, format string, args []interface{}) {
	if level > currentLevel {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	emit(level, msg)
}

// emit writes one line through zap regardless of the configured level. At
// PanicLevel zap panics after writing; at FatalLevel it exits the process.
func emit(level Level, msg string) {
	if onTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r") // clear the console line
	}
	msg = time.Now().Format("2006-01-02 15:04:05.000") + " - " + msg

	switch {
	case level >= DebugLevel:
		zl.Debug(msg)
	case level >= NoteLevel:
		zl.Info(msg)
	case level == WarnLevel:
		zl.Warn(msg)
	case level == ErrorLevel:
		zl.Error(msg)
	case level == PanicLevel:
		zl.Panic(msg)
	default:
		zl.Fatal(msg)
	}

	if onTerminal && cbStdout != nil {
		cbStdout.OnStdout()
	}
}

func Tracef(format string, args ...interface{}) {
	logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	logf(InfoLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	logf(ErrorLevel, format, args)
}

// Panicf logs the message and panics, even when the level is off.
func Panicf(format string, args ...interface{}) {
	emit(PanicLevel, fmt.Sprintf(format, args...))
}

// Fatalf logs the message and exits the process, even when the level is off.
func Fatalf(format string, args ...interface{}) {
	emit(FatalLevel, fmt.Sprintf(format, args...))
}

// PanicIfError panics with the given message, or with the error itself when
// no message is given. It is a no-op for a nil error.
func PanicIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		Panicf("%v", err)
	} else {
		Panicf("%s", fmt.Sprint(args...))
	}
}

// FatalIfError exits with the given message, or with the error itself when
// no message is given. It is a no-op for a nil error.
func FatalIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		Fatalf("%v", err)
	} else {
		Fatalf("%s", fmt.Sprint(args...))
	}
}

// assertLogger routes testify assertion failures into a logged panic, so the
// assert helpers below can guard invariants outside of tests.
type assertLogger struct{}

func (t assertLogger) Errorf(format string, args ...interface{}) {
	Panicf(format, args...)
}

func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}
