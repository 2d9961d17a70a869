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

// Package progctx manages the lifetime of the program: one cancellable
// context shared by all long-running goroutines, each registered under a
// group name so that a blocked shutdown can be attributed to the group that
// is still running.
package progctx

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/openphy/nr-ls/logger"
)

// ProgCtx is the program context handed to every long-running component.
type ProgCtx struct {
	context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	groups   map[string]int
	deferred []func()
}

// New creates a program context on top of the parent context.
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	inner, cancel := context.WithCancel(parent)

	return &ProgCtx{
		Context: inner,
		cancel:  cancel,
		groups:  map[string]int{},
	}
}

// Cancel cancels the program context with the given cause and runs the
// deferred cleanups. Only the first call has any effect.
func (ctx *ProgCtx) Cancel(err interface{}) {
	if ctx.Err() != nil {
		return
	}
	ctx.cancel()

	if e, ok := err.(error); ok {
		logger.TraceError("program exit: %v", e)
	} else {
		logger.Infof("program exit: %v", err)
	}

	for _, f := range ctx.deferred {
		f()
	}
	ctx.deferred = nil
}

// Defer registers a cleanup to run when the context is cancelled.
func (ctx *ProgCtx) Defer(f func()) {
	if ctx.Err() != nil {
		panic(errors.Errorf("Defer after the context is done"))
	}
	ctx.deferred = append(ctx.deferred, f)
}

// WaitAdd registers delta goroutines under the given group name.
func (ctx *ProgCtx) WaitAdd(name string, delta int) {
	ctx.mu.Lock()
	ctx.groups[name] += delta
	ctx.mu.Unlock()

	ctx.wg.Add(delta)
}

// WaitDone marks one goroutine of the group as finished.
func (ctx *ProgCtx) WaitDone(name string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.groups[name] <= 0 {
		logger.Panicf("group %s has no running goroutine to mark done", name)
	}
	ctx.groups[name]--
	ctx.wg.Done()
}

// WaitCount returns the number of registered goroutines still running.
func (ctx *ProgCtx) WaitCount() int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	total := 0
	for _, n := range ctx.groups {
		total += n
	}
	return total
}

// Wait blocks until every registered goroutine has finished.
func (ctx *ProgCtx) Wait() {
	ctx.mu.Lock()
	logger.Debugf("waiting for goroutine groups: %v", ctx.groups)
	ctx.mu.Unlock()

	ctx.wg.Wait()
}
