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

// Package prng derives all randomness of the harness from one root seed.
// Every Monte-Carlo unit (one occasion at one SNR point) gets its own seeds,
// so a run produces identical numbers whether occasions execute sequentially
// or spread over a worker pool, and a re-run with the same root seed
// reproduces a prior run exactly.
package prng

import (
	"math/rand"
	"os"
	"strconv"
	"time"
)

type RandomSeed int64

// Stream separates independent randomness consumers, so that e.g. channel-tap
// draws and noise draws of the same occasion never share a generator.
type Stream uint64

const (
	StreamChannel Stream = iota + 1
	StreamNoise
	StreamTiming
	StreamPreamble
	StreamPilots
	StreamVectors
)

var rootSeed int64

func init() {
	Init(0)
}

// Init sets the root seed: a fixed value (seed != 0), the NRLS_RANDOM_SEED
// environment variable, or a time-based value, in that order of preference.
func Init(seed int64) {
	if seed == 0 {
		if env := os.Getenv("NRLS_RANDOM_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rootSeed = seed
}

// RootSeed returns the active root seed, for logging and for persisting with
// simulation results.
func RootSeed() int64 {
	return rootSeed
}

// splitmix64 finalizer; consecutive inputs map to statistically unrelated outputs.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// UnitSeed derives the seed for one (stream, SNR index, occasion) unit.
func UnitSeed(stream Stream, snrIndex int, occasion int) RandomSeed {
	h := mix(uint64(rootSeed) ^ mix(uint64(stream)))
	h = mix(h ^ uint64(uint32(snrIndex))<<32 ^ uint64(uint32(occasion)))
	return RandomSeed(h >> 1)
}

// StreamSeed derives the seed for a stream that is not tied to a Monte-Carlo
// unit, e.g. test-vector synthesis.
func StreamSeed(stream Stream) RandomSeed {
	return UnitSeed(stream, 0, 0)
}

// NewSource returns a fresh generator for the seed. The generator is not
// safe for concurrent use; each unit owns its own.
func NewSource(seed RandomSeed) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}
