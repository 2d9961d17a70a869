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
	"encoding/json"
	"os"
	"time"

	"golang.org/x/exp/slices"
)

// SnrPoint carries the detection counters of one SNR value.
type SnrPoint struct {
	SnrDb     float64 `json:"snr_db"`
	Occasions int     `json:"occasions"`
	Detected  int     `json:"detected"`
}

// Probability is the detection probability at this point.
func (p SnrPoint) Probability() float64 {
	if p.Occasions == 0 {
		return 0
	}
	return float64(p.Detected) / float64(p.Occasions)
}

// Results accumulates a campaign's outcome: the per-SNR detection counters,
// sorted by SNR and unique per value, plus the counters of noise-only runs.
// Results persist as JSON and a later campaign can resume from the file;
// re-run SNR points overwrite the stored ones, the rest are preserved.
type Results struct {
	FileTime       string      `json:"file_time"`
	Seed           int64       `json:"seed"`
	Config         *FileConfig `json:"config,omitempty"`
	Points         []SnrPoint  `json:"points"`
	NoiseOccasions int         `json:"noise_occasions,omitempty"`
	NoiseAlarms    int         `json:"noise_alarms,omitempty"`
}

func NewResults() *Results {
	return &Results{}
}

func compareSnr(a, b SnrPoint) int {
	switch {
	case a.SnrDb < b.SnrDb:
		return -1
	case a.SnrDb > b.SnrDb:
		return 1
	default:
		return 0
	}
}

// Merge inserts points into the axis, overwriting existing points with the
// same SNR value.
func (r *Results) Merge(points ...SnrPoint) {
	for _, p := range points {
		idx, found := slices.BinarySearchFunc(r.Points, p, compareSnr)
		if found {
			r.Points[idx] = p
		} else {
			r.Points = slices.Insert(r.Points, idx, p)
		}
	}
}

// Lookup returns the stored point for an SNR value.
func (r *Results) Lookup(snrDb float64) (SnrPoint, bool) {
	idx, found := slices.BinarySearchFunc(r.Points, SnrPoint{SnrDb: snrDb}, compareSnr)
	if !found {
		return SnrPoint{}, false
	}
	return r.Points[idx], true
}

// AddNoiseRun accumulates the counters of a noise-only (false alarm) run.
func (r *Results) AddNoiseRun(occasions, alarms int) {
	r.NoiseOccasions += occasions
	r.NoiseAlarms += alarms
}

// FalseAlarmRate is the fraction of noise-only occasions with any detection.
func (r *Results) FalseAlarmRate() float64 {
	if r.NoiseOccasions == 0 {
		return 0
	}
	return float64(r.NoiseAlarms) / float64(r.NoiseOccasions)
}

// Clear drops all counters but keeps the attached configuration.
func (r *Results) Clear() {
	r.Points = nil
	r.NoiseOccasions = 0
	r.NoiseAlarms = 0
}

// Save writes the results as indented JSON.
func (r *Results) Save(filename string) error {
	r.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// LoadResults reads results back from a file written by Save.
func LoadResults(filename string) (*Results, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	r := &Results{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
