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
	"encoding/json"
	"os"
)

// Manifest describes the cases of one sample file. It is the contract a
// consumer implementation reads; all block references index into SampleFile.
type Manifest struct {
	FileTime   string          `json:"file_time"`
	Seed       int64           `json:"seed"`
	SampleFile string          `json:"sample_file"`
	Estimator  []EstimatorCase `json:"estimator"`
	Detector   []DetectorCase  `json:"detector"`
}

// CaseMetrics is the expected measurement set of one receive port.
type CaseMetrics struct {
	NoiseVar      float64 `json:"noise_var"`
	Rsrp          float64 `json:"rsrp"`
	Epre          float64 `json:"epre"`
	Sinr          float64 `json:"sinr"`
	TimeAlignment float64 `json:"time_alignment_s"`
}

// AggregateMetrics averages the ports. It carries no SINR; a cross-port SINR
// is not defined.
type AggregateMetrics struct {
	NoiseVar      float64 `json:"noise_var"`
	Rsrp          float64 `json:"rsrp"`
	Epre          float64 `json:"epre"`
	TimeAlignment float64 `json:"time_alignment_s"`
}

// EstimatorCase is one channel-estimation scenario: the received grid and the
// transmitted pilots as inputs, the dense estimates and measurements as
// expected outputs. GridBlocks and EstimateBlocks hold one block per port,
// symbol-major with subcarriers ascending; PilotsBlock holds the hop-1 pilots
// followed by the hop-2 ones, each hop symbol-major.
type EstimatorCase struct {
	Name              string  `json:"name"`
	SubcarrierSpacing int     `json:"scs_khz"`
	CyclicPrefix      string  `json:"cyclic_prefix"`
	FirstSymbol       int     `json:"first_symbol"`
	NumSymbols        int     `json:"num_symbols"`
	Scaling           float64 `json:"scaling"`
	UseFilter         bool    `json:"use_filter"`
	PilotsNoiseAvg    int     `json:"pilots_noise_avg"`
	Ports             []int   `json:"ports"`

	DmrsSymbols  []int `json:"dmrs_symbols"`
	DmrsSymbols2 []int `json:"dmrs_symbols2,omitempty"`
	DmrsRes      []int `json:"dmrs_res"`
	Prbs         []int `json:"prbs"`
	Prbs2        []int `json:"prbs2,omitempty"`
	HopSymbol    int   `json:"hop_symbol"`

	Channel string  `json:"channel"`
	SnrDb   float64 `json:"snr_db"`

	GridBlocks     []uint32         `json:"grid_blocks"`
	PilotsBlock    uint32           `json:"pilots_block"`
	EstimateBlocks []uint32         `json:"estimate_blocks"`
	PortMetrics    []CaseMetrics    `json:"port_metrics"`
	Aggregate      AggregateMetrics `json:"aggregate"`
}

// DetectionRecord is one expected preamble detection.
type DetectionRecord struct {
	PreambleIndex int     `json:"preamble_index"`
	TimeAdvance   float64 `json:"time_advance_s"`
	Metric        float64 `json:"metric"`
	PowerDb       float64 `json:"power_db"`
	SnrDb         float64 `json:"snr_db"`
}

// DetectorCase is one PRACH detection scenario: the frequency-domain symbols
// as input (one block per symbol), the detection records as expected output.
type DetectorCase struct {
	Name              string  `json:"name"`
	Format            string  `json:"format"`
	RootSequenceIndex int     `json:"root_sequence_index"`
	ZeroCorrZone      int     `json:"zero_correlation_zone"`
	SubcarrierSpacing int     `json:"scs_khz,omitempty"`
	Threshold         float64 `json:"threshold"`

	PreambleIndex int     `json:"preamble_index"`
	DelayUs       float64 `json:"delay_us"`
	Channel       string  `json:"channel"`
	SnrDb         float64 `json:"snr_db"`

	SymbolBlocks   []uint32          `json:"symbol_blocks"`
	RssiDb         float64           `json:"rssi_db"`
	TimeResolution float64           `json:"time_resolution_s"`
	TimeAdvanceMax float64           `json:"time_advance_max_s"`
	Detections     []DetectionRecord `json:"detections"`
}

// Save writes the manifest as indented JSON.
func (m *Manifest) Save(filename string) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// LoadManifest reads a manifest back.
func LoadManifest(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
