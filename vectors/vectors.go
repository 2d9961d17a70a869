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

// Package vectors produces test-vector files for validating other receiver
// implementations against this one: a binary file of complex sample blocks
// plus a JSON manifest tying the blocks to estimator and detector cases with
// their expected outputs.
package vectors

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
)

const (
	sampleMagicNumber     = 0x4E524C53
	sampleVersionMajor    = 1
	sampleVersionMinor    = 0
	sampleFileHeaderSize  = 16
	sampleBlockHeaderSize = 8
)

// File represents a sample file under construction. Blocks carry complex
// samples as little-endian float32 pairs and are addressed from the manifest
// by their id.
type File interface {
	AppendBlock(id uint32, samples []complex128) error
	Sync() error
	Close() error
}

// Block is one decoded sample block.
type Block struct {
	Id      uint32
	Samples []complex128
}

type sampleFile struct {
	fd *os.File
}

// NewFile creates a new sample file, truncating an existing one.
func NewFile(filename string) (File, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	sf := &sampleFile{
		fd: fd,
	}

	if err = sf.writeHeader(); err != nil {
		_ = sf.Close()
		return nil, err
	}

	return sf, nil
}

func (sf *sampleFile) AppendBlock(id uint32, samples []complex128) error {
	var header [sampleBlockHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], id)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(samples)))
	if _, err := sf.fd.Write(header[:]); err != nil {
		return err
	}

	payload := make([]byte, 8*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(payload[8*i:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(payload[8*i+4:], math.Float32bits(float32(imag(v))))
	}
	_, err := sf.fd.Write(payload)
	return err
}

func (sf *sampleFile) Sync() error {
	return sf.fd.Sync()
}

func (sf *sampleFile) Close() error {
	return sf.fd.Close()
}

func (sf *sampleFile) writeHeader() error {
	var header [sampleFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], sampleMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], sampleVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], sampleVersionMinor)
	binary.LittleEndian.PutUint64(header[8:16], 0)
	if _, err := sf.fd.Write(header[:]); err != nil {
		return err
	}
	return sf.fd.Sync()
}

// ReadFile decodes a whole sample file, in block order.
func ReadFile(filename string) ([]Block, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if len(raw) < sampleFileHeaderSize {
		return nil, errors.Errorf("sample file %s truncated at %d bytes", filename, len(raw))
	}
	if magic := binary.LittleEndian.Uint32(raw[:4]); magic != sampleMagicNumber {
		return nil, errors.Errorf("sample file %s has bad magic %#x", filename, magic)
	}
	if major := binary.LittleEndian.Uint16(raw[4:6]); major != sampleVersionMajor {
		return nil, errors.Errorf("sample file %s has unsupported version %d", filename, major)
	}

	var blocks []Block
	off := sampleFileHeaderSize
	for off < len(raw) {
		if off+sampleBlockHeaderSize > len(raw) {
			return nil, errors.Errorf("sample file %s truncated in block header at %d", filename, off)
		}
		id := binary.LittleEndian.Uint32(raw[off:])
		count := int(binary.LittleEndian.Uint32(raw[off+4:]))
		off += sampleBlockHeaderSize
		if off+8*count > len(raw) {
			return nil, errors.Errorf("sample file %s truncated in block %d payload", filename, id)
		}
		samples := make([]complex128, count)
		for i := range samples {
			re := math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8*i:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8*i+4:]))
			samples[i] = complex(float64(re), float64(im))
		}
		off += 8 * count
		blocks = append(blocks, Block{Id: id, Samples: samples})
	}
	return blocks, nil
}
