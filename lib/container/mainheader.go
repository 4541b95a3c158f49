// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"io"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// mainHeaderBodySize is fixed: every field is fixed-width, which is
// what lets Seal patch ObjectCount/TotalDataLen in place once their
// final values are known, without rewriting the whole frame.
const mainHeaderBodySize = 1 + 8 + 4 + 8

// mainHeader is the container-wide leading structure: the chunking
// parameters every object in the container shares, and running totals
// that Seal finalizes once every object has been closed.
type mainHeader struct {
	ChunkSizeExponent uint8
	SegmentSize       uint64
	ObjectCount       uint32
	TotalDataLen      uint64
}

func (h *mainHeader) encode() []byte {
	body := make([]byte, mainHeaderBodySize)
	body[0] = h.ChunkSizeExponent
	binary.BigEndian.PutUint64(body[1:9], h.SegmentSize)
	binary.BigEndian.PutUint32(body[9:13], h.ObjectCount)
	binary.BigEndian.PutUint64(body[13:21], h.TotalDataLen)
	return body
}

// objectCountOffset and totalDataLenOffset are the body-relative byte
// offsets Seal patches, expressed relative to the start of the frame
// (after the 13-byte magic/length/version prefix, which header.WriteFrame
// always writes first).
const (
	frameOverhead      = 4 + 8 + 1
	objectCountOffset  = frameOverhead + 9
	totalDataLenOffset = frameOverhead + 13
)

func (h *mainHeader) write(w io.Writer) error {
	return header.WriteFrame(w, header.MagicMainHeader, h.encode())
}

func decodeMainHeader(r io.Reader) (*mainHeader, error) {
	frame, err := header.ReadFrame(r, header.MagicMainHeader)
	if err != nil {
		return nil, err
	}
	if len(frame.Body) < mainHeaderBodySize {
		return nil, &zfferr.Truncated{Want: mainHeaderBodySize, Got: len(frame.Body)}
	}
	body := frame.Body
	h := &mainHeader{
		ChunkSizeExponent: body[0],
		SegmentSize:       binary.BigEndian.Uint64(body[1:9]),
		ObjectCount:       binary.BigEndian.Uint32(body[9:13]),
		TotalDataLen:      binary.BigEndian.Uint64(body[13:21]),
	}
	if _, err := chunk.SizeForExponent(h.ChunkSizeExponent); err != nil {
		return nil, err
	}
	return h, nil
}
