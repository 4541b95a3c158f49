// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// UUIDSize is the length of a container UUID as carried in a segment
// header.
const UUIDSize = 16

// Header is the first frame in every segment file.
type Header struct {
	Number        uint64
	ContainerUUID [UUIDSize]byte
}

// Encode writes the segment header frame to w.
func (h *Header) Encode(w io.Writer) error {
	body := make([]byte, 8+UUIDSize)
	binary.BigEndian.PutUint64(body[0:8], h.Number)
	copy(body[8:], h.ContainerUUID[:])
	return header.WriteFrame(w, header.MagicSegmentHeader, body)
}

// DecodeHeader reads a segment header frame from r.
func DecodeHeader(r io.Reader) (*Header, error) {
	frame, err := header.ReadFrame(r, header.MagicSegmentHeader)
	if err != nil {
		return nil, err
	}
	if len(frame.Body) < 8+UUIDSize {
		return nil, &zfferr.Truncated{Want: 8 + UUIDSize, Got: len(frame.Body)}
	}
	h := &Header{Number: binary.BigEndian.Uint64(frame.Body[0:8])}
	copy(h.ContainerUUID[:], frame.Body[8:8+UUIDSize])
	return h, nil
}

// Footer is the last frame in every segment file. ChunkCount is the
// number of chunk records the segment carries, mainly as a sanity
// check for readers that want to validate the embedded index without
// opening it. CRC32 covers the footer's own preceding fields
// (Number and ChunkCount), guarding against a truncated or
// bit-flipped footer independent of whatever the accompanying bbolt
// index file says.
type Footer struct {
	Number     uint64
	ChunkCount uint64
	CRC32      uint32
}

func footerChecksum(number, chunkCount uint64) uint32 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], number)
	binary.BigEndian.PutUint64(buf[8:16], chunkCount)
	return crc32.ChecksumIEEE(buf[:])
}

// Encode writes the segment footer frame to w, computing CRC32 fresh
// from Number and ChunkCount.
func (f *Footer) Encode(w io.Writer) error {
	crc := footerChecksum(f.Number, f.ChunkCount)
	body := make([]byte, 8+8+4)
	binary.BigEndian.PutUint64(body[0:8], f.Number)
	binary.BigEndian.PutUint64(body[8:16], f.ChunkCount)
	binary.BigEndian.PutUint32(body[16:20], crc)
	f.CRC32 = crc
	return header.WriteFrame(w, header.MagicSegmentFooter, body)
}

// DecodeFooter reads a segment footer frame from r and verifies its
// CRC32.
func DecodeFooter(r io.Reader) (*Footer, error) {
	frame, err := header.ReadFrame(r, header.MagicSegmentFooter)
	if err != nil {
		return nil, err
	}
	if len(frame.Body) < 20 {
		return nil, &zfferr.Truncated{Want: 20, Got: len(frame.Body)}
	}
	f := &Footer{
		Number:     binary.BigEndian.Uint64(frame.Body[0:8]),
		ChunkCount: binary.BigEndian.Uint64(frame.Body[8:16]),
		CRC32:      binary.BigEndian.Uint32(frame.Body[16:20]),
	}
	if footerChecksum(f.Number, f.ChunkCount) != f.CRC32 {
		return nil, &zfferr.IntegrityFailure{Reason: "segment footer CRC32 mismatch"}
	}
	return f, nil
}
