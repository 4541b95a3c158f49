// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/binary"
	"io"

	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// Flags records which pipeline stages were applied to a chunk's
// payload, so the read path knows which ones to reverse.
type Flags uint8

const (
	// FlagCompressed means the payload is compressed under the
	// object's compression algorithm. Cleared when compression did
	// not shrink the chunk, in which case the payload is stored raw.
	FlagCompressed Flags = 1 << 0

	// FlagEncrypted means the payload is an AEAD ciphertext sealed
	// under the object's data key with the deterministic chunk nonce.
	FlagEncrypted Flags = 1 << 1

	// FlagSigned means Signature carries an Ed25519 signature over
	// the chunk's plaintext.
	FlagSigned Flags = 1 << 2

	// FlagSameBytes means the chunk's logical content is a single
	// repeated byte, stored as that one byte in Payload rather than
	// running it through compression or encryption.
	FlagSameBytes Flags = 1 << 3
)

const signatureSize = 64

// Record is the on-disk representation of one chunk: its coordinates
// within its object, the processing flags, an integrity CRC over the
// stored payload, an optional signature, and the payload itself.
type Record struct {
	ObjectNo  uint32
	ChunkNo   uint64
	Flags     Flags
	CRC32     uint32
	Signature []byte // exactly 64 bytes if Flags&FlagSigned, else nil
	Payload   []byte
}

// Encode writes the chunk header frame (magic, length, version) and
// body for rec to w.
func (rec *Record) Encode(w io.Writer) error {
	signed := rec.Flags&FlagSigned != 0
	if signed && len(rec.Signature) != signatureSize {
		return &zfferr.BadConfig{Field: "chunk.signature", Reason: "must be 64 bytes when FlagSigned is set"}
	}

	size := 4 + 8 + 1 + 4 + 8 + len(rec.Payload)
	if signed {
		size += signatureSize
	}
	body := make([]byte, size)

	off := 0
	binary.BigEndian.PutUint32(body[off:], rec.ObjectNo)
	off += 4
	binary.BigEndian.PutUint64(body[off:], rec.ChunkNo)
	off += 8
	body[off] = byte(rec.Flags)
	off++
	binary.BigEndian.PutUint32(body[off:], rec.CRC32)
	off += 4
	if signed {
		copy(body[off:], rec.Signature)
		off += signatureSize
	}
	binary.BigEndian.PutUint64(body[off:], uint64(len(rec.Payload)))
	off += 8
	copy(body[off:], rec.Payload)

	return header.WriteFrame(w, header.MagicChunkHeader, body)
}

// Decode reads one chunk header frame from r and parses it into a
// Record.
func Decode(r io.Reader) (*Record, error) {
	frame, err := header.ReadFrame(r, header.MagicChunkHeader)
	if err != nil {
		return nil, err
	}
	return decodeBody(frame.Body)
}

func decodeBody(body []byte) (*Record, error) {
	const fixedWant = 4 + 8 + 1 + 4 + 8
	if len(body) < fixedWant {
		return nil, &zfferr.Truncated{Want: fixedWant, Got: len(body)}
	}

	rec := &Record{}
	off := 0
	rec.ObjectNo = binary.BigEndian.Uint32(body[off:])
	off += 4
	rec.ChunkNo = binary.BigEndian.Uint64(body[off:])
	off += 8
	rec.Flags = Flags(body[off])
	off++
	rec.CRC32 = binary.BigEndian.Uint32(body[off:])
	off += 4

	if rec.Flags&FlagSigned != 0 {
		if len(body) < off+signatureSize+8 {
			return nil, &zfferr.Truncated{Want: off + signatureSize + 8, Got: len(body)}
		}
		rec.Signature = append([]byte(nil), body[off:off+signatureSize]...)
		off += signatureSize
	}

	if len(body) < off+8 {
		return nil, &zfferr.Truncated{Want: off + 8, Got: len(body)}
	}
	payloadLen := binary.BigEndian.Uint64(body[off:])
	off += 8

	if uint64(len(body)-off) != payloadLen {
		return nil, &zfferr.Truncated{Want: off + int(payloadLen), Got: len(body)}
	}
	rec.Payload = append([]byte(nil), body[off:]...)

	return rec, nil
}
