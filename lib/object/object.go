// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package object implements the object layer: physical objects
// (a byte-addressable acquisition source split into chunks) and
// logical objects (a file-tree dump whose regular files reference
// ranges of a shared chunk space). Both variants sit on top of the
// chunk and segment layers; this package only deals with how an
// object's header, footer, and — for logical objects — file records
// describe that chunk space, never with chunk encoding itself.
package object

import (
	"encoding/binary"
	"io"

	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// Variant distinguishes a physical object from a logical one. Both
// share the same chunk substrate and header framing; only the
// content that follows the header differs.
type Variant uint8

const (
	Physical Variant = 0
	Logical  Variant = 1
)

func (v Variant) String() string {
	switch v {
	case Physical:
		return "physical"
	case Logical:
		return "logical"
	default:
		return "unknown"
	}
}

// Header describes one object: its number, variant, and the
// processing configuration every chunk belonging to it was written
// under. TotalLength is authoritative for physical objects — reads
// past it are truncated regardless of how many whole chunks exist.
type Header struct {
	Number      uint32
	Variant     Variant
	TotalLength uint64

	Compression compress.Algorithm
	Encryption  cryptoprim.Algorithm
	Encrypted   bool
	HashAlgos   []hashing.Algorithm
	Signed      bool
}

// Encode writes the object header frame to w.
func (h *Header) Encode(w io.Writer) error {
	size := 4 + 1 + 8 + 1 + 1 + 1 + 1 + len(h.HashAlgos) + 1
	body := make([]byte, size)
	off := 0
	binary.BigEndian.PutUint32(body[off:], h.Number)
	off += 4
	body[off] = byte(h.Variant)
	off++
	binary.BigEndian.PutUint64(body[off:], h.TotalLength)
	off += 8
	body[off] = byte(h.Compression)
	off++
	body[off] = byte(h.Encryption)
	off++
	body[off] = boolByte(h.Encrypted)
	off++
	body[off] = byte(len(h.HashAlgos))
	off++
	for _, a := range h.HashAlgos {
		body[off] = byte(a)
		off++
	}
	body[off] = boolByte(h.Signed)

	return header.WriteFrame(w, header.MagicObjectHeader, body)
}

// DecodeHeader reads an object header frame from r.
func DecodeHeader(r io.Reader) (*Header, error) {
	frame, err := header.ReadFrame(r, header.MagicObjectHeader)
	if err != nil {
		return nil, err
	}
	body := frame.Body
	const fixedWant = 4 + 1 + 8 + 1 + 1 + 1 + 1
	if len(body) < fixedWant {
		return nil, &zfferr.Truncated{Want: fixedWant, Got: len(body)}
	}

	h := &Header{}
	off := 0
	h.Number = binary.BigEndian.Uint32(body[off:])
	off += 4
	h.Variant = Variant(body[off])
	off++
	h.TotalLength = binary.BigEndian.Uint64(body[off:])
	off += 8
	h.Compression = compress.Algorithm(body[off])
	off++
	h.Encryption = cryptoprim.Algorithm(body[off])
	off++
	h.Encrypted = body[off] != 0
	off++
	hashCount := int(body[off])
	off++

	if len(body) < off+hashCount+1 {
		return nil, &zfferr.Truncated{Want: off + hashCount + 1, Got: len(body)}
	}
	h.HashAlgos = make([]hashing.Algorithm, hashCount)
	for i := 0; i < hashCount; i++ {
		h.HashAlgos[i] = hashing.Algorithm(body[off])
		off++
	}
	h.Signed = body[off] != 0

	return h, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Footer carries an object's final, authoritative hash values —
// computed over the reconstructed source as it was written, one per
// algorithm named in the object header — plus the chunk count for a
// cheap completeness check on read. The magic differs between
// physical and logical objects so a stream scanner can tell which
// footer shape to expect without first finding the matching header.
type Footer struct {
	Number     uint32
	Variant    Variant
	ChunkCount uint64
	Hashes     map[hashing.Algorithm][]byte
}

func footerMagic(v Variant) header.Magic {
	if v == Logical {
		return header.MagicObjectFooterLogical
	}
	return header.MagicObjectFooterPhysical
}

// Encode writes the object footer frame to w.
func (f *Footer) Encode(w io.Writer) error {
	size := 4 + 8 + 1
	for range f.Hashes {
		size += 1 + 8 // algorithm id + length prefix, digest appended below
	}
	for _, digest := range f.Hashes {
		size += len(digest)
	}

	body := make([]byte, 0, size)
	var tmp [8]byte

	binary.BigEndian.PutUint32(tmp[:4], f.Number)
	body = append(body, tmp[:4]...)
	binary.BigEndian.PutUint64(tmp[:8], f.ChunkCount)
	body = append(body, tmp[:8]...)
	body = append(body, byte(len(f.Hashes)))

	for algo, digest := range f.Hashes {
		body = append(body, byte(algo))
		binary.BigEndian.PutUint64(tmp[:8], uint64(len(digest)))
		body = append(body, tmp[:8]...)
		body = append(body, digest...)
	}

	return header.WriteFrame(w, footerMagic(f.Variant), body)
}

// DecodeFooter reads an object footer frame of the given variant from
// r.
func DecodeFooter(r io.Reader, variant Variant) (*Footer, error) {
	frame, err := header.ReadFrame(r, footerMagic(variant))
	if err != nil {
		return nil, err
	}
	body := frame.Body
	if len(body) < 13 {
		return nil, &zfferr.Truncated{Want: 13, Got: len(body)}
	}

	f := &Footer{Variant: variant}
	off := 0
	f.Number = binary.BigEndian.Uint32(body[off:])
	off += 4
	f.ChunkCount = binary.BigEndian.Uint64(body[off:])
	off += 8
	count := int(body[off])
	off++

	f.Hashes = make(map[hashing.Algorithm][]byte, count)
	for i := 0; i < count; i++ {
		if len(body) < off+1+8 {
			return nil, &zfferr.Truncated{Want: off + 1 + 8, Got: len(body)}
		}
		algo := hashing.Algorithm(body[off])
		off++
		length := binary.BigEndian.Uint64(body[off:])
		off += 8
		if uint64(len(body)-off) < length {
			return nil, &zfferr.Truncated{Want: off + int(length), Got: len(body)}
		}
		f.Hashes[algo] = append([]byte(nil), body[off:off+int(length)]...)
		off += int(length)
	}

	return f, nil
}
