// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"crypto/cipher"
	"crypto/ed25519"
	"hash/crc32"

	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/signing"
	"github.com/zff-team/zff/lib/zfferr"
)

// WriteOptions configures the per-chunk write pipeline for one
// object. A nil AEAD disables encryption; a nil Signer disables
// per-chunk signing.
type WriteOptions struct {
	Compression compress.Algorithm
	AEAD        cipher.AEAD
	Signer      *signing.KeyPair
}

// WriteChunk runs raw through the write-path pipeline (same-bytes
// short-circuit, then compress, encrypt, sign, CRC) and returns the
// resulting on-disk Record for objectNo/chunkNo.
//
// Hashing is deliberately not done here: the coordinator updates its
// running per-object hashers directly over raw before or after
// calling WriteChunk, since those hashers persist across many chunks
// and this function is stateless.
func WriteChunk(objectNo uint32, chunkNo uint64, raw []byte, opts WriteOptions) (*Record, error) {
	if sameByte, ok := uniformByte(raw); ok {
		payload := []byte{sameByte}
		return &Record{
			ObjectNo: objectNo,
			ChunkNo:  chunkNo,
			Flags:    FlagSameBytes,
			CRC32:    crc32.ChecksumIEEE(payload),
			Payload:  payload,
		}, nil
	}

	var flags Flags
	payload := raw

	compressed, shrank, err := compress.Compress(opts.Compression, payload)
	if err != nil {
		return nil, err
	}
	if shrank {
		flags |= FlagCompressed
		payload = compressed
	}

	if opts.AEAD != nil {
		payload = cryptoprim.SealChunk(opts.AEAD, objectNo, chunkNo, payload)
		flags |= FlagEncrypted
	}

	var signature []byte
	if opts.Signer != nil {
		signature = opts.Signer.Sign(raw)
		flags |= FlagSigned
	}

	return &Record{
		ObjectNo:  objectNo,
		ChunkNo:   chunkNo,
		Flags:     flags,
		CRC32:     crc32.ChecksumIEEE(payload),
		Signature: signature,
		Payload:   payload,
	}, nil
}

// ReadOptions configures the per-chunk read pipeline. AEAD and
// Compression must match what the chunk was written with; VerifyKey,
// if non-nil, additionally checks a present signature and is ignored
// for unsigned chunks.
type ReadOptions struct {
	Compression compress.Algorithm
	AEAD        cipher.AEAD
	VerifyKey   ed25519.PublicKey

	// ExpectedSize is the plaintext length this chunk must decode to:
	// chunkSize for every chunk but the object's last, whose
	// remaining-bytes length is shorter.
	ExpectedSize int
}

// ReadChunk reverses [WriteChunk], returning the chunk's original
// plaintext bytes.
func ReadChunk(rec *Record, opts ReadOptions) ([]byte, error) {
	if crc32.ChecksumIEEE(rec.Payload) != rec.CRC32 {
		return nil, &zfferr.IntegrityFailure{
			Object: uint64(rec.ObjectNo), Chunk: rec.ChunkNo, Reason: "stored payload CRC32 mismatch",
		}
	}

	if rec.Flags&FlagSameBytes != 0 {
		if len(rec.Payload) != 1 {
			return nil, &zfferr.IntegrityFailure{
				Object: uint64(rec.ObjectNo), Chunk: rec.ChunkNo, Reason: "same-bytes payload is not exactly one byte",
			}
		}
		out := make([]byte, opts.ExpectedSize)
		for i := range out {
			out[i] = rec.Payload[0]
		}
		return out, nil
	}

	payload := rec.Payload

	if rec.Flags&FlagEncrypted != 0 {
		if opts.AEAD == nil {
			return nil, &zfferr.BadConfig{Field: "chunk.aead", Reason: "chunk is encrypted but no AEAD cipher was supplied"}
		}
		decrypted, err := cryptoprim.OpenChunk(opts.AEAD, rec.ObjectNo, rec.ChunkNo, payload)
		if err != nil {
			return nil, err
		}
		payload = decrypted
	}

	if rec.Flags&FlagCompressed != 0 {
		decompressed, err := compress.Decompress(opts.Compression, payload, opts.ExpectedSize)
		if err != nil {
			return nil, err
		}
		payload = decompressed
	}

	if len(payload) != opts.ExpectedSize {
		return nil, &zfferr.IntegrityFailure{
			Object: uint64(rec.ObjectNo), Chunk: rec.ChunkNo, Reason: "decoded chunk length does not match expected size",
		}
	}

	if rec.Flags&FlagSigned != 0 && opts.VerifyKey != nil {
		if err := signing.VerifyChunk(opts.VerifyKey, payload, rec.Signature, uint64(rec.ObjectNo), rec.ChunkNo); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// uniformByte reports whether data consists of the same byte value
// repeated throughout, returning that byte if so. An empty slice is
// never uniform.
func uniformByte(data []byte) (byte, bool) {
	if len(data) == 0 {
		return 0, false
	}
	first := data[0]
	for _, b := range data[1:] {
		if b != first {
			return 0, false
		}
	}
	return first, true
}
