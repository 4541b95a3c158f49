// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the per-chunk compression codecs named
// in a compression header: none, Zstd, and LZ4. Every chunk is
// compressed independently — there is no cross-chunk dictionary or
// streaming state, since chunks must remain individually readable
// after a segment split.
package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/zff-team/zff/lib/zfferr"
)

// Algorithm identifies the compression codec used for a chunk. Ids are
// protocol constants stored in the compression header; changing them
// breaks compatibility with existing containers.
type Algorithm uint8

const (
	// None indicates uncompressed data. Used for already-compressed
	// source content, or whenever a chunk did not shrink under its
	// configured codec.
	None Algorithm = 0

	// Zstd indicates zstd compression. Better ratios for text-like
	// and structured binary data.
	Zstd Algorithm = 1

	// LZ4 indicates LZ4 block compression. Faster than Zstd at a
	// lower ratio; the better choice when acquisition throughput
	// matters more than container size.
	//
	// The original format also defines a ByteGrouping4+LZ4 codec
	// tuned for float32 tensor acquisition sources; this
	// implementation has no such source and does not wire it in.
	LZ4 Algorithm = 2
)

// String returns the wire-format name of an algorithm id.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both types are safe for
// concurrent use, which matters here because the worker pool runs one
// compressor per chunk concurrently.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses data under the given algorithm and reports
// whether the result actually shrank. When shrank is false, the
// returned bytes equal the input unchanged and the caller should store
// the chunk with algorithm None instead — this is the "store raw if no
// shrink" rule chunk records follow so that incompressible content
// (already-compressed media, encrypted source volumes, high-entropy
// random data) never costs more than its raw size plus framing.
func Compress(a Algorithm, data []byte) (compressed []byte, shrank bool, err error) {
	switch a {
	case None:
		return data, false, nil

	case Zstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return data, false, nil
		}
		return out, true, nil

	case LZ4:
		bound := lz4.CompressBlockBound(len(data))
		dst := make([]byte, bound)
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, false, fmt.Errorf("compress: lz4: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, false, nil
		}
		return dst[:n], true, nil

	default:
		return nil, false, &zfferr.UnsupportedAlgorithm{Kind: "compression", ID: uint8(a)}
	}
}

// Decompress reverses Compress. uncompressedSize must be the exact
// original length — a mismatch after decoding surfaces as an
// [zfferr.IntegrityFailure]-worthy error to the caller, who supplies
// the object/chunk numbers for that wrapping since this package has no
// notion of chunk identity.
func Decompress(a Algorithm, compressed []byte, uncompressedSize int) ([]byte, error) {
	switch a {
	case None:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("compress: stored-raw chunk is %d bytes, want %d", len(compressed), uncompressedSize)
		}
		return compressed, nil

	case Zstd:
		dst := make([]byte, 0, uncompressedSize)
		result, err := zstdDecoder.DecodeAll(compressed, dst)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("compress: zstd produced %d bytes, want %d", len(result), uncompressedSize)
		}
		return result, nil

	case LZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, dst)
		if err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		if n != uncompressedSize {
			return nil, fmt.Errorf("compress: lz4 produced %d bytes, want %d", n, uncompressedSize)
		}
		return dst, nil

	default:
		return nil, &zfferr.UnsupportedAlgorithm{Kind: "compression", ID: uint8(a)}
	}
}
