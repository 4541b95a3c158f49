// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk implements the fixed-size chunk engine: splitting an
// object's logical bytes into equal-size chunks on write, and the
// record encoding and write/read pipelines that turn a chunk's raw
// bytes into (and back out of) its on-disk representation.
//
// Unlike a content-defined chunker, every chunk boundary here is a
// pure function of position: the i-th chunk of an object covers
// logical bytes [i*chunk_size, (i+1)*chunk_size), except the last,
// which may be shorter. This makes offset-to-chunk-number arithmetic
// exact, at the cost of the deduplication a CDC boundary would have
// offered across similar-but-shifted inputs — a tradeoff this format
// accepts in exchange for simple, fast random access.
package chunk

import (
	"github.com/zff-team/zff/lib/zfferr"
)

// MinSizeExponent and MaxSizeExponent bound chunk_size_exponent: valid
// values produce chunk sizes from 512 bytes to 16 MiB.
const (
	MinSizeExponent uint8 = 9
	MaxSizeExponent uint8 = 24
)

// SizeForExponent returns 1 << exponent, the chunk size a
// chunk_size_exponent field selects. Returns [zfferr.BadConfig] if
// exponent falls outside [MinSizeExponent, MaxSizeExponent].
func SizeForExponent(exponent uint8) (int, error) {
	if exponent < MinSizeExponent || exponent > MaxSizeExponent {
		return 0, &zfferr.BadConfig{
			Field:  "chunk_size_exponent",
			Reason: "must be between 9 and 24 inclusive",
		}
	}
	return 1 << exponent, nil
}

// Chunk is one fixed-size slice of an object's input, as produced by
// [Chunker.Next]. Number is the chunk's position within its object,
// starting at zero.
type Chunk struct {
	// Number is the chunk's index within its object.
	Number uint64

	// Data is the chunk's raw, uncompressed bytes. This is a slice
	// into the buffer passed to [NewChunker] — it is only valid until
	// the next call to Next or until that buffer is modified.
	Data []byte
}

// Chunker splits an in-memory byte slice into fixed-size chunks.
// Create one with [NewChunker] and call [Chunker.Next] repeatedly.
//
// A large object's bytes need not be held in memory all at once by
// the caller; the object layer feeds the chunker one read buffer's
// worth of bytes at a time and tracks the running chunk number itself
// ([NewChunkerAt]), since fixed-size boundaries never depend on
// anything outside the current chunk.
type Chunker struct {
	data      []byte
	chunkSize int
	position  int
	nextNo    uint64
}

// NewChunker creates a chunker over data with the given chunk size.
// The data slice is not copied.
func NewChunker(data []byte, chunkSize int) *Chunker {
	return NewChunkerAt(data, chunkSize, 0)
}

// NewChunkerAt is [NewChunker] with the chunk numbering continuing
// from startNo, for splitting an object's input across more than one
// call (e.g. one call per streamed read buffer).
func NewChunkerAt(data []byte, chunkSize int, startNo uint64) *Chunker {
	return &Chunker{data: data, chunkSize: chunkSize, nextNo: startNo}
}

// Next returns the next chunk, or nil once all input has been
// consumed. Only the final chunk returned may be shorter than
// chunkSize.
func (c *Chunker) Next() *Chunk {
	if c.position >= len(c.data) {
		return nil
	}

	end := c.position + c.chunkSize
	if end > len(c.data) {
		end = len(c.data)
	}

	chunk := &Chunk{Number: c.nextNo, Data: c.data[c.position:end]}
	c.position = end
	c.nextNo++
	return chunk
}

// ChunkAll chunks the entire input and returns every chunk. For large
// inputs, prefer [NewChunker] with [Chunker.Next] to avoid holding
// every chunk's bookkeeping in memory at once — though since Data
// slices into the same backing array, the memory cost over reading
// data directly is small.
func ChunkAll(data []byte, chunkSize int) []Chunk {
	chunker := NewChunker(data, chunkSize)
	var chunks []Chunk
	for {
		c := chunker.Next()
		if c == nil {
			break
		}
		chunks = append(chunks, *c)
	}
	return chunks
}

// Range returns the closed chunk-number interval [start, end] that
// covers the logical byte range [offset, offset+length) of an object
// chunked at chunkSize. Both bounds are inclusive chunk numbers, per
// the read-path offset resolution: chunk_start = offset / chunk_size,
// chunk_end = (offset + length - 1) / chunk_size.
func Range(offset, length uint64, chunkSize int) (start, end uint64) {
	if length == 0 {
		return offset / uint64(chunkSize), offset / uint64(chunkSize)
	}
	start = offset / uint64(chunkSize)
	end = (offset + length - 1) / uint64(chunkSize)
	return start, end
}
