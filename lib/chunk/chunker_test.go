// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zff-team/zff/lib/zfferr"
)

func TestSizeForExponent(t *testing.T) {
	size, err := SizeForExponent(9)
	if err != nil || size != 512 {
		t.Fatalf("SizeForExponent(9) = %d, %v; want 512, nil", size, err)
	}

	size, err = SizeForExponent(24)
	if err != nil || size != 16*1024*1024 {
		t.Fatalf("SizeForExponent(24) = %d, %v; want 16MiB, nil", size, err)
	}

	_, err = SizeForExponent(8)
	var bad *zfferr.BadConfig
	if !errors.As(err, &bad) {
		t.Fatalf("SizeForExponent(8) should reject below MinSizeExponent, got %v", err)
	}

	_, err = SizeForExponent(25)
	if !errors.As(err, &bad) {
		t.Fatalf("SizeForExponent(25) should reject above MaxSizeExponent, got %v", err)
	}
}

func TestChunkAllExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 3*4096)
	chunks := ChunkAll(data, 4096)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Number != uint64(i) {
			t.Errorf("chunk %d has Number %d", i, c.Number)
		}
		if len(c.Data) != 4096 {
			t.Errorf("chunk %d has length %d, want 4096", i, len(c.Data))
		}
	}
}

func TestChunkAllShortLastChunk(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 4096+100)
	chunks := ChunkAll(data, 4096)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0].Data) != 4096 {
		t.Errorf("first chunk length = %d, want 4096", len(chunks[0].Data))
	}
	if len(chunks[1].Data) != 100 {
		t.Errorf("last chunk length = %d, want 100", len(chunks[1].Data))
	}
}

func TestChunkAllReassemblesExactly(t *testing.T) {
	data := make([]byte, 10007)
	for i := range data {
		data[i] = byte(i)
	}

	chunks := ChunkAll(data, 1024)
	var reassembled []byte
	for _, c := range chunks {
		reassembled = append(reassembled, c.Data...)
	}

	if !bytes.Equal(reassembled, data) {
		t.Error("reassembled chunk data does not match original input")
	}
}

func TestChunkerAtContinuesNumbering(t *testing.T) {
	first := NewChunkerAt([]byte("aaaabbbb"), 4, 10)
	c := first.Next()
	if c.Number != 10 {
		t.Errorf("first chunk number = %d, want 10", c.Number)
	}
	c = first.Next()
	if c.Number != 11 {
		t.Errorf("second chunk number = %d, want 11", c.Number)
	}
}

func TestRangeSingleChunk(t *testing.T) {
	start, end := Range(100, 50, 4096)
	if start != 0 || end != 0 {
		t.Errorf("Range(100,50,4096) = (%d,%d), want (0,0)", start, end)
	}
}

func TestRangeSplitAcrossChunks(t *testing.T) {
	// A read starting near the end of chunk 0 and extending into
	// chunk 2 of a 4096-byte chunk size.
	start, end := Range(4000, 4200, 4096)
	if start != 0 {
		t.Errorf("start = %d, want 0", start)
	}
	if end != 2 {
		t.Errorf("end = %d, want 2", end)
	}
}

func TestRangeExactChunkBoundary(t *testing.T) {
	start, end := Range(4096, 4096, 4096)
	if start != 1 || end != 1 {
		t.Errorf("Range(4096,4096,4096) = (%d,%d), want (1,1)", start, end)
	}
}
