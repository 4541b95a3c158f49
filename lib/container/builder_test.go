// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/zff-team/zff/lib/clock"
	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/segment"
)

func newTestConfig(t *testing.T, dir string) Config {
	t.Helper()
	var uuid [segment.UUIDSize]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	return Config{
		Dir:               dir,
		Basename:          "case",
		ContainerUUID:     uuid,
		ChunkSizeExponent: 12, // 4 KiB
		SegmentSize:       1 << 30,
		Compression:       compress.None,
		HashAlgos:         []hashing.Algorithm{hashing.SHA256},
	}
}

func TestBuilderStateMachine(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(newTestConfig(t, dir))
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	if b.sm.state != HeaderWritten {
		t.Fatalf("state = %v, want HeaderWritten", b.sm.state)
	}

	if err := b.Seal(); err != nil {
		t.Fatalf("Seal with no objects failed: %v", err)
	}
	if b.sm.state != Sealed {
		t.Fatalf("state = %v, want Sealed", b.sm.state)
	}

	if _, err := b.OpenPhysicalObject(0); err == nil {
		t.Fatal("OpenPhysicalObject after Seal should fail")
	}
}

func TestBuilderRejectsSealWithOpenObject(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(newTestConfig(t, dir))
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	if _, err := b.OpenPhysicalObject(4); err != nil {
		t.Fatalf("OpenPhysicalObject failed: %v", err)
	}
	if err := b.Seal(); err == nil {
		t.Fatal("Seal with an open object should fail")
	}
}

func TestBuilderPatchesMainHeaderTotals(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(newTestConfig(t, dir))
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	data := bytes.Repeat([]byte{0x5A}, 4096*3)
	w, err := b.OpenPhysicalObject(uint64(len(data)))
	if err != nil {
		t.Fatalf("OpenPhysicalObject failed: %v", err)
	}
	if err := w.WriteAll(context.Background(), data); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	w2, err := b.OpenPhysicalObject(uint64(len(data)))
	if err != nil {
		t.Fatalf("second OpenPhysicalObject failed: %v", err)
	}
	if err := w2.WriteAll(context.Background(), data); err != nil {
		t.Fatalf("second WriteAll failed: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	set, err := segment.Open(dir, "case")
	if err != nil {
		t.Fatalf("segment.Open failed: %v", err)
	}
	defer set.Close()

	frames, err := set.Frames(1)
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}

	mainHdr, err := decodeMainHeader(reframe(frames[0]))
	if err != nil {
		t.Fatalf("decodeMainHeader failed: %v", err)
	}
	if mainHdr.ObjectCount != 2 {
		t.Errorf("ObjectCount = %d, want 2", mainHdr.ObjectCount)
	}
	if mainHdr.TotalDataLen != uint64(2*len(data)) {
		t.Errorf("TotalDataLen = %d, want %d", mainHdr.TotalDataLen, 2*len(data))
	}
}

func TestBuilderWritesDescriptionHeader(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.Fake(start)

	cfg := newTestConfig(t, dir)
	cfg.Clock = fake
	cfg.Description = Description{Case: "case-42", Examiner: "j.doe"}

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	fake.Advance(5 * time.Minute)
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	c, err := Open(dir, "case", cfg.ChunkSizeExponent, Unlock{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	desc := c.Description()
	if desc.Case != "case-42" || desc.Examiner != "j.doe" {
		t.Fatalf("Description() = %+v, want case-42/j.doe", desc)
	}
	if !desc.AcquisitionStart.Equal(start) {
		t.Errorf("AcquisitionStart = %v, want %v", desc.AcquisitionStart, start)
	}
	wantEnd := start.Add(5 * time.Minute)
	if !desc.AcquisitionEnd.Equal(wantEnd) {
		t.Errorf("AcquisitionEnd = %v, want %v", desc.AcquisitionEnd, wantEnd)
	}
}
