// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"testing"

	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/object"
	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/segment"
	"github.com/zff-team/zff/lib/signing"
)

func TestPhysicalObjectRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, dir)
	cfg.WorkerCount = 4

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	data := make([]byte, 4096*10+123) // deliberately not a multiple of the chunk size
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	w, err := b.OpenPhysicalObject(uint64(len(data)))
	if err != nil {
		t.Fatalf("OpenPhysicalObject failed: %v", err)
	}
	// Split the write across two calls to exercise nextNo continuity.
	if err := w.WriteAll(context.Background(), data[:4096*4]); err != nil {
		t.Fatalf("WriteAll (part 1) failed: %v", err)
	}
	if err := w.WriteAll(context.Background(), data[4096*4:]); err != nil {
		t.Fatalf("WriteAll (part 2) failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	c, err := Open(dir, "case", cfg.ChunkSizeExponent, Unlock{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	objects := c.Objects()
	if len(objects) != 1 {
		t.Fatalf("Objects() returned %d entries, want 1", len(objects))
	}
	if objects[0].TotalLength != uint64(len(data)) {
		t.Errorf("TotalLength = %d, want %d", objects[0].TotalLength, len(data))
	}

	got, err := c.Read(0, 0, uint64(len(data)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-tripped data mismatch (got %d bytes, want %d)", len(got), len(data))
	}

	// An interior, non-chunk-aligned window should also come back exactly.
	window, err := c.Read(0, 5000, 1234)
	if err != nil {
		t.Fatalf("Read(5000, 1234) failed: %v", err)
	}
	if !bytes.Equal(window, data[5000:5000+1234]) {
		t.Fatalf("interior window mismatch")
	}

	report, err := c.Verify(0)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.Mismatches) != 0 {
		t.Errorf("Verify reported mismatches: %v", report.Mismatches)
	}
}

func TestLogicalObjectRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, dir)

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	w, err := b.OpenLogicalObject()
	if err != nil {
		t.Fatalf("OpenLogicalObject failed: %v", err)
	}

	dirID, err := w.AddDir(0, "evidence", object.Metadata{Mode: 0o755})
	if err != nil {
		t.Fatalf("AddDir failed: %v", err)
	}

	fileA := bytes.Repeat([]byte("A"), 4096*3+7)
	idA, err := w.AddFile(context.Background(), dirID, "a.bin", object.Metadata{Mode: 0o644}, fileA)
	if err != nil {
		t.Fatalf("AddFile(a.bin) failed: %v", err)
	}

	fileB := []byte("short file")
	idB, err := w.AddFile(context.Background(), dirID, "b.txt", object.Metadata{Mode: 0o644}, fileB)
	if err != nil {
		t.Fatalf("AddFile(b.txt) failed: %v", err)
	}

	linkID, err := w.AddSymlink(dirID, "c.link", object.Metadata{LinkTarget: "a.bin"})
	if err != nil {
		t.Fatalf("AddSymlink failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	c, err := Open(dir, "case", cfg.ChunkSizeExponent, Unlock{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	gotA, err := c.ReadFile(0, idA, 0, uint64(len(fileA)))
	if err != nil {
		t.Fatalf("ReadFile(a.bin) failed: %v", err)
	}
	if !bytes.Equal(gotA, fileA) {
		t.Fatalf("a.bin content mismatch")
	}

	gotB, err := c.ReadFile(0, idB, 0, uint64(len(fileB)))
	if err != nil {
		t.Fatalf("ReadFile(b.txt) failed: %v", err)
	}
	if !bytes.Equal(gotB, fileB) {
		t.Fatalf("b.txt content mismatch: got %q, want %q", gotB, fileB)
	}

	top := c.Children(0, 0)
	if len(top) != 1 || top[0].Name != "evidence" {
		t.Fatalf("Children(0, 0) = %v, want one entry named evidence", top)
	}
	kids := c.Children(0, dirID)
	if len(kids) != 3 {
		t.Fatalf("Children(0, dirID) returned %d entries, want 3", len(kids))
	}

	link := c.FileInfo(0, linkID)
	if link == nil || link.Kind != object.Symlink || link.Metadata.LinkTarget != "a.bin" {
		t.Fatalf("FileInfo(linkID) = %+v, want a symlink to a.bin", link)
	}

	report, err := c.Verify(0)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.Mismatches) != 0 {
		t.Errorf("Verify reported mismatches: %v", report.Mismatches)
	}
}

func TestEncryptedSignedCompressedRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, dir)

	dataKey := bytes.Repeat([]byte{0x11}, 32)
	aead, err := cryptoprim.NewAEAD(cryptoprim.AES256GCM, dataKey)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}
	cfg.AEAD = aead
	cfg.EncryptionAlgo = cryptoprim.AES256GCM
	cfg.Encrypted = true
	cfg.Compression = compress.Zstd
	cfg.HashAlgos = []hashing.Algorithm{hashing.SHA256, hashing.Blake3}

	seed, err := secret.New(32)
	if err != nil {
		t.Fatalf("secret.New failed: %v", err)
	}
	if _, err := rand.Read(seed.Bytes()); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	signer, err := signing.NewKeyPair(seed)
	if err != nil {
		t.Fatalf("NewKeyPair failed: %v", err)
	}
	defer signer.Close()
	cfg.Signer = signer

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	data := bytes.Repeat([]byte("compressible compressible compressible "), 500)
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
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	unlock := Unlock{
		DataKey:        dataKey,
		EncryptionAlgo: cryptoprim.AES256GCM,
		VerifyKey:      signer.PublicKey(),
	}
	c, err := Open(dir, "case", cfg.ChunkSizeExponent, unlock)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := c.Read(0, 0, uint64(len(data)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decrypted/decompressed content mismatch")
	}

	report, err := c.Verify(0)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.Mismatches) != 0 {
		t.Errorf("Verify reported mismatches: %v", report.Mismatches)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, dir)

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	data := bytes.Repeat([]byte{0x7E}, 4096*2)
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
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	// Flip a byte inside chunk 0's own indexed record range, found via
	// the segment index rather than guessed, so the corruption lands
	// inside payload bytes regardless of how the surrounding framing
	// is sized.
	indexSet, err := segment.Open(dir, "case")
	if err != nil {
		t.Fatalf("segment.Open failed: %v", err)
	}
	entry, ok := indexSet.Lookup(0, 0)
	if !ok {
		t.Fatal("chunk (0,0) missing from segment index")
	}
	indexSet.Close()

	path := segment.Path(dir, "case", entry.SegmentNumber)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	corruptAt := entry.Offset + entry.Length - 1
	raw[corruptAt] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := Open(dir, "case", cfg.ChunkSizeExponent, Unlock{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := c.Verify(0); err == nil {
		t.Fatal("Verify should have failed against corrupted chunk data")
	}
}
