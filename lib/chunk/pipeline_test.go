// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bytes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"hash/crc32"
	"testing"

	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/signing"
)

func newTestAEADCipher(t *testing.T) cipher.AEAD {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	aead, err := cryptoprim.NewAEAD(cryptoprim.AES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}
	return aead
}

func newTestSigner(t *testing.T) *signing.KeyPair {
	t.Helper()
	seedBytes := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seedBytes); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	seedBuf, err := secret.NewFromBytes(seedBytes)
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	kp, err := signing.NewKeyPair(seedBuf)
	if err != nil {
		t.Fatalf("NewKeyPair failed: %v", err)
	}
	return kp
}

func TestWriteReadChunkPlainRoundtrip(t *testing.T) {
	raw := []byte("a chunk of ordinary, incompressible-by-assumption plaintext data")

	rec, err := WriteChunk(1, 0, raw, WriteOptions{Compression: compress.None})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}

	got, err := ReadChunk(rec, ReadOptions{Compression: compress.None, ExpectedSize: len(raw)})
	if err != nil {
		t.Fatalf("ReadChunk failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round trip did not reproduce original bytes")
	}
}

func TestWriteReadChunkCompressed(t *testing.T) {
	raw := bytes.Repeat([]byte("highly compressible content "), 200)

	rec, err := WriteChunk(2, 5, raw, WriteOptions{Compression: compress.Zstd})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if rec.Flags&FlagCompressed == 0 {
		t.Fatal("expected repetitive data to compress")
	}

	got, err := ReadChunk(rec, ReadOptions{Compression: compress.Zstd, ExpectedSize: len(raw)})
	if err != nil {
		t.Fatalf("ReadChunk failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round trip did not reproduce original bytes")
	}
}

func TestWriteReadChunkEncrypted(t *testing.T) {
	aead := newTestAEADCipher(t)
	raw := []byte("sensitive sector data that must round-trip through AEAD")

	rec, err := WriteChunk(3, 9, raw, WriteOptions{Compression: compress.None, AEAD: aead})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if rec.Flags&FlagEncrypted == 0 {
		t.Fatal("expected FlagEncrypted to be set")
	}

	got, err := ReadChunk(rec, ReadOptions{Compression: compress.None, AEAD: aead, ExpectedSize: len(raw)})
	if err != nil {
		t.Fatalf("ReadChunk failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round trip did not reproduce original bytes")
	}
}

func TestWriteReadChunkSigned(t *testing.T) {
	signer := newTestSigner(t)
	defer signer.Close()
	raw := []byte("plaintext that gets signed, not the ciphertext")

	rec, err := WriteChunk(4, 1, raw, WriteOptions{Compression: compress.None, Signer: signer})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if rec.Flags&FlagSigned == 0 {
		t.Fatal("expected FlagSigned to be set")
	}

	got, err := ReadChunk(rec, ReadOptions{
		Compression: compress.None, ExpectedSize: len(raw), VerifyKey: signer.PublicKey(),
	})
	if err != nil {
		t.Fatalf("ReadChunk with signature verification failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round trip did not reproduce original bytes")
	}
}

func TestWriteReadChunkSameBytesCompaction(t *testing.T) {
	raw := bytes.Repeat([]byte{0x00}, 32*1024)

	rec, err := WriteChunk(5, 0, raw, WriteOptions{Compression: compress.Zstd})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if rec.Flags != FlagSameBytes {
		t.Fatalf("flags = %d, want only FlagSameBytes", rec.Flags)
	}
	if len(rec.Payload) != 1 {
		t.Fatalf("same-bytes payload length = %d, want 1", len(rec.Payload))
	}

	got, err := ReadChunk(rec, ReadOptions{Compression: compress.Zstd, ExpectedSize: len(raw)})
	if err != nil {
		t.Fatalf("ReadChunk failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("expanded same-bytes chunk does not match original")
	}
}

func TestReadChunkDetectsCRCTamper(t *testing.T) {
	raw := []byte("integrity must be checked before anything else runs")
	rec, err := WriteChunk(6, 0, raw, WriteOptions{Compression: compress.None})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	rec.Payload[0] ^= 0xFF

	_, err = ReadChunk(rec, ReadOptions{Compression: compress.None, ExpectedSize: len(raw)})
	if err == nil {
		t.Fatal("expected tampered payload to fail CRC32 check")
	}
}

func TestReadChunkDetectsDecryptionFailure(t *testing.T) {
	aead := newTestAEADCipher(t)
	raw := []byte("data that should not decrypt after tampering")

	rec, err := WriteChunk(7, 2, raw, WriteOptions{Compression: compress.None, AEAD: aead})
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	// Flip a byte and recompute the CRC so the tamper is only caught
	// by AEAD authentication, not the earlier CRC check.
	rec.Payload[len(rec.Payload)/2] ^= 0xFF
	rec.CRC32 = crc32.ChecksumIEEE(rec.Payload)

	_, err = ReadChunk(rec, ReadOptions{Compression: compress.None, AEAD: aead, ExpectedSize: len(raw)})
	if err == nil {
		t.Fatal("expected tampered ciphertext to fail AEAD authentication")
	}
}
