// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/zfferr"
)

func newTestKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	seedBytes := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seedBytes); err != nil {
		t.Fatalf("generating seed: %v", err)
	}
	seedBuf, err := secret.NewFromBytes(seedBytes)
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	kp, err := NewKeyPair(seedBuf)
	if err != nil {
		t.Fatalf("NewKeyPair failed: %v", err)
	}
	return kp
}

func TestSignVerifyRoundtrip(t *testing.T) {
	kp := newTestKeyPair(t)
	defer kp.Close()

	message := []byte("plaintext chunk content, not ciphertext")
	sig := kp.Sign(message)

	if err := Verify(kp.PublicKey(), message, sig); err != nil {
		t.Errorf("Verify failed on a genuine signature: %v", err)
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp := newTestKeyPair(t)
	defer kp.Close()

	sig := kp.Sign([]byte("original chunk bytes"))

	err := Verify(kp.PublicKey(), []byte("tampered chunk bytes"), sig)
	var mismatch *zfferr.SignatureMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SignatureMismatch, got %v", err)
	}
}

func TestVerifyChunkReportsCoordinates(t *testing.T) {
	kp := newTestKeyPair(t)
	defer kp.Close()

	sig := kp.Sign([]byte("chunk data"))

	err := VerifyChunk(kp.PublicKey(), []byte("different data"), sig, 2, 99)
	var mismatch *zfferr.SignatureMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SignatureMismatch, got %v", err)
	}
	if mismatch.Object != 2 || mismatch.Chunk != 99 {
		t.Errorf("mismatch coordinates = (%d,%d), want (2,99)", mismatch.Object, mismatch.Chunk)
	}
}

func TestSignatureIsolatedPerKeyPair(t *testing.T) {
	a := newTestKeyPair(t)
	defer a.Close()
	b := newTestKeyPair(t)
	defer b.Close()

	message := []byte("same content signed by two different keys")
	sigA := a.Sign(message)

	if err := Verify(b.PublicKey(), message, sigA); err == nil {
		t.Error("signature from key A should not verify under key B's public key")
	}
}
