// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signing implements Ed25519 signing and verification of
// acquired chunk plaintext and hash values. Signatures are computed
// over plaintext, not ciphertext, so a signature remains meaningful
// independent of whether (or how) a container is later re-encrypted.
package signing

import (
	"crypto/ed25519"
	"fmt"

	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/zfferr"
)

// KeyPair holds an Ed25519 signing key. The private half lives in
// guarded memory for the lifetime of an acquisition or verification
// session; Close releases it.
type KeyPair struct {
	private *secret.Buffer
	public  ed25519.PublicKey
}

// NewKeyPair loads a KeyPair from a raw 32-byte Ed25519 seed. The seed
// buffer is owned by the returned KeyPair and is closed when
// [KeyPair.Close] is called; the caller must not use seed afterward.
func NewKeyPair(seed *secret.Buffer) (*KeyPair, error) {
	if seed.Len() != ed25519.SeedSize {
		seed.Close()
		return nil, fmt.Errorf("signing: seed is %d bytes, want %d", seed.Len(), ed25519.SeedSize)
	}
	private := ed25519.NewKeyFromSeed(seed.Bytes())
	public := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(public, private[ed25519.SeedSize:])

	privateBuf, err := secret.NewFromBytes(private)
	seed.Close()
	if err != nil {
		return nil, fmt.Errorf("signing: sealing private key: %w", err)
	}

	return &KeyPair{private: privateBuf, public: public}, nil
}

// PublicKey returns the Ed25519 public key, which a reader needs to
// verify signatures but never to create them.
func (k *KeyPair) PublicKey() ed25519.PublicKey {
	return k.public
}

// Sign signs message (a plaintext chunk or a hash value) with the
// private key.
func (k *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(k.private.Bytes()), message)
}

// Close releases the private key. Idempotent.
func (k *KeyPair) Close() error {
	return k.private.Close()
}

// Verify checks a signature over message against publicKey. Returns
// [zfferr.SignatureMismatch] (with object/chunk filled in by the
// caller) on failure.
func Verify(publicKey ed25519.PublicKey, message []byte, signature []byte) error {
	if !ed25519.Verify(publicKey, message, signature) {
		return &zfferr.SignatureMismatch{}
	}
	return nil
}

// VerifyChunk is [Verify] specialized to report which object and
// chunk failed verification, matching the granularity every other
// per-chunk error in this module reports at.
func VerifyChunk(publicKey ed25519.PublicKey, plaintext []byte, signature []byte, objectNo, chunkNo uint64) error {
	if !ed25519.Verify(publicKey, plaintext, signature) {
		return &zfferr.SignatureMismatch{Object: objectNo, Chunk: chunkNo}
	}
	return nil
}
