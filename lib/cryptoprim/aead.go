// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/zff-team/zff/lib/zfferr"
)

// Algorithm identifies the AEAD cipher named in an encryption header.
type Algorithm uint8

const (
	AES128GCM        Algorithm = 0
	AES256GCM        Algorithm = 1
	ChaCha20Poly1305 Algorithm = 2
)

// String returns the wire-format name of an encryption algorithm id.
func (a Algorithm) String() string {
	switch a {
	case AES128GCM:
		return "aes-128-gcm"
	case AES256GCM:
		return "aes-256-gcm"
	case ChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// KeySize returns the data key length in bytes required by algorithm
// a.
func (a Algorithm) KeySize() int {
	switch a {
	case AES128GCM:
		return 16
	case AES256GCM:
		return 32
	case ChaCha20Poly1305:
		return chacha20poly1305.KeySize
	default:
		return 0
	}
}

// NonceSize is the nonce length used by every algorithm this package
// supports. A fixed 12-byte nonce is what lets the deterministic
// object/chunk-derived nonce below work unmodified across all three
// ciphers — none of them is used in its extended-nonce (X...) form.
const NonceSize = 12

// NewAEAD constructs the cipher.AEAD for algorithm a over key, which
// must be exactly a.KeySize() bytes.
func NewAEAD(a Algorithm, key []byte) (cipher.AEAD, error) {
	switch a {
	case AES128GCM, AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)

	case ChaCha20Poly1305:
		return chacha20poly1305.New(key)

	default:
		return nil, &zfferr.UnsupportedAlgorithm{Kind: "encryption", ID: uint8(a)}
	}
}

// DeterministicNonce builds the 12-byte nonce for a chunk: the
// object's number as a 4-byte big-endian field, followed by the
// chunk's number as an 8-byte big-endian field. Because every chunk in
// a container has a unique (object, chunk) pair, and the data key is
// never reused across containers, this nonce never repeats for a
// given key without requiring a random component or any per-chunk
// bookkeeping beyond numbers the format already carries.
func DeterministicNonce(objectNo uint32, chunkNo uint64) [NonceSize]byte {
	var nonce [NonceSize]byte
	binary.BigEndian.PutUint32(nonce[0:4], objectNo)
	binary.BigEndian.PutUint64(nonce[4:12], chunkNo)
	return nonce
}

// SealChunk encrypts plaintext in place and appends the authentication
// tag, using the deterministic nonce derived from objectNo and
// chunkNo. The returned slice is ciphertext||tag.
func SealChunk(aead cipher.AEAD, objectNo uint32, chunkNo uint64, plaintext []byte) []byte {
	nonce := DeterministicNonce(objectNo, chunkNo)
	return aead.Seal(nil, nonce[:], plaintext, nil)
}

// OpenChunk decrypts and authenticates a chunk encrypted by SealChunk.
// Returns [zfferr.DecryptionFailed], carrying the object and chunk
// numbers, if authentication fails; the underlying AEAD error is not
// kept.
func OpenChunk(aead cipher.AEAD, objectNo uint32, chunkNo uint64, ciphertext []byte) ([]byte, error) {
	nonce := DeterministicNonce(objectNo, chunkNo)
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, &zfferr.DecryptionFailed{Object: uint64(objectNo), Chunk: chunkNo}
	}
	return plaintext, nil
}
