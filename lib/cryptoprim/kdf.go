// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cryptoprim implements the password-based key derivation,
// PBES2 key wrapping, and AEAD chunk encryption used when a container
// is password-protected. None of this runs unless encryption is
// configured; an unencrypted acquisition never touches this package.
package cryptoprim

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/zfferr"
)

// KDFAlgorithm identifies the password-based key derivation function
// named in a PBE subheader.
type KDFAlgorithm uint8

const (
	KDFPBKDF2SHA256 KDFAlgorithm = 0
	KDFArgon2id     KDFAlgorithm = 1
)

// String returns the wire-format name of a KDF algorithm id.
func (a KDFAlgorithm) String() string {
	switch a {
	case KDFPBKDF2SHA256:
		return "pbkdf2-sha256"
	case KDFArgon2id:
		return "argon2id"
	default:
		return "unknown"
	}
}

// KEKSize is the size in bytes of the key-encryption key derived from
// a password. It matches the data key size, so the same KDF output
// can wrap it directly under AES-256-CBC without a secondary
// derivation step.
const KEKSize = 32

// KDFParams holds the parameters recorded in a PBE subheader. Which
// fields are meaningful depends on Algorithm: PBKDF2 uses Salt and
// Iterations; Argon2id uses Salt, MemoryKiB, Time, and Parallelism.
type KDFParams struct {
	Algorithm   KDFAlgorithm
	Salt        []byte
	Iterations  uint32
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
}

// DeriveKEK runs the configured KDF over password and returns a
// KEKSize-byte key-encryption key held in guarded memory. The caller
// must Close the returned buffer.
func DeriveKEK(password []byte, params KDFParams) (*secret.Buffer, error) {
	if len(params.Salt) == 0 {
		return nil, &zfferr.BadConfig{Field: "kdf.salt", Reason: "must be nonempty"}
	}

	var derived []byte
	switch params.Algorithm {
	case KDFPBKDF2SHA256:
		if params.Iterations == 0 {
			return nil, &zfferr.BadConfig{Field: "kdf.iterations", Reason: "must be nonzero for pbkdf2"}
		}
		derived = pbkdf2.Key(password, params.Salt, int(params.Iterations), KEKSize, sha256.New)

	case KDFArgon2id:
		if params.MemoryKiB == 0 || params.Time == 0 || params.Parallelism == 0 {
			return nil, &zfferr.BadConfig{Field: "kdf.argon2", Reason: "memory, time, and parallelism must all be nonzero"}
		}
		derived = argon2.IDKey(password, params.Salt, params.Time, params.MemoryKiB, params.Parallelism, KEKSize)

	default:
		return nil, &zfferr.UnsupportedAlgorithm{Kind: "kdf", ID: uint8(params.Algorithm)}
	}

	buf, err := secret.NewFromBytes(derived)
	if err != nil {
		return nil, &zfferr.KdfFailed{Algorithm: params.Algorithm.String(), Cause: err}
	}
	return buf, nil
}
