// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashing computes and verifies the digests stored in chunk
// hash headers and object hash values. Zff names hash algorithms by a
// small integer id rather than a string, so every acquisition and
// read-back path runs through the same [Algorithm]-to-hasher dispatch
// table.
package hashing

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/zff-team/zff/lib/zfferr"
)

// Algorithm identifies a hash function by the wire id stored in a
// hash header or hash value entry.
type Algorithm uint8

const (
	Blake2b512 Algorithm = 0
	SHA256     Algorithm = 1
	SHA512     Algorithm = 2
	SHA3_256   Algorithm = 3
	Blake3     Algorithm = 4
	XXH3       Algorithm = 5
)

// String returns the conventional lowercase name for an algorithm id.
func (a Algorithm) String() string {
	switch a {
	case Blake2b512:
		return "blake2b-512"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	case SHA3_256:
		return "sha3-256"
	case Blake3:
		return "blake3"
	case XXH3:
		return "xxh3"
	default:
		return "unknown"
	}
}

// Size returns the digest length in bytes for an algorithm.
func (a Algorithm) Size() int {
	switch a {
	case Blake2b512:
		return 64
	case SHA256:
		return 32
	case SHA512:
		return 64
	case SHA3_256:
		return 32
	case Blake3:
		return 32
	case XXH3:
		return 8
	default:
		return 0
	}
}

// Valid reports whether a is one of the six algorithm ids this package
// implements.
func (a Algorithm) Valid() bool {
	return a <= XXH3
}

// New returns a fresh hash.Hash for the given algorithm. Returns
// [zfferr.UnsupportedAlgorithm] if id does not name a known algorithm.
func New(a Algorithm) (hash.Hash, error) {
	switch a {
	case Blake2b512:
		h, err := blake2b.New512(nil)
		if err != nil {
			// blake2b.New512 only fails for a too-long key; nil key
			// never triggers that path.
			panic("hashing: blake2b.New512(nil) failed: " + err.Error())
		}
		return h, nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case Blake3:
		return blake3.New(), nil
	case XXH3:
		return xxhash.New(), nil
	default:
		return nil, &zfferr.UnsupportedAlgorithm{Kind: "hash", ID: uint8(a)}
	}
}

// Sum computes the digest of data under algorithm a.
func Sum(a Algorithm, data []byte) ([]byte, error) {
	h, err := New(a)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Set computes the digest of data under every algorithm in algorithms,
// in the order given, returning a map keyed by algorithm id. Used to
// populate a chunk's hash header or an object's aggregated hash value
// list, both of which may carry more than one algorithm per spec §4.
func Set(algorithms []Algorithm, data []byte) (map[Algorithm][]byte, error) {
	result := make(map[Algorithm][]byte, len(algorithms))
	for _, a := range algorithms {
		digest, err := Sum(a, data)
		if err != nil {
			return nil, err
		}
		result[a] = digest
	}
	return result, nil
}

// Verify recomputes the digest of data under algorithm a and compares
// it against want byte by byte, stopping at the first difference. The
// comparison is not constant-time; Zff does not use hashes as MACs, so
// timing differences are not a security concern here.
func Verify(a Algorithm, data []byte, want []byte) error {
	got, err := Sum(a, data)
	if err != nil {
		return err
	}
	if len(got) != len(want) {
		return &zfferr.HashMismatch{Algorithm: a.String()}
	}
	for i := range got {
		if got[i] != want[i] {
			return &zfferr.HashMismatch{Algorithm: a.String()}
		}
	}
	return nil
}
