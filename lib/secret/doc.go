// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data such
// as passwords, data keys, and signing keys.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, guaranteeing secret material does not persist after release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//
// Access via [Buffer.Bytes] (slice into mmap region) or
// [Buffer.String] (heap copy for API boundaries). After Close, any
// access panics. Close is idempotent.
//
// [Zero] overwrites an ordinary heap-allocated byte slice in place;
// use it for the transient plaintext copies that unavoidably exist
// between an I/O read and the point a value is sealed into a Buffer
// (e.g. the KDF output before it is handed to [NewFromBytes]).
//
// Depends on golang.org/x/sys/unix. No dependencies on other packages
// in this module. A signing key is held in a Buffer for as long as its
// signing.KeyPair is open. The data key is not held in a Buffer: the
// acquisition and read paths pass it to the AEAD constructor as an
// ordinary byte slice and do not zero it afterwards.
package secret
