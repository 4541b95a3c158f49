// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package zfferr defines the typed error kinds surfaced across the
// header, chunk, segment, and container layers. Every exported type
// implements error and is meant to be matched with [errors.As], never
// with string comparison. Callers that need to distinguish a whole
// class of failure (integrity vs. configuration vs. I/O) should test
// against these types rather than inspecting Error() text.
package zfferr

import (
	"fmt"
)

// UnexpectedMagic reports that a header's magic identifier did not
// match any value this package recognizes.
type UnexpectedMagic struct {
	// Want is the magic value the caller expected (0 if any header
	// would have been accepted at this position).
	Want uint32
	// Got is the magic value actually read.
	Got uint32
}

func (e *UnexpectedMagic) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("zff: unrecognized header magic 0x%08x", e.Got)
	}
	return fmt.Sprintf("zff: unexpected header magic: want 0x%08x, got 0x%08x", e.Want, e.Got)
}

// UnsupportedVersion reports that a header declared a format version
// this build does not know how to decode.
type UnsupportedVersion struct {
	Magic   uint32
	Version uint8
}

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("zff: unsupported version %d for header 0x%08x", e.Version, e.Magic)
}

// Truncated reports that fewer bytes were available than a header or
// record declared it needed.
type Truncated struct {
	// Want is the number of bytes the caller tried to read.
	Want int
	// Got is the number of bytes actually available.
	Got int
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("zff: truncated input: wanted %d bytes, got %d", e.Want, e.Got)
}

// TrailingGarbage reports that a length-prefixed header's declared
// length did not account for all the bytes that followed it before
// the next recognized magic.
type TrailingGarbage struct {
	Magic uint32
	Extra int
}

func (e *TrailingGarbage) Error() string {
	return fmt.Sprintf("zff: %d trailing bytes after header 0x%08x", e.Extra, e.Magic)
}

// MissingSegment reports that the segment set is missing the file for
// segment number N, making the logical container incomplete.
type MissingSegment struct {
	Number uint64
}

func (e *MissingSegment) Error() string {
	return fmt.Sprintf("zff: missing segment %d", e.Number)
}

// IntegrityFailure reports that stored content failed a check
// unrelated to a hash value: a chunk payload's CRC32 or decoded
// length, a segment footer's CRC32, or a chunk, object or file that
// the indexes cannot place. An AEAD tag rejection is reported as
// [DecryptionFailed] instead.
type IntegrityFailure struct {
	Object uint64
	Chunk  uint64
	Reason string
}

func (e *IntegrityFailure) Error() string {
	return fmt.Sprintf("zff: integrity failure on object %d chunk %d: %s", e.Object, e.Chunk, e.Reason)
}

// DecryptionFailed reports that AEAD decryption rejected a chunk's
// ciphertext and authentication tag.
type DecryptionFailed struct {
	Object uint64
	Chunk  uint64
}

func (e *DecryptionFailed) Error() string {
	return fmt.Sprintf("zff: decryption failed for object %d chunk %d", e.Object, e.Chunk)
}

// UnsupportedAlgorithm reports that a header named an algorithm id
// this build does not implement.
type UnsupportedAlgorithm struct {
	// Kind identifies which algorithm family the id belongs to, e.g.
	// "hash", "compression", "encryption", "kdf".
	Kind string
	ID   uint8
}

func (e *UnsupportedAlgorithm) Error() string {
	return fmt.Sprintf("zff: unsupported %s algorithm id %d", e.Kind, e.ID)
}

// KdfFailed reports that key derivation itself returned an error, as
// opposed to producing a key that later failed to decrypt anything.
type KdfFailed struct {
	Algorithm string
	Cause     error
}

func (e *KdfFailed) Error() string {
	return fmt.Sprintf("zff: key derivation (%s) failed: %v", e.Algorithm, e.Cause)
}

func (e *KdfFailed) Unwrap() error { return e.Cause }

// IoError wraps an underlying I/O failure with the operation and path
// that were in progress when it occurred.
type IoError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IoError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("zff: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("zff: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// BadConfig reports that a caller-supplied configuration value is
// invalid independent of any I/O.
type BadConfig struct {
	Field  string
	Reason string
}

func (e *BadConfig) Error() string {
	return fmt.Sprintf("zff: bad config field %q: %s", e.Field, e.Reason)
}

// StateViolation reports that an operation was attempted while the
// container or object state machine was in the wrong state.
type StateViolation struct {
	Expected string
	Actual   string
}

func (e *StateViolation) Error() string {
	return fmt.Sprintf("zff: state violation: expected %s, was %s", e.Expected, e.Actual)
}

// HashMismatch reports that a stored hash value did not match the
// hash recomputed over reassembled data.
type HashMismatch struct {
	Algorithm string
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("zff: hash mismatch (%s)", e.Algorithm)
}

// SignatureMismatch reports that an Ed25519 signature failed to
// verify against the chunk or hash value it was supposed to cover.
type SignatureMismatch struct {
	Object uint64
	Chunk  uint64
}

func (e *SignatureMismatch) Error() string {
	return fmt.Sprintf("zff: signature verification failed for object %d chunk %d", e.Object, e.Chunk)
}

// Interrupted reports that acquisition stopped mid-stream, identifying
// the last chunk number that was successfully written so the caller
// can resume or report partial coverage.
type Interrupted struct {
	LastChunk uint64
	Cause     error
}

func (e *Interrupted) Error() string {
	return fmt.Sprintf("zff: acquisition interrupted after chunk %d: %v", e.LastChunk, e.Cause)
}

func (e *Interrupted) Unwrap() error { return e.Cause }

// Sealed reports that an operation requiring a mutable container (or
// object) was attempted after [Sealed] state was reached.
type Sealed struct {
	What string
}

func (e *Sealed) Error() string {
	return fmt.Sprintf("zff: %s is sealed", e.What)
}
