// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration for the
// structured metadata embedded in a Zff container: a file record's
// metadata block, which carries its extended attributes and POSIX ACL
// entries. The description header's fields, notes included, are
// encoded as plain strings and do not pass through this package.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same logical metadata always produces identical bytes, so two
// acquisitions of semantically-identical file trees write identical
// file records to disk.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Stream-oriented variants exist for the rare case a caller wants to
// encode metadata incrementally rather than building the whole value
// first:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
