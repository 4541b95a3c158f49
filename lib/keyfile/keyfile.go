// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyfile persists the password-wrapping material an
// acquisition session generates (KDF parameters, wrap IV, wrapped data
// key) to a small sidecar file next to a container's segments, and
// reads it back for an unlock. The container format has no
// description-header slot wired up for this yet, so it lives outside
// the segment stream entirely rather than inventing one.
package keyfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zff-team/zff/lib/cryptoprim"
)

// Suffix is appended to a container's basename to name its sidecar
// key file, e.g. "case-0001.key".
const Suffix = ".key"

// Path returns the sidecar key file path for dir/basename.
func Path(dir, basename string) string {
	return filepath.Join(dir, basename+Suffix)
}

// Write persists kdf/wrapIV/wrappedKey to dir/basename's sidecar file.
func Write(dir, basename string, kdf cryptoprim.KDFParams, wrapIV, wrappedKey []byte) error {
	var buf []byte
	buf = append(buf, byte(kdf.Algorithm))
	buf = appendLenPrefixed(buf, kdf.Salt)
	buf = appendUint32(buf, kdf.Iterations)
	buf = appendUint32(buf, kdf.MemoryKiB)
	buf = appendUint32(buf, kdf.Time)
	buf = append(buf, kdf.Parallelism)
	buf = appendLenPrefixed(buf, wrapIV)
	buf = appendLenPrefixed(buf, wrappedKey)
	return os.WriteFile(Path(dir, basename), buf, 0o600)
}

// Read loads the sidecar key file written by Write.
func Read(dir, basename string) (kdf cryptoprim.KDFParams, wrapIV, wrappedKey []byte, err error) {
	data, err := os.ReadFile(Path(dir, basename))
	if err != nil {
		return cryptoprim.KDFParams{}, nil, nil, err
	}

	r := reader{buf: data}
	algo := r.byte()
	kdf.Algorithm = cryptoprim.KDFAlgorithm(algo)
	kdf.Salt = r.lenPrefixed()
	kdf.Iterations = r.uint32()
	kdf.MemoryKiB = r.uint32()
	kdf.Time = r.uint32()
	kdf.Parallelism = r.byte()
	wrapIV = r.lenPrefixed()
	wrappedKey = r.lenPrefixed()
	if r.err != nil {
		return cryptoprim.KDFParams{}, nil, nil, fmt.Errorf("keyfile: %s: %w", Path(dir, basename), r.err)
	}
	return kdf, wrapIV, wrappedKey, nil
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("truncated key file")
		return false
	}
	return true
}

func (r *reader) byte() byte {
	if !r.need(1) {
		return 0
	}
	b := r.buf[r.off]
	r.off++
	return b
}

func (r *reader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) lenPrefixed() []byte {
	n := r.uint32()
	if !r.need(int(n)) {
		return nil
	}
	v := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return v
}

func appendLenPrefixed(buf, v []byte) []byte {
	buf = appendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
