// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package segment implements the on-disk segment files that make up a
// container: naming and rollover on write, and the cross-segment
// merged chunk index on read. A segment is a single file holding a
// segment header, a stream of object/file and chunk records, and a
// segment footer; a container's objects and chunks may be scattered
// across any number of segments, so the read side always opens the
// full set sharing one container UUID before resolving a single
// chunk.
package segment

import (
	"fmt"
	"path/filepath"
)

// Extension returns the filename extension for segment number n of a
// container, following the zff convention of a minimum two-digit
// zero-padded suffix that widens past .z99 instead of wrapping (.z01,
// .z02, … .z99, .z100, .z101, …).
func Extension(n uint64) string {
	if n < 100 {
		return fmt.Sprintf("z%02d", n)
	}
	return fmt.Sprintf("z%d", n)
}

// Path returns the filesystem path for segment number n of the
// container stored under basename in dir.
func Path(dir, basename string, n uint64) string {
	return filepath.Join(dir, basename+"."+Extension(n))
}

// IndexPath returns the path of the bbolt index file that accompanies
// segment number n. It is the only on-disk record of where each chunk
// sits: the segment footer carries just the segment number, the chunk
// count and a CRC32 over them, so [Open] fails for a segment whose
// index file is missing or unreadable.
func IndexPath(dir, basename string, n uint64) string {
	return Path(dir, basename, n) + ".idx"
}
