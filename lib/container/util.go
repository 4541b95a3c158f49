// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"

	"github.com/zff-team/zff/lib/chunk"
)

func sizeForExponent(exponent uint8) (int, error) {
	return chunk.SizeForExponent(exponent)
}

func putUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

func putUint64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
