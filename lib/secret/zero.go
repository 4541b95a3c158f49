// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

// Zero overwrites data with zero bytes in place. Use it to scrub a
// transient plaintext copy of sensitive material that cannot be
// avoided entirely, such as the bytes a KDF writes before they are
// sealed into a Buffer. It is not a substitute for Buffer: a slice
// passed to Zero still travels through the normal Go heap and may have
// been copied by the runtime before Zero runs.
func Zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
