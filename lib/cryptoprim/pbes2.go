// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/zff-team/zff/lib/secret"
)

// PBES2IVSize is the IV size for the AES-CBC wrapping step.
const PBES2IVSize = 16

// WrapDataKey encrypts dataKey under kek using AES-256-CBC with a
// random IV and PKCS#7 padding, the inner symmetric scheme of the
// PBE subheader's PBES2-style wrapping. Returns the IV and ciphertext
// to be stored alongside the KDF parameters; both are plaintext on
// disk, since the security here rests entirely on the password-derived
// kek, not on hiding the IV.
func WrapDataKey(kek *secret.Buffer, dataKey []byte) (iv []byte, ciphertext []byte, err error) {
	block, err := aes.NewCipher(kek.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("cryptoprim: creating AES cipher for key wrap: %w", err)
	}

	iv = make([]byte, PBES2IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("cryptoprim: generating wrap IV: %w", err)
	}

	padded := pkcs7Pad(dataKey, block.BlockSize())
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return iv, ciphertext, nil
}

// UnwrapDataKey reverses WrapDataKey, returning the recovered data key
// in guarded memory. The caller must Close the returned buffer.
func UnwrapDataKey(kek *secret.Buffer, iv []byte, ciphertext []byte) (*secret.Buffer, error) {
	block, err := aes.NewCipher(kek.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: creating AES cipher for key unwrap: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("cryptoprim: wrap IV is %d bytes, want %d", len(iv), block.BlockSize())
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("cryptoprim: wrapped key ciphertext is not a multiple of the block size")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	dataKey, err := pkcs7Unpad(padded, block.BlockSize())
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: unwrapping data key: %w", err)
	}

	buf, err := secret.NewFromBytes(dataKey)
	if err != nil {
		secret.Zero(dataKey)
		return nil, fmt.Errorf("cryptoprim: sealing unwrapped data key: %w", err)
	}
	return buf, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("cryptoprim: padded data is not a multiple of the block size")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("cryptoprim: invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("cryptoprim: invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
