// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptoprim

import (
	"bytes"
	"testing"

	"github.com/zff-team/zff/lib/secret"
)

func testSalt() []byte {
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = byte(i)
	}
	return salt
}

func TestDeriveKEKPBKDF2Deterministic(t *testing.T) {
	params := KDFParams{Algorithm: KDFPBKDF2SHA256, Salt: testSalt(), Iterations: 10000}

	a, err := DeriveKEK([]byte("correct horse battery staple"), params)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	defer a.Close()

	b, err := DeriveKEK([]byte("correct horse battery staple"), params)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	defer b.Close()

	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("same password and salt should derive the same KEK")
	}
	if a.Len() != KEKSize {
		t.Errorf("KEK length = %d, want %d", a.Len(), KEKSize)
	}
}

func TestDeriveKEKArgon2id(t *testing.T) {
	params := KDFParams{
		Algorithm:   KDFArgon2id,
		Salt:        testSalt(),
		MemoryKiB:   8192,
		Time:        1,
		Parallelism: 2,
	}

	buf, err := DeriveKEK([]byte("password"), params)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	defer buf.Close()

	if buf.Len() != KEKSize {
		t.Errorf("KEK length = %d, want %d", buf.Len(), KEKSize)
	}
}

func TestDeriveKEKDifferentPasswordsDiverge(t *testing.T) {
	params := KDFParams{Algorithm: KDFPBKDF2SHA256, Salt: testSalt(), Iterations: 10000}

	a, err := DeriveKEK([]byte("password-one"), params)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	defer a.Close()

	b, err := DeriveKEK([]byte("password-two"), params)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	defer b.Close()

	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("different passwords should derive different KEKs")
	}
}

func TestDeriveKEKMissingSalt(t *testing.T) {
	_, err := DeriveKEK([]byte("password"), KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: 1000})
	if err == nil {
		t.Fatal("expected error for missing salt")
	}
}

func TestWrapUnwrapDataKeyRoundtrip(t *testing.T) {
	kek, err := secret.NewFromBytes(bytes.Repeat([]byte{0x42}, KEKSize))
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	defer kek.Close()

	dataKey := bytes.Repeat([]byte{0x99}, 32)

	iv, ciphertext, err := WrapDataKey(kek, dataKey)
	if err != nil {
		t.Fatalf("WrapDataKey failed: %v", err)
	}
	if len(iv) != PBES2IVSize {
		t.Errorf("iv length = %d, want %d", len(iv), PBES2IVSize)
	}

	unwrapped, err := UnwrapDataKey(kek, iv, ciphertext)
	if err != nil {
		t.Fatalf("UnwrapDataKey failed: %v", err)
	}
	defer unwrapped.Close()

	if !bytes.Equal(unwrapped.Bytes(), dataKey) {
		t.Error("unwrapped data key does not match original")
	}
}

func TestUnwrapDataKeyWrongKEKFails(t *testing.T) {
	kek, err := secret.NewFromBytes(bytes.Repeat([]byte{0x01}, KEKSize))
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	defer kek.Close()

	wrongKEK, err := secret.NewFromBytes(bytes.Repeat([]byte{0x02}, KEKSize))
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	defer wrongKEK.Close()

	dataKey := bytes.Repeat([]byte{0x55}, 32)
	iv, ciphertext, err := WrapDataKey(kek, dataKey)
	if err != nil {
		t.Fatalf("WrapDataKey failed: %v", err)
	}

	unwrapped, err := UnwrapDataKey(wrongKEK, iv, ciphertext)
	if err == nil {
		unwrapped.Close()
		t.Fatal("expected unwrap under the wrong KEK to fail (garbage padding almost never validates)")
	}
}
