// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hashing

import (
	"errors"
	"testing"

	"github.com/zff-team/zff/lib/zfferr"
)

func TestSumSizes(t *testing.T) {
	tests := []struct {
		algo Algorithm
		size int
	}{
		{Blake2b512, 64},
		{SHA256, 32},
		{SHA512, 64},
		{SHA3_256, 32},
		{Blake3, 32},
		{XXH3, 8},
	}

	data := []byte("forensic acquisition payload")

	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			digest, err := Sum(tt.algo, data)
			if err != nil {
				t.Fatalf("Sum failed: %v", err)
			}
			if len(digest) != tt.size {
				t.Errorf("digest length = %d, want %d", len(digest), tt.size)
			}
			if got := tt.algo.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
		})
	}
}

func TestSumDeterministic(t *testing.T) {
	data := []byte("same bytes in, same digest out")

	for algo := Blake2b512; algo <= XXH3; algo++ {
		a, err := Sum(algo, data)
		if err != nil {
			t.Fatalf("Sum(%v) failed: %v", algo, err)
		}
		b, err := Sum(algo, data)
		if err != nil {
			t.Fatalf("Sum(%v) failed: %v", algo, err)
		}
		if string(a) != string(b) {
			t.Errorf("%v: two Sum calls over identical input diverged", algo)
		}
	}
}

func TestVerifySuccess(t *testing.T) {
	data := []byte("chunk payload")
	digest, err := Sum(Blake3, data)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if err := Verify(Blake3, data, digest); err != nil {
		t.Errorf("Verify of matching digest failed: %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	digest, err := Sum(SHA256, []byte("original"))
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}

	err = Verify(SHA256, []byte("tampered"), digest)
	var mismatch *zfferr.HashMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected HashMismatch, got %v", err)
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := Sum(Algorithm(200), []byte("data"))
	var unsupported *zfferr.UnsupportedAlgorithm
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedAlgorithm, got %v", err)
	}
	if unsupported.Kind != "hash" {
		t.Errorf("Kind = %q, want %q", unsupported.Kind, "hash")
	}
}

func TestSetComputesEveryAlgorithm(t *testing.T) {
	data := []byte("object content")
	algos := []Algorithm{SHA256, Blake3, XXH3}

	digests, err := Set(algos, data)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(digests) != len(algos) {
		t.Fatalf("got %d digests, want %d", len(digests), len(algos))
	}
	for _, a := range algos {
		want, err := Sum(a, data)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}
		if string(digests[a]) != string(want) {
			t.Errorf("Set()[%v] did not match direct Sum()", a)
		}
	}
}

func TestAlgorithmValid(t *testing.T) {
	if !Blake3.Valid() {
		t.Error("Blake3 should be valid")
	}
	if Algorithm(6).Valid() {
		t.Error("id 6 should not be valid")
	}
}
