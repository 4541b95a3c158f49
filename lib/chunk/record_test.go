// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zff-team/zff/lib/zfferr"
)

func TestRecordEncodeDecodeRoundtrip(t *testing.T) {
	rec := &Record{
		ObjectNo: 7,
		ChunkNo:  42,
		Flags:    FlagCompressed | FlagEncrypted,
		CRC32:    0xDEADBEEF,
		Payload:  []byte("ciphertext goes here"),
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.ObjectNo != rec.ObjectNo || got.ChunkNo != rec.ChunkNo || got.Flags != rec.Flags || got.CRC32 != rec.CRC32 {
		t.Errorf("decoded record fields = %+v, want %+v", got, rec)
	}
	if !bytes.Equal(got.Payload, rec.Payload) {
		t.Errorf("decoded payload = %q, want %q", got.Payload, rec.Payload)
	}
}

func TestRecordEncodeDecodeWithSignature(t *testing.T) {
	sig := bytes.Repeat([]byte{0x5A}, 64)
	rec := &Record{
		ObjectNo:  1,
		ChunkNo:   0,
		Flags:     FlagSigned,
		CRC32:     12345,
		Signature: sig,
		Payload:   []byte("signed plaintext"),
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got.Signature, sig) {
		t.Errorf("decoded signature = %x, want %x", got.Signature, sig)
	}
}

func TestRecordEncodeRejectsBadSignatureLength(t *testing.T) {
	rec := &Record{Flags: FlagSigned, Signature: []byte("too short")}
	var buf bytes.Buffer
	err := rec.Encode(&buf)
	var bad *zfferr.BadConfig
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadConfig, got %v", err)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	rec := &Record{ObjectNo: 1, ChunkNo: 1, Payload: []byte("x")}
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err := Decode(bytes.NewReader(truncated))
	var trunc *zfferr.Truncated
	if !errors.As(err, &trunc) {
		t.Fatalf("expected Truncated, got %v", err)
	}
}

func TestDecodeWrongMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	_, err := Decode(&buf)
	var unexpected *zfferr.UnexpectedMagic
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected UnexpectedMagic, got %v", err)
	}
}
