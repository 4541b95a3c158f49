// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"testing"
)

func TestFileRecordEncodeDecodeRoundtrip(t *testing.T) {
	rec := &Record{
		ID:       3,
		ParentID: 1,
		Name:     "evidence.txt",
		Kind:     Regular,
		Metadata: Metadata{
			ModTime: 1700000000,
			Mode:    0o644,
			UID:     1000,
			GID:     1000,
			Xattrs:  map[string][]byte{"user.note": []byte("seized from host A")},
			ACL:     []ACLEntry{{Tag: "user", Qualifier: 1000, Permission: 0o6}},
		},
		FirstChunk:    10,
		LastChunk:     12,
		LogicalLength: 9000,
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.ID != rec.ID || got.ParentID != rec.ParentID || got.Name != rec.Name || got.Kind != rec.Kind {
		t.Errorf("decoded fixed fields = %+v, want %+v", got, rec)
	}
	if got.FirstChunk != rec.FirstChunk || got.LastChunk != rec.LastChunk || got.LogicalLength != rec.LogicalLength {
		t.Errorf("decoded chunk range = %+v, want %+v", got, rec)
	}
	if !bytes.Equal(got.Metadata.Xattrs["user.note"], rec.Metadata.Xattrs["user.note"]) {
		t.Errorf("decoded xattr = %q, want %q", got.Metadata.Xattrs["user.note"], rec.Metadata.Xattrs["user.note"])
	}
	if len(got.Metadata.ACL) != 1 || got.Metadata.ACL[0].Qualifier != 1000 {
		t.Errorf("decoded ACL = %+v, want one entry with qualifier 1000", got.Metadata.ACL)
	}
}

func TestFileRecordDirHasNoChunkRange(t *testing.T) {
	rec := &Record{ID: 1, Name: "case-root", Kind: Dir}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind != Dir {
		t.Errorf("Kind = %v, want Dir", got.Kind)
	}
	if got.FirstChunk != 0 || got.LastChunk != 0 || got.LogicalLength != 0 {
		t.Errorf("chunk range = [%d, %d] length %d, want no reserved range", got.FirstChunk, got.LastChunk, got.LogicalLength)
	}
}

func TestFileRecordSymlinkCarriesTarget(t *testing.T) {
	rec := &Record{
		ID:       2,
		ParentID: 1,
		Name:     "link",
		Kind:     Symlink,
		Metadata: Metadata{LinkTarget: "/etc/passwd"},
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Metadata.LinkTarget != "/etc/passwd" {
		t.Errorf("LinkTarget = %q, want /etc/passwd", got.Metadata.LinkTarget)
	}
}
