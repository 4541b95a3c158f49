// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/binary"
	"io"

	"github.com/zff-team/zff/lib/codec"
	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// FileKind identifies what a file record represents in a logical
// object's directory tree.
type FileKind uint8

const (
	Regular FileKind = 0
	Dir     FileKind = 1
	Symlink FileKind = 2
	Hardlink FileKind = 3
)

func (k FileKind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	case Hardlink:
		return "hardlink"
	default:
		return "unknown"
	}
}

// ACLEntry is one POSIX ACL entry, carried inside a file record's
// CBOR-encoded metadata block.
type ACLEntry struct {
	Tag        string `cbor:"tag"`
	Qualifier  uint32 `cbor:"qualifier,omitempty"`
	Permission uint8  `cbor:"permission"`
}

// Metadata is the variable-shaped part of a file record: timestamps,
// POSIX mode/ownership, and the platform-specific extended attributes
// and ACL entries that don't fit a fixed binary layout cleanly.
// Encoded as CBOR so new attribute keys never require a format
// version bump.
type Metadata struct {
	ModTime   int64             `cbor:"mtime"`
	AccTime   int64             `cbor:"atime,omitempty"`
	ChangeTime int64            `cbor:"ctime,omitempty"`
	BirthTime int64             `cbor:"btime,omitempty"`
	Mode      uint32            `cbor:"mode"`
	UID       uint32            `cbor:"uid"`
	GID       uint32            `cbor:"gid"`
	Xattrs    map[string][]byte `cbor:"xattrs,omitempty"`
	ACL       []ACLEntry        `cbor:"acl,omitempty"`
	// LinkTarget holds the symlink target for FileKind Symlink, and
	// the referenced file id (as a decimal string) for Hardlink.
	LinkTarget string `cbor:"link_target,omitempty"`
}

// Record is one entry in a logical object's file list: a name, its
// place in the tree, its kind, its metadata, and — for a regular file
// with content — the chunk range holding its body.
type Record struct {
	ID       uint64
	ParentID uint64 // 0 denotes the object root
	Name     string
	Kind     FileKind
	Metadata Metadata

	// FirstChunk/LastChunk is the inclusive range this file reserved
	// from the object's chunk allocator. Zero-length files and every
	// Dir/Symlink/Hardlink record reserve no chunk; they carry
	// FirstChunk == LastChunk == 0 with LogicalLength 0, so Kind and
	// LogicalLength, not the range, tell them apart from a one-chunk
	// file.
	FirstChunk    uint64
	LastChunk     uint64
	LogicalLength uint64
}

// Encode writes the file header frame for rec to w. The metadata
// block is CBOR-encoded and length-prefixed inside the frame body, so
// a decoder that only wants the fixed fields can skip it.
func (rec *Record) Encode(w io.Writer) error {
	metaBytes, err := codec.Marshal(rec.Metadata)
	if err != nil {
		return err
	}
	nameBytes := []byte(rec.Name)

	size := 8 + 8 + 8 + len(nameBytes) + 1 + 8 + 8 + 8 + 8 + len(metaBytes)
	body := make([]byte, size)
	off := 0

	binary.BigEndian.PutUint64(body[off:], rec.ID)
	off += 8
	binary.BigEndian.PutUint64(body[off:], rec.ParentID)
	off += 8
	binary.BigEndian.PutUint64(body[off:], uint64(len(nameBytes)))
	off += 8
	copy(body[off:], nameBytes)
	off += len(nameBytes)
	body[off] = byte(rec.Kind)
	off++
	binary.BigEndian.PutUint64(body[off:], rec.FirstChunk)
	off += 8
	binary.BigEndian.PutUint64(body[off:], rec.LastChunk)
	off += 8
	binary.BigEndian.PutUint64(body[off:], rec.LogicalLength)
	off += 8
	binary.BigEndian.PutUint64(body[off:], uint64(len(metaBytes)))
	off += 8
	copy(body[off:], metaBytes)

	return header.WriteFrame(w, header.MagicFileHeader, body)
}

// Decode reads one file header frame from r.
func Decode(r io.Reader) (*Record, error) {
	frame, err := header.ReadFrame(r, header.MagicFileHeader)
	if err != nil {
		return nil, err
	}
	return decodeFileBody(frame.Body)
}

func decodeFileBody(body []byte) (*Record, error) {
	const fixedWant = 8 + 8 + 8
	if len(body) < fixedWant {
		return nil, &zfferr.Truncated{Want: fixedWant, Got: len(body)}
	}

	rec := &Record{}
	off := 0
	rec.ID = binary.BigEndian.Uint64(body[off:])
	off += 8
	rec.ParentID = binary.BigEndian.Uint64(body[off:])
	off += 8
	nameLen := binary.BigEndian.Uint64(body[off:])
	off += 8

	if uint64(len(body)-off) < nameLen {
		return nil, &zfferr.Truncated{Want: off + int(nameLen), Got: len(body)}
	}
	rec.Name = string(body[off : off+int(nameLen)])
	off += int(nameLen)

	const tailWant = 1 + 8 + 8 + 8 + 8
	if len(body)-off < tailWant {
		return nil, &zfferr.Truncated{Want: off + tailWant, Got: len(body)}
	}
	rec.Kind = FileKind(body[off])
	off++
	rec.FirstChunk = binary.BigEndian.Uint64(body[off:])
	off += 8
	rec.LastChunk = binary.BigEndian.Uint64(body[off:])
	off += 8
	rec.LogicalLength = binary.BigEndian.Uint64(body[off:])
	off += 8
	metaLen := binary.BigEndian.Uint64(body[off:])
	off += 8

	if uint64(len(body)-off) != metaLen {
		return nil, &zfferr.Truncated{Want: off + int(metaLen), Got: len(body)}
	}
	if err := codec.Unmarshal(body[off:], &rec.Metadata); err != nil {
		return nil, err
	}

	return rec, nil
}
