// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"context"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/object"
)

// rootFileID is the parent id every top-level entry is recorded
// under. No record with this id is ever written — it names the
// logical object's implicit tree root, never a real file or
// directory — so real file ids start at rootFileID+1.
const rootFileID = 0

// LogicalObjectWriter builds one logical (file-tree) object: a
// sequence of file records sharing one chunk-number space, with
// regular files' content running through the same per-chunk pipeline
// a physical object uses.
type LogicalObjectWriter struct {
	b         *Builder
	objectNo  uint32
	chunkSize int

	allocator *object.ChunkAllocator
	content   *ObjectWriter // reuses the physical pipeline for file bytes

	nextFileID uint64
	written    uint64

	headerWritten bool
}

func newLogicalObjectWriter(b *Builder) *LogicalObjectWriter {
	inner := newObjectWriter(b, 0)
	inner.totalLength = 0
	return &LogicalObjectWriter{
		b:          b,
		objectNo:   b.sm.openObjectNo,
		chunkSize:  b.chunkSize,
		allocator:  object.NewChunkAllocator(),
		content:    inner,
		nextFileID: rootFileID + 1, // id 0 is reserved for the synthetic tree root
	}
}

func (w *LogicalObjectWriter) writeHeaderOnce() error {
	if w.headerWritten {
		return nil
	}
	w.content.headerWritten = true // logical objects write their own header shape below
	hdr := &object.Header{
		Number:      w.objectNo,
		Variant:     object.Logical,
		Compression: w.content.opts.Compression,
		Encrypted:   w.content.opts.AEAD != nil,
		HashAlgos:   w.content.hashAlgos,
		Signed:      w.content.opts.Signer != nil,
	}
	if w.content.opts.AEAD != nil {
		hdr.Encryption = w.b.cfg.EncryptionAlgo
	}
	var buf bytes.Buffer
	if err := hdr.Encode(&buf); err != nil {
		return err
	}
	if err := w.b.writer.AppendRaw(buf.Bytes()); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

// AddDir records a directory entry. Directories reserve no chunk
// range.
func (w *LogicalObjectWriter) AddDir(parentID uint64, name string, meta object.Metadata) (uint64, error) {
	return w.addRecord(parentID, name, object.Dir, meta, 0, 0, 0)
}

// AddSymlink records a symlink entry; meta.LinkTarget carries the
// link's target path.
func (w *LogicalObjectWriter) AddSymlink(parentID uint64, name string, meta object.Metadata) (uint64, error) {
	return w.addRecord(parentID, name, object.Symlink, meta, 0, 0, 0)
}

// AddHardlink records a hardlink entry; meta.LinkTarget carries the
// referenced file's id, as a decimal string.
func (w *LogicalObjectWriter) AddHardlink(parentID uint64, name string, meta object.Metadata) (uint64, error) {
	return w.addRecord(parentID, name, object.Hardlink, meta, 0, 0, 0)
}

// AddFile records a regular file and drives its content through the
// chunk write pipeline, reserving a disjoint range of this object's
// shared chunk space.
func (w *LogicalObjectWriter) AddFile(ctx context.Context, parentID uint64, name string, meta object.Metadata, data []byte) (uint64, error) {
	if err := w.writeHeaderOnce(); err != nil {
		return 0, err
	}

	if len(data) == 0 {
		return w.addRecord(parentID, name, object.Regular, meta, 0, 0, 0)
	}

	chunkCount := uint64(len(chunk.ChunkAll(data, w.chunkSize)))
	first := w.allocator.Reserve(chunkCount)
	last := first + chunkCount - 1

	w.content.nextNo = first
	if err := w.content.WriteAll(ctx, data); err != nil {
		return 0, err
	}
	w.written += uint64(len(data))

	return w.addRecord(parentID, name, object.Regular, meta, first, last, uint64(len(data)))
}

func (w *LogicalObjectWriter) addRecord(parentID uint64, name string, kind object.FileKind, meta object.Metadata, first, last, length uint64) (uint64, error) {
	if err := w.writeHeaderOnce(); err != nil {
		return 0, err
	}

	id := w.nextFileID
	w.nextFileID++

	rec := &object.Record{
		ID:            id,
		ParentID:      parentID,
		Name:          name,
		Kind:          kind,
		Metadata:      meta,
		FirstChunk:    first,
		LastChunk:     last,
		LogicalLength: length,
	}
	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		return 0, err
	}
	if err := w.b.writer.AppendRaw(buf.Bytes()); err != nil {
		return 0, err
	}
	return id, nil
}

// Close writes the logical object's footer, aggregating per-algorithm
// hashes across every file that carried content.
func (w *LogicalObjectWriter) Close() error {
	if err := w.writeHeaderOnce(); err != nil {
		return err
	}

	footer := &object.Footer{
		Number:     w.objectNo,
		Variant:    object.Logical,
		ChunkCount: w.content.nextNo,
		Hashes:     w.content.finalHashes,
	}
	if footer.Hashes == nil {
		footer.Hashes = make(map[hashing.Algorithm][]byte)
	}

	var buf bytes.Buffer
	if err := footer.Encode(&buf); err != nil {
		return err
	}
	if err := w.b.writer.AppendRaw(buf.Bytes()); err != nil {
		return err
	}

	w.b.closeObject(w.written)
	return nil
}
