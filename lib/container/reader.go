// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"crypto/cipher"
	"crypto/ed25519"
	"hash"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/object"
	"github.com/zff-team/zff/lib/segment"
	"github.com/zff-team/zff/lib/zfferr"
)

// Unlock supplies what a read session needs to decrypt an encrypted
// container: either a password together with the PBE wrapping
// recorded when the container was acquired, or an already-derived
// data key. A zero-value Unlock unlocks an unencrypted container.
type Unlock struct {
	Password       []byte
	KDF            cryptoprim.KDFParams
	WrapIV         []byte
	WrappedKey     []byte
	EncryptionAlgo cryptoprim.Algorithm

	// DataKey, if set, is used directly instead of running Password
	// through KDF/unwrap — the caller has already derived it.
	DataKey []byte

	// VerifyKey, if set, is the Ed25519 public key used to verify
	// per-chunk signatures on read. Left nil, signatures are accepted
	// without verification.
	VerifyKey ed25519.PublicKey
}

// ObjectInfo summarizes one object for listing without decoding its
// full header/footer again.
type ObjectInfo struct {
	Number      uint32
	Variant     object.Variant
	TotalLength uint64
	ChunkCount  uint64
}

// VerificationReport is the result of re-deriving an object's hashes
// from its stored chunks and comparing them against the footer's
// recorded values.
type VerificationReport struct {
	ObjectNumber uint32
	ChunksRead   uint64
	Mismatches   []string
}

// Container is an opened, read-only view of an acquired container: a
// merged segment set plus the decoded header/footer/file-record
// metadata needed to resolve any (object, offset) or (object, file)
// read.
type Container struct {
	dir, basename string
	segments      *segment.Set

	chunkSize int
	aead      cipher.AEAD
	verifyKey ed25519.PublicKey

	description Description
	objects     []*objectEntry
}

type objectEntry struct {
	header *object.Header
	footer *object.Footer
	files  []*object.Record // logical objects only, in write order
}

// Open discovers a container's segments under dir/basename, derives
// (or accepts) its data key if encrypted, and decodes every object's
// header, footer, and — for logical objects — file records.
func Open(dir, basename string, chunkSizeExponent uint8, unlock Unlock) (*Container, error) {
	chunkSize, err := chunk.SizeForExponent(chunkSizeExponent)
	if err != nil {
		return nil, err
	}

	segments, err := segment.Open(dir, basename)
	if err != nil {
		return nil, err
	}

	c := &Container{
		dir: dir, basename: basename,
		segments: segments, chunkSize: chunkSize,
		verifyKey: unlock.VerifyKey,
	}

	dataKey := unlock.DataKey
	if len(dataKey) == 0 && len(unlock.Password) > 0 {
		dataKey, err = unwrapWithPassword(unlock)
		if err != nil {
			segments.Close()
			return nil, err
		}
	}
	if len(dataKey) > 0 {
		c.aead, err = cryptoprim.NewAEAD(unlock.EncryptionAlgo, dataKey)
		if err != nil {
			segments.Close()
			return nil, err
		}
	}

	if err := c.loadObjects(); err != nil {
		segments.Close()
		return nil, err
	}

	return c, nil
}

// unwrapWithPassword runs unlock.Password through the recorded KDF to
// derive a key-encryption key, then unwraps the stored data key with
// it. The KEK is discarded as soon as unwrapping completes.
func unwrapWithPassword(unlock Unlock) ([]byte, error) {
	kek, err := cryptoprim.DeriveKEK(unlock.Password, unlock.KDF)
	if err != nil {
		return nil, err
	}
	defer kek.Close()

	dataKeyBuf, err := cryptoprim.UnwrapDataKey(kek, unlock.WrapIV, unlock.WrappedKey)
	if err != nil {
		return nil, err
	}
	defer dataKeyBuf.Close()

	return append([]byte(nil), dataKeyBuf.Bytes()...), nil
}

// loadObjects re-reads each segment's frame stream to recover object
// headers, object footers, and (for logical objects) file records —
// these share the same append-only byte stream as chunk records, so
// recovering them means walking that stream and dispatching on magic.
// Chunk records themselves are skipped here; they're resolved on
// demand through the merged segment index instead.
func (c *Container) loadObjects() error {
	for _, n := range c.segments.SegmentNumbers() {
		frames, err := c.segments.Frames(n)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			if err := c.applyFrame(frame); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Container) applyFrame(frame *header.Frame) error {
	switch frame.Magic {
	case header.MagicObjectHeader:
		hdr, err := object.DecodeHeader(reframe(frame))
		if err != nil {
			return err
		}
		c.objects = append(c.objects, &objectEntry{header: hdr})

	case header.MagicObjectFooterPhysical, header.MagicObjectFooterLogical:
		variant := object.Physical
		if frame.Magic == header.MagicObjectFooterLogical {
			variant = object.Logical
		}
		footer, err := object.DecodeFooter(reframe(frame), variant)
		if err != nil {
			return err
		}
		if len(c.objects) > 0 {
			c.objects[len(c.objects)-1].footer = footer
		}

	case header.MagicFileHeader:
		rec, err := object.Decode(reframe(frame))
		if err != nil {
			return err
		}
		if len(c.objects) > 0 {
			last := c.objects[len(c.objects)-1]
			last.files = append(last.files, rec)
		}

	case header.MagicDescriptionHeader:
		desc, err := decodeDescription(reframe(frame))
		if err != nil {
			return err
		}
		c.description = *desc

	case header.MagicChunkHeader, header.MagicMainHeader:
		// Chunk records are resolved on demand via the segment index;
		// the main header's totals aren't needed once every object's
		// own footer has been read.

	}
	return nil
}

// reframe re-serializes a parsed frame back into its raw on-disk
// bytes so it can be handed to a Decode function that expects to read
// the magic/length/version prefix itself.
func reframe(frame *header.Frame) *bytes.Reader {
	var buf bytes.Buffer
	_ = header.WriteFrame(&buf, frame.Magic, frame.Body)
	return bytes.NewReader(buf.Bytes())
}

// Description returns the container's case/evidence metadata and
// acquisition time span.
func (c *Container) Description() Description {
	return c.description
}

// Objects lists every object discovered in the container, in
// acquisition order.
func (c *Container) Objects() []ObjectInfo {
	out := make([]ObjectInfo, 0, len(c.objects))
	for _, o := range c.objects {
		info := ObjectInfo{Number: o.header.Number, Variant: o.header.Variant, TotalLength: o.header.TotalLength}
		if o.footer != nil {
			info.ChunkCount = o.footer.ChunkCount
		}
		out = append(out, info)
	}
	return out
}

// FileInfo returns the file record for fileID within a logical
// object, or nil if objectNo is not a logical object or has no file
// with that id.
func (c *Container) FileInfo(objectNo uint32, fileID uint64) *object.Record {
	entry, err := c.find(objectNo)
	if err != nil {
		return nil
	}
	for _, rec := range entry.files {
		if rec.ID == fileID {
			return rec
		}
	}
	return nil
}

// Children returns the direct children of parentID within a logical
// object, in write order. Use the reserved id 0 to list the tree's
// top-level entries.
func (c *Container) Children(objectNo uint32, parentID uint64) []*object.Record {
	entry, err := c.find(objectNo)
	if err != nil {
		return nil
	}
	var out []*object.Record
	for _, rec := range entry.files {
		if rec.ParentID == parentID && rec.ID != parentID {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Container) find(objectNo uint32) (*objectEntry, error) {
	for _, o := range c.objects {
		if o.header.Number == objectNo {
			return o, nil
		}
	}
	return nil, &zfferr.IntegrityFailure{Object: uint64(objectNo), Reason: "object not found in container"}
}

// Read resolves length bytes starting at offset within objectNo's
// byte-addressable content, reading and verifying every chunk the
// range touches and slicing the exact byte window out of the
// assembled result.
func (c *Container) Read(objectNo uint32, offset, length uint64) ([]byte, error) {
	entry, err := c.find(objectNo)
	if err != nil {
		return nil, err
	}
	if offset+length > entry.header.TotalLength {
		length = 0
		if offset < entry.header.TotalLength {
			length = entry.header.TotalLength - offset
		}
	}
	if length == 0 {
		return nil, nil
	}

	return c.readRange(entry, objectNo, offset, length)
}

// ReadFile resolves length bytes starting at offset within fileID's
// content inside the logical object objectNo.
func (c *Container) ReadFile(objectNo uint32, fileID uint64, offset, length uint64) ([]byte, error) {
	entry, err := c.find(objectNo)
	if err != nil {
		return nil, err
	}
	var rec *object.Record
	for _, f := range entry.files {
		if f.ID == fileID {
			rec = f
			break
		}
	}
	if rec == nil {
		return nil, &zfferr.IntegrityFailure{Object: uint64(objectNo), Reason: "file id not found in logical object"}
	}
	if rec.Kind != object.Regular {
		return nil, &zfferr.BadConfig{Field: "fileID", Reason: "not a regular file"}
	}
	if offset+length > rec.LogicalLength {
		length = 0
		if offset < rec.LogicalLength {
			length = rec.LogicalLength - offset
		}
	}
	if length == 0 {
		return nil, nil
	}

	return c.readFileRange(entry, objectNo, rec, offset, length)
}

func (c *Container) readRange(entry *objectEntry, objectNo uint32, offset, length uint64) ([]byte, error) {
	lastChunk := uint64(0)
	if entry.footer != nil && entry.footer.ChunkCount > 0 {
		lastChunk = entry.footer.ChunkCount - 1
	}
	return c.readChunkRange(entry, objectNo, offset, length, lastChunk, entry.header.TotalLength)
}

// readFileRange is [readRange] specialized to a logical file's chunk
// range: the last chunk and total length a short final chunk is sized
// against are the file's own, not the shared object's, since each
// regular file owns a disjoint slice of the object's chunk space.
func (c *Container) readFileRange(entry *objectEntry, objectNo uint32, rec *object.Record, offset, length uint64) ([]byte, error) {
	fileStartByte := rec.FirstChunk * uint64(c.chunkSize)
	return c.readChunkRange(entry, objectNo, fileStartByte+offset, length, rec.LastChunk, rec.LogicalLength)
}

// readChunkRange reads every chunk covering [offset, offset+length)
// and slices out the exact byte window, sizing the final chunk's
// expected plaintext length against totalLength/lastChunkNo — the
// object's own for a physical read, a single file's for a logical
// one.
func (c *Container) readChunkRange(entry *objectEntry, objectNo uint32, offset, length, lastChunkNo, totalLength uint64) ([]byte, error) {
	startChunk, endChunk := chunk.Range(offset, length, c.chunkSize)

	var out bytes.Buffer
	for no := startChunk; no <= endChunk; no++ {
		plain, err := c.readChunk(entry, objectNo, no, lastChunkNo, totalLength)
		if err != nil {
			return nil, err
		}
		out.Write(plain)
	}

	assembled := out.Bytes()
	chunkStartOffset := startChunk * uint64(c.chunkSize)
	from := offset - chunkStartOffset
	to := from + length
	if to > uint64(len(assembled)) {
		to = uint64(len(assembled))
	}
	return assembled[from:to], nil
}

func (c *Container) readChunk(entry *objectEntry, objectNo uint32, chunkNo, lastChunkNo, totalLength uint64) ([]byte, error) {
	rec, err := c.segments.ReadChunk(objectNo, chunkNo)
	if err != nil {
		return nil, err
	}

	expected := c.expectedChunkSize(entry, chunkNo, lastChunkNo, totalLength)

	opts := chunk.ReadOptions{
		Compression:  entry.header.Compression,
		AEAD:         c.aead,
		VerifyKey:    c.verifyKey,
		ExpectedSize: expected,
	}
	return chunk.ReadChunk(rec, opts)
}

// expectedChunkSize returns how many plaintext bytes chunkNo should
// decode to. Within readRange/readFileRange, lastChunkNo/totalLength
// already identify the caller's own terminal chunk; for a whole-object
// walk over a logical object (as in Verify), the terminal chunk of
// each individual file can fall short before the object's own last
// chunk, so file boundaries are checked first.
func (c *Container) expectedChunkSize(entry *objectEntry, chunkNo, lastChunkNo, totalLength uint64) int {
	for _, f := range entry.files {
		if f.Kind != object.Regular || f.LogicalLength == 0 {
			continue
		}
		if chunkNo == f.LastChunk {
			remaining := f.LogicalLength % uint64(c.chunkSize)
			if remaining != 0 {
				return int(remaining)
			}
			return c.chunkSize
		}
	}

	if chunkNo == lastChunkNo {
		remaining := totalLength % uint64(c.chunkSize)
		if remaining != 0 {
			return int(remaining)
		}
	}
	return c.chunkSize
}

// Verify re-derives objectNo's hash values from its stored chunks and
// compares them against the footer's recorded digests.
func (c *Container) Verify(objectNo uint32) (VerificationReport, error) {
	entry, err := c.find(objectNo)
	if err != nil {
		return VerificationReport{}, err
	}
	report := VerificationReport{ObjectNumber: objectNo}
	if entry.footer == nil {
		report.Mismatches = append(report.Mismatches, "object has no footer to verify against")
		return report, nil
	}

	hashers := make(map[hashing.Algorithm]hash.Hash, len(entry.header.HashAlgos))
	for _, a := range entry.header.HashAlgos {
		h, err := hashing.New(a)
		if err != nil {
			return report, err
		}
		hashers[a] = h
	}

	lastChunk := uint64(0)
	if entry.footer.ChunkCount > 0 {
		lastChunk = entry.footer.ChunkCount - 1
	}
	for no := uint64(0); no < entry.footer.ChunkCount; no++ {
		plain, err := c.readChunk(entry, objectNo, no, lastChunk, entry.header.TotalLength)
		if err != nil {
			return report, err
		}
		for _, h := range hashers {
			h.Write(plain)
		}
		report.ChunksRead++
	}

	for algo, h := range hashers {
		got := h.Sum(nil)
		want := entry.footer.Hashes[algo]
		if !bytes.Equal(got, want) {
			report.Mismatches = append(report.Mismatches, algo.String())
		}
	}
	return report, nil
}
