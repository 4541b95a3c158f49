// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"crypto/cipher"
	"fmt"
	"log/slog"
	"os"

	"github.com/zff-team/zff/lib/clock"
	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/segment"
	"github.com/zff-team/zff/lib/signing"
	"github.com/zff-team/zff/lib/zfferr"
)

// Config configures a new acquisition session. AEAD is nil when
// encryption is disabled; Signer is nil when per-chunk signing is
// disabled.
type Config struct {
	Dir, Basename     string
	ContainerUUID     [segment.UUIDSize]byte
	ChunkSizeExponent uint8
	SegmentSize       int64

	Compression    compress.Algorithm
	AEAD           cipher.AEAD
	EncryptionAlgo cryptoprim.Algorithm
	Encrypted      bool

	HashAlgos []hashing.Algorithm
	Signer    *signing.KeyPair

	// WorkerCount bounds the chunk worker pool. Zero means "use one
	// worker per available core", for a caller that doesn't have a
	// specific budget in mind.
	WorkerCount int

	// Description carries case/evidence/examiner metadata for this
	// acquisition. AcquisitionStart is stamped from Clock if left
	// zero; AcquisitionEnd is always overwritten at Seal.
	Description Description

	// Clock sources the acquisition start/end timestamps. Defaults to
	// clock.Real() so production code never has to set it; tests pass
	// clock.Fake() for a deterministic span.
	Clock clock.Clock

	Logger *slog.Logger
}

// Builder drives one acquisition session: configuring chunk/segment
// parameters once, then opening one object at a time and sealing the
// container when every object is written.
type Builder struct {
	cfg       Config
	chunkSize int
	writer    *segment.Writer
	sm        stateMachine
	log       *slog.Logger
	clk       clock.Clock

	mainHdrSegment uint64
	mainHdrOffset  int64

	descHdrSegment uint64
	descHdrOffset  int64
	description    Description

	totalDataLen uint64
	objectCount  uint32
}

// NewBuilder opens segment 1 under cfg.Dir/cfg.Basename and writes the
// container's main header.
func NewBuilder(cfg Config) (*Builder, error) {
	chunkSize, err := segmentChunkSize(cfg.ChunkSizeExponent)
	if err != nil {
		return nil, err
	}

	writer, err := segment.NewWriter(cfg.Dir, cfg.Basename, cfg.ContainerUUID, cfg.SegmentSize)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	b := &Builder{cfg: cfg, chunkSize: chunkSize, writer: writer, log: logger, clk: clk}
	b.sm.state = Opening

	segNo, offset, err := writer.CurrentOffset()
	if err != nil {
		return nil, err
	}
	b.mainHdrSegment = segNo
	b.mainHdrOffset = offset

	hdr := &mainHeader{ChunkSizeExponent: cfg.ChunkSizeExponent, SegmentSize: uint64(cfg.SegmentSize)}
	var buf bytes.Buffer
	if err := hdr.write(&buf); err != nil {
		return nil, err
	}
	if err := writer.AppendRaw(buf.Bytes()); err != nil {
		return nil, err
	}

	b.description = cfg.Description
	if b.description.AcquisitionStart.IsZero() {
		b.description.AcquisitionStart = clk.Now()
	}
	descSegNo, descOffset, err := writer.CurrentOffset()
	if err != nil {
		return nil, err
	}
	b.descHdrSegment = descSegNo
	b.descHdrOffset = descOffset

	var descBuf bytes.Buffer
	if err := writeDescription(&descBuf, b.description); err != nil {
		return nil, err
	}
	if err := writer.AppendRaw(descBuf.Bytes()); err != nil {
		return nil, err
	}

	b.sm.state = HeaderWritten
	b.log.Info("zff container opened", "dir", cfg.Dir, "basename", cfg.Basename, "chunk_size", chunkSize)
	return b, nil
}

func segmentChunkSize(exponent uint8) (int, error) {
	return sizeForExponent(exponent)
}

// OpenPhysicalObject begins a new physical object of the given total
// logical length, returning a writer that accepts content via WriteAll.
func (b *Builder) OpenPhysicalObject(totalLength uint64) (*ObjectWriter, error) {
	if err := b.beginObject(); err != nil {
		return nil, err
	}
	return newObjectWriter(b, totalLength), nil
}

// OpenLogicalObject begins a new logical (file-tree) object.
func (b *Builder) OpenLogicalObject() (*LogicalObjectWriter, error) {
	if err := b.beginObject(); err != nil {
		return nil, err
	}
	return newLogicalObjectWriter(b), nil
}

func (b *Builder) beginObject() error {
	if b.sm.state != HeaderWritten && b.sm.state != ObjectClosed {
		return &zfferr.StateViolation{Expected: "header-written or object-closed", Actual: b.sm.state.String()}
	}
	b.sm.state = ObjectOpen
	b.sm.hasOpenObject = true
	b.sm.openObjectNo = b.objectCount
	return nil
}

// closeObject is called by ObjectWriter/LogicalObjectWriter once an
// object's footer has been written.
func (b *Builder) closeObject(dataLen uint64) {
	b.totalDataLen += dataLen
	b.objectCount++
	b.sm.hasOpenObject = false
	b.sm.state = ObjectClosed
	b.log.Info("zff object closed", logGroup(b.sm.openObjectNo, 0, b.mainHdrSegment), slog.Uint64("bytes", dataLen))
}

// Seal finalizes the last segment and patches the main header's
// running totals in place.
func (b *Builder) Seal() error {
	if b.sm.hasOpenObject {
		return &zfferr.StateViolation{Expected: "no open object", Actual: "object-open"}
	}
	if err := b.writer.Close(); err != nil {
		return err
	}

	if err := b.patchMainHeaderTotals(); err != nil {
		return err
	}
	if err := b.patchDescriptionEnd(); err != nil {
		return err
	}

	b.sm.state = Sealed
	b.log.Info("zff container sealed", "objects", b.objectCount, "bytes", b.totalDataLen)
	return nil
}

func (b *Builder) patchMainHeaderTotals() error {
	path := segment.Path(b.cfg.Dir, b.cfg.Basename, b.mainHdrSegment)
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return &zfferr.IoError{Op: "reopen segment to patch main header", Path: path, Cause: err}
	}
	defer f.Close()

	var objectCountBuf [4]byte
	var totalLenBuf [8]byte
	putUint32(objectCountBuf[:], b.objectCount)
	putUint64(totalLenBuf[:], b.totalDataLen)

	if _, err := f.WriteAt(objectCountBuf[:], b.mainHdrOffset+objectCountOffset); err != nil {
		return fmt.Errorf("zff: patching object count: %w", err)
	}
	if _, err := f.WriteAt(totalLenBuf[:], b.mainHdrOffset+totalDataLenOffset); err != nil {
		return fmt.Errorf("zff: patching total data length: %w", err)
	}
	return nil
}

// patchDescriptionEnd fills in the acquisition end time, which is only
// known once every object has been written and the last segment is
// about to close.
func (b *Builder) patchDescriptionEnd() error {
	path := segment.Path(b.cfg.Dir, b.cfg.Basename, b.descHdrSegment)
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return &zfferr.IoError{Op: "reopen segment to patch description header", Path: path, Cause: err}
	}
	defer f.Close()

	var buf [8]byte
	putUint64(buf[:], uint64(b.clk.Now().Unix()))
	if _, err := f.WriteAt(buf[:], b.descHdrOffset+acquisitionEndValueOffset); err != nil {
		return fmt.Errorf("zff: patching acquisition end time: %w", err)
	}
	return nil
}
