// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"io"
	"os"
	"sort"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// Set is the unified read-time view of every segment sharing one
// container. Opening a Set discovers all segment files for a
// container, validates their headers, and merges their per-segment
// chunk indexes into a single cross-segment lookup table.
type Set struct {
	dir, basename string
	containerUUID [UUIDSize]byte

	files map[uint64]*os.File
	index map[string]Entry
}

// Open discovers segments 1..n for dir/basename, stopping at the
// first missing number, and merges their indexes. Returns
// [zfferr.MissingSegment] only if segment 1 itself is absent; a gap
// later in the numbering ends discovery without an error, and chunks
// stored in segments past the gap are reported as absent when read.
func Open(dir, basename string) (*Set, error) {
	s := &Set{
		dir: dir, basename: basename,
		files: make(map[uint64]*os.File),
		index: make(map[string]Entry),
	}

	for n := uint64(1); ; n++ {
		path := Path(dir, basename, n)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				if n == 1 {
					return nil, &zfferr.MissingSegment{Number: 1}
				}
				break
			}
			return nil, &zfferr.IoError{Op: "open segment", Path: path, Cause: err}
		}

		hdr, err := DecodeHeader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		if n == 1 {
			s.containerUUID = hdr.ContainerUUID
		} else if hdr.ContainerUUID != s.containerUUID {
			f.Close()
			return nil, &zfferr.IntegrityFailure{Reason: "segment belongs to a different container"}
		}

		entries, err := loadIndex(IndexPath(dir, basename, n))
		if err != nil {
			f.Close()
			return nil, &zfferr.IoError{Op: "load segment index", Path: IndexPath(dir, basename, n), Cause: err}
		}
		for k, v := range entries {
			s.index[k] = v
		}

		s.files[n] = f
	}

	return s, nil
}

// SegmentNumbers returns the discovered segment numbers in ascending
// order.
func (s *Set) SegmentNumbers() []uint64 {
	numbers := make([]uint64, 0, len(s.files))
	for n := range s.files {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

// Lookup resolves a chunk's location without reading it.
func (s *Set) Lookup(objectNo uint32, chunkNo uint64) (Entry, bool) {
	e, ok := s.index[string(indexKey(objectNo, chunkNo))]
	return e, ok
}

// ReadChunk resolves and decodes the chunk record for
// (objectNo, chunkNo).
func (s *Set) ReadChunk(objectNo uint32, chunkNo uint64) (*chunk.Record, error) {
	entry, ok := s.Lookup(objectNo, chunkNo)
	if !ok {
		return nil, &zfferr.IntegrityFailure{
			Object: uint64(objectNo), Chunk: chunkNo, Reason: "chunk not present in any segment index",
		}
	}

	f, ok := s.files[entry.SegmentNumber]
	if !ok {
		return nil, &zfferr.MissingSegment{Number: entry.SegmentNumber}
	}

	section := io.NewSectionReader(f, entry.Offset, entry.Length)
	rec, err := chunk.Decode(section)
	if err != nil {
		return nil, err
	}
	if rec.ObjectNo != objectNo || rec.ChunkNo != chunkNo {
		return nil, &zfferr.IntegrityFailure{
			Object: uint64(objectNo), Chunk: chunkNo, Reason: "chunk record coordinates do not match index entry",
		}
	}
	return rec, nil
}

// Frames returns every header/footer frame in segment n's data
// region, in on-disk order, excluding the segment's own header and
// footer. The chunk layer's own records appear in this stream
// alongside object headers, object footers, and file records, since
// all of them share one append-only byte stream; the caller
// distinguishes them by Magic.
func (s *Set) Frames(n uint64) ([]*header.Frame, error) {
	f, ok := s.files[n]
	if !ok {
		return nil, &zfferr.MissingSegment{Number: n}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &zfferr.IoError{Op: "seek segment", Path: f.Name(), Cause: err}
	}
	if _, err := header.ReadFrame(f, header.MagicSegmentHeader); err != nil {
		return nil, err
	}

	var frames []*header.Frame
	for {
		frame, err := header.ReadFrame(f, 0)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if frame.Magic == header.MagicSegmentFooter {
			break
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Close closes every open segment file.
func (s *Set) Close() error {
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
