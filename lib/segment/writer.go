// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"bytes"
	"os"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/zfferr"
)

// Writer appends records to a container's segment files, rolling over
// to a new segment whenever the next record would exceed the size
// budget. Object/file records (written via [Writer.AppendRaw]) and
// chunk records (via [Writer.AppendChunk]) are never split across a
// rollover.
type Writer struct {
	dir, basename string
	containerUUID [UUIDSize]byte
	sizeBudget    int64

	number uint64
	file   *os.File
	index  *indexBuilder
	count  uint64
}

// NewWriter opens the first segment (number 1) for a new container
// under dir/basename, writing its header immediately.
func NewWriter(dir, basename string, containerUUID [UUIDSize]byte, sizeBudget int64) (*Writer, error) {
	w := &Writer{dir: dir, basename: basename, containerUUID: containerUUID, sizeBudget: sizeBudget}
	if err := w.openSegment(1); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openSegment(number uint64) error {
	path := Path(w.dir, w.basename, number)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &zfferr.IoError{Op: "create segment", Path: path, Cause: err}
	}

	hdr := &Header{Number: number, ContainerUUID: w.containerUUID}
	if err := hdr.Encode(f); err != nil {
		f.Close()
		return err
	}

	w.number = number
	w.file = f
	w.index = newIndexBuilder()
	w.count = 0
	return nil
}

func (w *Writer) currentSize() (int64, error) {
	info, err := w.file.Stat()
	if err != nil {
		return 0, &zfferr.IoError{Op: "stat segment", Path: w.file.Name(), Cause: err}
	}
	return info.Size(), nil
}

// AppendRaw writes a pre-framed object or file record verbatim,
// rolling over to a new segment first if it would not fit in the
// remaining budget.
func (w *Writer) AppendRaw(frame []byte) error {
	size, err := w.currentSize()
	if err != nil {
		return err
	}
	if size+int64(len(frame)) > w.sizeBudget && size > 0 {
		if err := w.rollover(); err != nil {
			return err
		}
	}
	if _, err := w.file.Write(frame); err != nil {
		return &zfferr.IoError{Op: "write segment record", Path: w.file.Name(), Cause: err}
	}
	return nil
}

// AppendChunk encodes rec and writes it for objectNo, rolling over to
// a new segment first if the encoded record would not fit — chunk
// records are never split across segments.
func (w *Writer) AppendChunk(objectNo uint32, rec *chunk.Record) error {
	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		return err
	}

	size, err := w.currentSize()
	if err != nil {
		return err
	}
	if size+int64(buf.Len()) > w.sizeBudget && size > 0 {
		if err := w.rollover(); err != nil {
			return err
		}
		if size, err = w.currentSize(); err != nil {
			return err
		}
	}

	offset := size
	if _, err := w.file.Write(buf.Bytes()); err != nil {
		return &zfferr.IoError{Op: "write chunk record", Path: w.file.Name(), Cause: err}
	}

	w.index.put(objectNo, rec.ChunkNo, Entry{
		SegmentNumber: w.number,
		Offset:        offset,
		Length:        int64(buf.Len()),
		Flags:         uint8(rec.Flags),
	})
	w.count++
	return nil
}

// rollover finalizes the current segment and opens the next one.
func (w *Writer) rollover() error {
	if err := w.finalizeCurrent(); err != nil {
		return err
	}
	return w.openSegment(w.number + 1)
}

func (w *Writer) finalizeCurrent() error {
	footer := &Footer{Number: w.number, ChunkCount: w.count}
	if err := footer.Encode(w.file); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return &zfferr.IoError{Op: "close segment", Path: w.file.Name(), Cause: err}
	}
	return w.index.flush(IndexPath(w.dir, w.basename, w.number))
}

// Close finalizes the last open segment.
func (w *Writer) Close() error {
	return w.finalizeCurrent()
}

// SegmentCount returns how many segment files have been opened so
// far, including the currently open one.
func (w *Writer) SegmentCount() uint64 {
	return w.number
}

// CurrentOffset returns the current segment number and the byte
// offset the next AppendRaw/AppendChunk call will write at, letting a
// caller record a position to patch in place later (e.g. the
// container coordinator backfilling the main header's running totals
// once they're known, without rewriting the whole frame).
func (w *Writer) CurrentOffset() (segmentNumber uint64, offset int64, err error) {
	size, err := w.currentSize()
	if err != nil {
		return 0, 0, err
	}
	return w.number, size, nil
}
