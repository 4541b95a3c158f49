// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package header

import (
	"encoding/binary"
	"io"

	"github.com/zff-team/zff/lib/zfferr"
)

// CurrentVersion is the version byte written by this implementation
// for every header kind. A single version number across all header
// kinds keeps the framing code simple; nothing in the format requires
// per-kind version numbers to move in lockstep, so a future format
// revision can still bump just one kind's version if needed.
const CurrentVersion uint8 = 2

// frameOverhead is the size of the magic + length + version prefix
// that precedes every header or footer body.
const frameOverhead = 4 + 8 + 1

// WriteFrame writes magic, the length of body, CurrentVersion, and
// body itself to w, in that order. This is the on-disk shape of every
// header and footer in the format.
func WriteFrame(w io.Writer, magic Magic, body []byte) error {
	var prefix [frameOverhead]byte
	binary.BigEndian.PutUint32(prefix[0:4], uint32(magic))
	binary.BigEndian.PutUint64(prefix[4:12], uint64(len(body)))
	prefix[12] = CurrentVersion

	if _, err := w.Write(prefix[:]); err != nil {
		return &zfferr.IoError{Op: "write header frame", Cause: err}
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return &zfferr.IoError{Op: "write header body", Cause: err}
		}
	}
	return nil
}

// Frame is a parsed magic + length + version prefix together with the
// raw body bytes that followed it.
type Frame struct {
	Magic   Magic
	Version uint8
	Body    []byte
}

// ReadFrame reads one frame from r. want, if nonzero, restricts
// acceptance to that single magic value; pass 0 to accept any magic
// recognized by this package. ReadFrame does not itself validate the
// version — callers that care which versions they support should check
// Frame.Version themselves, since some callers (e.g. a generic header
// dumper) want to report an unsupported version rather than fail.
func ReadFrame(r io.Reader, want Magic) (*Frame, error) {
	var prefix [frameOverhead]byte
	n, err := io.ReadFull(r, prefix[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, err
		}
		return nil, &zfferr.Truncated{Want: frameOverhead, Got: n}
	}

	magic := Magic(binary.BigEndian.Uint32(prefix[0:4]))
	if want != 0 && magic != want {
		return nil, &zfferr.UnexpectedMagic{Want: uint32(want), Got: uint32(magic)}
	}

	length := binary.BigEndian.Uint64(prefix[4:12])
	version := prefix[12]

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, &zfferr.Truncated{Want: int(length), Got: len(body)}
		}
	}

	return &Frame{Magic: magic, Version: version, Body: body}, nil
}
