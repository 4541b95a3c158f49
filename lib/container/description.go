// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/zff-team/zff/lib/header"
	"github.com/zff-team/zff/lib/zfferr"
)

// Description carries free-form evidence metadata: case and evidence
// identifiers, the examiner of record, free-text notes, and the
// acquisition's wall-clock span. Every field but the timestamps is
// optional; an empty string is omitted from the encoded frame.
type Description struct {
	Case, Evidence, Examiner, Notes string
	AcquisitionStart, AcquisitionEnd time.Time
	DescriptionNotes                string
}

// descriptionTag identifies the wire shape of a description entry's
// value: a string is length-prefixed UTF-8, a timestamp is a fixed
// 8-byte big-endian Unix-seconds int64.
type descriptionTag byte

const (
	descTagString    descriptionTag = 0
	descTagTimestamp descriptionTag = 1
)

// descriptionBodyPrefixSize is the size, in bytes, of the two fixed
// timestamp entries ("as" and "ae") that always lead a description
// header's body. Keeping them fixed-width and first lets Seal patch
// the acquisition end time in place once it's known, the same way
// patchMainHeaderTotals patches the running totals.
const descriptionBodyPrefixSize = 2 * (2 + 1 + 8)

// acquisitionEndValueOffset is the body-relative byte offset of the
// "ae" entry's 8-byte timestamp value, expressed relative to the start
// of the frame (after the 13-byte magic/length/version prefix).
const acquisitionEndValueOffset = frameOverhead + (2 + 1 + 8) + (2 + 1)

func encodeDescription(d Description) []byte {
	body := make([]byte, 0, descriptionBodyPrefixSize+64)
	body = appendTimestampEntry(body, "as", d.AcquisitionStart)
	body = appendTimestampEntry(body, "ae", d.AcquisitionEnd)
	body = appendStringEntry(body, "cn", d.Case)
	body = appendStringEntry(body, "ev", d.Evidence)
	body = appendStringEntry(body, "ex", d.Examiner)
	body = appendStringEntry(body, "no", d.Notes)
	body = appendStringEntry(body, "dn", d.DescriptionNotes)
	return body
}

func appendTimestampEntry(body []byte, id string, t time.Time) []byte {
	body = append(body, id[0], id[1], byte(descTagTimestamp))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.Unix()))
	return append(body, buf[:]...)
}

func appendStringEntry(body []byte, id string, value string) []byte {
	if value == "" {
		return body
	}
	body = append(body, id[0], id[1], byte(descTagString))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(value)))
	body = append(body, lenBuf[:]...)
	return append(body, value...)
}

func writeDescription(w io.Writer, d Description) error {
	return header.WriteFrame(w, header.MagicDescriptionHeader, encodeDescription(d))
}

// decodeDescription parses a description header's body, skipping any
// two-letter identifier it does not recognize so future writers can
// add entries without breaking older readers.
func decodeDescription(r io.Reader) (*Description, error) {
	frame, err := header.ReadFrame(r, header.MagicDescriptionHeader)
	if err != nil {
		return nil, err
	}
	body := frame.Body
	d := &Description{}
	for len(body) > 0 {
		if len(body) < 3 {
			return nil, &zfferr.Truncated{Want: 3, Got: len(body)}
		}
		id := string(body[0:2])
		tag := descriptionTag(body[2])
		body = body[3:]

		switch tag {
		case descTagTimestamp:
			if len(body) < 8 {
				return nil, &zfferr.Truncated{Want: 8, Got: len(body)}
			}
			t := time.Unix(int64(binary.BigEndian.Uint64(body[:8])), 0).UTC()
			body = body[8:]
			switch id {
			case "as":
				d.AcquisitionStart = t
			case "ae":
				d.AcquisitionEnd = t
			}
		case descTagString:
			if len(body) < 8 {
				return nil, &zfferr.Truncated{Want: 8, Got: len(body)}
			}
			n := binary.BigEndian.Uint64(body[:8])
			body = body[8:]
			if uint64(len(body)) < n {
				return nil, &zfferr.Truncated{Want: int(n), Got: len(body)}
			}
			value := string(body[:n])
			body = body[n:]
			switch id {
			case "cn":
				d.Case = value
			case "ev":
				d.Evidence = value
			case "ex":
				d.Examiner = value
			case "no":
				d.Notes = value
			case "dn":
				d.DescriptionNotes = value
			}
		default:
			return nil, &zfferr.Truncated{Want: 0, Got: 0}
		}
	}
	return d, nil
}
