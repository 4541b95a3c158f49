// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package header implements the magic-prefixed, length-prefixed,
// versioned framing shared by every structure in a Zff container: main
// header, segment header, object header, chunk header, and their
// footers. Every frame has the same shape on the wire:
//
//	u32 magic (big-endian) | u64 body length (big-endian) | u8 version | body
//
// Self-describing length lets a reader skip a header it does not
// understand (an unsupported version, or a header type it does not
// care about) without parsing the body, which is what makes the
// format forward-compatible: a newer writer can add body fields a
// reader does not know about, and a reader that only needs the magic
// and length can still navigate past it.
package header

// Magic identifies the kind of header or footer a frame carries. Values
// are ASCII-derived four-byte tags; see the constants below for the
// full identifier table.
type Magic uint32

// Header and footer magic identifiers. Every frame in a container
// starts with one of these.
const (
	MagicMainHeader           Magic = 0x7A66666D
	MagicEncryptedMainHeader  Magic = 0x7A666645
	MagicDescriptionHeader    Magic = 0x7A666664
	MagicSegmentHeader        Magic = 0x7A666673
	MagicCompressionHeader    Magic = 0x7A666663
	MagicPBESubheader         Magic = 0x7A666670
	MagicEncryptionHeader     Magic = 0x7A666665
	MagicChunkHeader          Magic = 0x7A666643
	MagicHashHeader           Magic = 0x7A666668
	MagicHashValue            Magic = 0x7A666648
	MagicObjectHeader         Magic = 0x7A66664F
	MagicFileHeader           Magic = 0x7A666666
	MagicSegmentFooter        Magic = 0x7A666646
	MagicMainFooter           Magic = 0x7A66664D
	MagicObjectFooterPhysical Magic = 0x7A666650
	MagicObjectFooterLogical  Magic = 0x7A66664C
	MagicFileFooter           Magic = 0x7A666649
)

// String returns a human-readable name for a magic value, or "unknown"
// if it does not match any identifier in the table.
func (m Magic) String() string {
	switch m {
	case MagicMainHeader:
		return "main-header"
	case MagicEncryptedMainHeader:
		return "encrypted-main-header"
	case MagicDescriptionHeader:
		return "description-header"
	case MagicSegmentHeader:
		return "segment-header"
	case MagicCompressionHeader:
		return "compression-header"
	case MagicPBESubheader:
		return "pbe-subheader"
	case MagicEncryptionHeader:
		return "encryption-header"
	case MagicChunkHeader:
		return "chunk-header"
	case MagicHashHeader:
		return "hash-header"
	case MagicHashValue:
		return "hash-value"
	case MagicObjectHeader:
		return "object-header"
	case MagicFileHeader:
		return "file-header"
	case MagicSegmentFooter:
		return "segment-footer"
	case MagicMainFooter:
		return "main-footer"
	case MagicObjectFooterPhysical:
		return "object-footer-physical"
	case MagicObjectFooterLogical:
		return "object-footer-logical"
	case MagicFileFooter:
		return "file-footer"
	default:
		return "unknown"
	}
}
