// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

var chunkBucket = []byte("chunks")

// Entry is one resolved chunk location: which segment holds it, at
// what byte offset the chunk record's frame begins, how many bytes
// the frame occupies, and the chunk's flags (duplicated here from the
// record itself purely so a lookup can answer "is this chunk
// same-bytes/encrypted/signed" without a second disk read).
type Entry struct {
	SegmentNumber uint64
	Offset        int64
	Length        int64
	Flags         uint8
}

func indexKey(objectNo uint32, chunkNo uint64) []byte {
	key := make([]byte, 4+8)
	binary.BigEndian.PutUint32(key[0:4], objectNo)
	binary.BigEndian.PutUint64(key[4:12], chunkNo)
	return key
}

func encodeEntry(e Entry) []byte {
	val := make([]byte, 8+8+8+1)
	binary.BigEndian.PutUint64(val[0:8], e.SegmentNumber)
	binary.BigEndian.PutUint64(val[8:16], uint64(e.Offset))
	binary.BigEndian.PutUint64(val[16:24], uint64(e.Length))
	val[24] = e.Flags
	return val
}

func decodeEntry(val []byte) Entry {
	return Entry{
		SegmentNumber: binary.BigEndian.Uint64(val[0:8]),
		Offset:        int64(binary.BigEndian.Uint64(val[8:16])),
		Length:        int64(binary.BigEndian.Uint64(val[16:24])),
		Flags:         val[24],
	}
}

// indexBuilder accumulates chunk locations for the segment currently
// being written and persists them into a per-segment bbolt database
// when the segment is finalized.
type indexBuilder struct {
	entries map[string]Entry
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{entries: make(map[string]Entry)}
}

func (b *indexBuilder) put(objectNo uint32, chunkNo uint64, e Entry) {
	b.entries[string(indexKey(objectNo, chunkNo))] = e
}

// flush writes every accumulated entry into a fresh bbolt database at
// path.
func (b *indexBuilder) flush(path string) error {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(chunkBucket)
		if err != nil {
			return err
		}
		for key, entry := range b.entries {
			if err := bucket.Put([]byte(key), encodeEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadIndex opens the bbolt database at path read-only and returns
// every (object_no, chunk_no) -> Entry pair it holds.
func loadIndex(path string) (map[string]Entry, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result := make(map[string]Entry)
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(chunkBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			result[string(k)] = decodeEntry(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
