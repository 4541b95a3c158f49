// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"context"
	"hash"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zff-team/zff/lib/chunk"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/object"
	"github.com/zff-team/zff/lib/zfferr"
)

// ObjectWriter accepts the raw content of one physical object in
// order and drives it through the chunk write pipeline using a
// bounded worker pool, writing finished chunk records back to the
// builder's segment writer in chunk-number order.
type ObjectWriter struct {
	b           *Builder
	objectNo    uint32
	totalLength uint64
	chunkSize   int

	nextNo  uint64
	written uint64

	opts        chunk.WriteOptions
	hashAlgos   []hashing.Algorithm
	hashers     map[hashing.Algorithm]hash.Hash
	finalHashes map[hashing.Algorithm][]byte

	headerWritten bool
}

func newObjectWriter(b *Builder, totalLength uint64) *ObjectWriter {
	opts := chunk.WriteOptions{Compression: b.cfg.Compression, AEAD: b.cfg.AEAD, Signer: b.cfg.Signer}
	return &ObjectWriter{
		b:           b,
		objectNo:    b.sm.openObjectNo,
		totalLength: totalLength,
		chunkSize:   b.chunkSize,
		opts:        opts,
		hashAlgos:   b.cfg.HashAlgos,
	}
}

func (w *ObjectWriter) writeHeaderOnce() error {
	if w.headerWritten {
		return nil
	}
	hdr := &object.Header{
		Number:      w.objectNo,
		Variant:     object.Physical,
		TotalLength: w.totalLength,
		Compression: w.opts.Compression,
		Encrypted:   w.opts.AEAD != nil,
		HashAlgos:   w.hashAlgos,
		Signed:      w.opts.Signer != nil,
	}
	if w.opts.AEAD != nil {
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

type chunkJob struct {
	no  uint64
	raw []byte
}

type chunkResult struct {
	no  uint64
	rec *chunk.Record
}

// WriteAll drives the full content of the object through the
// pipeline: a chunker slices data into fixed-size pieces, a bounded
// pool of workers runs compress/encrypt/sign on each piece
// concurrently, and a single serial consumer writes finished records
// to the segment writer in ascending chunk-number order using a
// small reorder buffer, since workers can finish out of order. The
// coordinator's own hashers run over raw chunk bytes up front, before
// any chunk is dispatched to a worker.
func (w *ObjectWriter) WriteAll(ctx context.Context, data []byte) error {
	if err := w.writeHeaderOnce(); err != nil {
		return err
	}

	if w.hashers == nil {
		w.hashers = make(map[hashing.Algorithm]hash.Hash, len(w.hashAlgos))
		for _, a := range w.hashAlgos {
			h, err := hashing.New(a)
			if err != nil {
				return err
			}
			w.hashers[a] = h
		}
	}
	hashers := w.hashers

	var chunks []chunk.Chunk
	chunker := chunk.NewChunkerAt(data, w.chunkSize, w.nextNo)
	for {
		c := chunker.Next()
		if c == nil {
			break
		}
		chunks = append(chunks, *c)
	}
	for _, c := range chunks {
		for _, h := range hashers {
			h.Write(c.Data)
		}
	}

	workers := w.b.cfg.WorkerCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(chunks) && len(chunks) > 0 {
		workers = len(chunks)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan chunkJob)
	results := make(chan chunkResult)

	producerGroup, pctx := errgroup.WithContext(ctx)
	producerGroup.Go(func() error {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- chunkJob{no: c.Number, raw: c.Data}:
			case <-pctx.Done():
				return pctx.Err()
			}
		}
		return nil
	})

	workerGroup, wctx := errgroup.WithContext(pctx)
	workerGroup.SetLimit(workers)
	for i := 0; i < workers; i++ {
		workerGroup.Go(func() error {
			for job := range jobs {
				rec, err := chunk.WriteChunk(w.objectNo, job.no, job.raw, w.opts)
				if err != nil {
					return &zfferr.Interrupted{LastChunk: job.no, Cause: err}
				}
				select {
				case results <- chunkResult{no: job.no, rec: rec}:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- workerGroup.Wait()
		close(results)
	}()

	drainErr := w.drainInOrder(results)

	if err := producerGroup.Wait(); err != nil && drainErr == nil {
		drainErr = err
	}
	if err := <-done; err != nil && drainErr == nil {
		drainErr = err
	}
	if drainErr != nil {
		return drainErr
	}

	w.finalHashes = make(map[hashing.Algorithm][]byte, len(hashers))
	for algo, h := range hashers {
		w.finalHashes[algo] = h.Sum(nil)
	}
	w.written += uint64(len(data))
	return nil
}

// drainInOrder consumes results as they arrive, buffering any that
// complete out of order, and appends each record to the segment
// writer strictly in ascending chunk-number order.
func (w *ObjectWriter) drainInOrder(results <-chan chunkResult) error {
	pending := make(map[uint64]*chunk.Record)
	next := w.nextNo

	for r := range results {
		pending[r.no] = r.rec
		for {
			rec, ok := pending[next]
			if !ok {
				break
			}
			if err := w.b.writer.AppendChunk(w.objectNo, rec); err != nil {
				return err
			}
			delete(pending, next)
			next++
		}
	}

	if len(pending) != 0 {
		return &zfferr.Interrupted{LastChunk: next}
	}
	w.nextNo = next
	return nil
}

// Close writes the object's footer and folds its totals into the
// container's running counters.
func (w *ObjectWriter) Close() error {
	if err := w.writeHeaderOnce(); err != nil {
		return err
	}
	footer := &object.Footer{
		Number:     w.objectNo,
		Variant:    object.Physical,
		ChunkCount: w.nextNo,
		Hashes:     w.finalHashes,
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
