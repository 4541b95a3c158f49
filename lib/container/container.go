// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package container is the coordinator layer: it stitches the chunk,
// object, and segment layers into the public acquisition and
// read-back surface, owns the data key and signing key for a session,
// and enforces the acquisition state machine.
package container

import (
	"log/slog"

	"github.com/zff-team/zff/lib/zfferr"
)

// State is a step in an acquisition session's lifecycle. Chunk writes
// are only legal in ObjectOpen; Sealed is terminal for that session,
// though a sealed container may still be reopened for an append
// session that starts a fresh state machine on the same container
// UUID.
type State int

const (
	Opening State = iota
	HeaderWritten
	ObjectOpen
	ObjectClosed
	Sealed
)

func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case HeaderWritten:
		return "header-written"
	case ObjectOpen:
		return "object-open"
	case ObjectClosed:
		return "object-closed"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// stateMachine is held by Builder (as its sm field) to track and
// validate its current lifecycle state.
type stateMachine struct {
	state         State
	openObjectNo  uint32
	hasOpenObject bool
}

func (m *stateMachine) requireState(want State) error {
	if m.state != want {
		return &zfferr.StateViolation{Expected: want.String(), Actual: m.state.String()}
	}
	return nil
}

func (m *stateMachine) requireOpenObject() error {
	if m.state != ObjectOpen {
		return &zfferr.StateViolation{Expected: ObjectOpen.String(), Actual: m.state.String()}
	}
	return nil
}

// logGroup builds the slog attribute group every acquisition and
// read diagnostic in this package is tagged with.
func logGroup(objectNo uint32, chunkNo uint64, segmentNo uint64) slog.Attr {
	return slog.Group("zff",
		slog.Uint64("object", uint64(objectNo)),
		slog.Uint64("chunk", chunkNo),
		slog.Uint64("segment", segmentNo),
	)
}
