// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command zffmount takes the -i/-m contract of a FUSE-backed mount
// command without the FUSE kernel interface itself (out of scope —
// see DESIGN.md): it opens a container read-only and reconstructs its
// logical object's file tree under the mountpoint directory, so the
// mountpoint ends up holding the same tree a live FUSE mount would
// have exposed, just materialized up front rather than served lazily.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zff-team/zff/lib/container"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/keyfile"
	"github.com/zff-team/zff/lib/object"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "zffmount:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("zffmount", flag.ContinueOnError)
	input := fs.String("i", "", "path to the container's first segment, e.g. case.z01")
	mountpoint := fs.String("m", "", "directory to materialize the logical file tree under")
	password := fs.String("p", "", "acquisition password, if the container is encrypted")
	chunkExp := fs.Uint("chunk-size", 15, "chunk size exponent used at acquisition time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *mountpoint == "" {
		return fmt.Errorf("-i and -m are required")
	}

	dir, base := filepath.Split(*input)
	basename := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = "."
	}
	dir = filepath.Clean(dir)

	unlock, err := loadUnlock(dir, basename, *password)
	if err != nil {
		return err
	}
	c, err := container.Open(dir, basename, uint8(*chunkExp), unlock)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*mountpoint, 0o755); err != nil {
		return err
	}

	for _, info := range c.Objects() {
		if info.Variant != object.Logical {
			continue
		}
		if err := extractLogicalObject(c, info.Number, *mountpoint); err != nil {
			return fmt.Errorf("extracting object %d: %w", info.Number, err)
		}
	}
	fmt.Printf("materialized %s under %s\n", *input, *mountpoint)
	return nil
}

// extractLogicalObject walks the file tree container.Container.Children
// exposes for objectNo, starting from the tree's implicit root
// (id 0), materializing each entry under mountpoint.
func extractLogicalObject(c *container.Container, objectNo uint32, mountpoint string) error {
	for _, top := range c.Children(objectNo, 0) {
		if err := walkFile(c, objectNo, top, filepath.Join(mountpoint, top.Name)); err != nil {
			return err
		}
	}
	return nil
}

func walkFile(c *container.Container, objectNo uint32, rec *object.Record, path string) error {
	switch rec.Kind {
	case object.Dir:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
	case object.Symlink:
		_ = os.Remove(path)
		if err := os.Symlink(rec.Metadata.LinkTarget, path); err != nil {
			return err
		}
	case object.Hardlink, object.Regular:
		data, err := c.ReadFile(objectNo, rec.ID, 0, rec.LogicalLength)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, os.FileMode(rec.Metadata.Mode|0o600)); err != nil {
			return err
		}
	}

	for _, child := range c.Children(objectNo, rec.ID) {
		if err := walkFile(c, objectNo, child, filepath.Join(path, child.Name)); err != nil {
			return err
		}
	}
	return nil
}

func loadUnlock(dir, basename, password string) (container.Unlock, error) {
	if password == "" {
		return container.Unlock{}, nil
	}
	kdf, wrapIV, wrappedKey, err := keyfile.Read(dir, basename)
	if err != nil {
		return container.Unlock{}, fmt.Errorf("reading %s: %w", keyfile.Path(dir, basename), err)
	}
	return container.Unlock{
		Password:       []byte(password),
		KDF:            kdf,
		WrapIV:         wrapIV,
		WrappedKey:     wrappedKey,
		EncryptionAlgo: cryptoprim.AES256GCM,
	}, nil
}
