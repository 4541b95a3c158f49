// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command zffanalyze opens a container read-only and prints a summary
// of its objects, then verifies each object's stored hashes against
// its footer. Flag parsing and exit-code plumbing only — the read and
// verify logic itself lives in lib/container.
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
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "zffanalyze:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("zffanalyze", flag.ContinueOnError)
	input := fs.String("i", "", "path to the container's first segment, e.g. case.z01")
	password := fs.String("p", "", "acquisition password, if the container is encrypted")
	chunkExp := fs.Uint("chunk-size", 15, "chunk size exponent used at acquisition time")
	verify := fs.Bool("verify", true, "re-hash every object's chunks and compare against the footer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-i is required")
	}

	dir, base := filepath.Split(*input)
	basename := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = "."
	}

	unlock, err := loadUnlock(filepath.Clean(dir), basename, *password)
	if err != nil {
		return err
	}

	c, err := container.Open(filepath.Clean(dir), basename, uint8(*chunkExp), unlock)
	if err != nil {
		return err
	}

	desc := c.Description()
	fmt.Printf("case=%q evidence=%q examiner=%q acquired=%s..%s\n",
		desc.Case, desc.Evidence, desc.Examiner,
		desc.AcquisitionStart.Format("2006-01-02T15:04:05Z"),
		desc.AcquisitionEnd.Format("2006-01-02T15:04:05Z"))
	if desc.Notes != "" {
		fmt.Printf("notes: %s\n", desc.Notes)
	}

	for _, info := range c.Objects() {
		fmt.Printf("object %d: variant=%s length=%d chunks=%d\n",
			info.Number, info.Variant, info.TotalLength, info.ChunkCount)

		if !*verify {
			continue
		}
		report, err := c.Verify(info.Number)
		if err != nil {
			return fmt.Errorf("verifying object %d: %w", info.Number, err)
		}
		if len(report.Mismatches) == 0 {
			fmt.Printf("  verified %d chunks, all hashes match\n", report.ChunksRead)
		} else {
			fmt.Printf("  verified %d chunks, MISMATCH: %s\n", report.ChunksRead, strings.Join(report.Mismatches, ", "))
		}
	}
	return nil
}

// loadUnlock builds a [container.Unlock] from the -p flag and this
// container's sidecar key file, if one exists. An unencrypted
// container has no sidecar file and no password, which yields the
// zero-value Unlock container.Open expects for that case.
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
