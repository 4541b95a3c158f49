// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command zffacquire drives one acquisition session from the command
// line: it walks a source (a single file for "physical", a directory
// tree for "logical"), feeds it through a [container.Builder], and
// seals the result. Flag parsing and exit-code plumbing only — the
// acquisition logic itself lives in lib/container.
package main

import (
	"context"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/zff-team/zff/lib/compress"
	"github.com/zff-team/zff/lib/config"
	"github.com/zff-team/zff/lib/container"
	"github.com/zff-team/zff/lib/cryptoprim"
	"github.com/zff-team/zff/lib/hashing"
	"github.com/zff-team/zff/lib/keyfile"
	"github.com/zff-team/zff/lib/object"
	"github.com/zff-team/zff/lib/secret"
	"github.com/zff-team/zff/lib/signing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "zffacquire:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: zffacquire physical|logical -i <src> [-config zff.yaml | -o <stem> [-z zstd|lz4] [-l N] [-p <pw>] [-S per_chunk|hash_only] [--chunk-size N]] [-case ID] [-evidence ID] [-examiner NAME] [-notes TEXT]")
	}
	mode := args[0]
	if mode != "physical" && mode != "logical" {
		return fmt.Errorf("first argument must be physical or logical, got %q", mode)
	}

	fs := flag.NewFlagSet("zffacquire "+mode, flag.ContinueOnError)
	src := fs.String("i", "", "input path (file for physical, directory for logical)")
	stem := fs.String("o", "", "output directory/basename stem")
	configPath := fs.String("config", "", "YAML acquisition config (see lib/config); CLI flags below are used when unset")
	compAlgo := fs.String("z", "none", "compression: none|zstd|lz4")
	_ = fs.Int("l", 0, "compression level (accepted but not applied; every codec runs at its default level)")
	password := fs.String("p", "", "acquisition password; enables encryption when set")
	signStrategy := fs.String("S", "per_chunk", "signature strategy: per_chunk signs every chunk; hash_only, like any other value, writes no signatures")
	chunkExp := fs.Uint("chunk-size", 15, "chunk size exponent (512B..16MiB, i.e. 9..24)")
	caseNo := fs.String("case", "", "case identifier recorded in the container's description header")
	evidenceID := fs.String("evidence", "", "evidence identifier recorded in the description header")
	examiner := fs.String("examiner", "", "examiner of record")
	notes := fs.String("notes", "", "free-text acquisition notes")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *src == "" {
		return fmt.Errorf("-i is required")
	}

	var acqCfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", *configPath, err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", *configPath, err)
		}
		acqCfg = loaded
	}

	settings, err := resolveSettings(acqCfg, *stem, *compAlgo, *signStrategy, uint8(*chunkExp), *caseNo, *examiner)
	if err != nil {
		return err
	}
	if acqCfg == nil {
		settings.encryptionEnabled = *password != ""
	}

	cfg := container.Config{
		Dir:               settings.dir,
		Basename:          settings.basename,
		ChunkSizeExponent: settings.chunkExp,
		SegmentSize:       settings.segmentSize,
		Compression:       settings.compression,
		HashAlgos:         settings.hashAlgos,
		Description: container.Description{
			Case:     settings.caseNo,
			Evidence: *evidenceID,
			Examiner: settings.examiner,
			Notes:    *notes,
		},
		Logger: slog.Default(),
	}
	containerUUID := uuid.New()
	copy(cfg.ContainerUUID[:], containerUUID[:])

	if settings.encryptionEnabled {
		pw := *password
		if pw == "" && settings.passwordEnv != "" {
			pw = os.Getenv(settings.passwordEnv)
		}
		if pw == "" {
			return fmt.Errorf("encryption is enabled but no password was supplied via -p or %s", settings.passwordEnv)
		}
		aead, algo, wrapIV, wrappedKey, kdf, err := deriveSessionKey(pw, settings.kdf, settings.encAlgo)
		if err != nil {
			return err
		}
		cfg.AEAD = aead
		cfg.EncryptionAlgo = algo
		cfg.Encrypted = true
		if err := keyfile.Write(settings.dir, settings.basename, kdf, wrapIV, wrappedKey); err != nil {
			return err
		}
	}

	var signerKey *signing.KeyPair
	if settings.signingEnabled {
		seed, err := loadOrGenerateSeed(settings.signingKeyPath)
		if err != nil {
			return err
		}
		kp, err := signing.NewKeyPair(seed)
		if err != nil {
			return err
		}
		signerKey = kp
		cfg.Signer = kp
		defer kp.Close()
	}

	b, err := container.NewBuilder(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch mode {
	case "physical":
		err = acquirePhysical(ctx, b, *src)
	case "logical":
		err = acquireLogical(ctx, b, *src)
	}
	if err != nil {
		return err
	}

	if err := b.Seal(); err != nil {
		return err
	}
	if signerKey != nil {
		fmt.Printf("signing public key: %x\n", signerKey.PublicKey())
	}
	fmt.Printf("sealed %s.z01 (%s object)\n", filepath.Join(settings.dir, settings.basename), mode)
	return nil
}

func acquirePhysical(ctx context.Context, b *container.Builder, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	w, err := b.OpenPhysicalObject(uint64(info.Size()))
	if err != nil {
		return err
	}

	const readSize = 64 << 20
	buf := make([]byte, readSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := w.WriteAll(ctx, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return w.Close()
}

func acquireLogical(ctx context.Context, b *container.Builder, root string) error {
	w, err := b.OpenLogicalObject()
	if err != nil {
		return err
	}

	ids := map[string]uint64{}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parentID := ids[filepath.Dir(rel)]
		meta := metadataOf(info)

		switch {
		case info.IsDir():
			id, err := w.AddDir(parentID, info.Name(), meta)
			if err != nil {
				return err
			}
			ids[rel] = id
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			meta.LinkTarget = target
			_, err = w.AddSymlink(parentID, info.Name(), meta)
			return err
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = w.AddFile(ctx, parentID, info.Name(), meta, data)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return w.Close()
}

func metadataOf(info os.FileInfo) object.Metadata {
	return object.Metadata{
		ModTime: info.ModTime().Unix(),
		Mode:    uint32(info.Mode().Perm()),
	}
}

func parseCompression(s string) (compress.Algorithm, error) {
	switch s {
	case "none", "":
		return compress.None, nil
	case "zstd":
		return compress.Zstd, nil
	case "lz4":
		return compress.LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// deriveSessionKey generates a random 32-byte data key, wraps it under
// a password-derived KEK, and returns an AEAD ready for the
// acquisition session plus the wrapping material the unlock side
// needs later. kdfTemplate carries the algorithm and cost parameters
// (everything but the salt, which is generated fresh per container).
func deriveSessionKey(password string, kdfTemplate cryptoprim.KDFParams, algo cryptoprim.Algorithm) (cipher.AEAD, cryptoprim.Algorithm, []byte, []byte, cryptoprim.KDFParams, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, 0, nil, nil, cryptoprim.KDFParams{}, err
	}
	kdf := kdfTemplate
	kdf.Salt = salt

	kek, err := cryptoprim.DeriveKEK([]byte(password), kdf)
	if err != nil {
		return nil, 0, nil, nil, cryptoprim.KDFParams{}, err
	}
	defer kek.Close()

	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return nil, 0, nil, nil, cryptoprim.KDFParams{}, err
	}
	aead, err := cryptoprim.NewAEAD(algo, dataKey)
	if err != nil {
		return nil, 0, nil, nil, cryptoprim.KDFParams{}, err
	}
	wrapIV, wrappedKey, err := cryptoprim.WrapDataKey(kek, dataKey)
	if err != nil {
		return nil, 0, nil, nil, cryptoprim.KDFParams{}, err
	}
	return aead, algo, wrapIV, wrappedKey, kdf, nil
}

// acquireSettings is the resolved, merged view of an acquisition's
// output location and per-chunk processing options, whether they came
// from a loaded YAML config or from the CLI flags that stand in for
// one when -config is omitted.
type acquireSettings struct {
	dir, basename    string
	chunkExp         uint8
	segmentSize      int64
	compression      compress.Algorithm
	hashAlgos        []hashing.Algorithm
	caseNo, examiner string

	encryptionEnabled bool
	passwordEnv       string
	kdf               cryptoprim.KDFParams
	encAlgo           cryptoprim.Algorithm

	signingEnabled bool
	signingKeyPath string
}

// resolveSettings merges a loaded acquisition config with the CLI
// flags that can stand in for one. When acqCfg is non-nil its values
// are authoritative for everything except the output stem, case
// number, and examiner, each of which a CLI flag may still override.
func resolveSettings(acqCfg *config.Config, stem, compAlgoFlag, signStrategyFlag string, chunkExpFlag uint8, caseFlag, examinerFlag string) (*acquireSettings, error) {
	if acqCfg != nil {
		if err := acqCfg.EnsureOutputDirectory(); err != nil {
			return nil, err
		}
		dir, basename := acqCfg.Output.Directory, acqCfg.Output.Basename
		if stem != "" {
			dir, basename = filepath.Split(stem)
			if dir == "" {
				dir = "."
			}
		}

		comp, err := compressionFromConfig(acqCfg.Compression.Algorithm)
		if err != nil {
			return nil, err
		}
		hashAlgos, err := hashAlgosFromConfig(acqCfg.Hashing.Algorithms)
		if err != nil {
			return nil, err
		}

		caseNo := acqCfg.Output.CaseNumber
		if caseFlag != "" {
			caseNo = caseFlag
		}
		examiner := acqCfg.Output.Examiner
		if examinerFlag != "" {
			examiner = examinerFlag
		}

		s := &acquireSettings{
			dir:               dir,
			basename:          basename,
			chunkExp:          acqCfg.Chunking.SizeExponent,
			segmentSize:       int64(acqCfg.Chunking.SegmentSize),
			compression:       comp,
			hashAlgos:         hashAlgos,
			caseNo:            caseNo,
			examiner:          examiner,
			encryptionEnabled: acqCfg.Encryption.Algorithm != config.EncryptionNone,
			passwordEnv:       acqCfg.Encryption.PasswordEnv,
			signingEnabled:    acqCfg.Signing.Enabled,
			signingKeyPath:    acqCfg.Signing.PrivateKeyPath,
		}
		if s.encryptionEnabled {
			if s.kdf, err = kdfFromConfig(acqCfg.Encryption); err != nil {
				return nil, err
			}
			if s.encAlgo, err = encryptionAlgoFromConfig(acqCfg.Encryption.Algorithm); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	if stem == "" {
		return nil, fmt.Errorf("-o is required when -config is not given")
	}
	dir, basename := filepath.Split(stem)
	if dir == "" {
		dir = "."
	}
	comp, err := parseCompression(compAlgoFlag)
	if err != nil {
		return nil, err
	}
	return &acquireSettings{
		dir:            dir,
		basename:       basename,
		chunkExp:       chunkExpFlag,
		segmentSize:    2 << 30,
		compression:    comp,
		hashAlgos:      []hashing.Algorithm{hashing.SHA256, hashing.Blake3},
		caseNo:         caseFlag,
		examiner:       examinerFlag,
		passwordEnv:    "ZFF_PASSWORD",
		encAlgo:        cryptoprim.AES256GCM,
		signingEnabled: signStrategyFlag == "per_chunk",
		kdf: cryptoprim.KDFParams{
			Algorithm:   cryptoprim.KDFArgon2id,
			MemoryKiB:   65536,
			Time:        3,
			Parallelism: 4,
		},
	}, nil
}

func compressionFromConfig(a config.CompressionAlgorithm) (compress.Algorithm, error) {
	switch a {
	case config.CompressionNone, "":
		return compress.None, nil
	case config.CompressionZstd:
		return compress.Zstd, nil
	case config.CompressionLZ4:
		return compress.LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", a)
	}
}

func hashAlgosFromConfig(algos []config.HashAlgorithm) ([]hashing.Algorithm, error) {
	out := make([]hashing.Algorithm, 0, len(algos))
	for _, a := range algos {
		switch a {
		case config.HashBlake2b512:
			out = append(out, hashing.Blake2b512)
		case config.HashSHA256:
			out = append(out, hashing.SHA256)
		case config.HashSHA512:
			out = append(out, hashing.SHA512)
		case config.HashSHA3_256:
			out = append(out, hashing.SHA3_256)
		case config.HashBlake3:
			out = append(out, hashing.Blake3)
		case config.HashXXH3:
			out = append(out, hashing.XXH3)
		default:
			return nil, fmt.Errorf("unknown hash algorithm %q", a)
		}
	}
	return out, nil
}

func encryptionAlgoFromConfig(a config.EncryptionAlgorithm) (cryptoprim.Algorithm, error) {
	switch a {
	case config.EncryptionAES128GCM:
		return cryptoprim.AES128GCM, nil
	case config.EncryptionAES256GCM:
		return cryptoprim.AES256GCM, nil
	case config.EncryptionChaCha20Poly1305:
		return cryptoprim.ChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("unknown encryption algorithm %q", a)
	}
}

func kdfFromConfig(e config.EncryptionConfig) (cryptoprim.KDFParams, error) {
	switch e.KDF {
	case config.KDFPBKDF2:
		return cryptoprim.KDFParams{
			Algorithm:  cryptoprim.KDFPBKDF2SHA256,
			Iterations: uint32(e.PBKDF2Iterations),
		}, nil
	case config.KDFArgon2id:
		return cryptoprim.KDFParams{
			Algorithm:   cryptoprim.KDFArgon2id,
			MemoryKiB:   e.Argon2Memory,
			Time:        e.Argon2Time,
			Parallelism: e.Argon2Parallelism,
		}, nil
	default:
		return cryptoprim.KDFParams{}, fmt.Errorf("unknown kdf %q", e.KDF)
	}
}

// loadOrGenerateSeed loads a raw 32-byte Ed25519 seed from path, or
// generates a fresh random one when path is empty. Either way the
// returned buffer is guarded memory the caller must Close.
func loadOrGenerateSeed(path string) (*secret.Buffer, error) {
	if path == "" {
		seed, err := secret.New(ed25519.SeedSize)
		if err != nil {
			return nil, err
		}
		if _, err := rand.Read(seed.Bytes()); err != nil {
			seed.Close()
			return nil, err
		}
		return seed, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signing key %s: %w", path, err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key %s is %d bytes, want %d", path, len(raw), ed25519.SeedSize)
	}
	return secret.NewFromBytes(raw)
}

