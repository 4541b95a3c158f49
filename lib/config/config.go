// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Profile names a named bundle of acquisition defaults.
type Profile string

const (
	// Fast names the speed-oriented profile. Selecting it applies only
	// the values in the config file's fast section; there are no
	// built-in fast defaults.
	Fast Profile = "fast"
	// Balanced is the default: Zstd compression, SHA-256 and Blake3,
	// encryption available but not forced on.
	Balanced Profile = "balanced"
	// Thorough favors evidentiary strength over speed: every
	// supported hash algorithm and signing enabled. Compression is left
	// as the base config sets it.
	Thorough Profile = "thorough"
)

// Config is the full configuration for an acquisition run.
type Config struct {
	// Profile selects the named defaults this run started from.
	Profile Profile `yaml:"profile"`

	// Output configures where segment files are written.
	Output OutputConfig `yaml:"output"`

	// Chunking configures fixed-size chunk and segment rotation sizes.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Compression configures the per-chunk compression codec.
	Compression CompressionConfig `yaml:"compression"`

	// Encryption configures AEAD encryption and key derivation.
	Encryption EncryptionConfig `yaml:"encryption"`

	// Hashing configures which hash algorithms are computed over each
	// object's content.
	Hashing HashingConfig `yaml:"hashing"`

	// Signing configures Ed25519 signing of chunks. Hash values are not
	// signed.
	Signing SigningConfig `yaml:"signing"`

	// ProfileOverrides contains per-profile overrides, applied after
	// the base config is loaded.
	FastOverrides     *ConfigOverrides `yaml:"fast,omitempty"`
	BalancedOverrides *ConfigOverrides `yaml:"balanced,omitempty"`
	ThoroughOverrides *ConfigOverrides `yaml:"thorough,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per profile.
type ConfigOverrides struct {
	Chunking    *ChunkingConfig    `yaml:"chunking,omitempty"`
	Compression *CompressionConfig `yaml:"compression,omitempty"`
	Encryption  *EncryptionConfig  `yaml:"encryption,omitempty"`
	Hashing     *HashingConfig     `yaml:"hashing,omitempty"`
	Signing     *SigningConfig     `yaml:"signing,omitempty"`
}

// OutputConfig configures segment file placement.
type OutputConfig struct {
	// Directory is where segment files (.z01, .z02, ...) are written.
	Directory string `yaml:"directory"`

	// Basename is the filename stem shared by all segments of one
	// container, e.g. "case-0001" produces case-0001.z01, .z02, ...
	Basename string `yaml:"basename"`

	// CaseNumber is a free-form identifier stored in the description
	// header. Not interpreted by this package.
	CaseNumber string `yaml:"case_number"`

	// Examiner is a free-form identifier stored in the description
	// header. Not interpreted by this package.
	Examiner string `yaml:"examiner"`
}

// ChunkingConfig configures fixed-size chunking and segment rotation.
type ChunkingConfig struct {
	// SizeExponent sets chunk_size = 1 << SizeExponent. Valid range is
	// 9..=24 (512 bytes to 16 MiB).
	// Default: 15 (32 KiB).
	SizeExponent uint8 `yaml:"size_exponent"`

	// SegmentSize is the size budget, in bytes, at which the writer
	// rolls over to the next segment file.
	// Default: 2147483648 (2 GiB).
	SegmentSize uint64 `yaml:"segment_size"`
}

// CompressionAlgorithm identifies a per-chunk compression codec.
type CompressionAlgorithm string

const (
	CompressionNone CompressionAlgorithm = "none"
	CompressionZstd CompressionAlgorithm = "zstd"
	CompressionLZ4  CompressionAlgorithm = "lz4"
)

// CompressionConfig configures the compression codec applied to every
// chunk before it is written.
type CompressionConfig struct {
	// Algorithm selects the codec. Default: zstd.
	Algorithm CompressionAlgorithm `yaml:"algorithm"`

	// Level is the codec-specific compression level. Zero selects the
	// codec's own default.
	Level int `yaml:"level"`
}

// EncryptionAlgorithm identifies an AEAD cipher used to encrypt chunks.
type EncryptionAlgorithm string

const (
	EncryptionNone             EncryptionAlgorithm = "none"
	EncryptionAES128GCM        EncryptionAlgorithm = "aes128gcm"
	EncryptionAES256GCM        EncryptionAlgorithm = "aes256gcm"
	EncryptionChaCha20Poly1305 EncryptionAlgorithm = "chacha20poly1305"
)

// KDFAlgorithm identifies the password-based key derivation function
// used to wrap the random data key.
type KDFAlgorithm string

const (
	KDFPBKDF2  KDFAlgorithm = "pbkdf2-sha256"
	KDFArgon2id KDFAlgorithm = "argon2id"
)

// EncryptionConfig configures whether and how chunks are encrypted.
type EncryptionConfig struct {
	// Algorithm selects the AEAD cipher. EncryptionNone disables
	// encryption entirely; all other fields are then ignored.
	Algorithm EncryptionAlgorithm `yaml:"algorithm"`

	// KDF selects the password-based key derivation function used to
	// wrap the random data key into the PBE subheader.
	KDF KDFAlgorithm `yaml:"kdf"`

	// PBKDF2Iterations is the iteration count when KDF is
	// KDFPBKDF2. Default: 600000.
	PBKDF2Iterations int `yaml:"pbkdf2_iterations"`

	// Argon2Memory is the memory cost in KiB when KDF is KDFArgon2id.
	// Default: 65536 (64 MiB).
	Argon2Memory uint32 `yaml:"argon2_memory_kib"`

	// Argon2Time is the time cost (iterations) when KDF is
	// KDFArgon2id. Default: 3.
	Argon2Time uint32 `yaml:"argon2_time"`

	// Argon2Parallelism is the number of lanes when KDF is
	// KDFArgon2id. Default: 4.
	Argon2Parallelism uint8 `yaml:"argon2_parallelism"`

	// PasswordEnv names an environment variable holding the
	// acquisition password. The password itself is never stored in
	// this config or written to disk by this package.
	PasswordEnv string `yaml:"password_env"`
}

// HashAlgorithm identifies a hash function computed over chunk or
// object content.
type HashAlgorithm string

const (
	HashBlake2b512 HashAlgorithm = "blake2b-512"
	HashSHA256     HashAlgorithm = "sha256"
	HashSHA512     HashAlgorithm = "sha512"
	HashSHA3_256   HashAlgorithm = "sha3-256"
	HashBlake3     HashAlgorithm = "blake3"
	HashXXH3       HashAlgorithm = "xxh3"
)

// HashingConfig configures which hash algorithms are computed.
type HashingConfig struct {
	// Algorithms lists every hash function computed over each object's
	// content, one digest per algorithm per object. Default:
	// [sha256, blake3].
	Algorithms []HashAlgorithm `yaml:"algorithms"`
}

// SigningConfig configures Ed25519 signing of acquired content.
type SigningConfig struct {
	// Enabled turns on per-chunk Ed25519 signatures. Hash values are
	// not signed.
	Enabled bool `yaml:"enabled"`

	// PrivateKeyPath is the path to a raw 32-byte Ed25519 seed file.
	// Required when Enabled is true.
	PrivateKeyPath string `yaml:"private_key_path"`
}

// Default returns the balanced-profile configuration. These defaults
// are used as a base before loading the config file. They exist
// primarily to ensure all fields have sensible zero-values, not as a
// fallback — the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDir := filepath.Join(homeDir, ".cache", "zff", "cases")

	return &Config{
		Profile: Balanced,
		Output: OutputConfig{
			Directory: defaultDir,
			Basename:  "acquisition",
		},
		Chunking: ChunkingConfig{
			SizeExponent: 15,
			SegmentSize:  2 * 1024 * 1024 * 1024,
		},
		Compression: CompressionConfig{
			Algorithm: CompressionZstd,
			Level:     0,
		},
		Encryption: EncryptionConfig{
			Algorithm:         EncryptionNone,
			KDF:               KDFArgon2id,
			PBKDF2Iterations:  600000,
			Argon2Memory:      65536,
			Argon2Time:        3,
			Argon2Parallelism: 4,
			PasswordEnv:       "ZFF_PASSWORD",
		},
		Hashing: HashingConfig{
			Algorithms: []HashAlgorithm{HashSHA256, HashBlake3},
		},
		Signing: SigningConfig{
			Enabled: false,
		},
	}
}

// Load loads configuration from the ZFF_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if ZFF_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("ZFF_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ZFF_CONFIG environment variable not set; " +
			"set it to the path of your zff.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values — this ensures deterministic, auditable
// configuration. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply profile-specific overrides (fast/balanced/thorough sections in the file).
	cfg.applyProfileOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyProfileOverrides applies the profile-specific overrides.
func (c *Config) applyProfileOverrides() {
	var overrides *ConfigOverrides

	switch c.Profile {
	case Fast:
		overrides = c.FastOverrides
	case Balanced:
		overrides = c.BalancedOverrides
	case Thorough:
		overrides = c.ThoroughOverrides
		// Thorough defaults: every hash algorithm, signing on.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Hashing: &HashingConfig{
					Algorithms: []HashAlgorithm{
						HashBlake2b512, HashSHA256, HashSHA512,
						HashSHA3_256, HashBlake3, HashXXH3,
					},
				},
				Signing: &SigningConfig{Enabled: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Chunking != nil {
		if overrides.Chunking.SizeExponent != 0 {
			c.Chunking.SizeExponent = overrides.Chunking.SizeExponent
		}
		if overrides.Chunking.SegmentSize != 0 {
			c.Chunking.SegmentSize = overrides.Chunking.SegmentSize
		}
	}

	if overrides.Compression != nil {
		if overrides.Compression.Algorithm != "" {
			c.Compression.Algorithm = overrides.Compression.Algorithm
		}
		c.Compression.Level = overrides.Compression.Level
	}

	if overrides.Encryption != nil {
		if overrides.Encryption.Algorithm != "" {
			c.Encryption.Algorithm = overrides.Encryption.Algorithm
		}
		if overrides.Encryption.KDF != "" {
			c.Encryption.KDF = overrides.Encryption.KDF
		}
		if overrides.Encryption.PBKDF2Iterations != 0 {
			c.Encryption.PBKDF2Iterations = overrides.Encryption.PBKDF2Iterations
		}
		if overrides.Encryption.Argon2Memory != 0 {
			c.Encryption.Argon2Memory = overrides.Encryption.Argon2Memory
		}
		if overrides.Encryption.Argon2Time != 0 {
			c.Encryption.Argon2Time = overrides.Encryption.Argon2Time
		}
		if overrides.Encryption.Argon2Parallelism != 0 {
			c.Encryption.Argon2Parallelism = overrides.Encryption.Argon2Parallelism
		}
		if overrides.Encryption.PasswordEnv != "" {
			c.Encryption.PasswordEnv = overrides.Encryption.PasswordEnv
		}
	}

	if overrides.Hashing != nil && len(overrides.Hashing.Algorithms) > 0 {
		c.Hashing.Algorithms = overrides.Hashing.Algorithms
	}

	if overrides.Signing != nil {
		// Enabled is a bool, so we always apply it from overrides.
		c.Signing.Enabled = overrides.Signing.Enabled
		if overrides.Signing.PrivateKeyPath != "" {
			c.Signing.PrivateKeyPath = overrides.Signing.PrivateKeyPath
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ZFF_CASE_ROOT": c.Output.Directory,
		"HOME":          os.Getenv("HOME"),
	}

	c.Output.Directory = expandVars(c.Output.Directory, vars)
	vars["ZFF_CASE_ROOT"] = c.Output.Directory // Update for dependent paths.

	c.Signing.PrivateKeyPath = expandVars(c.Signing.PrivateKeyPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Profile != Fast && c.Profile != Balanced && c.Profile != Thorough {
		errs = append(errs, fmt.Errorf("invalid profile: %s", c.Profile))
	}

	if c.Output.Directory == "" {
		errs = append(errs, fmt.Errorf("output.directory is required"))
	}
	if c.Output.Basename == "" {
		errs = append(errs, fmt.Errorf("output.basename is required"))
	}

	if c.Chunking.SizeExponent < 9 || c.Chunking.SizeExponent > 24 {
		errs = append(errs, fmt.Errorf("chunking.size_exponent must be in 9..=24, got %d", c.Chunking.SizeExponent))
	}
	if c.Chunking.SegmentSize == 0 {
		errs = append(errs, fmt.Errorf("chunking.segment_size must be nonzero"))
	}

	compressionValues := []CompressionAlgorithm{CompressionNone, CompressionZstd, CompressionLZ4}
	if !containsCompression(compressionValues, c.Compression.Algorithm) {
		errs = append(errs, fmt.Errorf("compression.algorithm must be one of: %v", compressionValues))
	}

	encryptionValues := []EncryptionAlgorithm{EncryptionNone, EncryptionAES128GCM, EncryptionAES256GCM, EncryptionChaCha20Poly1305}
	if !containsEncryption(encryptionValues, c.Encryption.Algorithm) {
		errs = append(errs, fmt.Errorf("encryption.algorithm must be one of: %v", encryptionValues))
	}
	if c.Encryption.Algorithm != EncryptionNone {
		if c.Encryption.KDF != KDFPBKDF2 && c.Encryption.KDF != KDFArgon2id {
			errs = append(errs, fmt.Errorf("encryption.kdf must be one of: %v", []KDFAlgorithm{KDFPBKDF2, KDFArgon2id}))
		}
		if c.Encryption.PasswordEnv == "" {
			errs = append(errs, fmt.Errorf("encryption.password_env is required when encryption is enabled"))
		}
	}

	if len(c.Hashing.Algorithms) == 0 {
		errs = append(errs, fmt.Errorf("hashing.algorithms must list at least one algorithm"))
	}

	if c.Signing.Enabled && c.Signing.PrivateKeyPath == "" {
		errs = append(errs, fmt.Errorf("signing.private_key_path is required when signing is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureOutputDirectory creates the configured output directory if it
// does not already exist.
func (c *Config) EnsureOutputDirectory() error {
	if c.Output.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(c.Output.Directory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Output.Directory, err)
	}
	return nil
}

func containsCompression(slice []CompressionAlgorithm, v CompressionAlgorithm) bool {
	for _, s := range slice {
		if s == v {
			return true
		}
	}
	return false
}

func containsEncryption(slice []EncryptionAlgorithm, v EncryptionAlgorithm) bool {
	for _, s := range slice {
		if s == v {
			return true
		}
	}
	return false
}
