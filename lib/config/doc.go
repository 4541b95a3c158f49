// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for an acquisition
// run: output layout, chunking, compression, encryption, hashing, and
// signing.
//
// Configuration is loaded from a single file specified by either the
// ZFF_CONFIG environment variable (via [Load]) or an explicit path
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery, and
// no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports named profile sections (fast,
// balanced, thorough) that override base values when [Config].Profile
// matches. When the file has no thorough section, the thorough profile
// applies built-in defaults: every supported hash algorithm is computed
// and signing is enabled. Compression is not changed by any profile's
// built-in defaults.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ZFF_CASE_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Output, Chunking, Compression,
//     Encryption, Hashing, Signing
//   - [Default] -- returns a Config with balanced-profile defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other package in this module.
package config
