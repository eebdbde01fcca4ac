// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides SHA256 content hashing for files.
//
// Extraction in copy mode and migration both promise byte-for-byte
// fidelity between a shard file and its materialized destination.
// Digest comparison is how the test suites check that promise without
// holding either file in memory.
//
//   - [HashFile] streams a file through SHA256, returning a [32]byte
//     digest with constant memory usage regardless of file size
//   - [FilesEqual] compares two files by digest
//   - [FormatDigest] converts a digest to its hex string form for
//     log output
//
// This package has no dependencies on other packages in this module.
package binhash
