// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile computes the SHA256 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex-encoded string representation of a
// SHA256 digest, for log output and error messages.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

// FilesEqual reports whether the files at a and b have identical
// content. Both are streamed through SHA256; neither is loaded into
// memory whole.
func FilesEqual(a, b string) (bool, error) {
	digestA, err := HashFile(a)
	if err != nil {
		return false, err
	}
	digestB, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return digestA == digestB, nil
}
