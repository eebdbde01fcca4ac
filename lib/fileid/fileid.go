// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fileid derives the content-addressable identifiers that key
// a backup archive's flattened file store. The archive format names
// every stored file after the SHA-1 digest of its domain and relative
// path, so the identifier for a logical file can always be recomputed
// from the manifest row that describes it.
package fileid

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Length is the length of a rendered identifier: a SHA-1 digest as
// lowercase hexadecimal.
const Length = sha1.Size * 2

// Derive computes the identifier for a logical file. The digest input
// is the UTF-8 bytes of domain, a single '-' separator, and the
// relative path. Any strings are accepted, including empty ones; paths
// that are not valid UTF-8 hash whatever bytes they carry, which
// matches how the archive format itself behaves.
//
// Derive is pure: the same (domain, relativePath) pair always yields
// the same identifier, on every platform and in every process.
func Derive(domain, relativePath string) string {
	hasher := sha1.New()
	hasher.Write([]byte(domain))
	hasher.Write([]byte{'-'})
	hasher.Write([]byte(relativePath))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Validate reports whether id has the shape of a derived identifier:
// exactly Length characters, all lowercase hex. Manifest rows are
// untrusted input; engines call Validate before using a stored
// identifier to build filesystem paths.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("file identifier is %d characters, want %d", len(id), Length)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return fmt.Errorf("file identifier contains non-hex character %q at offset %d", c, i)
	}
	return nil
}

// Verify re-derives the identifier for (domain, relativePath) and
// compares it against the stored value. A mismatch means the manifest
// row and the flattened store disagree about where the file lives,
// which is how shard-level corruption shows up.
func Verify(stored, domain, relativePath string) error {
	derived := Derive(domain, relativePath)
	if stored != derived {
		return fmt.Errorf("stored identifier %s does not match derived %s", stored, derived)
	}
	return nil
}
