// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"os"
)

// EnsureDir creates path and any missing parents. Idempotent: a
// second call with the same path is a no-op, and concurrent calls
// for a shared directory are safe — MkdirAll tolerates the
// directory-exists race. Partial trees left by an interrupted prior
// run are resumed, not errors.
//
// Fails only on genuine filesystem trouble: permission denied,
// read-only volume, or a path component that exists as a
// non-directory file.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}
