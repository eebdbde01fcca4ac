// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "testing"

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}

	if got := err.ExitCode(); got != 3 {
		t.Errorf("ExitCode() = %d, want 3", got)
	}
	if got := err.Error(); got != "exit code 3" {
		t.Errorf("Error() = %q, want %q", got, "exit code 3")
	}

	// main distinguishes handled exits by this interface check.
	var anyErr error = err
	coder, ok := anyErr.(interface{ ExitCode() int })
	if !ok {
		t.Fatal("ExitError should satisfy the ExitCode interface")
	}
	if coder.ExitCode() != 3 {
		t.Errorf("interface ExitCode() = %d, want 3", coder.ExitCode())
	}
}
