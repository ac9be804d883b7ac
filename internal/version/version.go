// SPDX-License-Identifier: MIT

// Package version carries build metadata injected at link time.
package version

var (
	// Version is the release tag, populated via ldflags.
	Version = "v0.3.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
