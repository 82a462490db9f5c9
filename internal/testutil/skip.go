// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if SQUADS_TEST_SKIP_NETWORK is set. Use it
// for tests that listen on loopback TCP, which sandboxed environments may
// forbid.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("SQUADS_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: SQUADS_TEST_SKIP_NETWORK is set")
	}
}
