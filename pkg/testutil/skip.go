// Package testutil holds helpers for gating integration tests on the
// availability of backing services.
package testutil

import (
	"os"
	"testing"
)

// SkipIfShort skips the test under -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// RequireEnv skips the test unless the named environment variable is
// set, and returns its value. Used to point integration tests at a
// live dependency, e.g. TEST_MONGODB_URL or TEST_REDIS_URL.
func RequireEnv(t *testing.T, name string) string {
	t.Helper()
	SkipIfShort(t)
	value := os.Getenv(name)
	if value == "" {
		t.Skipf("skipping integration test (set %s to run)", name)
	}
	return value
}
