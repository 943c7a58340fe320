// Package testutil provides shared test helpers and fixtures for safehook.
//
// Philosophy:
// - Prefer a real SQLite history database and real files over mocks.
// - Keep helpers small, composable, and deterministic.
// - Register cleanup via t.Cleanup so tests stay leak-free.
//
// CLI tests usually start with:
//
//	h := testutil.NewHarness(t)
//	stdin := testutil.BashEnvelope(t, "rm -rf /tmp/x")
package testutil
