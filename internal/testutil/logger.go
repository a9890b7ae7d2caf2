// Package testutil provides test helpers shared across packages.
package testutil

import "log/slog"

// TB is the part of testing.TB the logger needs. GinkgoT() satisfies it
// as well.
type TB interface {
	Helper()
	Log(args ...any)
}

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
