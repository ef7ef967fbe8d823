// Package testutil provides shared fixtures and structured logging for tests.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// TitanicCSV is a small passenger sample: categorical Sex and Embarked,
// numeric Pclass, Age and Fare. Age has a missing value.
const TitanicCSV = `Pclass,Sex,Age,Embarked,Fare
3,male,22,S,7.25
1,female,38,C,71.2833
3,female,26,S,7.925
1,female,35,S,53.1
3,male,35,S,8.05
3,male,,Q,8.4583
1,male,54,S,51.8625
2,female,14,C,30.0708
`

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
