package testutil

import (
	"testing"

	"github.com/banshee-data/lu-metrics/internal/monitoring"
)

func TestJSONFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := WriteJSONFile(t, dir, "nested/run.json", map[string]int{"Tp": 3})

	var got map[string]int
	ReadJSONFile(t, path, &got)
	if got["Tp"] != 3 {
		t.Errorf("Tp = %d, want 3", got["Tp"])
	}
}

func TestMuteLogs(t *testing.T) {
	called := false
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) { called = true })
	defer func() { monitoring.Logf = prev }()

	t.Run("muted", func(t *testing.T) {
		MuteLogs(t)
		monitoring.Logf("hidden")
	})
	if called {
		t.Error("logger called while muted")
	}
	monitoring.Logf("visible")
	if !called {
		t.Error("logger not restored after subtest")
	}
}
