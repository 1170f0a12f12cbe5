package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

const minimalDoc = `
versions:
  current:
    name: %s
    sections:
      1:
        name: Game Concepts
        subsections:
          100:
            name: General
`

func writeDoc(t *testing.T, path, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(minimalDoc, name)), 0o644))
}

func currentName(t *testing.T, r *Registry) string {
	t.Helper()
	version, err := r.Store().GetVersion(VersionCurrent)
	require.NoError(t, err)
	return version.Name
}

func TestNewRegistry_Bundled(t *testing.T) {
	r, err := NewRegistry("", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "", r.Path())
	assert.Equal(t, "Current", currentName(t, r))
	assert.Error(t, r.Reload())
	assert.Error(t, r.Watch(context.Background()))
}

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeDoc(t, path, "First")

	r, err := NewRegistry(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "First", currentName(t, r))

	var notified *Store
	r.SetOnChange(func(s *Store) { notified = s })

	writeDoc(t, path, "Second")
	require.NoError(t, r.Reload())
	assert.Equal(t, "Second", currentName(t, r))
	assert.Same(t, r.Store(), notified)

	require.NoError(t, os.WriteFile(path, []byte("versions:\n  current:\n    name: Broken\n"), 0o644))
	require.Error(t, r.Reload())
	assert.Equal(t, "Second", currentName(t, r))
}

func TestRegistry_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeDoc(t, path, "First")

	r, err := NewRegistry(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	reloaded := make(chan string, 8)
	r.SetOnChange(func(s *Store) {
		version, err := s.GetVersion(VersionCurrent)
		if err == nil {
			reloaded <- version.Name
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	writeDoc(t, path, "Second")

	select {
	case name := <-reloaded:
		assert.Equal(t, "Second", name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.Equal(t, "Second", currentName(t, r))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
