package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watch loop a moment to start before touching the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"m1"}]`), 0o600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire after corpus write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	select {
	case <-changed:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(1 * time.Second):
	}
}

func TestNewWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "corpus.json"))
	assert.Error(t, err)
}
