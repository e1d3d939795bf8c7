package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_CallsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Resources: {}\n"), 0600))

	var changes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, logr.Discard(), path, 10*time.Millisecond, func() { changes.Add(1) })
	}()

	// Keep writing until the watcher has registered and seen a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("Resources:\n  A:\n    Type: X\n"), 0600)
		return changes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFile_IgnoresSiblings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	var changes atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0600)
	}()

	require.NoError(t, File(ctx, logr.Discard(), path, 10*time.Millisecond, func() { changes.Add(1) }))
	assert.Zero(t, changes.Load())
}

func TestFile_MissingDirectory(t *testing.T) {
	t.Parallel()

	err := File(context.Background(), logr.Discard(), filepath.Join(t.TempDir(), "nope", "t.yaml"), 0, func() {})
	assert.Error(t, err)
}
