package symbols

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  a: import a\n"), 0644))

	p, err := NewProvider(path)
	require.NoError(t, err)

	w, err := NewWatcher(p, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  b: import b\n"), 0644))

	require.Eventually(t, func() bool {
		_, ok := p.Table().Lookup("b")
		return ok
	}, 5*time.Second, 50*time.Millisecond, "watcher did not pick up the edit")
	assert.GreaterOrEqual(t, w.Reloads(), 1)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  a: import a\n"), 0644))

	p, err := NewProvider(path)
	require.NoError(t, err)

	w, err := NewWatcher(p, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(other, []byte("noise"), 0644))

	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, 0, w.Reloads())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  a: import a\n"), 0644))

	p, err := NewProvider(path)
	require.NoError(t, err)
	w, err := NewWatcher(p, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}
