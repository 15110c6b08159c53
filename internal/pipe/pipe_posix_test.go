//go:build !windows

package pipe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMakesDistinctFIFOs(t *testing.T) {
	dir := t.TempDir()
	paths, cleanup, err := NewFactory().Create(dir)
	require.NoError(t, err)
	defer cleanup()

	assert.NotEqual(t, paths.In, paths.Out)

	inInfo, err := os.Lstat(paths.In)
	require.NoError(t, err)
	assert.NotZero(t, inInfo.Mode()&os.ModeNamedPipe)

	outInfo, err := os.Lstat(paths.Out)
	require.NoError(t, err)
	assert.NotZero(t, outInfo.Mode()&os.ModeNamedPipe)
}

func TestCleanupRemovesFIFOs(t *testing.T) {
	dir := t.TempDir()
	paths, cleanup, err := NewFactory().Create(dir)
	require.NoError(t, err)

	cleanup()
	assert.False(t, exists(paths.In))
	assert.False(t, exists(paths.Out))

	assert.NotPanics(t, cleanup) // idempotent
}

func TestOpenReadWriteConnectsThroughFIFO(t *testing.T) {
	dir := t.TempDir()
	paths, cleanup, err := NewFactory().Create(dir)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	done := make(chan error, 1)
	var w interface {
		Write([]byte) (int, error)
		Close() error
	}

	go func() {
		var err error
		wc, err := OpenWrite(ctx, paths.Out)
		if err != nil {
			done <- err
			return
		}
		w = wc
		done <- nil
	}()

	r, err := OpenRead(ctx, paths.Out)
	require.NoError(t, err)
	defer r.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("OpenWrite did not unblock")
	}
	defer w.Close()

	_, err = w.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}
