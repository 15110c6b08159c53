//go:build !windows

package pipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	visibilityPollInterval = 10 * time.Millisecond
	visibilityDeadline     = 15 * time.Second
)

type posixFactory struct{}

// NewFactory returns the POSIX FIFO-backed Factory. mkfifo is invoked via
// golang.org/x/sys/unix directly rather than shelling out to the mkfifo
// utility — a deliberate deviation from the common mkfifo-via-shell
// pattern, for deterministic error reporting.
func NewFactory() Factory { return posixFactory{} }

func (posixFactory) Create(workDir string) (Paths, func(), error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Paths{}, nil, fmt.Errorf("pipe: create workdir: %w", err)
	}

	var paths Paths
	for {
		in := filepath.Join(workDir, fmt.Sprintf("%s-in-pipe-%s", namePrefix, randSuffix()))
		out := filepath.Join(workDir, fmt.Sprintf("%s-out-pipe-%s", namePrefix, randSuffix()))
		if !exists(in) && !exists(out) {
			paths = Paths{In: in, Out: out}
			break
		}
	}

	if err := unix.Mkfifo(paths.In, 0o600); err != nil {
		return Paths{}, nil, fmt.Errorf("pipe: mkfifo %s: %w", paths.In, err)
	}
	if err := unix.Mkfifo(paths.Out, 0o600); err != nil {
		_ = os.Remove(paths.In)
		return Paths{}, nil, fmt.Errorf("pipe: mkfifo %s: %w", paths.Out, err)
	}

	registerForDeleteOnExit(paths.In, paths.Out)
	cleanup := makeCleanup(paths)

	deadline := time.Now().Add(visibilityDeadline)
	for !exists(paths.In) || !exists(paths.Out) {
		if time.Now().After(deadline) {
			cleanup()
			return Paths{}, nil, fmt.Errorf("pipe: %s / %s did not become visible within %s", paths.In, paths.Out, visibilityDeadline)
		}
		time.Sleep(visibilityPollInterval)
	}

	return paths, cleanup, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func makeCleanup(paths Paths) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = os.Remove(paths.In)
			_ = os.Remove(paths.Out)
			unregisterDeleteOnExit(paths.In, paths.Out)
		})
	}
}

// OpenRead opens path for reading. On a real FIFO this blocks until a
// peer opens the write end — the reason the Channel Connector must run
// concurrently with (or shortly after) child spawn.
func OpenRead(_ context.Context, path string) (io.ReadCloser, error) {
	return os.OpenFile(path, os.O_RDONLY, 0)
}

// OpenWrite opens path for writing, blocking until a peer opens the read
// end.
func OpenWrite(_ context.Context, path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY, 0)
}
