//go:build windows

package pipe

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Microsoft/go-winio"
)

type windowsFactory struct{}

// NewFactory returns the Windows named-pipe-backed Factory, grounded on
// github.com/Microsoft/go-winio. No creation syscall is needed beyond
// path allocation: the child process creates both named-pipe server
// ends; the supervisor only dials them later, from the Channel
// Connector.
func NewFactory() Factory { return windowsFactory{} }

func (windowsFactory) Create(workDir string) (Paths, func(), error) {
	var paths Paths
	for {
		in := fmt.Sprintf(`\\.\pipe\%s-in-pipe-%s`, namePrefix, randSuffix())
		out := fmt.Sprintf(`\\.\pipe\%s-out-pipe-%s`, namePrefix, randSuffix())
		if !pipeNameInUse(in) && !pipeNameInUse(out) {
			paths = Paths{In: in, Out: out}
			break
		}
	}
	return paths, func() {}, nil
}

// pipeNameInUse makes a very short dial attempt to see whether some
// other listener already owns the name.
func pipeNameInUse(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	conn, err := winio.DialPipeContext(ctx, name)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// OpenRead dials the named pipe as a client for reading.
func OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return winio.DialPipeContext(ctx, path)
}

// OpenWrite dials the named pipe as a client for writing.
func OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	return winio.DialPipeContext(ctx, path)
}
