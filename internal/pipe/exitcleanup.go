package pipe

import (
	"os"
	"os/signal"
	"sync"
)

var (
	exitMu    sync.Mutex
	exitPaths = map[string]struct{}{}
	exitOnce  sync.Once
)

// registerForDeleteOnExit is a belt-and-braces safety net for pipe files
// surviving a crash: it is not the primary removal path, which is always
// the Factory's own cleanup func run by the Failure Arbiter. Go has no
// portable atexit hook, so this installs a one-time os.Interrupt listener
// that best-effort removes any still-registered paths.
func registerForDeleteOnExit(paths ...string) {
	exitMu.Lock()
	for _, p := range paths {
		exitPaths[p] = struct{}{}
	}
	exitMu.Unlock()

	exitOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		go func() {
			<-ch
			exitMu.Lock()
			for p := range exitPaths {
				_ = os.Remove(p)
			}
			exitMu.Unlock()
			os.Exit(1)
		}()
	})
}

// unregisterDeleteOnExit removes paths from the safety-net registry once
// they have been cleaned up through the normal path.
func unregisterDeleteOnExit(paths ...string) {
	exitMu.Lock()
	defer exitMu.Unlock()
	for _, p := range paths {
		delete(exitPaths, p)
	}
}
