// Package pipe provisions the pair of uni-directional transport endpoints
// (FIFOs on POSIX, named pipes on Windows) the supervisor's Channel
// Connector opens to talk to the child.
package pipe

import (
	"strings"

	"github.com/google/uuid"
)

// namePrefix matches the wire's filesystem/namespace convention.
const namePrefix = "amz-aws-kpl"

// Paths holds the locations of the supervisor's two communication
// endpoints: the in-pipe (child writes, supervisor reads) and the
// out-pipe (supervisor writes, child reads).
type Paths struct {
	In  string
	Out string
}

// Factory provisions a pair of pipe endpoints for one supervisor
// instance.
type Factory interface {
	// Create generates unique paths under workDir (POSIX) or the named-
	// pipe namespace (Windows), provisions them, and waits until both
	// are visible to a peer. The returned cleanup removes any
	// filesystem artifacts and is safe to call more than once.
	Create(workDir string) (Paths, func(), error)
}

// randSuffix returns 8 hex characters derived from a random UUID, per the
// wire's pipe-naming convention.
func randSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
