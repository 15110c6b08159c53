package supervisor

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edirooss/kpl-child-supervisor/internal/credentials"
)

var validate = validator.New()

// CredentialsConfig holds the two credential providers consulted at
// startup and on every refresh cycle. Metrics falls back to Primary when
// nil.
type CredentialsConfig struct {
	Primary credentials.Provider
	Metrics credentials.Provider // optional
}

// Config carries everything the supervisor needs to launch and run a
// child process. The caller constructs one Config per Supervisor; it is
// never mutated after New.
type Config struct {
	// Executable is the path to the native child binary.
	Executable string `validate:"required"`
	// WorkDir is the directory pipe files are created under (POSIX only).
	WorkDir string `validate:"required"`
	// Env overrides/augments the parent process environment for the child.
	Env map[string]string
	// ConfigPayload is the opaque config blob embedded via -c; its schema
	// is an external collaborator's concern.
	ConfigPayload []byte
	// CredentialsRefreshDelay is the sleep between credential refresh
	// cycles.
	CredentialsRefreshDelay time.Duration `validate:"required,gt=0"`
	// ReceiveBufferCap bounds the largest frame payload this supervisor
	// will accept; zero defaults to frame.MaxPayloadSize.
	ReceiveBufferCap uint32 `validate:"omitempty,lte=8388608"`
	// Credentials supplies the primary/metrics providers.
	Credentials CredentialsConfig
}

// Validate reports whether c is well-formed. It does not mutate c.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("supervisor: invalid config: %w", err)
	}
	if c.Credentials.Primary == nil {
		return fmt.Errorf("supervisor: invalid config: primary credentials provider is required")
	}
	return nil
}
