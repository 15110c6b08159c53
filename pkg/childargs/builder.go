// Package childargs builds the canonical argv for invoking the supervised
// native child binary.
//
// This layer is pure "command construction" — no execution, no I/O — and
// owns flag shape and ordering so that layer stays out of the launcher.
//
//	argv := childargs.NewBuilder(executable).
//		WithString("-o", outPipe).
//		WithString("-i", inPipe).
//		WithHex("-c", configPayload).
//		WithFlag("-t").
//		BuildArgv()
package childargs

import (
	"encoding/hex"
	"strings"
)

// Builder constructs argv for the native child process.
//
// The Builder implements a fluent API and is not concurrency-safe.
// Callers should treat a Builder as a single-use, short-lived value.
type Builder struct {
	args []string
}

// NewBuilder returns a Builder seeded with the executable path at argv[0].
func NewBuilder(executable string) *Builder {
	return &Builder{args: []string{executable}}
}

// WithString appends a flag and its string value, always emitted.
func (b *Builder) WithString(flag, val string) *Builder {
	b.args = append(b.args, flag, val)
	return b
}

// WithHex appends a flag and the uppercase, unpadded hex encoding of
// payload — the wire's convention for embedding opaque config/credentials
// blobs into the command line.
func (b *Builder) WithHex(flag string, payload []byte) *Builder {
	b.args = append(b.args, flag, strings.ToUpper(hex.EncodeToString(payload)))
	return b
}

// WithFlag appends a bare, valueless flag.
func (b *Builder) WithFlag(flag string) *Builder {
	b.args = append(b.args, flag)
	return b
}

// BuildArgv returns a defensive copy of the constructed argument vector.
func (b *Builder) BuildArgv() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}
