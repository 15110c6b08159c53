package childargs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderAssemblesArgvInOrder(t *testing.T) {
	argv := NewBuilder("/usr/bin/child").
		WithString("-o", "/tmp/out").
		WithString("-i", "/tmp/in").
		WithHex("-c", []byte{0xde, 0xad, 0xbe, 0xef}).
		WithFlag("-t").
		BuildArgv()

	assert.Equal(t, []string{
		"/usr/bin/child",
		"-o", "/tmp/out",
		"-i", "/tmp/in",
		"-c", "DEADBEEF",
		"-t",
	}, argv)
}

func TestBuilderHexEmptyPayload(t *testing.T) {
	argv := NewBuilder("child").WithHex("-c", nil).BuildArgv()
	assert.Equal(t, []string{"child", "-c", ""}, argv)
}

func TestBuildArgvReturnsDefensiveCopy(t *testing.T) {
	b := NewBuilder("child").WithFlag("-t")
	argv := b.BuildArgv()
	argv[0] = "mutated"

	again := b.BuildArgv()
	assert.Equal(t, "child", again[0])
}
