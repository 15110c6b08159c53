package logstream

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderEmitsAndBuffersLines(t *testing.T) {
	var mu sync.Mutex
	var emitted []string

	buf := new(RingBuffer)
	r := NewReader(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, line)
	}, buf, strings.NewReader("one\ntwo\nthree\n"))

	r.Run()
	<-r.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two", "three"}, emitted)
	assert.Equal(t, []string{"three", "two", "one"}, buf.Read(10))
}

func TestReaderStopsEmittingAfterPrepareForShutdown(t *testing.T) {
	pr, pw := io.Pipe()
	var mu sync.Mutex
	var emitted []string

	buf := new(RingBuffer)
	r := NewReader(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, line)
	}, buf, pr)

	go r.Run()

	_, _ = pw.Write([]byte("before\n"))
	time.Sleep(20 * time.Millisecond)

	r.PrepareForShutdown()
	_, _ = pw.Write([]byte("after\n"))
	require.NoError(t, pw.Close())

	<-r.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"before"}, emitted)
	assert.Equal(t, []string{"after", "before"}, buf.Read(10))
}
