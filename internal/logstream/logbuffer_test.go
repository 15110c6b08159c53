package logstream

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferReadEmptyIsNil(t *testing.T) {
	var b RingBuffer
	assert.Nil(t, b.Read(10))
}

func TestRingBufferReadNewestFirst(t *testing.T) {
	var b RingBuffer
	b.Append("one")
	b.Append("two")
	b.Append("three")

	assert.Equal(t, []string{"three", "two", "one"}, b.Read(10))
	assert.Equal(t, []string{"three", "two"}, b.Read(2))
}

func TestRingBufferWrapsAtCapacity(t *testing.T) {
	var b RingBuffer
	for i := 0; i < Capacity+10; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	got := b.Read(Capacity)
	assert.Len(t, got, Capacity)
	assert.Equal(t, fmt.Sprintf("line-%d", Capacity+9), got[0])
	assert.Equal(t, "line-10", got[Capacity-1])
}

func TestRingBufferReadClampsToCapacity(t *testing.T) {
	var b RingBuffer
	b.Append("only")
	assert.Len(t, b.Read(Capacity*2), 1)
}

func TestRingBufferConcurrentAppend(t *testing.T) {
	var b RingBuffer
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Append(fmt.Sprintf("line-%d", i))
		}(i)
	}
	wg.Wait()
	assert.Len(t, b.Read(Capacity), 50)
}
