package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutTakeFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		require.True(t, q.Put(i))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		item, ok := q.Take()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}
}

func TestTakeBlocksUntilPut(t *testing.T) {
	q := New[string]()
	result := make(chan string, 1)

	go func() {
		item, ok := q.Take()
		if ok {
			result <- item
		}
	}()

	select {
	case <-result:
		t.Fatal("Take returned before Put")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, q.Put("late"))
	select {
	case item := <-result:
		assert.Equal(t, "late", item)
	case <-time.After(time.Second):
		t.Fatal("Take never unblocked after Put")
	}
}

func TestCloseDrainsRemainingThenFalse(t *testing.T) {
	q := New[int]()
	require.True(t, q.Put(1))
	require.True(t, q.Put(2))
	q.Close()

	item, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, 1, item)

	item, ok = q.Take()
	require.True(t, ok)
	assert.Equal(t, 2, item)

	_, ok = q.Take()
	assert.False(t, ok)
}

func TestPutAfterCloseRejected(t *testing.T) {
	q := New[int]()
	q.Close()
	assert.False(t, q.Put(1))
}

func TestCloseUnblocksWaitingTake(t *testing.T) {
	q := New[int]()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.Take()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Take")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	q := New[int]()
	q.Close()
	assert.NotPanics(t, q.Close)
}

func TestConcurrentProducersPreserveCount(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	const n = 100

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.Put(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, q.Len())
}
