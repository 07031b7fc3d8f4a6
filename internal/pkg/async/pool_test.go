package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecute(t *testing.T) {
	pool := NewPool(2)

	results := pool.Execute(context.Background(), []Task{
		{Name: "one", Execute: func() (any, error) { return 1, nil }},
		{Name: "two", Execute: func() (any, error) { return 2, nil }},
		{Name: "fail", Execute: func() (any, error) { return nil, errors.New("boom") }},
	})

	require.Len(t, results, 3)
	assert.Equal(t, 1, results["one"].Data)
	assert.Equal(t, 2, results["two"].Data)
	assert.EqualError(t, results["fail"].Err, "boom")
}

func TestPoolIsReusable(t *testing.T) {
	pool := NewPool(1)
	for i := 0; i < 3; i++ {
		results := pool.Execute(context.Background(), []Task{
			{Name: "n", Execute: func() (any, error) { return i, nil }},
		})
		assert.Equal(t, i, results["n"].Data)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	var running, peak int32

	task := func() (any, error) {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil, nil
	}

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = Task{Name: string(rune('a' + i)), Execute: task}
	}
	results := pool.Execute(context.Background(), tasks)

	assert.Len(t, results, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPoolRecoversPanics(t *testing.T) {
	results := NewPool(1).Execute(context.Background(), []Task{
		{Name: "panics", Execute: func() (any, error) { panic("bad") }},
	})
	assert.ErrorContains(t, results["panics"].Err, "panicked")
}

func TestPoolEmpty(t *testing.T) {
	assert.Empty(t, NewPool(3).Execute(context.Background(), nil))
}
