package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return l, cancel, done
}

func TestLoopRunsPostedClosuresInOrder(t *testing.T) {
	l, cancel, done := runLoop(t)

	var (
		mu  sync.Mutex
		got []int
	)
	finished := make(chan struct{})
	for i := 0; i < 50; i++ {
		require.True(t, l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 49 {
				close(finished)
			}
		}))
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not drain")
	}
	mu.Lock()
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, l.Post(func() {}), "post after Run returned")
}

func TestLoopClosuresCanPost(t *testing.T) {
	l, _, _ := runLoop(t)
	finished := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(finished) })
	})
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoopAfterFunc(t *testing.T) {
	l, _, _ := runLoop(t)

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	stoppedFired := make(chan struct{}, 1)
	timer := l.AfterFunc(50*time.Millisecond, func() { stoppedFired <- struct{}{} })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	select {
	case <-stoppedFired:
		t.Fatal("stopped timer ran")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoopStopHonouredAfterExpiry(t *testing.T) {
	l := New()
	ran := false
	timer := l.AfterFunc(time.Millisecond, func() { ran = true })

	// Let the timer expire and queue its closure before the loop runs.
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.queue) == 1
	}, time.Second, time.Millisecond)
	assert.True(t, timer.Stop())

	ctx, cancel := context.WithCancel(context.Background())
	l.Post(cancel)
	_ = l.Run(ctx)
	assert.False(t, ran)
}

func TestManualAdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "b") })
	m.AfterFunc(100*time.Millisecond, func() {
		got = append(got, "a")
		m.Post(func() { got = append(got, "a-posted") })
	})
	stopped := m.AfterFunc(200*time.Millisecond, func() { got = append(got, "never") })
	assert.Equal(t, 3, m.Pending())
	assert.True(t, stopped.Stop())

	m.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a", "a-posted"}, got)
	assert.Equal(t, start.Add(250*time.Millisecond), m.Now())

	m.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "a-posted", "b"}, got)
	assert.Zero(t, m.Pending())
}
