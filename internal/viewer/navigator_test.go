package viewer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateRenderer blocks every render until release is closed
type gateRenderer struct {
	total   int
	started chan int
	release chan struct{}

	mu    sync.Mutex
	calls []int
}

func newGateRenderer(total int) *gateRenderer {
	return &gateRenderer{
		total:   total,
		started: make(chan int, 16),
		release: make(chan struct{}),
	}
}

func (r *gateRenderer) TotalPages() int { return r.total }

func (r *gateRenderer) RenderPage(ctx context.Context, page int) error {
	r.mu.Lock()
	r.calls = append(r.calls, page)
	r.mu.Unlock()

	r.started <- page
	<-r.release
	return nil
}

func (r *gateRenderer) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

// instantRenderer renders immediately and fails on selected pages
type instantRenderer struct {
	total int
	fail  map[int]bool
}

func (r *instantRenderer) TotalPages() int { return r.total }

func (r *instantRenderer) RenderPage(ctx context.Context, page int) error {
	if r.fail[page] {
		return fmt.Errorf("corrupt page %d", page)
	}
	return nil
}

func waitStarted(t *testing.T, r *gateRenderer) int {
	t.Helper()
	select {
	case p := <-r.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("render did not start")
		return 0
	}
}

func TestNavigator_PendingQueueKeepsLatestRequest(t *testing.T) {
	r := newGateRenderer(10)
	nav := NewNavigator(context.Background(), r)

	var mu sync.Mutex
	var events []int
	nav.OnPage(func(e PageEvent) {
		mu.Lock()
		events = append(events, e.Page)
		mu.Unlock()
	})

	require.True(t, nav.GoTo(3))
	assert.Equal(t, 3, waitStarted(t, r))

	require.True(t, nav.GoTo(5))
	assert.Equal(t, 5, nav.Pending())
	require.True(t, nav.GoTo(7))
	assert.Equal(t, 7, nav.Pending())
	assert.True(t, nav.Busy())

	close(r.release)
	nav.Wait()

	assert.Equal(t, []int{3, 7}, r.Calls())
	assert.Equal(t, []int{3, 7}, events)
	assert.Equal(t, 7, nav.Current())
	assert.Equal(t, 7, nav.Shown())
	assert.Zero(t, nav.Pending())
	assert.False(t, nav.Busy())
}

func TestNavigator_Bounds(t *testing.T) {
	nav := NewNavigator(context.Background(), &instantRenderer{total: 2})

	assert.False(t, nav.GoTo(0))
	assert.False(t, nav.GoTo(3))
	assert.False(t, nav.Prev(), "nothing before page 1")

	require.True(t, nav.GoTo(1))
	nav.Wait()
	require.True(t, nav.Next())
	nav.Wait()
	assert.Equal(t, 2, nav.Current())
	assert.False(t, nav.Next())
	require.True(t, nav.Prev())
	nav.Wait()
	assert.Equal(t, 1, nav.Current())
}

func TestNavigator_NextFollowsQueuedPage(t *testing.T) {
	r := newGateRenderer(10)
	nav := NewNavigator(context.Background(), r)

	require.True(t, nav.GoTo(1))
	waitStarted(t, r)
	require.True(t, nav.Next())
	require.True(t, nav.Next())
	assert.Equal(t, 3, nav.Pending())

	close(r.release)
	nav.Wait()
	assert.Equal(t, []int{1, 3}, r.Calls())
}

func TestNavigator_FailedRenderKeepsShownPage(t *testing.T) {
	nav := NewNavigator(context.Background(), &instantRenderer{total: 5, fail: map[int]bool{2: true}})

	var last PageEvent
	nav.OnPage(func(e PageEvent) { last = e })

	require.True(t, nav.GoTo(1))
	nav.Wait()
	require.True(t, nav.GoTo(2))
	nav.Wait()

	assert.Error(t, last.Err)
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, 1, nav.Current())
	assert.Equal(t, 1, nav.Shown())
}

func TestNavigator_WaitBlocksUntilIdle(t *testing.T) {
	r := newGateRenderer(3)
	nav := NewNavigator(context.Background(), r)

	nav.Wait() // idle before the first request

	require.True(t, nav.GoTo(1))
	waitStarted(t, r)

	done := make(chan struct{})
	go func() {
		nav.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a render was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, nav.GoTo(2))
	close(r.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the queue drained")
	}
	assert.Equal(t, 2, nav.Shown())
}

func TestNavigator_ConcurrentWaitAndRequests(t *testing.T) {
	nav := NewNavigator(context.Background(), &instantRenderer{total: 50})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				nav.Wait()
			}
		}()
	}
	for page := 1; page <= 50; page++ {
		require.True(t, nav.GoTo(page))
	}
	wg.Wait()
	nav.Wait()

	assert.False(t, nav.Busy())
	assert.Equal(t, 50, nav.Current())
	assert.Equal(t, 50, nav.Shown())
}
