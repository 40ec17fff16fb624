package viewer

import (
	"context"
	"sync"
)

// PageRenderer is the document rendering collaborator
type PageRenderer interface {
	TotalPages() int
	RenderPage(ctx context.Context, page int) error
}

// PageEvent is emitted after every render attempt
type PageEvent struct {
	Page  int
	Total int
	Err   error
}

// Navigator serialises page renders. While a render is in flight at most one
// further page is queued; a newer request replaces the queued one.
type Navigator struct {
	mu        sync.Mutex
	ctx       context.Context
	renderer  PageRenderer
	current   int
	shown     int
	rendering bool
	pending   int
	listeners []func(PageEvent)
	idle      *sync.Cond // signalled when rendering turns false
}

// NewNavigator creates a navigator for renderer. Renders run with ctx.
func NewNavigator(ctx context.Context, renderer PageRenderer) *Navigator {
	n := &Navigator{
		ctx:      ctx,
		renderer: renderer,
	}
	n.idle = sync.NewCond(&n.mu)
	return n
}

// OnPage registers a listener for render results. Listeners run on the render goroutine.
func (n *Navigator) OnPage(l func(PageEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// Current returns the most recently requested page that is rendering or rendered
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Total returns the page count of the document
func (n *Navigator) Total() int {
	if n.renderer == nil {
		return 0
	}
	return n.renderer.TotalPages()
}

// Shown returns the last successfully rendered page, 0 before the first render
func (n *Navigator) Shown() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shown
}

// Busy reports whether a render is in flight
func (n *Navigator) Busy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rendering
}

// Pending returns the queued page, 0 when none
func (n *Navigator) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending
}

// GoTo requests page. It returns false when page is out of range.
func (n *Navigator) GoTo(page int) bool {
	if page < 1 || page > n.Total() {
		return false
	}

	n.mu.Lock()
	if n.rendering {
		n.pending = page
		n.mu.Unlock()
		return true
	}
	n.rendering = true
	n.current = page
	n.mu.Unlock()

	go n.run(page)
	return true
}

// Next requests the page after the current (or queued) one
func (n *Navigator) Next() bool {
	return n.GoTo(n.target() + 1)
}

// Prev requests the page before the current (or queued) one
func (n *Navigator) Prev() bool {
	return n.GoTo(n.target() - 1)
}

// Wait blocks until no render is in flight and nothing is queued
func (n *Navigator) Wait() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for n.rendering {
		n.idle.Wait()
	}
}

func (n *Navigator) target() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending != 0 {
		return n.pending
	}
	return n.current
}

func (n *Navigator) run(page int) {
	for {
		err := n.renderer.RenderPage(n.ctx, page)

		n.mu.Lock()
		if err == nil {
			n.shown = page
		} else if n.pending == 0 && n.shown != 0 {
			n.current = n.shown
		}
		listeners := n.listeners
		n.mu.Unlock()

		// still marked as rendering, so requests made by listeners are queued
		event := PageEvent{Page: page, Total: n.Total(), Err: err}
		for _, l := range listeners {
			l(event)
		}

		n.mu.Lock()
		next := n.pending
		n.pending = 0
		if next == 0 {
			n.rendering = false
			n.idle.Broadcast()
			n.mu.Unlock()
			return
		}
		n.current = next
		n.mu.Unlock()
		page = next
	}
}
