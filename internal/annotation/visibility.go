package annotation

import (
	"fmt"
	"sort"
	"sync"
)

// VisibilityChange describes a change of one or more colour flags
type VisibilityChange struct {
	Colors []Color
	States map[Color]bool
}

// VisibilityListener receives visibility changes
type VisibilityListener func(VisibilityChange)

// Visibility holds one hidden flag per colour category. A flag of true means
// annotations of that colour are hidden on every page.
type Visibility struct {
	mu        sync.RWMutex
	hidden    map[Color]bool
	listeners map[int]VisibilityListener
	nextID    int
}

// NewVisibility creates a state where every colour is shown
func NewVisibility() *Visibility {
	hidden := make(map[Color]bool, len(Colors()))
	for _, c := range Colors() {
		hidden[c] = false
	}
	return &Visibility{
		hidden:    hidden,
		listeners: make(map[int]VisibilityListener),
	}
}

// Subscribe registers l and returns a function that removes it
func (v *Visibility) Subscribe(l VisibilityListener) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.listeners[id] = l

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

// Toggle flips the flag of c and returns the new hidden value
func (v *Visibility) Toggle(c Color) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("unknown annotation color %q", c)
	}

	v.mu.Lock()
	v.hidden[c] = !v.hidden[c]
	hidden := v.hidden[c]
	change := VisibilityChange{Colors: []Color{c}, States: v.copyLocked()}
	listeners := v.listenersLocked()
	v.mu.Unlock()

	for _, l := range listeners {
		l(change)
	}
	return hidden, nil
}

// Set replaces every known flag present in states; unknown colours are ignored
func (v *Visibility) Set(states map[Color]bool) {
	v.mu.Lock()
	var changed []Color
	for _, c := range Colors() {
		if hidden, ok := states[c]; ok {
			v.hidden[c] = hidden
			changed = append(changed, c)
		}
	}
	change := VisibilityChange{Colors: changed, States: v.copyLocked()}
	listeners := v.listenersLocked()
	v.mu.Unlock()

	for _, l := range listeners {
		l(change)
	}
}

// IsHidden reports whether colour c is currently hidden
func (v *Visibility) IsHidden(c Color) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hidden[c]
}

// Get returns a copy of the flags; mutating it has no effect on the state
func (v *Visibility) Get() map[Color]bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.copyLocked()
}

// VisibilityLabel returns the toolbar text for the toggle button of c
func VisibilityLabel(c Color, hidden bool) string {
	if hidden {
		return fmt.Sprintf("Show annotations %s", c.DisplayName())
	}
	return fmt.Sprintf("Hide annotations %s", c.DisplayName())
}

func (v *Visibility) copyLocked() map[Color]bool {
	out := make(map[Color]bool, len(v.hidden))
	for c, hidden := range v.hidden {
		out[c] = hidden
	}
	return out
}

func (v *Visibility) listenersLocked() []VisibilityListener {
	ids := make([]int, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids) // registration order
	out := make([]VisibilityListener, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.listeners[id])
	}
	return out
}
