package annotation

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Annotation is one highlighted rectangle on one page. Coordinates are
// page-relative rendered pixels. Annotations are never modified after creation.
type Annotation struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	Color  Color   `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
}

// Rect returns the bounds of the annotation
func (a Annotation) Rect() Rect {
	return NewRect(a.X, a.Y, a.Width, a.Height)
}

// ChangeListener is notified with the page whose annotations changed
type ChangeListener func(page int)

// Store owns every annotation of the session, grouped by page in creation order
type Store struct {
	mu        sync.RWMutex
	pages     map[int][]Annotation
	listeners []ChangeListener
	newID     func() string
}

// NewStore creates an empty annotation store
func NewStore() *Store {
	return &Store{
		pages: make(map[int][]Annotation),
		newID: func() string { return uuid.NewString() },
	}
}

// OnChange registers a listener called after annotations of a page are added or removed.
// Listeners run synchronously on the goroutine that made the change.
func (s *Store) OnChange(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Create appends an annotation to page and returns its identifier. The call is a
// no-op (returning false) when the rectangle has no area, the text is blank, the
// page is not positive or the colour is unknown.
func (s *Store) Create(page int, c Color, r Rect, text string) (string, bool) {
	text = normalizeText(text)
	if page < 1 || !c.Valid() || r.IsEmpty() || text == "" {
		return "", false
	}

	a := Annotation{
		ID:     s.newID(),
		Page:   page,
		Color:  c,
		X:      r.Left,
		Y:      r.Top,
		Width:  r.Width(),
		Height: r.Height(),
		Text:   text,
	}

	s.mu.Lock()
	s.pages[page] = append(s.pages[page], a)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, page)
	return a.ID, true
}

// EraseOverlapping removes every annotation on page that overlaps any of the
// eraser rectangles and returns how many were removed. The page is re-rendered
// through the change listeners even when nothing matched.
func (s *Store) EraseOverlapping(page int, eraser []Rect) int {
	s.mu.Lock()
	existing := s.pages[page]
	kept := make([]Annotation, 0, len(existing))
	for _, a := range existing {
		if !OverlapsAny(a.Rect(), eraser) {
			kept = append(kept, a)
		}
	}
	removed := len(existing) - len(kept)
	if removed > 0 {
		s.setPageLocked(page, kept)
	}
	listeners := s.listeners
	s.mu.Unlock()

	if len(existing) > 0 {
		notify(listeners, page)
	}
	return removed
}

// Get looks up a single annotation by identifier
func (s *Store) Get(id string) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range s.pages {
		for _, a := range list {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Annotation{}, false
}

// ForPage returns a copy of the annotations on page in creation order
func (s *Store) ForPage(page int) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.pages[page]
	out := make([]Annotation, len(list))
	copy(out, list)
	return out
}

// All returns a copy of every page's annotations
func (s *Store) All() map[int][]Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int][]Annotation, len(s.pages))
	for page, list := range s.pages {
		cp := make([]Annotation, len(list))
		copy(cp, list)
		out[page] = cp
	}
	return out
}

// Pages returns the page numbers holding at least one annotation, ascending
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]int, 0, len(s.pages))
	for page := range s.pages {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Count returns the total number of annotations
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, list := range s.pages {
		n += len(list)
	}
	return n
}

// ResetPage drops every annotation on page
func (s *Store) ResetPage(page int) int {
	s.mu.Lock()
	removed := len(s.pages[page])
	delete(s.pages, page)
	listeners := s.listeners
	s.mu.Unlock()

	if removed > 0 {
		notify(listeners, page)
	}
	return removed
}

// Reset drops every annotation of the session
func (s *Store) Reset() {
	s.mu.Lock()
	pages := make([]int, 0, len(s.pages))
	for page := range s.pages {
		pages = append(pages, page)
	}
	s.pages = make(map[int][]Annotation)
	listeners := s.listeners
	s.mu.Unlock()

	sort.Ints(pages)
	for _, page := range pages {
		notify(listeners, page)
	}
}

func (s *Store) setPageLocked(page int, list []Annotation) {
	if len(list) == 0 {
		delete(s.pages, page)
		return
	}
	s.pages[page] = list
}

func notify(listeners []ChangeListener, page int) {
	for _, l := range listeners {
		l(page)
	}
}

func normalizeText(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}
