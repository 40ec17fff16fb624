package pageselect

import (
	"sort"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// Selector tracks the pages chosen for import as 0-based indices. The order in
// which pages were picked is kept because a shift-click extends from the last one.
type Selector struct {
	total    int
	selected []int
}

// NewSelector creates a selector over total pages with every page selected
func NewSelector(total int) *Selector {
	s := &Selector{total: total}
	s.SelectAll(true)
	return s
}

// Total returns the number of pages
func (s *Selector) Total() int { return s.total }

// SelectAll selects every page, or clears the selection when on is false
func (s *Selector) SelectAll(on bool) {
	s.selected = s.selected[:0]
	if !on {
		return
	}
	for i := 0; i < s.total; i++ {
		s.selected = append(s.selected, i)
	}
}

// Click applies a thumbnail click on index. Shift extends a range from the
// last picked page, ctrl toggles the page, a plain click selects only it.
func (s *Selector) Click(index int, shift, ctrl bool) error {
	if index < 0 || index >= s.total {
		return errors.New(errors.ErrorTypeInvalidInput, "page index out of range").WithPage(index + 1)
	}

	switch {
	case shift && len(s.selected) > 0:
		last := s.selected[len(s.selected)-1]
		for i := min(last, index); i <= max(last, index); i++ {
			if !s.contains(i) {
				s.selected = append(s.selected, i)
			}
		}
	case ctrl:
		if pos := s.indexOf(index); pos >= 0 {
			s.selected = append(s.selected[:pos], s.selected[pos+1:]...)
		} else {
			s.selected = append(s.selected, index)
		}
	default:
		s.selected = append(s.selected[:0], index)
	}
	return nil
}

// ApplyRange replaces the selection with the pages of expr. On error the
// previous selection is kept.
func (s *Selector) ApplyRange(expr string) error {
	indices, err := ParseRange(expr, s.total)
	if err != nil {
		return err
	}
	s.selected = indices
	return nil
}

// Selected returns the selected indices, ascending
func (s *Selector) Selected() []int {
	out := append([]int(nil), s.selected...)
	sort.Ints(out)
	return out
}

// AllSelected reports whether every page is selected
func (s *Selector) AllSelected() bool {
	return s.total > 0 && len(s.selected) == s.total
}

// Confirm returns the selection, failing when nothing is selected
func (s *Selector) Confirm() ([]int, error) {
	if len(s.selected) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptySelection, "no pages selected")
	}
	return s.Selected(), nil
}

func (s *Selector) contains(index int) bool {
	return s.indexOf(index) >= 0
}

func (s *Selector) indexOf(index int) int {
	for i, v := range s.selected {
		if v == index {
			return i
		}
	}
	return -1
}
