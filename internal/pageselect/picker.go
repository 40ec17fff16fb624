package pageselect

import (
	"context"
)

// Picker is the page selection dialog of one document
type Picker struct {
	*Selector
	recognition Recognition
	confirmed   []int
}

// NewPicker recognises page numbers of src and selects every page
func NewPicker(ctx context.Context, src PageSource) (*Picker, error) {
	rec, err := Recognize(ctx, src)
	if err != nil {
		return nil, err
	}
	return &Picker{
		Selector:    NewSelector(src.TotalPages()),
		recognition: rec,
	}, nil
}

// Recognition returns the page labels
func (p *Picker) Recognition() Recognition { return p.recognition }

// Confirm fixes the selection and returns the navigation built from it
func (p *Picker) Confirm() (Navigation, error) {
	selected, err := p.Selector.Confirm()
	if err != nil {
		return Navigation{}, err
	}
	p.confirmed = selected
	return BuildNavigation(p.recognition, selected), nil
}

// Confirmed returns the last confirmed selection, nil before the first confirm
func (p *Picker) Confirmed() []int {
	return append([]int(nil), p.confirmed...)
}
