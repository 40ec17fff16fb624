package pageselect

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// MaxButtonPages is the largest selection shown as one button per page
const MaxButtonPages = 10

// Group is a run of consecutive 0-based page indices
type Group struct {
	Label string `json:"label"`
	Pages []int  `json:"pages"`
}

// GroupPages splits ascending indices into runs of consecutive pages labelled
// with 1-based numbers, "4" or "4-9"
func GroupPages(indices []int) []Group {
	var out []Group
	for _, r := range Compress(indices) {
		g := Group{Label: r.String()}
		for p := r.Start; p <= r.End; p++ {
			g.Pages = append(g.Pages, p-1)
		}
		out = append(out, g)
	}
	return out
}

// Button jumps to one physical page
type Button struct {
	Label string `json:"label"`
	Page  int    `json:"page"`
}

// PageGroup is a collapsible list of unnumbered pages
type PageGroup struct {
	Title   string   `json:"title"`
	Buttons []Button `json:"buttons"`
}

// Navigation is the page navigation built from a confirmed selection
type Navigation struct {
	Front   *PageGroup `json:"front,omitempty"`
	Buttons []Button   `json:"buttons,omitempty"`
	Ranges  []Group    `json:"ranges,omitempty"`
	Back    *PageGroup `json:"back,omitempty"`
}

// BuildNavigation lays out navigation for the selected indices. Small
// selections get one button per numbered page; larger ones get range groups.
func BuildNavigation(rec Recognition, selected []int) Navigation {
	var nav Navigation

	if len(rec.Front) > 0 {
		nav.Front = unnumberedGroup("Unlabelled pages 1", rec, rec.Front)
	}

	if len(selected) <= MaxButtonPages {
		for _, idx := range selected {
			if idx < 0 || idx >= len(rec.Labels) {
				continue
			}
			if l := rec.Labels[idx]; l.Recognized() {
				nav.Buttons = append(nav.Buttons, Button{Label: l.Value, Page: idx + 1})
			}
		}
	} else {
		nav.Ranges = GroupPages(selected)
	}

	if len(rec.Back) > 0 {
		nav.Back = unnumberedGroup("Unlabelled pages 2", rec, rec.Back)
	}
	return nav
}

func unnumberedGroup(title string, rec Recognition, indices []int) *PageGroup {
	g := &PageGroup{Title: title}
	for _, idx := range indices {
		g.Buttons = append(g.Buttons, Button{Label: rec.Labels[idx].Label, Page: idx + 1})
	}
	return g
}

// RangeButtons expands a range group into page buttons
func RangeButtons(rec Recognition, g Group) []Button {
	out := make([]Button, 0, len(g.Pages))
	for _, idx := range g.Pages {
		label := fmt.Sprintf("%d", idx+1)
		if idx < len(rec.Labels) {
			if d := rec.Labels[idx].Display(); d != "" {
				label = d
			}
		}
		out = append(out, Button{Label: label, Page: idx + 1})
	}
	return out
}

// ExportMode chooses how pages are numbered on export
type ExportMode string

const (
	ExportPhysical ExportMode = "physical"
	ExportLogical  ExportMode = "logical"
)

// ParseExportMode defaults to physical numbering
func ParseExportMode(s string) (ExportMode, error) {
	switch ExportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportPhysical:
		return ExportPhysical, nil
	case ExportLogical:
		return ExportLogical, nil
	}
	return "", errors.New(errors.ErrorTypeInvalidInput,
		fmt.Sprintf("invalid page mode %q (must be physical or logical)", s))
}

// PageNumber returns the number of the 0-based page under mode. Logical
// numbering falls back to the physical number for unnumbered pages.
func (m ExportMode) PageNumber(rec Recognition, index int) string {
	if m == ExportLogical && index >= 0 && index < len(rec.Labels) && rec.Labels[index].Recognized() {
		return rec.Labels[index].Value
	}
	return fmt.Sprintf("%d", index+1)
}
