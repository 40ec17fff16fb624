package pageselect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/document"
	"golang.org/x/text/unicode/norm"
)

// LabelType classifies a printed page number
type LabelType string

const (
	LabelArabic       LabelType = "arabic"
	LabelRoman        LabelType = "roman"
	LabelAlphaNumeric LabelType = "alphaNumeric"
	LabelSpecial      LabelType = "special"
	LabelUnrecognized LabelType = "unrecognized"
)

// Groups of pages without a printed number
const (
	GroupFront = "front"
	GroupBack  = "back"
	GroupError = "error"
)

var (
	arabicPattern       = regexp.MustCompile(`^(\d+)$`)
	romanPattern        = regexp.MustCompile(`^([ivxlcdm]+|[IVXLCDM]+)$`)
	alphaNumericPattern = regexp.MustCompile(`^([A-Za-z])-(\d+)$`)
	specialPattern      = regexp.MustCompile(`^(.+)-(\d+)$`)
)

// PageLabel is the printed page number recognised on one physical page
type PageLabel struct {
	Index int       `json:"index"`
	Type  LabelType `json:"type"`
	Value string    `json:"value,omitempty"`
	Group string    `json:"group,omitempty"`
	Label string    `json:"label,omitempty"`
}

// Recognized reports whether a page number was found
func (l PageLabel) Recognized() bool { return l.Type != LabelUnrecognized }

// Display returns the text shown for the page in navigation
func (l PageLabel) Display() string {
	if l.Recognized() {
		return l.Value
	}
	return l.Label
}

// Recognition holds the labels of every page of a document
type Recognition struct {
	Labels []PageLabel `json:"labels"`
	Front  []int       `json:"front"`
	Back   []int       `json:"back"`
}

// PageSource provides the text layer of each page
type PageSource interface {
	TotalPages() int
	Page(ctx context.Context, page int) (*document.PageView, error)
}

// ExtractPageNumber matches the whole page text against the page number
// patterns, most specific first. This is a heuristic; text that is anything
// more than a bare label is reported as unrecognised.
func ExtractPageNumber(text string) (LabelType, string, bool) {
	text = normalize(text)

	if m := arabicPattern.FindStringSubmatch(text); m != nil {
		return LabelArabic, m[1], true
	}
	if m := romanPattern.FindStringSubmatch(text); m != nil {
		return LabelRoman, m[1], true
	}
	if m := alphaNumericPattern.FindStringSubmatch(text); m != nil {
		return LabelAlphaNumeric, m[1] + "-" + m[2], true
	}
	if m := specialPattern.FindStringSubmatch(text); m != nil {
		return LabelSpecial, m[1] + "-" + m[2], true
	}
	return LabelUnrecognized, "", false
}

// Recognize labels every page of src. Unnumbered pages before the first
// numbered one form the front group; later ones form the back group. Pages
// whose text cannot be read are labelled as errors and belong to neither.
func Recognize(ctx context.Context, src PageSource) (Recognition, error) {
	total := src.TotalPages()
	rec := Recognition{Labels: make([]PageLabel, total)}

	foundNumbered := false
	frontCount := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Recognition{}, err
		}

		view, err := src.Page(ctx, i+1)
		if err != nil {
			rec.Labels[i] = PageLabel{Index: i, Type: LabelUnrecognized, Group: GroupError, Label: unrecognizedLabel(i + 1)}
			continue
		}

		if kind, value, ok := ExtractPageNumber(view.Text); ok {
			foundNumbered = true
			rec.Labels[i] = PageLabel{Index: i, Type: kind, Value: value}
			continue
		}

		if !foundNumbered {
			frontCount++
			rec.Labels[i] = PageLabel{Index: i, Type: LabelUnrecognized, Group: GroupFront, Label: unrecognizedLabel(frontCount)}
			rec.Front = append(rec.Front, i)
		} else {
			rec.Labels[i] = PageLabel{Index: i, Type: LabelUnrecognized, Group: GroupBack, Label: unrecognizedLabel(i + 1)}
			rec.Back = append(rec.Back, i)
		}
	}
	return rec, nil
}

func unrecognizedLabel(n int) string {
	return fmt.Sprintf("Unrecognized %d", n)
}

// normalize composes characters and collapses whitespace so text extracted
// in fragments compares like a single string
func normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
