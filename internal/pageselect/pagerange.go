package pageselect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// PageRange is an inclusive range of 1-based page numbers
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String formats the range as "a-b", or "a" for a single page
func (r PageRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseRange parses an expression such as "1-5,8,10-15" against a document of
// total pages and returns the selected 0-based page indices, ascending.
//
// Range bounds are clamped to the document; single pages outside it are
// dropped. Fragments without a leading number are skipped. An expression in
// which no fragment parses is an error.
func ParseRange(expr string, total int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New(errors.ErrorTypeInvalidPageRange, "page range is empty")
	}

	seen := make(map[int]bool)
	parsed := 0
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)

		if strings.Contains(part, "-") {
			bounds := strings.Split(part, "-")
			start, okStart := leadingInt(bounds[0])
			end, okEnd := leadingInt(bounds[1])
			if !okStart || !okEnd {
				continue
			}
			parsed++

			start = max(1, start)
			end = min(total, end)
			for p := start; p <= end; p++ {
				seen[p-1] = true
			}
			continue
		}

		page, ok := leadingInt(part)
		if !ok {
			continue
		}
		parsed++
		if page >= 1 && page <= total {
			seen[page-1] = true
		}
	}

	if parsed == 0 {
		return nil, errors.New(errors.ErrorTypeInvalidPageRange,
			fmt.Sprintf("no valid page numbers in %q", expr))
	}

	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

// leadingInt reads an optionally signed run of digits at the start of s,
// ignoring anything after it ("12abc" is 12)
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if n < 1<<30 {
			n = n*10 + int(r-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Compress turns ascending 0-based indices into 1-based ranges
func Compress(indices []int) []PageRange {
	var out []PageRange
	for _, idx := range indices {
		page := idx + 1
		if n := len(out); n > 0 && out[n-1].End == page-1 {
			out[n-1].End = page
			continue
		}
		out = append(out, PageRange{Start: page, End: page})
	}
	return out
}
