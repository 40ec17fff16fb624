package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// CharsPerPage is the pagination budget of converted word documents
	CharsPerPage = 2000

	// text layer geometry of a converted page, in rendered pixels
	wordPageWidth  = 816
	wordPageHeight = 1056
)

// ComplexContent counts content that annotates poorly
type ComplexContent struct {
	Tables   int `json:"tables"`
	Images   int `json:"images"`
	Formulas int `json:"formulas"`
	Charts   int `json:"charts"`
}

// Complexity thresholds; a count above its threshold flags the document
const (
	TableThreshold   = 5
	ImageThreshold   = 3
	FormulaThreshold = 3
	ChartThreshold   = 2
)

// HasComplexContent reports whether any count exceeds its threshold
func (c ComplexContent) HasComplexContent() bool {
	return c.Tables > TableThreshold ||
		c.Images > ImageThreshold ||
		c.Formulas > FormulaThreshold ||
		c.Charts > ChartThreshold
}

var (
	inlineFormula   = regexp.MustCompile(`\$.*?\$`)
	equationFormula = regexp.MustCompile(`(?s)\\begin\{equation\}.*?\\end\{equation\}`)
)

var pageBlocks = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true,
}

type wordPage struct {
	html string
	text string
}

// WordDocument is a word-processor document already converted to HTML
type WordDocument struct {
	pages

	path       string
	complexity ComplexContent
	content    []wordPage
}

// OpenWordHTML opens a converted word-processor document
func OpenWordHTML(path string, opts Options) (*WordDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLoadFailed, "failed to open document", err).WithFile(path)
	}
	defer f.Close()

	d, err := ParseWordHTML(f, opts)
	if err != nil {
		if ve, ok := errors.As(err); ok {
			return nil, ve.WithFile(path)
		}
		return nil, err
	}
	d.path = path
	return d, nil
}

// ParseWordHTML paginates converted HTML read from r
func ParseWordHTML(r io.Reader, opts Options) (*WordDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLoadFailed, "failed to parse document", err)
	}

	content, err := paginate(root, CharsPerPage)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLoadFailed, "failed to paginate document", err)
	}
	if len(content) == 0 {
		return nil, errors.New(errors.ErrorTypeLoadFailed, "document has no content")
	}

	d := &WordDocument{
		complexity: detectComplexContent(root),
		content:    content,
	}
	d.pages = pages{
		total: len(content),
		cache: newPageCache(opts.CacheSize),
		load:  d.loadPage,
	}
	return d, nil
}

// Kind returns KindWord
func (d *WordDocument) Kind() Kind { return KindWord }

// Name returns the file name
func (d *WordDocument) Name() string {
	if d.path == "" {
		return "document.html"
	}
	return filepath.Base(d.path)
}

// Path returns the file path, empty for documents parsed from a reader
func (d *WordDocument) Path() string { return d.path }

// Complexity returns the complex content counts
func (d *WordDocument) Complexity() ComplexContent { return d.complexity }

// Close is a no-op; the content is held in memory
func (d *WordDocument) Close() error { return nil }

func (d *WordDocument) loadPage(page int) (*PageView, error) {
	p := d.content[page-1]
	return &PageView{
		Number: page,
		Width:  wordPageWidth,
		Height: wordPageHeight,
		Text:   p.text,
		HTML:   p.html,
	}, nil
}

// paginate packs top-level blocks into pages of about budget characters. A
// block never splits; an oversized block gets a page of its own.
func paginate(root *html.Node, budget int) ([]wordPage, error) {
	var blocks []*html.Node
	collectBlocks(root, &blocks)

	var out []wordPage
	var htmlBuf bytes.Buffer
	var textBuf strings.Builder
	chars := 0

	flush := func() {
		out = append(out, wordPage{html: htmlBuf.String(), text: textBuf.String()})
		htmlBuf.Reset()
		textBuf.Reset()
		chars = 0
	}

	for _, b := range blocks {
		text := textContent(b)
		n := utf8.RuneCountInString(text)
		if chars > 0 && chars+n > budget {
			flush()
		}
		if err := html.Render(&htmlBuf, b); err != nil {
			return nil, fmt.Errorf("failed to render block: %w", err)
		}
		if textBuf.Len() > 0 {
			textBuf.WriteString("\n")
		}
		textBuf.WriteString(text)
		chars += n
	}
	if htmlBuf.Len() > 0 {
		flush()
	}
	return out, nil
}

// collectBlocks gathers page blocks in document order without descending into them
func collectBlocks(n *html.Node, out *[]*html.Node) {
	if n.Type == html.ElementNode && pageBlocks[n.DataAtom] {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, out)
	}
}

func detectComplexContent(root *html.Node) ComplexContent {
	var c ComplexContent
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Table:
				c.Tables++
			case atom.Img:
				c.Images++
			case atom.Div:
				if strings.Contains(attr(n, "class"), "chart") || strings.Contains(attr(n, "id"), "chart") {
					c.Charts++
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	text := textContent(root)
	c.Formulas = len(inlineFormula.FindAllString(text, -1)) + len(equationFormula.FindAllString(text, -1))
	return c
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
