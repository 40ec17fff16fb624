package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphs(n, size int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>%s</p>", strings.Repeat("x", size))
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestParseWordHTML_Paginates(t *testing.T) {
	// 5 paragraphs of 900 characters: 900+900 fits, a third would not
	doc, err := ParseWordHTML(strings.NewReader(paragraphs(5, 900)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, doc.TotalPages())
	assert.Equal(t, KindWord, doc.Kind())
	assert.Equal(t, "document.html", doc.Name())

	page, err := doc.Page(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(page.HTML, "<p>"))
	assert.Equal(t, 1, page.Number)

	last, err := doc.Page(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(last.HTML, "<p>"))
}

func TestParseWordHTML_OversizedBlockGetsOwnPage(t *testing.T) {
	src := "<p>short</p><p>" + strings.Repeat("y", 2500) + "</p><p>tail</p>"
	doc, err := ParseWordHTML(strings.NewReader(src), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.TotalPages())
}

func TestParseWordHTML_NestedBlocksCountOnce(t *testing.T) {
	src := `<table><tr><td><p>cell</p></td></tr></table><ul><li><p>item</p></li></ul><h2>Title</h2>`
	doc, err := ParseWordHTML(strings.NewReader(src), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, doc.TotalPages())

	page, err := doc.Page(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "cell\nitem\nTitle", page.Text)
	assert.Equal(t, 1, strings.Count(page.HTML, "<p>cell</p>"))
}

func TestParseWordHTML_Empty(t *testing.T) {
	_, err := ParseWordHTML(strings.NewReader("<html><body><div>no blocks</div></body></html>"), Options{})
	assert.Error(t, err)
}

func TestDetectComplexContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString("<table><tr><td>t</td></tr></table>")
	}
	b.WriteString(`<p><img src="a.png"><img src="b.png"></p>`)
	b.WriteString(`<p>$a$ and $b$</p>`)
	b.WriteString(`<div class="sales-chart"></div><div id="chart-2"></div><div class="other"></div>`)

	doc, err := ParseWordHTML(strings.NewReader(b.String()), Options{})
	require.NoError(t, err)

	c := doc.Complexity()
	assert.Equal(t, ComplexContent{Tables: 6, Images: 2, Formulas: 2, Charts: 2}, c)
	assert.True(t, c.HasComplexContent(), "six tables exceed the threshold")

	assert.False(t, ComplexContent{Tables: 5, Images: 3, Formulas: 3, Charts: 2}.HasComplexContent())
	assert.True(t, ComplexContent{Charts: 3}.HasComplexContent())
}

func TestOpenWordHTML_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")
	require.NoError(t, os.WriteFile(path, []byte(paragraphs(1, 10)), 0o644))

	doc, err := OpenWordHTML(path, Options{})
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, "report.html", doc.Name())
	assert.Equal(t, path, doc.Path())
	require.NoError(t, doc.RenderPage(context.Background(), 1))
	assert.Error(t, doc.RenderPage(context.Background(), 2))
}
