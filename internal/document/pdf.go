package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultRenderScale matches the viewer's default zoom
const DefaultRenderScale = 1.5

type pageSize struct {
	width, height float64
}

// PDFDocument renders PDF pages. pdfcpu validates the file and supplies page
// geometry; the text layer comes from ledongthuc/pdf.
type PDFDocument struct {
	pages

	path  string
	scale float64
	sizes []pageSize

	mu     sync.Mutex
	file   *os.File
	reader *pdf.Reader
}

// OpenPDF opens and validates the PDF at path
func OpenPDF(path string, opts Options) (*PDFDocument, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return nil, errors.New(errors.ErrorTypeUnsupportedDocument, "file is not a PDF").WithFile(path)
	}

	scale := opts.RenderScale
	if scale <= 0 {
		scale = DefaultRenderScale
	}

	sizes, err := readPageSizes(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLoadFailed, "failed to read PDF", err).WithFile(path)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLoadFailed, "failed to open PDF", err).WithFile(path)
	}

	d := &PDFDocument{
		path:   path,
		scale:  scale,
		sizes:  sizes,
		file:   f,
		reader: r,
	}
	d.pages = pages{
		total: len(sizes),
		cache: newPageCache(opts.CacheSize),
		load:  d.loadPage,
	}
	return d, nil
}

func readPageSizes(path string) ([]pageSize, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	sizes := make([]pageSize, ctx.PageCount)
	for i := range sizes {
		if i < len(dims) {
			sizes[i] = pageSize{width: dims[i].Width, height: dims[i].Height}
		}
	}
	return sizes, nil
}

// Kind returns KindPDF
func (d *PDFDocument) Kind() Kind { return KindPDF }

// Name returns the file name
func (d *PDFDocument) Name() string { return filepath.Base(d.path) }

// Path returns the file path
func (d *PDFDocument) Path() string { return d.path }

// Scale returns the render scale
func (d *PDFDocument) Scale() float64 { return d.scale }

// Close releases the underlying file
func (d *PDFDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.reader = nil
	return err
}

func (d *PDFDocument) loadPage(page int) (*PageView, error) {
	size := d.sizes[page-1]
	view := &PageView{
		Number: page,
		Width:  size.width * d.scale,
		Height: size.height * d.scale,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reader == nil {
		return nil, fmt.Errorf("document is closed")
	}
	if page > d.reader.NumPage() {
		return view, nil
	}

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return view, nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text of page %d: %w", page, err)
	}
	view.Text = text
	return view, nil
}
