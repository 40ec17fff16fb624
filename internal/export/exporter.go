package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pageselect"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format is an export file format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatTXT  Format = "txt"
)

// Formats returns the supported formats
func Formats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatHTML, FormatTXT}
}

// ParseFormat converts a format name into a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrorTypeInvalidInput,
		fmt.Sprintf("unsupported export format %q (must be one of: pdf, docx, html, txt)", s))
}

// MIMEType returns the content type of files in format f
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html"
	case FormatTXT:
		return "text/plain"
	}
	return "application/octet-stream"
}

// Source supplies the annotation state being exported
type Source interface {
	AllAnnotations() map[int][]annotation.Annotation
	VisibilityStates() map[annotation.Color]bool
	UnderlineOptions() annotation.UnderlineOptions
	TotalPages() int
}

// Payload is the data handed to the (simulated) conversion backend
type Payload struct {
	Filename         string                          `json:"filename"`
	Format           Format                          `json:"format"`
	Annotations      map[int][]annotation.Annotation `json:"annotations"`
	VisibilityStates map[annotation.Color]bool       `json:"visibilityStates,omitempty"`
	UnderlineOptions annotation.UnderlineOptions     `json:"underlineOptions"`
	TotalPages       int                             `json:"totalPages"`
	PageMode         pageselect.ExportMode           `json:"pageMode"`
	PageNumbers      map[int]string                  `json:"pageNumbers,omitempty"`
	Timestamp        string                          `json:"timestamp"`
}

// AnnotationCount returns the number of exported annotations
func (p Payload) AnnotationCount() int {
	n := 0
	for _, list := range p.Annotations {
		n += len(list)
	}
	return n
}

// Request describes one export
type Request struct {
	Filename    string
	Format      Format
	PageMode    pageselect.ExportMode
	Recognition *pageselect.Recognition
}

// Result describes a written export
type Result struct {
	Filename    string  `json:"filename"`
	Path        string  `json:"path"`
	MIMEType    string  `json:"mime_type"`
	Size        int     `json:"size"`
	Annotations int     `json:"annotations"`
	Payload     Payload `json:"payload"`
}

// Exporter writes exports into an output directory. Real PDF and DOCX
// encoding is out of scope; those files carry the JSON payload.
type Exporter struct {
	fs  afero.Fs
	dir string
	now func() time.Time
	md  goldmark.Markdown
}

// NewExporter creates an exporter writing under dir on fs
func NewExporter(fs afero.Fs, dir string) *Exporter {
	return &Exporter{
		fs:  fs,
		dir: dir,
		now: time.Now,
		md:  goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Dir returns the output directory
func (e *Exporter) Dir() string { return e.dir }

// AnnotatedName derives the Save file name, "report.pdf" becomes "report_annotated.pdf"
func AnnotatedName(documentName string) string {
	base := filepath.Base(documentName)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_annotated.pdf"
}

// Save exports the annotated document as PDF next to its original name
func (e *Exporter) Save(src Source, documentName string) (*Result, error) {
	if strings.TrimSpace(documentName) == "" {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "no document is open")
	}
	return e.write(src, Request{Format: FormatPDF, PageMode: pageselect.ExportPhysical}, AnnotatedName(documentName))
}

// SaveAs exports under filename (without extension) in the requested format
func (e *Exporter) SaveAs(src Source, req Request) (*Result, error) {
	name := strings.TrimSpace(req.Filename)
	if name == "" {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "please enter a file name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "file name must not contain a path")
	}
	if _, err := ParseFormat(string(req.Format)); err != nil {
		return nil, err
	}
	if req.PageMode == "" {
		req.PageMode = pageselect.ExportPhysical
	}
	return e.write(src, req, name+"."+string(req.Format))
}

func (e *Exporter) write(src Source, req Request, filename string) (*Result, error) {
	payload := e.buildPayload(src, req, filename)

	var data []byte
	var err error
	switch req.Format {
	case FormatHTML:
		data, err = e.renderHTML(payload)
	case FormatTXT:
		data = renderText(payload)
	default:
		data, err = json.MarshalIndent(payload, "", "  ")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExportFailed, "failed to encode export", err).WithFile(filename)
	}

	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExportFailed, "failed to create output directory", err)
	}
	path := filepath.Join(e.dir, filename)
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExportFailed, "failed to write export", err).WithFile(path)
	}

	return &Result{
		Filename:    filename,
		Path:        path,
		MIMEType:    req.Format.MIMEType(),
		Size:        len(data),
		Annotations: payload.AnnotationCount(),
		Payload:     payload,
	}, nil
}

func (e *Exporter) buildPayload(src Source, req Request, filename string) Payload {
	all := src.AllAnnotations()
	states := src.VisibilityStates()

	p := Payload{
		Filename:         filename,
		Format:           req.Format,
		UnderlineOptions: src.UnderlineOptions(),
		TotalPages:       src.TotalPages(),
		PageMode:         req.PageMode,
		Timestamp:        e.now().UTC().Format(time.RFC3339),
	}

	if req.Format == FormatPDF {
		// the PDF keeps hidden annotations and the flags to hide them
		p.Annotations = all
		p.VisibilityStates = states
	} else {
		p.Annotations = VisibleOnly(all, states)
	}

	if req.PageMode == pageselect.ExportLogical && req.Recognition != nil {
		p.PageNumbers = make(map[int]string, len(p.Annotations))
		for page := range p.Annotations {
			p.PageNumbers[page] = req.PageMode.PageNumber(*req.Recognition, page-1)
		}
	}
	return p
}

// VisibleOnly drops annotations whose colour is hidden. Pages keep their key
// even when every annotation on them is filtered out.
func VisibleOnly(all map[int][]annotation.Annotation, hidden map[annotation.Color]bool) map[int][]annotation.Annotation {
	out := make(map[int][]annotation.Annotation, len(all))
	for page, list := range all {
		kept := make([]annotation.Annotation, 0, len(list))
		for _, a := range list {
			if !hidden[a.Color] {
				kept = append(kept, a)
			}
		}
		out[page] = kept
	}
	return out
}

func sortedPages(m map[int][]annotation.Annotation) []int {
	pages := make([]int, 0, len(m))
	for page := range m {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

func pageLabel(p Payload, page int) string {
	if label, ok := p.PageNumbers[page]; ok {
		return label
	}
	return fmt.Sprintf("%d", page)
}

func (e *Exporter) renderHTML(p Payload) ([]byte, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", escapeMarkdown(p.Filename))
	fmt.Fprintf(&md, "Exported %s, %d pages, %d annotations.\n\n", p.Timestamp, p.TotalPages, p.AnnotationCount())

	for _, page := range sortedPages(p.Annotations) {
		list := p.Annotations[page]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&md, "## Page %s\n\n", escapeMarkdown(pageLabel(p, page)))
		md.WriteString("| Color | Position | Text |\n|---|---|---|\n")
		for _, a := range list {
			fmt.Fprintf(&md, "| %s | %.0f,%.0f %.0fx%.0f | %s |\n",
				a.Color, a.X, a.Y, a.Width, a.Height, escapeMarkdown(a.Text))
		}
		md.WriteString("\n")
	}

	var body bytes.Buffer
	if err := e.md.Convert([]byte(md.String()), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", htmlEscaper.Replace(p.Filename))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func renderText(p Payload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Filename)
	fmt.Fprintf(&b, "Exported: %s\nPages: %d\nAnnotations: %d\n", p.Timestamp, p.TotalPages, p.AnnotationCount())

	for _, page := range sortedPages(p.Annotations) {
		list := p.Annotations[page]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nPage %s\n", pageLabel(p, page))
		for _, a := range list {
			fmt.Fprintf(&b, "  [%s] %s\n", a.Color, a.Text)
		}
	}
	return []byte(b.String())
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// escapeMarkdown backslash-escapes markdown punctuation and flattens newlines
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\n', '\r':
			b.WriteRune(' ')
		case '\\', '`', '*', '_', '[', ']', '<', '>', '|', '#', '!', '&':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
