package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// Kind identifies the document family
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindWord Kind = "word"
)

// PageView is one rendered page
type PageView struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
	HTML   string  `json:"html,omitempty"`
}

// Document is an opened document that renders pages on demand
type Document interface {
	Kind() Kind
	Name() string
	Path() string
	TotalPages() int
	RenderPage(ctx context.Context, page int) error
	Page(ctx context.Context, page int) (*PageView, error)
	CacheStats() CacheStats
	Close() error
}

// WordMIMETypes lists the word-processor formats accepted for conversion
var WordMIMETypes = []string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"application/rtf",
	"application/vnd.oasis.opendocument.text",
	"application/wps-office.docx",
	"application/x-hwp",
	"application/x-abiword",
}

// IsSupportedWordMIME reports whether mimeType is an accepted word-processor format
func IsSupportedWordMIME(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, m := range WordMIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

var wordExtensions = map[string]bool{
	".docx": true, ".doc": true, ".rtf": true, ".odt": true, ".wps": true, ".hwp": true, ".abw": true,
}

// Options configures document loading
type Options struct {
	RenderScale float64
	CacheSize   int
}

// Open loads the document at path, choosing the backend from its extension.
// Word-processor files must already be converted to HTML.
func Open(path string, opts Options) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return OpenPDF(path, opts)
	case ext == ".html" || ext == ".htm":
		return OpenWordHTML(path, opts)
	case wordExtensions[ext]:
		return nil, errors.New(errors.ErrorTypeUnsupportedDocument,
			fmt.Sprintf("%s documents must be converted to HTML before opening", ext)).WithFile(path)
	default:
		return nil, errors.New(errors.ErrorTypeUnsupportedDocument, "unsupported file type").WithFile(path)
	}
}

// pages renders and caches page views for a backend
type pages struct {
	total int
	cache *pageCache
	load  func(page int) (*PageView, error)
}

func (p *pages) TotalPages() int { return p.total }

func (p *pages) RenderPage(ctx context.Context, page int) error {
	_, err := p.Page(ctx, page)
	return err
}

func (p *pages) Page(ctx context.Context, page int) (*PageView, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeRenderFailed, "render cancelled", err).WithPage(page)
	}
	if page < 1 || page > p.total {
		return nil, errors.New(errors.ErrorTypeInvalidInput,
			fmt.Sprintf("page %d is out of range (1-%d)", page, p.total)).WithPage(page)
	}

	if view, ok := p.cache.Get(page); ok {
		return view, nil
	}

	view, err := p.load(page)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrorTypeRenderFailed, "failed to render page", err).WithPage(page)
	}
	p.cache.Put(page, view)
	return view, nil
}

func (p *pages) CacheStats() CacheStats {
	return p.cache.Stats()
}

const defaultCacheSize = 16
