package mcp

import (
	"sync"

	"github.com/a3tai/mcp-pdf-annotator/internal/document"
	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pageselect"
)

// session is the open document and its page picker
type session struct {
	mu     sync.Mutex
	doc    document.Document
	picker *pageselect.Picker
}

// replace installs doc and returns the document it replaces
func (s *session) replace(doc document.Document, picker *pageselect.Picker) document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc
	s.doc = doc
	s.picker = picker
	return prev
}

func (s *session) document() (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "no document is open, call viewer_open_document first")
	}
	return s.doc, nil
}

// withPicker runs fn on the picker while holding the session lock
func (s *session) withPicker(fn func(*pageselect.Picker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.picker == nil {
		return errors.New(errors.ErrorTypeInvalidInput, "no document is open, call viewer_open_document first")
	}
	return fn(s.picker)
}

// recognition returns the page labels of the open document, nil when none
func (s *session) recognition() *pageselect.Recognition {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.picker == nil {
		return nil
	}
	rec := s.picker.Recognition()
	return &rec
}

func (s *session) close() error {
	prev := s.replace(nil, nil)
	if prev == nil {
		return nil
	}
	return prev.Close()
}
