package mcp

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annotator/internal/document"
	"github.com/a3tai/mcp-pdf-annotator/internal/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pageselect"
	"github.com/a3tai/mcp-pdf-annotator/internal/viewer"
	"github.com/spf13/afero"
)

const maxListedDocuments = 10

const usageGuidance = `💡 Workflow:
1. viewer_open_document to open a PDF or converted HTML document
2. viewer_toggle_edit_mode (or viewer_set_mode) to pick a highlighter
3. viewer_complete_selection for every text selection, in eraser mode to remove highlights
4. viewer_toggle_visibility to focus on one colour; hidden highlights get an underline
5. document_export to save the annotated document
`

// documentFile is one openable file of the document directory
type documentFile struct {
	Name string
	Size int64
}

func (s *Server) listDocuments() ([]documentFile, error) {
	entries, err := afero.ReadDir(s.documentFS, s.guard.Root())
	if err != nil {
		return nil, err
	}

	var files []documentFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".html", ".htm":
			files = append(files, documentFile{Name: e.Name(), Size: e.Size()})
		}
	}
	return files, nil
}

func (s *Server) formatOpenDocumentResult(doc document.Document, rec pageselect.Recognition, state viewer.State) string {
	text := fmt.Sprintf("Opened document: %s\n", doc.Name())
	text += fmt.Sprintf("Path: %s\n", doc.Path())
	text += fmt.Sprintf("Type: %s\n", doc.Kind())
	text += fmt.Sprintf("Pages: %d\n", doc.TotalPages())
	text += fmt.Sprintf("Current page: %d\n", state.CurrentPage)

	numbered := 0
	for _, l := range rec.Labels {
		if l.Recognized() {
			numbered++
		}
	}
	text += fmt.Sprintf("Printed page numbers recognised: %d of %d\n", numbered, len(rec.Labels))

	if word, ok := doc.(*document.WordDocument); ok {
		c := word.Complexity()
		text += fmt.Sprintf("Tables: %d, Images: %d, Formulas: %d, Charts: %d\n",
			c.Tables, c.Images, c.Formulas, c.Charts)
		if c.HasComplexContent() {
			text += "\n⚠️  WARNING: This document contains complex content (tables, images, formulas or charts) " +
				"that may not convert accurately.\n"
		}
	}
	return text
}

func (s *Server) formatPageStatus(state viewer.State) string {
	text := fmt.Sprintf("Page %d of %d\n", state.CurrentPage, state.TotalPages)
	if state.ShownPage != 0 && state.ShownPage != state.CurrentPage {
		text += fmt.Sprintf("Shown page: %d\n", state.ShownPage)
	}
	if state.Rendering {
		text += "Rendering: in progress\n"
	}
	if state.PendingPage != 0 {
		text += fmt.Sprintf("Queued page: %d\n", state.PendingPage)
	}
	text += fmt.Sprintf("Annotations on page: %d\n", len(state.Nodes))
	return text
}

func (s *Server) formatModeResult(state viewer.State) string {
	editing := "off"
	if state.Editing {
		editing = "on"
	}
	text := fmt.Sprintf("Edit mode: %s\n", editing)
	text += fmt.Sprintf("Mode: %s\n", state.Mode)
	if state.Mode == viewer.ModePaint.String() {
		text += fmt.Sprintf("Color: %s\n", state.Color)
	}
	return text
}

func (s *Server) formatCaptureResult(result viewer.CaptureResult, cleared bool) string {
	text := fmt.Sprintf("Mode: %s\n", result.Mode)
	switch {
	case result.Discarded:
		text += "Selection ignored\n"
	case result.Mode == viewer.ModeErase:
		text += fmt.Sprintf("Page: %d\n", result.Page)
		text += fmt.Sprintf("Erased: %d annotation(s)\n", result.Erased)
	default:
		text += fmt.Sprintf("Page: %d\n", result.Page)
		text += fmt.Sprintf("Created: %d annotation(s)\n", len(result.Created))
		for _, id := range result.Created {
			text += fmt.Sprintf("  • %s\n", id)
		}
	}
	text += fmt.Sprintf("Selection cleared: %t\n", cleared)
	return text
}

func (s *Server) formatAnnotations(all map[int][]annotation.Annotation, hidden map[annotation.Color]bool) string {
	pages := make([]int, 0, len(all))
	total := 0
	for page, list := range all {
		if len(list) == 0 {
			continue
		}
		pages = append(pages, page)
		total += len(list)
	}
	sort.Ints(pages)

	if total == 0 {
		return "No annotations\n"
	}

	text := fmt.Sprintf("%d annotation(s) on %d page(s)\n", total, len(pages))
	for _, page := range pages {
		text += fmt.Sprintf("\nPage %d:\n", page)
		for _, a := range all[page] {
			text += fmt.Sprintf("  • [%s] %s at %.0f,%.0f %.0fx%.0f", a.Color, a.ID, a.X, a.Y, a.Width, a.Height)
			if hidden[a.Color] {
				text += " (hidden)"
			}
			if a.Text != "" {
				text += fmt.Sprintf(" %q", a.Text)
			}
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatVisibility(hidden map[annotation.Color]bool) string {
	text := "Annotation visibility\n"
	for _, c := range annotation.Colors() {
		state := "visible"
		if hidden[c] {
			state = "hidden"
		}
		text += fmt.Sprintf("  %s: %s (button: %s)\n", c, state, annotation.VisibilityLabel(c, hidden[c]))
	}
	return text
}

func (s *Server) formatUnderlineOptions(opts annotation.UnderlineOptions, state viewer.State) string {
	text := "Underline options\n"
	text += fmt.Sprintf("Style: %s\n", opts.Style)
	text += fmt.Sprintf("Thickness: %d\n", opts.Thickness)
	text += fmt.Sprintf("Color: %s\n", opts.Color)
	text += fmt.Sprintf("Decorations on page: %d\n", len(state.Decorations))
	return text
}

func (s *Server) formatSelection(selected []int) string {
	if len(selected) == 0 {
		return "Selected pages: none\n"
	}
	ranges := pageselect.Compress(selected)
	labels := make([]string, len(ranges))
	for i, r := range ranges {
		labels[i] = r.String()
	}
	return fmt.Sprintf("Selected pages (%d): %s\n", len(selected), strings.Join(labels, ","))
}

func formatButtons(buttons []pageselect.Button) string {
	parts := make([]string, len(buttons))
	for i, b := range buttons {
		parts[i] = fmt.Sprintf("%s → %d", b.Label, b.Page)
	}
	return strings.Join(parts, ", ")
}

func (s *Server) formatNavigation(selected []int, rec pageselect.Recognition, nav pageselect.Navigation) string {
	text := s.formatSelection(selected)
	text += "\nNavigation:\n"
	if nav.Front != nil {
		text += fmt.Sprintf("  %s: %s\n", nav.Front.Title, formatButtons(nav.Front.Buttons))
	}
	if len(nav.Buttons) > 0 {
		text += fmt.Sprintf("  Pages: %s\n", formatButtons(nav.Buttons))
	}
	for _, g := range nav.Ranges {
		text += fmt.Sprintf("  Range %s (%d pages): %s\n", g.Label, len(g.Pages),
			formatButtons(pageselect.RangeButtons(rec, g)))
	}
	if nav.Back != nil {
		text += fmt.Sprintf("  %s: %s\n", nav.Back.Title, formatButtons(nav.Back.Buttons))
	}
	return text
}

func formatCacheStats(stats document.CacheStats) string {
	pages := make([]string, len(stats.Pages))
	for i, p := range stats.Pages {
		pages[i] = fmt.Sprintf("%d", p)
	}
	cached := "none"
	if len(pages) > 0 {
		cached = strings.Join(pages, ",")
	}
	return fmt.Sprintf("Page cache: %d/%d pages (%s), %d hits, %d misses, %.1f%% hit rate\n",
		stats.Size, stats.Capacity, cached, stats.Hits, stats.Misses, stats.HitRate)
}

func (s *Server) formatExportResult(result *export.Result) string {
	text := fmt.Sprintf("Exported: %s\n", result.Filename)
	text += fmt.Sprintf("Path: %s\n", result.Path)
	text += fmt.Sprintf("Format: %s (%s)\n", result.Payload.Format, result.MIMEType)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Annotations: %d\n", result.Annotations)
	text += fmt.Sprintf("Page numbering: %s\n", result.Payload.PageMode)
	return text
}

func (s *Server) formatServerInfo(files []documentFile) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Document Directory: %s\n", s.guard.Root())
	text += fmt.Sprintf("📤 Export Directory: %s\n", s.exporter.Dir())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", s.config.MaxFileSize/(1024*1024))

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d documents found):\n", len(files))
		for i, f := range files {
			if i >= maxListedDocuments {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedDocuments)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, f.Name, f.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No documents found in the document directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		text += fmt.Sprintf("  • %s: %s\n", name, summary)
	}

	text += "\n" + usageGuidance
	return text
}
