package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/document"
	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pageselect"
	"github.com/a3tai/mcp-pdf-annotator/internal/viewer"
	"github.com/mark3labs/mcp-go/mcp"
)

// rectArgs is a client rectangle as sent by the host
type rectArgs struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type selectionArgs struct {
	Rects      []rectArgs `json:"rects"`
	Text       string     `json:"text"`
	OriginLeft float64    `json:"origin_left"`
	OriginTop  float64    `json:"origin_top"`
	Collapsed  bool       `json:"collapsed"`
}

// decodeArguments re-decodes the raw tool arguments into target
func decodeArguments(request mcp.CallToolRequest, target any) error {
	data, err := json.Marshal(request.GetArguments())
	if err != nil {
		return errors.Wrap(errors.ErrorTypeInvalidInput, "cannot read arguments", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(errors.ErrorTypeInvalidInput, "invalid arguments", err).WithContext(err.Error())
	}
	return nil
}

func (s *Server) requireDocument() error {
	if s.controller.TotalPages() == 0 {
		return errors.New(errors.ErrorTypeInvalidInput, "no document is open, call viewer_open_document first")
	}
	return nil
}

// textResult appends pending alerts to text
func (s *Server) textResult(text string) *mcp.CallToolResult {
	if s.alerts != nil {
		if alerts := s.alerts.Drain(); len(alerts) > 0 {
			text += "\n"
			for _, a := range alerts {
				text += fmt.Sprintf("\n⚠️  %s", a)
			}
			text += "\n"
		}
	}
	return mcp.NewToolResultText(text)
}

func (s *Server) handleOpenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := document.Open(resolved, document.Options{RenderScale: s.config.RenderScale})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	picker, err := pageselect.NewPicker(ctx, doc)
	if err != nil {
		_ = doc.Close()
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.LoadDocument(doc); err != nil {
		_ = doc.Close()
		return mcp.NewToolResultError(err.Error()), nil
	}

	if prev := s.session.replace(doc, picker); prev != nil {
		if err := prev.Close(); err != nil && s.config.IsDebug() {
			log.Printf("Failed to close %s: %v", prev.Path(), err)
		}
	}

	s.controller.WaitIdle()
	return s.textResult(s.formatOpenDocumentResult(doc, picker.Recognition(), s.controller.State())), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireDocument(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var note string
	switch action := strings.ToLower(request.GetString("action", "goto")); action {
	case "next":
		if !s.controller.NextPage() {
			note = "Already on the last page"
		}
	case "prev":
		if !s.controller.PrevPage() {
			note = "Already on the first page"
		}
	case "goto", "":
		page := request.GetInt("page", 0)
		if page == 0 {
			return mcp.NewToolResultError("page is required for goto"), nil
		}
		if err := s.controller.GoToPage(page); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q (must be goto, next or prev)", action)), nil
	}

	if request.GetBool("wait", true) {
		s.controller.WaitIdle()
	}

	text := s.formatPageStatus(s.controller.State())
	if note != "" {
		text += note + "\n"
	}
	return s.textResult(text), nil
}

func (s *Server) handleToggleEditMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.controller.ToggleEditMode()
	return s.textResult(s.formatModeResult(s.controller.State())), nil
}

func (s *Server) handleSetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool, err := request.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.controller.SetMode(tool); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatModeResult(s.controller.State())), nil
}

func (s *Server) handleSetCustomColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireString("color")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.SetCustomColor(value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := fmt.Sprintf("Custom colour set to %s\n", value)
	text += s.formatModeResult(s.controller.State())
	return s.textResult(text), nil
}

func (s *Server) handleCompleteSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireDocument(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var args selectionArgs
	if err := decodeArguments(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sel := &viewer.StaticSelection{
		Collapsed: args.Collapsed,
		Content:   args.Text,
	}
	for _, r := range args.Rects {
		sel.Rects = append(sel.Rects, annotation.NewRect(r.Left, r.Top, r.Width, r.Height))
	}

	result := s.controller.CompleteSelection(annotation.Point{X: args.OriginLeft, Y: args.OriginTop}, sel)
	return s.textResult(s.formatCaptureResult(result, sel.Cleared())), nil
}

func (s *Server) handleListAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireDocument(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	all := s.controller.AllAnnotations()
	if page := request.GetInt("page", 0); page != 0 {
		all = map[int][]annotation.Annotation{page: all[page]}
	}
	return s.textResult(s.formatAnnotations(all, s.controller.VisibilityStates())), nil
}

func (s *Server) handleToggleVisibility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if raw, ok := args["states"]; ok {
		states, err := parseVisibilityStates(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.controller.SetVisibilityStates(states)
		return s.textResult(s.formatVisibility(s.controller.VisibilityStates())), nil
	}

	name, err := request.RequireString("color")
	if err != nil {
		return mcp.NewToolResultError("color or states is required"), nil
	}
	color, err := annotation.ParseColor(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.controller.ToggleVisibility(color); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatVisibility(s.controller.VisibilityStates())), nil
}

func parseVisibilityStates(raw any) (map[annotation.Color]bool, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "states must be an object of colour to hidden flag")
	}

	states := make(map[annotation.Color]bool, len(obj))
	for name, v := range obj {
		color, err := annotation.ParseColor(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeInvalidInput, "invalid visibility state", err)
		}
		hidden, ok := v.(bool)
		if !ok {
			return nil, errors.New(errors.ErrorTypeInvalidInput,
				fmt.Sprintf("hidden flag of %s must be a boolean", color))
		}
		states[color] = hidden
	}
	return states, nil
}

func (s *Server) handleSetUnderlineOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var patch annotation.UnderlineOptionsPatch
	if v, ok := args["style"].(string); ok {
		style := annotation.UnderlineStyle(strings.ToLower(strings.TrimSpace(v)))
		patch.Style = &style
	}
	if v, ok := args["thickness"].(float64); ok {
		if v != math.Trunc(v) {
			return mcp.NewToolResultError(errors.New(errors.ErrorTypeInvalidInput,
				fmt.Sprintf("thickness must be a whole number of pixels, got %g", v)).Error()), nil
		}
		thickness := int(v)
		patch.Thickness = &thickness
	}
	if v, ok := args["color"].(string); ok {
		patch.Color = &v
	}

	opts, err := s.controller.SetUnderlineOptions(patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatUnderlineOptions(opts, s.controller.State())), nil
}

func (s *Server) handleViewerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := s.controller.State()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := "Viewer State\n"
	if doc, err := s.session.document(); err == nil {
		text += fmt.Sprintf("Document: %s (%s)\n", doc.Name(), doc.Kind())
		text += formatCacheStats(doc.CacheStats())
	} else {
		text += "Document: none\n"
	}
	text += string(data) + "\n"
	return s.textResult(text), nil
}

func (s *Server) handleApplyRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("range")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var selected []int
	err = s.session.withPicker(func(p *pageselect.Picker) error {
		if err := p.ApplyRange(expr); err != nil {
			return err
		}
		selected = p.Selected()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatSelection(selected)), nil
}

func (s *Server) handleSelectPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var selected []int
	err := s.session.withPicker(func(p *pageselect.Picker) error {
		if all, ok := args["all"].(bool); ok {
			p.SelectAll(all)
		} else {
			page := request.GetInt("page", 0)
			if page < 1 {
				return errors.New(errors.ErrorTypeInvalidInput, "page or all is required")
			}
			if err := p.Click(page-1, request.GetBool("shift", false), request.GetBool("ctrl", false)); err != nil {
				return err
			}
		}
		selected = p.Selected()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatSelection(selected)), nil
}

func (s *Server) handleConfirmPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var nav pageselect.Navigation
	var rec pageselect.Recognition
	var selected []int
	err := s.session.withPicker(func(p *pageselect.Picker) error {
		var err error
		nav, err = p.Confirm()
		rec = p.Recognition()
		selected = p.Confirmed()
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatNavigation(selected, rec, nav)), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.session.document()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename := request.GetString("filename", "")
	format := request.GetString("format", "")

	var result *export.Result
	if filename == "" && format == "" {
		result, err = s.exporter.Save(s.controller, doc.Path())
	} else {
		mode, modeErr := pageselect.ParseExportMode(request.GetString("page_mode", ""))
		if modeErr != nil {
			return mcp.NewToolResultError(modeErr.Error()), nil
		}
		if format == "" {
			format = string(export.FormatPDF)
		}
		f, formatErr := export.ParseFormat(format)
		if formatErr != nil {
			return mcp.NewToolResultError(formatErr.Error()), nil
		}
		result, err = s.exporter.SaveAs(s.controller, export.Request{
			Filename:    filename,
			Format:      f,
			PageMode:    mode,
			Recognition: s.session.recognition(),
		})
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.textResult(s.formatExportResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.listDocuments()
	if err != nil && s.config.IsDebug() {
		log.Printf("Failed to list %s: %v", s.guard.Root(), err)
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}
