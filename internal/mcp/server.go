package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/a3tai/mcp-pdf-annotator/internal/config"
	"github.com/a3tai/mcp-pdf-annotator/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annotator/internal/document"
	"github.com/a3tai/mcp-pdf-annotator/internal/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/viewer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
)

const shutdownTimeout = 5 * time.Second

// Dependencies are the collaborators a Server drives
type Dependencies struct {
	Controller *viewer.Controller
	Exporter   *export.Exporter
	// Alerts is the notifier handed to Controller; drained into tool results when set
	Alerts *viewer.AlertLog
	// DocumentFS lists the document directory; defaults to the OS filesystem
	DocumentFS afero.Fs
}

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	controller *viewer.Controller
	exporter   *export.Exporter
	alerts     *viewer.AlertLog
	guard      *document.Guard
	documentFS afero.Fs
	session    *session
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if deps.Exporter == nil {
		return nil, fmt.Errorf("exporter cannot be nil")
	}
	if deps.DocumentFS == nil {
		deps.DocumentFS = afero.NewOsFs()
	}

	guard, err := document.NewGuard(cfg.DocumentDirectory, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		controller: deps.Controller,
		exporter:   deps.Exporter,
		alerts:     deps.Alerts,
		guard:      guard,
		documentFS: deps.DocumentFS,
		session:    &session{},
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// Close releases the open document
func (s *Server) Close() error {
	return s.session.close()
}

func toolDescription(name string) mcp.ToolOption {
	return mcp.WithDescription(descriptions.GetToolDescription(name))
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_open_document",
		toolDescription("viewer_open_document"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .pdf or converted .html document, absolute or relative to the document directory"),
		),
	), s.handleOpenDocument)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_navigate",
		toolDescription("viewer_navigate"),
		mcp.WithString("action",
			mcp.Description("goto (default), next or prev"),
			mcp.Enum("goto", "next", "prev"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number for goto"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the render to finish before answering (default true)"),
		),
	), s.handleNavigate)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_toggle_edit_mode",
		toolDescription("viewer_toggle_edit_mode"),
	), s.handleToggleEditMode)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_set_mode",
		toolDescription("viewer_set_mode"),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("red, yellow, blue, custom or eraser"),
			mcp.Enum("red", "yellow", "blue", "custom", "eraser"),
		),
	), s.handleSetMode)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_set_custom_color",
		toolDescription("viewer_set_custom_color"),
		mcp.WithString("color",
			mcp.Required(),
			mcp.Description("Hex value or CSS colour name"),
		),
	), s.handleSetCustomColor)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_complete_selection",
		toolDescription("viewer_complete_selection"),
		mcp.WithArray("rects",
			mcp.Description("Client rectangles of the selection, one per line fragment: {left, top, width, height}"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"left":   map[string]any{"type": "number"},
					"top":    map[string]any{"type": "number"},
					"width":  map[string]any{"type": "number"},
					"height": map[string]any{"type": "number"},
				},
			}),
		),
		mcp.WithString("text",
			mcp.Description("Selected text"),
		),
		mcp.WithNumber("origin_left",
			mcp.Description("Left offset of the page container in client space"),
		),
		mcp.WithNumber("origin_top",
			mcp.Description("Top offset of the page container in client space"),
		),
		mcp.WithBoolean("collapsed",
			mcp.Description("True when the selection is a caret without extent"),
		),
	), s.handleCompleteSelection)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_list_annotations",
		toolDescription("viewer_list_annotations"),
		mcp.WithNumber("page",
			mcp.Description("Only list annotations of this page"),
		),
	), s.handleListAnnotations)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_toggle_visibility",
		toolDescription("viewer_toggle_visibility"),
		mcp.WithString("color",
			mcp.Description("Colour to toggle: red, yellow, blue or custom"),
		),
		mcp.WithObject("states",
			mcp.Description("Replace hidden flags in bulk, e.g. {\"red\": true}"),
		),
	), s.handleToggleVisibility)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_set_underline_options",
		toolDescription("viewer_set_underline_options"),
		mcp.WithString("style",
			mcp.Description("solid, dashed or dotted"),
		),
		mcp.WithNumber("thickness",
			mcp.Description("Line thickness in pixels"),
		),
		mcp.WithString("color",
			mcp.Description("Line colour, hex value or CSS colour name"),
		),
	), s.handleSetUnderlineOptions)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_state",
		toolDescription("viewer_state"),
	), s.handleViewerState)

	s.mcpServer.AddTool(mcp.NewTool(
		"pages_apply_range",
		toolDescription("pages_apply_range"),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Range expression such as 1-3,5,8-10"),
		),
	), s.handleApplyRange)

	s.mcpServer.AddTool(mcp.NewTool(
		"pages_select",
		toolDescription("pages_select"),
		mcp.WithBoolean("all",
			mcp.Description("Select every page (true) or clear the selection (false)"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page that was clicked"),
		),
		mcp.WithBoolean("shift",
			mcp.Description("Extend from the last picked page"),
		),
		mcp.WithBoolean("ctrl",
			mcp.Description("Toggle the clicked page"),
		),
	), s.handleSelectPages)

	s.mcpServer.AddTool(mcp.NewTool(
		"pages_confirm",
		toolDescription("pages_confirm"),
	), s.handleConfirmPages)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_export",
		toolDescription("document_export"),
		mcp.WithString("filename",
			mcp.Description("File name without extension; empty saves as <name>_annotated.pdf"),
		),
		mcp.WithString("format",
			mcp.Description("pdf, docx, html or txt (default pdf)"),
			mcp.Enum("pdf", "docx", "html", "txt"),
		),
		mcp.WithString("page_mode",
			mcp.Description("physical (default) or logical page numbering"),
			mcp.Enum("physical", "logical"),
		),
	), s.handleExport)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_server_info",
		toolDescription("viewer_server_info"),
	), s.handleServerInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF annotator MCP server in stdio mode")
		log.Printf("Document directory: %s", s.config.DocumentDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting PDF annotator MCP server on %s", s.config.Address())
		errCh <- sse.Start(s.config.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		log.Printf("HTTP server stopped")
		return nil
	}
}
