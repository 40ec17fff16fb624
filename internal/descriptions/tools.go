package descriptions

import "sort"

// Long-form tool descriptions with practical examples and use cases

const (
	// Document tools
	OpenDocumentDescription = `Open a PDF or converted word-processor HTML document and render its first page.

**When to use:** Start of every annotation session. Opening a document discards the annotations of the previous one.

**Examples:**
• Open a report: "Open reports/q3.pdf so I can highlight the findings"
• Open a converted memo: "Open memo.html (exported from Word) for review"

**Common workflows:**
1. Review: viewer_open_document → viewer_toggle_edit_mode → viewer_complete_selection → document_export
2. Page planning: viewer_open_document → pages_apply_range → pages_confirm

**Best practices:** Word formats (.docx, .doc, .rtf, .odt) must be converted to HTML first; the response reports complex content such as tables and formulas that may not paginate well.`

	NavigateDescription = `Move between pages of the open document.

**When to use:** Show another page before annotating it. Requests made while a page is still rendering are queued and only the most recent one is kept.

**Examples:**
• "Go to page 12"
• "Show the next page"

**Best practices:** Use action "goto" with a page number, or "next"/"prev". Out-of-range pages are rejected and the current page is kept.`

	ToggleEditModeDescription = `Enter or leave edit mode.

**When to use:** Before highlighting text. Entering edit mode selects the red highlighter; leaving it returns to view mode where selections are not captured.

**Examples:**
• "Start annotating"
• "Stop editing so I can copy text"`

	SetModeDescription = `Pick the active annotation tool.

**When to use:** Switch highlighter colour or the eraser while editing.

**Examples:**
• "Use the yellow highlighter"
• "Switch to the eraser"

**Best practices:** Valid tools are red, yellow, blue, custom and eraser. Choosing a tool also enables edit mode.`

	SetCustomColorDescription = `Change the fill colour of the custom highlighter and select it.

**When to use:** Highlight with a colour other than red, yellow or blue.

**Examples:**
• "Highlight in #4CAF50"
• "Use teal for the custom highlighter"

**Best practices:** Accepts hex values (#rgb, #rrggbb, #rrggbbaa) or CSS colour names.`

	CompleteSelectionDescription = `Finish a text selection on the current page.

**When to use:** After the user selects text. In a highlighter mode every selection rectangle becomes an annotation; in eraser mode every annotation touching the selection is removed.

**Examples:**
• Paint: {"rects": [{"left": 110, "top": 220, "width": 50, "height": 12}], "text": "key finding"}

**Best practices:** Rectangles are in viewport coordinates; pass the page container origin in origin_left/origin_top so they are translated to page coordinates. Zero-sized rectangles are ignored.`

	ListAnnotationsDescription = `List annotations of the open document grouped by page.

**When to use:** Review what has been highlighted, optionally for a single page.

**Examples:**
• "What did I highlight on page 3?"
• "List all annotations"`

	ToggleVisibilityDescription = `Show or hide every annotation of one colour.

**When to use:** Focus on one category of highlights. Hidden annotations are kept and marked with an underline.

**Examples:**
• "Hide the red highlights"
• Bulk: {"states": {"red": true, "blue": false}} replaces every flag at once`

	SetUnderlineOptionsDescription = `Configure the underline drawn beneath hidden annotations.

**When to use:** Keep hidden highlights discoverable. Options are merged into the current ones and persisted across sessions.

**Examples:**
• {"style": "dashed", "thickness": 2, "color": "navy"}

**Best practices:** Style is solid, dashed or dotted; colour accepts hex values or CSS colour names. Omitted fields keep their current value.`

	ViewerStateDescription = `Report the complete viewer state.

**When to use:** Inspect the current page, pending render requests, the active tool, visibility flags, underline decorations and the rendered annotation layer.`

	// Page picker tools
	ApplyRangeDescription = `Replace the page selection with a range expression.

**When to use:** Choose pages to work with or export, e.g. "1-3,5,8-10".

**Best practices:** Ranges are clamped to the document; an unparseable expression is rejected and the previous selection kept.`

	SelectPagesDescription = `Change the page selection with gestures.

**When to use:** Select all or none, click a page, shift-click to extend from the last picked page, or ctrl-click to toggle one page.

**Examples:**
• {"all": true}
• {"page": 7, "shift": true}`

	ConfirmPagesDescription = `Confirm the page selection and build the navigation plan.

**When to use:** After choosing pages. Recognised printed page numbers (arabic, roman, A-1 style) become navigation buttons; unnumbered front and back matter is grouped separately. Large selections are grouped into contiguous ranges.

**Best practices:** Fails when no page is selected.`

	// Export tools
	ExportDescription = `Export the annotated document.

**When to use:** Save highlights. Without a filename the document is saved as <name>_annotated.pdf; with a filename and format (pdf, docx, html, txt) a copy is written to the export directory.

**Common workflows:**
1. Share a summary: document_export with format "html" for a readable report
2. Archive: document_export without arguments

**Best practices:** PDF exports keep hidden annotations together with their visibility flags; other formats contain only visible annotations. Use page_mode "logical" to label pages with recognised printed numbers.`

	ServerInfoDescription = `Get server information, available tools, the document directory contents and usage guidance.

**When to use:** First call in a new session to discover documents and the annotation workflow.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"viewer_open_document":         OpenDocumentDescription,
	"viewer_navigate":              NavigateDescription,
	"viewer_toggle_edit_mode":      ToggleEditModeDescription,
	"viewer_set_mode":              SetModeDescription,
	"viewer_set_custom_color":      SetCustomColorDescription,
	"viewer_complete_selection":    CompleteSelectionDescription,
	"viewer_list_annotations":      ListAnnotationsDescription,
	"viewer_toggle_visibility":     ToggleVisibilityDescription,
	"viewer_set_underline_options": SetUnderlineOptionsDescription,
	"viewer_state":                 ViewerStateDescription,
	"pages_apply_range":            ApplyRangeDescription,
	"pages_select":                 SelectPagesDescription,
	"pages_confirm":                ConfirmPagesDescription,
	"document_export":              ExportDescription,
	"viewer_server_info":           ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
