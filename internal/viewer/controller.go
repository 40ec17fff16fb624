package viewer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// Options configures a Controller. Nil collaborators get working defaults.
type Options struct {
	KV          annotation.KeyValueStore
	Scheduler   Scheduler
	Notifier    Notifier
	CustomColor string
	Debug       bool
}

// State is a snapshot of everything the viewer shows
type State struct {
	Editing         bool                        `json:"editing"`
	Mode            string                      `json:"mode"`
	Color           annotation.Color            `json:"color"`
	CurrentPage     int                         `json:"current_page"`
	ShownPage       int                         `json:"shown_page"`
	TotalPages      int                         `json:"total_pages"`
	PendingPage     int                         `json:"pending_page,omitempty"`
	Rendering       bool                        `json:"rendering"`
	AnnotationCount int                         `json:"annotation_count"`
	Visibility      map[annotation.Color]bool   `json:"visibility"`
	Underline       annotation.UnderlineOptions `json:"underline"`
	Nodes           []Node                      `json:"nodes"`
	Decorations     []annotation.Decoration     `json:"decorations"`
}

// ExportData is the underline configuration together with every annotation
type ExportData struct {
	UnderlineOptions annotation.UnderlineOptions     `json:"underlineOptions"`
	Annotations      map[int][]annotation.Annotation `json:"annotations"`
}

// Controller owns the annotation core of one viewer session. Every user
// gesture maps to one method call.
type Controller struct {
	mu sync.Mutex

	ctx        context.Context
	store      *annotation.Store
	visibility *annotation.Visibility
	overlay    *annotation.Overlay
	palette    *annotation.Palette
	layer      *Layer
	capture    *Capture
	nav        *Navigator
	document   PageRenderer

	kv        annotation.KeyValueStore
	scheduler Scheduler
	notifier  Notifier
	editing   bool
	debug     bool
}

// NewController wires a controller. Underline options are restored from opts.KV.
func NewController(ctx context.Context, opts Options) (*Controller, error) {
	customColor := opts.CustomColor
	if customColor == "" {
		customColor = annotation.DefaultCustomColor
	}
	palette, err := annotation.NewPalette(customColor)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidInput, "invalid custom color", err)
	}

	c := &Controller{
		ctx:        ctx,
		store:      annotation.NewStore(),
		visibility: annotation.NewVisibility(),
		overlay:    annotation.NewOverlay(annotation.LoadUnderlineOptions(opts.KV)),
		palette:    palette,
		kv:         opts.KV,
		scheduler:  opts.Scheduler,
		notifier:   opts.Notifier,
		debug:      opts.Debug,
	}
	if c.scheduler == nil {
		c.scheduler = ImmediateScheduler{}
	}
	if c.notifier == nil {
		c.notifier = NewAlertLog(opts.Debug)
	}
	c.layer = NewLayer(palette)
	c.capture = NewCapture(c.store)

	// both listeners fire from inside controller commands, which already hold c.mu
	c.store.OnChange(c.onStoreChangeLocked)
	c.visibility.Subscribe(c.onVisibilityChangeLocked)

	return c, nil
}

// Store returns the annotation store
func (c *Controller) Store() *annotation.Store { return c.store }

// LoadDocument replaces the open document, drops every annotation of the
// session and starts rendering page 1.
func (c *Controller) LoadDocument(doc PageRenderer) error {
	if doc == nil {
		return errors.New(errors.ErrorTypeLoadFailed, "no document")
	}
	if doc.TotalPages() < 1 {
		return errors.New(errors.ErrorTypeLoadFailed, "document has no pages")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Reset()
	c.layer.Clear()
	c.overlay.Clear()

	nav := NewNavigator(c.ctx, doc)
	nav.OnPage(func(e PageEvent) { c.onPageRendered(nav, e) })
	c.nav = nav
	c.document = doc

	if c.debug {
		log.Printf("Loaded document with %d pages", doc.TotalPages())
	}
	nav.GoTo(1)
	return nil
}

// Document returns the open document, nil when none
func (c *Controller) Document() PageRenderer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// GoToPage requests a render of page
func (c *Controller) GoToPage(page int) error {
	nav := c.navigator()
	if nav == nil {
		return errors.New(errors.ErrorTypeInvalidInput, "no document is open")
	}
	if !nav.GoTo(page) {
		return errors.New(errors.ErrorTypeInvalidInput,
			fmt.Sprintf("page %d is out of range (1-%d)", page, nav.Total())).WithPage(page)
	}
	return nil
}

// NextPage moves forward one page. It returns false on the last page.
func (c *Controller) NextPage() bool {
	nav := c.navigator()
	return nav != nil && nav.Next()
}

// PrevPage moves back one page. It returns false on the first page.
func (c *Controller) PrevPage() bool {
	nav := c.navigator()
	return nav != nil && nav.Prev()
}

// WaitIdle blocks until pending renders and their listeners are done
func (c *Controller) WaitIdle() {
	if nav := c.navigator(); nav != nil {
		nav.Wait()
	}
}

// ToggleEditMode enters or leaves edit mode and returns the new mode. Entering
// selects the red pen; leaving drops the eraser.
func (c *Controller) ToggleEditMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.editing = !c.editing
	if c.editing {
		_ = c.capture.SetTool(string(annotation.Red))
	} else {
		c.capture.SetView()
	}
	return c.capture.Mode()
}

// SetMode selects a pen colour or the eraser, entering edit mode if needed
func (c *Controller) SetMode(tool string) (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.capture.SetTool(tool); err != nil {
		return c.capture.Mode(), errors.Wrap(errors.ErrorTypeInvalidInput, "invalid annotation mode", err)
	}
	c.editing = true
	return c.capture.Mode(), nil
}

// SetCustomColor changes the fill of the custom pen and selects it
func (c *Controller) SetCustomColor(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.palette.SetCustom(value); err != nil {
		return errors.Wrap(errors.ErrorTypeInvalidInput, "invalid custom color", err)
	}
	_ = c.capture.SetTool(string(annotation.Custom))
	c.editing = true

	if page := c.layer.Page(); page > 0 {
		c.redrawLocked(page)
	}
	return nil
}

// CompleteSelection handles the end of a pointer selection on the page on
// screen; origin is the page container's offset in client space.
func (c *Controller) CompleteSelection(origin annotation.Point, sel Selection) CaptureResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.layer.Page()
	if page == 0 {
		if c.capture.Mode() != ModeView {
			sel.Clear()
		}
		return CaptureResult{Mode: c.capture.Mode(), Discarded: true}
	}
	return c.capture.Complete(page, origin, sel)
}

// ResetPage drops every annotation of page
func (c *Controller) ResetPage(page int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ResetPage(page)
}

// ToggleVisibility hides or shows every annotation of colour and returns the new hidden flag
func (c *Controller) ToggleVisibility(color annotation.Color) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hidden, err := c.visibility.Toggle(color)
	if err != nil {
		return false, errors.Wrap(errors.ErrorTypeInvalidInput, "cannot toggle visibility", err)
	}
	return hidden, nil
}

// SetVisibilityStates replaces the flags of every colour present in states
func (c *Controller) SetVisibilityStates(states map[annotation.Color]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility.Set(states)
}

// SetUnderlineOptions merges patch over the current options, redraws and persists them.
// A persistence failure is alerted; the new options stay in effect for the session.
func (c *Controller) SetUnderlineOptions(patch annotation.UnderlineOptionsPatch) (annotation.UnderlineOptions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.overlay.Options()
	next := patch.Apply(current)
	if err := c.overlay.SetOptions(next); err != nil {
		return current, errors.Wrap(errors.ErrorTypeInvalidInput, "invalid underline options", err)
	}
	c.recomputeLocked()

	if err := annotation.SaveUnderlineOptions(c.kv, next); err != nil {
		c.notifier.Alert(errors.Wrap(errors.ErrorTypeStorageFailed, "underline options were not saved", err).Error())
	}
	return next, nil
}

// AllAnnotations returns every annotation keyed by page
func (c *Controller) AllAnnotations() map[int][]annotation.Annotation {
	return c.store.All()
}

// VisibilityStates returns a copy of the hidden flags
func (c *Controller) VisibilityStates() map[annotation.Color]bool {
	return c.visibility.Get()
}

// UnderlineOptions returns the current underline options
func (c *Controller) UnderlineOptions() annotation.UnderlineOptions {
	return c.overlay.Options()
}

// TotalPages returns the page count of the open document, 0 when none
func (c *Controller) TotalPages() int {
	if nav := c.navigator(); nav != nil {
		return nav.Total()
	}
	return 0
}

// ExportData returns the underline options and every annotation
func (c *Controller) ExportData() ExportData {
	return ExportData{
		UnderlineOptions: c.overlay.Options(),
		Annotations:      c.store.All(),
	}
}

// State returns a snapshot of the viewer
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Editing:         c.editing,
		Mode:            c.capture.Mode().String(),
		Color:           c.capture.Color(),
		ShownPage:       c.layer.Page(),
		AnnotationCount: c.store.Count(),
		Visibility:      c.visibility.Get(),
		Underline:       c.overlay.Options(),
		Nodes:           c.layer.Nodes(),
		Decorations:     c.overlay.Decorations(),
	}
	if c.nav != nil {
		s.CurrentPage = c.nav.Current()
		s.TotalPages = c.nav.Total()
		s.PendingPage = c.nav.Pending()
		s.Rendering = c.nav.Busy()
	}
	return s
}

func (c *Controller) navigator() *Navigator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav
}

// onPageRendered runs on the render goroutine
func (c *Controller) onPageRendered(nav *Navigator, e PageEvent) {
	c.mu.Lock()
	if nav != c.nav {
		// a newer document replaced this one
		c.mu.Unlock()
		return
	}
	if e.Err != nil {
		c.mu.Unlock()
		c.notifier.Alert(errors.Wrap(errors.ErrorTypeRenderFailed, "failed to render page", e.Err).
			WithPage(e.Page).UserMessage())
		if c.debug {
			log.Printf("Render of page %d failed: %v", e.Page, e.Err)
		}
		return
	}

	c.redrawLocked(e.Page)
	c.mu.Unlock()

	// the renderer may still be settling; apply again once it has
	c.scheduler.Schedule(c.applyVisibility)
}

// applyVisibility re-marks hidden nodes after the layer was recreated
func (c *Controller) applyVisibility() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layer.ApplyVisibility(c.visibility.Get())
}

func (c *Controller) onStoreChangeLocked(page int) {
	if page != c.layer.Page() {
		return
	}
	c.redrawLocked(page)
}

func (c *Controller) onVisibilityChangeLocked(change annotation.VisibilityChange) {
	c.layer.ApplyVisibility(change.States)
	c.recomputeLocked()
}

func (c *Controller) redrawLocked(page int) {
	c.layer.Render(page, c.store.ForPage(page))
	c.layer.ApplyVisibility(c.visibility.Get())
	c.recomputeLocked()
}

func (c *Controller) recomputeLocked() {
	page := c.layer.Page()
	if page == 0 {
		c.overlay.Clear()
		return
	}
	c.overlay.Recompute(c.store.ForPage(page), c.visibility.Get())
}
