package viewer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, doc PageRenderer) (*Controller, *AlertLog) {
	t.Helper()
	alerts := NewAlertLog(false)
	c, err := NewController(context.Background(), Options{
		KV:       storage.NewMemoryStore(),
		Notifier: alerts,
	})
	require.NoError(t, err)
	if doc != nil {
		require.NoError(t, c.LoadDocument(doc))
		c.WaitIdle()
	}
	return c, alerts
}

func paint(t *testing.T, c *Controller, tool string, r annotation.Rect, text string) {
	t.Helper()
	_, err := c.SetMode(tool)
	require.NoError(t, err)
	result := c.CompleteSelection(annotation.Point{}, &StaticSelection{Content: text, Rects: []annotation.Rect{r}})
	require.Len(t, result.Created, 1)
}

func TestController_ToggleVisibilityScenario(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 5})
	require.NoError(t, c.GoToPage(3))
	c.WaitIdle()

	paint(t, c, "red", annotation.NewRect(10, 10, 50, 12), "A")
	paint(t, c, "blue", annotation.NewRect(100, 10, 40, 12), "B")
	before := c.Store().ForPage(3)
	require.Len(t, before, 2)

	hidden, err := c.ToggleVisibility(annotation.Red)
	require.NoError(t, err)
	assert.True(t, hidden)

	state := c.State()
	require.Len(t, state.Decorations, 1)
	assert.Equal(t, annotation.Decoration{
		AnnotationID: before[0].ID,
		Left:         10,
		Top:          21,
		Width:        50,
		Height:       1,
		Style:        annotation.StyleSolid,
		Color:        "#000000",
	}, state.Decorations[0])
	require.Len(t, state.Nodes, 2)
	assert.True(t, state.Nodes[0].Hidden)
	assert.False(t, state.Nodes[1].Hidden)
	if diff := cmp.Diff(before, c.Store().ForPage(3)); diff != "" {
		t.Errorf("store changed by visibility (-before +after):\n%s", diff)
	}

	hidden, err = c.ToggleVisibility(annotation.Red)
	require.NoError(t, err)
	assert.False(t, hidden)

	state = c.State()
	assert.Empty(t, state.Decorations)
	for _, n := range state.Nodes {
		assert.False(t, n.Hidden)
	}
	if diff := cmp.Diff(before, c.Store().ForPage(3)); diff != "" {
		t.Errorf("store changed by visibility (-before +after):\n%s", diff)
	}
}

func TestController_VisibilitySurvivesNavigation(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 3})

	paint(t, c, "yellow", annotation.NewRect(0, 0, 20, 10), "first page")
	_, err := c.ToggleVisibility(annotation.Yellow)
	require.NoError(t, err)

	require.True(t, c.NextPage())
	c.WaitIdle()
	assert.Empty(t, c.State().Nodes)

	require.True(t, c.PrevPage())
	c.WaitIdle()

	state := c.State()
	assert.Equal(t, 1, state.ShownPage)
	require.Len(t, state.Nodes, 1)
	assert.True(t, state.Nodes[0].Hidden, "hidden mark re-applied after re-render")
	assert.Len(t, state.Decorations, 1)
}

func TestController_EraseRedrawsLayer(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 1})

	paint(t, c, "red", annotation.NewRect(0, 0, 10, 10), "one")
	paint(t, c, "red", annotation.NewRect(20, 0, 10, 10), "two")
	paint(t, c, "blue", annotation.NewRect(40, 0, 10, 10), "three")
	_, err := c.ToggleVisibility(annotation.Blue)
	require.NoError(t, err)

	_, err = c.SetMode("eraser")
	require.NoError(t, err)
	result := c.CompleteSelection(annotation.Point{}, &StaticSelection{
		Content: "one three",
		Rects:   []annotation.Rect{annotation.NewRect(5, 5, 1, 1), annotation.NewRect(45, 5, 1, 1)},
	})
	assert.Equal(t, 2, result.Erased)

	state := c.State()
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, annotation.NewRect(20, 0, 10, 10), state.Nodes[0].Rect)
	assert.Empty(t, state.Decorations)
}

func TestController_ResetPageClearsLayer(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 1})

	paint(t, c, "red", annotation.NewRect(0, 0, 10, 10), "one")
	_, err := c.ToggleVisibility(annotation.Red)
	require.NoError(t, err)
	require.Len(t, c.State().Decorations, 1)

	assert.Equal(t, 1, c.ResetPage(1))
	assert.Equal(t, 0, c.ResetPage(1))

	state := c.State()
	assert.Empty(t, state.Nodes)
	assert.Empty(t, state.Decorations)
	assert.Empty(t, c.AllAnnotations())
}

func TestController_EditModeAndTools(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 1})

	assert.Equal(t, ModePaint, c.ToggleEditMode())
	assert.Equal(t, annotation.Red, c.State().Color)

	mode, err := c.SetMode("eraser")
	require.NoError(t, err)
	assert.Equal(t, ModeErase, mode)

	assert.Equal(t, ModeView, c.ToggleEditMode())
	assert.False(t, c.State().Editing)

	_, err = c.SetMode("magenta")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))

	sel := &StaticSelection{Content: "copy", Rects: []annotation.Rect{annotation.NewRect(0, 0, 4, 4)}}
	result := c.CompleteSelection(annotation.Point{}, sel)
	assert.True(t, result.Discarded)
	assert.False(t, sel.Cleared())
}

func TestController_SetCustomColor(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 1})

	require.NoError(t, c.SetCustomColor("purple"))
	state := c.State()
	assert.True(t, state.Editing)
	assert.Equal(t, "paint", state.Mode)
	assert.Equal(t, annotation.Custom, state.Color)

	paint(t, c, "custom", annotation.NewRect(0, 0, 4, 4), "x")
	assert.Equal(t, "#800080", c.State().Nodes[0].Fill)

	require.NoError(t, c.SetCustomColor("#00ff00"))
	assert.Equal(t, "#00ff00", c.State().Nodes[0].Fill)

	assert.Error(t, c.SetCustomColor("not-a-colour"))
}

func TestController_UnderlineOptionsPersist(t *testing.T) {
	kv := storage.NewMemoryStore()
	c, err := NewController(context.Background(), Options{KV: kv})
	require.NoError(t, err)

	style := annotation.StyleDashed
	thickness := 3
	opts, err := c.SetUnderlineOptions(annotation.UnderlineOptionsPatch{Style: &style, Thickness: &thickness})
	require.NoError(t, err)
	assert.Equal(t, annotation.UnderlineOptions{Style: annotation.StyleDashed, Thickness: 3, Color: "#000000"}, opts)

	bad := 9
	_, err = c.SetUnderlineOptions(annotation.UnderlineOptionsPatch{Thickness: &bad})
	assert.Error(t, err)
	assert.Equal(t, opts, c.UnderlineOptions())

	restored, err := NewController(context.Background(), Options{KV: kv})
	require.NoError(t, err)
	assert.Equal(t, opts, restored.UnderlineOptions())
	assert.Equal(t, opts, restored.ExportData().UnderlineOptions)
}

func TestController_RenderFailureAlertsAndKeepsState(t *testing.T) {
	c, alerts := newTestController(t, &instantRenderer{total: 3, fail: map[int]bool{2: true}})
	paint(t, c, "red", annotation.NewRect(0, 0, 10, 10), "kept")

	require.NoError(t, c.GoToPage(2))
	c.WaitIdle()

	state := c.State()
	assert.Equal(t, 1, state.ShownPage)
	assert.Equal(t, 1, state.CurrentPage)
	assert.Len(t, state.Nodes, 1)
	assert.Equal(t, []string{"Failed to render page 2."}, alerts.Drain())
}

func TestController_GoToPageErrors(t *testing.T) {
	c, _ := newTestController(t, nil)
	assert.Error(t, c.GoToPage(1))
	assert.False(t, c.NextPage())

	require.NoError(t, c.LoadDocument(&instantRenderer{total: 2}))
	c.WaitIdle()
	err := c.GoToPage(3)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))

	assert.Error(t, c.LoadDocument(&instantRenderer{total: 0}))
	assert.Error(t, c.LoadDocument(nil))
}

func TestController_LoadDocumentResetsSession(t *testing.T) {
	c, _ := newTestController(t, &instantRenderer{total: 2})
	paint(t, c, "red", annotation.NewRect(0, 0, 10, 10), "old")
	_, err := c.ToggleVisibility(annotation.Red)
	require.NoError(t, err)

	require.NoError(t, c.LoadDocument(&instantRenderer{total: 4}))
	c.WaitIdle()

	assert.Empty(t, c.AllAnnotations())
	state := c.State()
	assert.Equal(t, 4, state.TotalPages)
	assert.Empty(t, state.Decorations)
	assert.True(t, c.VisibilityStates()[annotation.Red], "visibility is session-wide")
}

func TestController_DeferredApplyIsIdempotent(t *testing.T) {
	sched := &manualScheduler{}
	c, err := NewController(context.Background(), Options{Scheduler: sched})
	require.NoError(t, err)
	require.NoError(t, c.LoadDocument(&instantRenderer{total: 2}))
	c.WaitIdle()

	paint(t, c, "blue", annotation.NewRect(0, 0, 10, 10), "x")
	c.SetVisibilityStates(map[annotation.Color]bool{annotation.Blue: true})

	require.True(t, c.NextPage())
	c.WaitIdle()
	require.True(t, c.PrevPage())
	c.WaitIdle()

	assert.True(t, c.State().Nodes[0].Hidden, "hidden mark applied with the render")
	sched.RunAll()
	sched.RunAll()
	assert.True(t, c.State().Nodes[0].Hidden)
	assert.Len(t, c.State().Decorations, 1)
}

func TestController_HiddenAfterRenderWithDelayedApply(t *testing.T) {
	c, err := NewController(context.Background(), Options{
		KV:        storage.NewMemoryStore(),
		Scheduler: NewDelayScheduler(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, c.LoadDocument(&instantRenderer{total: 2}))
	c.WaitIdle()

	paint(t, c, "yellow", annotation.NewRect(0, 0, 20, 10), "first page")
	_, err = c.ToggleVisibility(annotation.Yellow)
	require.NoError(t, err)

	require.True(t, c.NextPage())
	c.WaitIdle()
	require.True(t, c.PrevPage())
	c.WaitIdle()

	state := c.State()
	require.Len(t, state.Nodes, 1)
	assert.True(t, state.Nodes[0].Hidden)
	assert.Len(t, state.Decorations, 1)
}

func TestDelayScheduler_Coalesces(t *testing.T) {
	s := NewDelayScheduler(10 * time.Millisecond)

	var mu sync.Mutex
	runs := 0
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		s.Schedule(func() {
			mu.Lock()
			runs++
			mu.Unlock()
			done <- struct{}{}
		})
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduled work did not run")
		}
	}
	mu.Lock()
	assert.Equal(t, 3, runs)
	mu.Unlock()
}

type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (s *manualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
}

func (s *manualScheduler) RunAll() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}
