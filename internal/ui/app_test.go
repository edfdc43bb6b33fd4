package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HamStudy/feedview/internal/config"
	"github.com/HamStudy/feedview/internal/core"
	"github.com/HamStudy/feedview/internal/restore"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

const testConfig = `
virtualization:
  estimatedHeight: 6
  overscan: 2
  edgeThreshold: 3
feeds:
  - name: home
    seed: 1
    count: 60
    pageSize: 20
    publishInterval: 1h
  - name: other
    seed: 2
    count: 10
`

type appHarness struct {
	t     *testing.T
	app   *App
	clock *clocktesting.FakeClock
	store *restore.MemoryStore
}

func newAppHarness(t *testing.T) *appHarness {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(testConfig), 0644))

	loader := config.NewLoader(dir)
	require.NoError(t, loader.Load())

	clock := clocktesting.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := restore.NewMemoryStore()
	state := core.NewState(&core.Config{Overscan: -1}, loader.Get().FeedNames())
	app := NewApp(context.Background(), state, Options{Loader: loader, Store: store, Clock: clock})

	h := &appHarness{t: t, app: app, clock: clock, store: store}
	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	app.switchFeed("home")
	h.pump(app.flushFetches())
	return h
}

// pump runs cmd and every command that follows from it. Only commands that
// resolve immediately are expected here.
func (h *appHarness) pump(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(h.t, steps, 1000, "commands did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tasksReadyMsg:
			h.app.loop.Drain()
		case tea.QuitMsg:
			h.t.Fatalf("unexpected quit")
		default:
			_, next := h.app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *appHarness) send(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.app.Update(msg)
	h.pump(cmd)
}

func (h *appHarness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "pgdown":
			msg = tea.KeyMsg{Type: tea.KeyPgDown}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		h.send(msg)
	}
}

// settle lets timers fire and runs the work they posted
func (h *appHarness) settle() {
	h.t.Helper()
	for i := 0; i < 3; i++ {
		h.clock.Step(time.Second)
		h.app.loop.Drain()
		h.pump(h.app.flushFetches())
	}
}

func (h *appHarness) home() *feedTab {
	tab := h.app.tabs["home"]
	require.NotNil(h.t, tab)
	return tab
}

func TestAppLoadsFirstPage(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()

	require.GreaterOrEqual(t, tab.timeline.Len(), 20)
	items := tab.list.Items()
	require.NotEmpty(t, tab.projection.Mounted)
	assert.Equal(t, items[0].Key, tab.projection.Mounted[0].Data.Key)
	assert.Equal(t, items[0].Key, tab.selection.GetSelectedKey())
	assert.True(t, tab.list.IsAtNewest())
	assert.False(t, h.app.statusInfo().NotAtNewest)

	view := h.app.View()
	assert.Contains(t, view, "@"+items[0].Payload.Handle)
	assert.Contains(t, view, "[home]")
}

func TestAppSelectionAndScrolling(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()
	items := tab.list.Items()

	h.press("j")
	assert.Equal(t, items[1].Key, tab.selection.GetSelectedKey())
	h.press("k")
	assert.Equal(t, items[0].Key, tab.selection.GetSelectedKey())

	h.press("pgdown")
	assert.Greater(t, tab.viewport.ScrollTop(), 0)
	assert.True(t, h.app.statusInfo().NotAtNewest)

	// The selection was scrolled away, so moving restarts on screen
	h.press("j")
	visible := tab.visibleKeys()
	require.NotEmpty(t, visible)
	assert.Contains(t, visible, tab.selection.GetSelectedKey())
}

func TestAppPagesToTheEnd(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()

	for i := 0; i < 20 && tab.timeline.HasOlder(); i++ {
		h.press("G")
		h.settle()
	}
	assert.Equal(t, 60, tab.timeline.Len())
	assert.False(t, tab.timeline.HasOlder())

	h.press("G")
	h.settle()
	items := tab.list.Items()
	last := items[len(items)-1].Key
	assert.Equal(t, last, tab.selection.GetSelectedKey())

	h.press("x")
	h.settle()
	assert.Equal(t, 59, tab.timeline.Len())
	_, ok := tab.timeline.Post(last)
	assert.False(t, ok)
	items = tab.list.Items()
	assert.Equal(t, items[len(items)-1].Key, tab.selection.GetSelectedKey())
}

func TestAppNewPostsKeepPosition(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()
	head := tab.timeline.Newest()

	h.app.handlePublish(publishMsg{feed: "home"})
	assert.True(t, tab.timeline.HasNewer())
	assert.True(t, h.app.statusInfo().NewPosts)

	h.press("g")
	h.settle()

	assert.False(t, tab.timeline.HasNewer())
	assert.NotEqual(t, head, tab.timeline.Newest())
	assert.Equal(t, head, tab.selection.GetSelectedKey(), "selection follows its post")

	// The old head stays where it was; the new post is above the window
	m, ok := tab.list.Placement(head)
	require.True(t, ok)
	assert.Equal(t, tab.viewport.ScrollTop(), m.Start)
	assert.Greater(t, tab.viewport.ScrollTop(), 0)
}

func TestAppSwitchFeedsRestoresPosition(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()

	h.press("pgdown")
	h.settle()
	top := tab.viewport.ScrollTop()
	visible := tab.visibleKeys()
	require.NotEmpty(t, visible)

	h.press("tab")
	h.settle()
	assert.Equal(t, "other", h.app.state.GetCurrentFeed())
	assert.False(t, tab.mounted)

	rec, ok := h.store.GetItem(restorationKey("home"))
	require.True(t, ok)
	assert.Equal(t, visible[0], rec.Key)

	other := h.app.tabs["other"]
	require.NotNil(t, other)
	assert.Equal(t, 10, other.timeline.Len())

	h.press("shift+tab")
	h.settle()
	assert.Equal(t, "home", h.app.state.GetCurrentFeed())
	assert.True(t, tab.mounted)
	assert.Equal(t, top, tab.viewport.ScrollTop())

	h.app.Close()
	assert.False(t, tab.mounted)
}

func TestAppModesAndToggles(t *testing.T) {
	h := newAppHarness(t)

	h.press("?")
	assert.Equal(t, ModeHelp, h.app.mode.GetType())
	view := h.app.View()
	assert.Contains(t, view, "Next post")
	assert.Contains(t, view, "Toggle markdown")

	h.press("j")
	assert.Equal(t, ModeHelp, h.app.mode.GetType(), "feed keys are inactive in help")
	h.press("esc")
	assert.Equal(t, ModeFeed, h.app.mode.GetType())

	h.press("m")
	assert.True(t, h.app.state.Markdown)
	assert.True(t, h.app.renderer.Markdown())

	h.press("D")
	assert.Contains(t, h.app.statusInfo().Debug, "update n=")
}

func TestAppPickFeed(t *testing.T) {
	h := newAppHarness(t)

	h.press("p")
	assert.Equal(t, ModePicker, h.app.mode.GetType())
	view := h.app.View()
	assert.Contains(t, view, "other")
	assert.Contains(t, view, "generated 10 posts")

	h.press("j", "enter")
	assert.Equal(t, ModeFeed, h.app.mode.GetType())
	assert.Equal(t, "other", h.app.state.GetCurrentFeed())
	assert.False(t, h.home().mounted)

	h.press("p", "esc")
	assert.Equal(t, ModeFeed, h.app.mode.GetType())
	assert.Equal(t, "other", h.app.state.GetCurrentFeed())
}

func TestAppResize(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()

	h.send(tea.WindowSizeMsg{Width: 50, Height: 20})
	assert.Equal(t, 17, tab.viewport.DocumentViewportHeight())
	assert.Equal(t, 50, h.app.renderer.Width())

	// Every mounted card was measured at the new width
	for _, m := range tab.projection.Mounted {
		rect, _ := tab.viewport.RelativeToRoot()
		if !m.Rect().Overlaps(rect) {
			continue
		}
		assert.Equal(t, h.app.renderer.Height(m.Data.Payload), m.Height, m.Data.Key)
	}
}

func TestAppUnknownFeed(t *testing.T) {
	h := newAppHarness(t)
	h.app.switchFeed("missing")

	msg, level := h.app.Message()
	assert.Equal(t, "error", level)
	assert.Contains(t, msg, "missing")
	assert.Equal(t, "home", h.app.state.GetCurrentFeed())
}

func TestApplyConfig(t *testing.T) {
	h := newAppHarness(t)
	tab := h.home()

	cfg := h.app.loader.Get()
	cfg.Settings.Markdown = true
	cfg.Feeds = cfg.Feeds[1:]
	h.app.applyConfig(cfg)
	h.settle()

	assert.True(t, h.app.renderer.Markdown())
	assert.Equal(t, []string{"other"}, h.app.state.Feeds)
	assert.Equal(t, "other", h.app.state.GetCurrentFeed())
	assert.False(t, tab.mounted)
}
