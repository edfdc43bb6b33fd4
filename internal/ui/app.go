package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/HamStudy/feedview/internal/components/performance"
	"github.com/HamStudy/feedview/internal/components/picker"
	"github.com/HamStudy/feedview/internal/components/style"
	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/HamStudy/feedview/internal/config"
	"github.com/HamStudy/feedview/internal/core"
	"github.com/HamStudy/feedview/internal/feed"
	"github.com/HamStudy/feedview/internal/ui/views"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"k8s.io/utils/clock"
)

// mouseWheelLines is how far one wheel notch scrolls
const mouseWheelLines = 3

// pageMsg carries the result of a page fetch
type pageMsg struct {
	feed string
	req  fetchRequest
	page feed.Page
	err  error
	took time.Duration
}

// publishMsg asks a generated feed to publish a new post
type publishMsg struct {
	feed string
}

// errMsg reports a background failure
type errMsg struct{ err error }

// Options configures the application
type Options struct {
	Loader *config.Loader
	Store  virtual.RestorationStore
	// Clock drives scheduling and post timestamps. Defaults to the real clock.
	Clock clock.WithDelayedExecution
}

// App represents the main application model
type App struct {
	ctx    context.Context
	state  *core.State
	loader *config.Loader
	cfg    *config.Config
	store  virtual.RestorationStore
	clock  clock.WithDelayedExecution

	styles   *style.Manager
	renderer *feed.Renderer
	monitor  *performance.Monitor
	loop     *taskLoop

	modes map[ScreenModeType]ScreenMode
	mode  ScreenMode

	tabs    map[string]*feedTab
	current *feedTab

	// Views
	feedView   *views.FeedView
	statusView *views.StatusView
	helpView   *views.HelpView
	picker     picker.Model
	spinner    spinner.Model

	// UI state
	width   int
	height  int
	ready   bool
	message string
	level   string
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, state *core.State, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Loader == nil {
		opts.Loader = config.NewLoader("")
	}
	cfg := opts.Loader.Get()

	styles := style.NewManager()
	if theme, err := style.ThemeByName(cfg.Settings.Theme); err == nil {
		styles.SetTheme(theme)
	}

	markdown := cfg.Settings.Markdown
	if state.Config().Markdown != nil {
		markdown = *state.Config().Markdown
	}
	state.Markdown = markdown

	renderer := feed.NewRenderer(styles, feed.RenderOptions{
		Markdown:     markdown,
		GlamourStyle: cfg.Settings.GlamourStyle,
		Clock:        opts.Clock,
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Message("info")

	a := &App{
		ctx:        ctx,
		state:      state,
		loader:     opts.Loader,
		cfg:        cfg,
		store:      opts.Store,
		clock:      opts.Clock,
		styles:     styles,
		renderer:   renderer,
		monitor:    performance.NewMonitorWithClock(opts.Clock),
		loop:       newTaskLoop(),
		tabs:       make(map[string]*feedTab),
		feedView:   views.NewFeedView(styles, renderer),
		statusView: views.NewStatusView(styles),
		helpView:   views.NewHelpView(),
		picker:     picker.New("Feeds", feedItems(cfg)),
		spinner:    sp,
	}
	a.picker.SetStyles(pickerStyles(styles))
	a.modes = map[ScreenModeType]ScreenMode{
		ModeFeed:   NewFeedMode(),
		ModeHelp:   NewHelpMode(),
		ModePicker: NewPickerMode(),
	}
	a.mode = a.modes[ModeFeed]
	return a
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.loop.Wait(),
		a.spinner.Tick,
		a.watchConfig(),
	}
	for _, f := range a.cfg.Feeds {
		if f.Source == config.SourceGenerated && f.PublishInterval > 0 {
			cmds = append(cmds, publishTick(f.Name, f.PublishInterval))
		}
	}
	cmds = append(cmds, a.switchFeed(a.state.GetCurrentFeed()))
	cmds = append(cmds, a.flushFetches())
	return tea.Batch(cmds...)
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tasksReadyMsg:
		if a.loop.Drain() {
			cmds = append(cmds, func() tea.Msg { return tasksReadyMsg{} })
		}
		cmds = append(cmds, a.loop.Wait())

	case tea.KeyMsg:
		if _, cmd := a.mode.HandleKey(msg, a); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if tab := a.currentTab(); tab != nil && a.mode.GetType() == ModeFeed {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				tab.viewport.ScrollLines(-mouseWheelLines)
			case tea.MouseButtonWheelDown:
				tab.viewport.ScrollLines(mouseWheelLines)
			}
		}

	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case pageMsg:
		a.handlePage(msg)

	case publishMsg:
		if cmd := a.handlePublish(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case picker.PickedMsg:
		a.setMode(ModeFeed)
		if cmd := a.switchFeed(msg.Item.Name); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case picker.CancelledMsg:
		a.setMode(ModeFeed)

	case errMsg:
		a.setMessage(msg.err.Error(), "error")
	}

	// Run scheduled list work now so the frame below shows its result
	if a.loop.Drain() {
		cmds = append(cmds, func() tea.Msg { return tasksReadyMsg{} })
	}
	cmds = append(cmds, a.flushFetches())

	return a, tea.Batch(cmds...)
}

// View renders the application
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}
	defer a.monitor.StartTimer("view")()

	if a.mode.GetType() == ModeHelp {
		return a.helpView.View()
	}

	header := a.statusView.RenderHeader(a.state.Feeds, a.state.GetCurrentFeed())

	var body string
	if tab := a.currentTab(); tab != nil {
		empty := ""
		if tab.timeline.Len() == 0 {
			empty = "no posts yet"
			if tab.isFetching() {
				empty = a.spinner.View() + " loading " + tab.name
			}
		}
		body = a.feedView.Render(tab.projection, tab.viewport.ScrollTop(), tab.selection.GetSelectedKey(), empty)
	} else {
		body = lipgloss.Place(a.width, a.feedView.Height(), lipgloss.Center, lipgloss.Center, "no feed")
	}

	if a.mode.GetType() == ModePicker {
		body = lipgloss.Place(a.width, a.feedView.Height(), lipgloss.Center, lipgloss.Center, a.picker.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.statusView.Render(a.statusInfo()))
}

// Close persists the position of the feed on screen. Call it once the
// program has exited.
func (a *App) Close() {
	if a.current != nil {
		a.current.unmount()
	}
}

// Message returns the status message and its level
func (a *App) Message() (string, string) {
	return a.message, a.level
}

func (a *App) statusInfo() views.StatusInfo {
	info := views.StatusInfo{
		Feed:    a.state.GetCurrentFeed(),
		Spinner: a.spinner.View(),
		Message: a.message,
		Level:   a.level,
	}
	if tab := a.currentTab(); tab != nil {
		info.Slice = tab.projection.Slice
		info.Total = tab.timeline.Len()
		info.ListHeight = tab.projection.ListHeight
		info.ScrollTop = tab.viewport.ScrollTop()
		info.NotAtNewest = info.Total > 0 && !tab.list.IsAtNewest()
		info.NewPosts = tab.timeline.HasNewer()
		info.Fetching = tab.isFetching()
	}
	if a.state.Debug {
		info.Debug = a.monitor.Summary()
	}
	return info
}

func (a *App) setMode(mode ScreenModeType) {
	a.mode = a.modes[mode]
	switch mode {
	case ModeHelp:
		a.helpView.SetContent(a.modes[ModeFeed].GetTitle()+" - Help", helpSections(a.modes[ModeFeed]))
	case ModePicker:
		a.picker.Open(a.state.GetCurrentFeed())
	default:
		a.picker.Close()
	}
}

// feedItems lists the configured feeds for the picker
func feedItems(cfg *config.Config) []picker.Item {
	items := make([]picker.Item, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		detail := f.Source
		switch f.Source {
		case config.SourceFixture:
			detail += " " + f.Path
		case config.SourceGenerated:
			detail += fmt.Sprintf(" %d posts", f.Count)
		}
		items = append(items, picker.Item{Name: f.Name, Detail: detail})
	}
	return items
}

func pickerStyles(styles *style.Manager) picker.Styles {
	return picker.Styles{
		Frame:    styles.Card(0, true).UnsetWidth(),
		Title:    styles.Author(false),
		Selected: styles.Author(true).Reverse(true),
		Normal:   styles.Body(),
		Detail:   styles.Meta(),
	}
}

func (a *App) setMessage(msg, level string) {
	a.message = msg
	a.level = level
}

func (a *App) currentTab() *feedTab {
	return a.current
}

// bodyHeight is the number of lines left for the feed
func (a *App) bodyHeight() int {
	return max(a.height-a.statusView.Height(), 0)
}

func (a *App) resize(width, height int) {
	widthChanged := width != a.width
	a.width = width
	a.height = height
	a.ready = true

	a.statusView.SetWidth(width)
	a.helpView.SetSize(width, height)
	a.picker.SetSize(min(width, 48), min(a.bodyHeight(), 14))
	a.feedView.SetSize(width, a.bodyHeight())

	if tab := a.currentTab(); tab != nil {
		tab.viewport.SetSize(a.bodyHeight())
		if widthChanged {
			tab.list.Measure()
		}
	}
}

// tab returns the tab of name, creating it on first use
func (a *App) tab(name string) (*feedTab, error) {
	if tab, ok := a.tabs[name]; ok {
		return tab, nil
	}
	fc := a.cfg.Feed(name)
	if fc == nil {
		return nil, fmt.Errorf("unknown feed %q", name)
	}

	tab, err := newFeedTab(tabOptions{
		feed:      *fc,
		configDir: a.loader.Dir(),
		layout:    a.layoutConfig(),
		edge:      a.cfg.Virtualization.EdgeThreshold,
		scheduler: *a.cfg.Scheduler,
		store:     a.store,
		post:      a.post,
		clock:     a.clock,
		renderer:  a.renderer,
		height:    a.bodyHeight(),
	})
	if err != nil {
		return nil, err
	}
	a.tabs[name] = tab
	return tab, nil
}

// layoutConfig applies command line overrides to the configured layout
func (a *App) layoutConfig() virtual.Config {
	layout := a.cfg.VirtualConfig()
	rc := a.state.Config()
	if rc.Overscan >= 0 {
		layout.Overscan = rc.Overscan
	}
	if rc.EstimatedHeight > 0 {
		layout.EstimatedHeight = rc.EstimatedHeight
	}
	return layout
}

// post is the task queue's route onto the update loop. Every pass it runs
// is timed.
func (a *App) post(fn func()) {
	a.loop.Post(func() {
		defer a.monitor.StartTimer("update")()
		fn()
	})
}

// switchFeed unmounts the feed on screen, which stores its position, and
// mounts name, which restores its own.
func (a *App) switchFeed(name string) tea.Cmd {
	if a.current != nil && a.current.name == name && a.current.mounted {
		return nil
	}
	tab, err := a.tab(name)
	if err != nil {
		log.Printf("ui: %v", err)
		a.setMessage(err.Error(), "error")
		return nil
	}

	if a.current != nil {
		a.current.unmount()
	}
	a.current = tab
	a.state.SetFeed(name)
	tab.mount(a.bodyHeight())
	return nil
}

// flushFetches turns the page requests raised by the lists into commands
func (a *App) flushFetches() tea.Cmd {
	var cmds []tea.Cmd
	for _, tab := range a.tabs {
		for _, req := range tab.takeRequests() {
			cmds = append(cmds, a.fetch(tab, req))
		}
	}
	return tea.Batch(cmds...)
}

func (a *App) fetch(tab *feedTab, req fetchRequest) tea.Cmd {
	ctx := a.ctx
	src := tab.source
	name := tab.name
	limit := tab.cfg.PageSize
	return func() tea.Msg {
		start := time.Now()
		page, err := src.FetchPage(ctx, req.cursor, req.dir, limit)
		return pageMsg{feed: name, req: req, page: page, err: err, took: time.Since(start)}
	}
}

func (a *App) handlePage(msg pageMsg) {
	tab, ok := a.tabs[msg.feed]
	if !ok {
		return
	}
	a.monitor.RecordDuration("fetch", msg.took)

	if msg.err != nil {
		tab.fetching[msg.req.dir] = false
		if errors.Is(msg.err, context.Canceled) {
			return
		}
		log.Printf("ui: fetching %s posts of %s failed: %v", msg.req.dir, msg.feed, msg.err)
		a.setMessage(fmt.Sprintf("%s: %v", msg.feed, msg.err), "error")
		return
	}

	added := tab.applyPage(msg.req.dir, msg.page)
	log.Printf("ui: %s page of %s added %d posts", msg.req.dir, msg.feed, added)
	if a.level == "error" {
		a.setMessage("", "")
	}
}

func publishTick(name string, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return publishMsg{feed: name}
	})
}

func (a *App) handlePublish(msg publishMsg) tea.Cmd {
	fc := a.cfg.Feed(msg.feed)
	if fc == nil || fc.PublishInterval <= 0 {
		return nil
	}
	if tab, ok := a.tabs[msg.feed]; ok && tab.publisher != nil && tab.loaded {
		tab.publisher.Publish(1)
		tab.markNewer()
	}
	return publishTick(msg.feed, fc.PublishInterval)
}

// moveSelection moves the selection by delta posts and scrolls it into view.
// A selection that was scrolled out of sight restarts at the first post on
// screen.
func (a *App) moveSelection(delta int) {
	tab := a.currentTab()
	if tab == nil || tab.selection.Count() == 0 {
		return
	}

	visible := tab.visibleKeys()
	selected := tab.selection.GetSelectedKey()
	onScreen := false
	for _, k := range visible {
		if k == selected {
			onScreen = true
			break
		}
	}

	if !onScreen && len(visible) > 0 {
		tab.selection.SelectKey(visible[0])
	} else {
		tab.selection.MoveSelection(delta)
	}

	if m, ok := tab.list.Placement(tab.selection.GetSelectedKey()); ok {
		tab.viewport.ScrollTo(m.Start, m.Height)
	}
}

// jumpToNewest scrolls to the head and loads posts published since
func (a *App) jumpToNewest() tea.Cmd {
	tab := a.currentTab()
	if tab == nil {
		return nil
	}
	tab.list.ScrollToNewest()
	if keys := virtual.Keys(tab.list.Items()); len(keys) > 0 {
		tab.selection.SelectKey(keys[0])
	}
	if tab.timeline.HasNewer() {
		tab.request(feed.Newer, tab.timeline.Newest())
	}
	return nil
}

func (a *App) jumpToOldest() {
	tab := a.currentTab()
	if tab == nil {
		return
	}
	tab.viewport.ScrollToBottom()
	if keys := virtual.Keys(tab.list.Items()); len(keys) > 0 {
		tab.selection.SelectKey(keys[len(keys)-1])
	}
}

// refresh looks for posts newer than the head of the current feed
func (a *App) refresh() tea.Cmd {
	tab := a.currentTab()
	if tab == nil {
		return nil
	}
	if tab.timeline.Len() == 0 {
		tab.request(feed.Older, "")
		return nil
	}
	tab.request(feed.Newer, tab.timeline.Newest())
	return nil
}

// removeSelected hides the selected post from the current feed
func (a *App) removeSelected() {
	tab := a.currentTab()
	if tab == nil {
		return
	}
	if key := tab.selection.GetSelectedKey(); key != "" && tab.timeline.Remove(key) {
		tab.syncItems()
	}
}

func (a *App) toggleMarkdown() {
	a.state.Markdown = !a.state.Markdown
	a.renderer.SetMarkdown(a.state.Markdown)
	if tab := a.currentTab(); tab != nil {
		tab.list.Measure()
	}
}

// watchConfig starts hot reloading the config file
func (a *App) watchConfig() tea.Cmd {
	return func() tea.Msg {
		err := a.loader.Watch(a.ctx, func(cfg *config.Config) {
			a.loop.Post(func() { a.applyConfig(cfg) })
		})
		if err != nil {
			return errMsg{fmt.Errorf("config watch: %w", err)}
		}
		return nil
	}
}

// applyConfig applies a reloaded config. Layout, scheduling and display
// settings take effect at once; feed sources keep their original settings.
func (a *App) applyConfig(cfg *config.Config) {
	a.cfg = cfg

	if theme, err := style.ThemeByName(cfg.Settings.Theme); err == nil {
		a.styles.SetTheme(theme)
		a.renderer.Invalidate()
		a.picker.SetStyles(pickerStyles(a.styles))
	}
	if a.state.Config().Markdown == nil {
		a.state.Markdown = cfg.Settings.Markdown
		a.renderer.SetMarkdown(cfg.Settings.Markdown)
	}

	layout := a.layoutConfig()
	for _, tab := range a.tabs {
		tab.list.SetScheduling(cfg.Scheduler.ThrottleInterval, cfg.Scheduler.DebounceDelay)
		tab.list.SetConfig(layout)
		if tab.mounted {
			tab.list.Measure()
		}
	}

	a.picker.SetItems(feedItems(cfg))
	previous := a.state.GetCurrentFeed()
	a.state.SetFeeds(cfg.FeedNames())
	if current := a.state.GetCurrentFeed(); current != previous {
		a.switchFeed(current)
	}
	a.setMessage("config reloaded", "success")
}
