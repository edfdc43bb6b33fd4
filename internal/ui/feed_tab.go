package ui

import (
	"fmt"
	"path/filepath"

	"github.com/HamStudy/feedview/internal/components/performance"
	"github.com/HamStudy/feedview/internal/components/scroll"
	"github.com/HamStudy/feedview/internal/components/selection"
	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/HamStudy/feedview/internal/config"
	"github.com/HamStudy/feedview/internal/feed"
	"k8s.io/utils/clock"
)

// fetchRequest asks for one page on the dir side of cursor
type fetchRequest struct {
	dir    feed.Direction
	cursor string
}

// feedTab is one feed with its own list, viewport and selection. Tabs
// outlive switches so a feed keeps its posts while another is shown.
type feedTab struct {
	name      string
	cfg       config.FeedConfig
	source    feed.Source
	publisher feed.Publisher

	timeline   *feed.Timeline
	viewport   *scroll.Viewport
	list       *virtual.Controller[feed.Post]
	selection  *selection.Tracker
	projection virtual.Projection[feed.Post]

	fetching map[feed.Direction]bool
	requests []fetchRequest
	mounted  bool
	loaded   bool
}

type tabOptions struct {
	feed      config.FeedConfig
	configDir string
	layout    virtual.Config
	edge      int
	scheduler config.SchedulerConfig
	store     virtual.RestorationStore
	post      func(func())
	clock     clock.WithDelayedExecution
	renderer  *feed.Renderer
	height    int
}

// restorationKey is the store key of a feed's scroll position
func restorationKey(name string) string {
	return "feed:" + name
}

// openSource creates the post source of a feed. Fixture paths are relative
// to the config directory.
func openSource(cfg config.FeedConfig, configDir string, clk clock.PassiveClock) (feed.Source, feed.Publisher, error) {
	switch cfg.Source {
	case config.SourceFixture:
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		src, err := feed.LoadFixture(path)
		if err != nil {
			return nil, nil, fmt.Errorf("feed %s: %w", cfg.Name, err)
		}
		return src, nil, nil
	case config.SourceGenerated, "":
		src := feed.NewGeneratedSource(feed.GeneratedOptions{
			Seed:    cfg.Seed,
			Count:   cfg.Count,
			Clock:   clk,
			Latency: cfg.Latency,
		})
		return src, src, nil
	default:
		return nil, nil, fmt.Errorf("feed %s: unknown source %q", cfg.Name, cfg.Source)
	}
}

func newFeedTab(opts tabOptions) (*feedTab, error) {
	source, publisher, err := openSource(opts.feed, opts.configDir, opts.clock)
	if err != nil {
		return nil, err
	}

	t := &feedTab{
		name:      opts.feed.Name,
		cfg:       opts.feed,
		source:    source,
		publisher: publisher,
		timeline:  feed.NewTimeline(),
		viewport:  scroll.NewViewportWithClock(opts.height, opts.clock),
		selection: selection.New(),
		fetching:  make(map[feed.Direction]bool),
	}

	renderer := opts.renderer
	t.list = virtual.NewController(virtual.Options[feed.Post]{
		Viewport: t.viewport,
		Config:   opts.layout,
		Queue: performance.QueueOptions{
			Clock:            opts.clock,
			Post:             opts.post,
			ThrottleInterval: opts.scheduler.ThrottleInterval,
			DebounceDelay:    opts.scheduler.DebounceDelay,
		},
		Store:          opts.store,
		RestorationKey: restorationKey(t.name),
		Render: func(p virtual.Projection[feed.Post]) {
			t.projection = p
			t.viewport.SetContentHeight(p.ListHeight)
			for _, m := range p.Mounted {
				post := m.Data.Payload
				t.list.RegisterProbe(virtual.ProbeFunc{
					ItemKey: m.Data.Key,
					Measure: func() (int, error) { return renderer.Height(post), nil },
				})
			}
		},
		OnFetchNextPage: func(lastKey string) { t.request(feed.Older, lastKey) },
		OnFetchPrevPage: func(firstKey string) { t.request(feed.Newer, firstKey) },
		EdgeThreshold:   opts.edge,
	})
	return t, nil
}

// request queues a page fetch unless one is in flight for dir
func (t *feedTab) request(dir feed.Direction, cursor string) {
	if t.fetching[dir] {
		return
	}
	for _, r := range t.requests {
		if r.dir == dir {
			return
		}
	}
	t.requests = append(t.requests, fetchRequest{dir: dir, cursor: cursor})
}

// takeRequests returns the queued fetches and marks them in flight
func (t *feedTab) takeRequests() []fetchRequest {
	reqs := t.requests
	t.requests = nil
	for _, r := range reqs {
		t.fetching[r.dir] = true
	}
	return reqs
}

// isFetching reports whether any page is in flight
func (t *feedTab) isFetching() bool {
	for _, f := range t.fetching {
		if f {
			return true
		}
	}
	return false
}

// applyPage merges a fetched page and hands the new list to the controller
func (t *feedTab) applyPage(dir feed.Direction, page feed.Page) int {
	t.fetching[dir] = false
	t.loaded = true

	added := t.timeline.Apply(dir, page)
	t.syncItems()
	return added
}

// syncItems pushes the timeline to the controller and the selection
func (t *feedTab) syncItems() {
	items := t.timeline.Items()
	t.list.SetItems(items)
	t.list.SetPaging(t.timeline.HasOlder(), t.timeline.HasNewer())
	t.selection.SetKeys(virtual.Keys(items))
}

// markNewer records that the source has posts newer than the head
func (t *feedTab) markNewer() {
	t.timeline.MarkNewer()
	t.list.SetPaging(t.timeline.HasOlder(), t.timeline.HasNewer())
	if t.mounted {
		t.list.Update(virtual.ReasonListMutated)
	}
}

func (t *feedTab) mount(height int) {
	if t.mounted {
		return
	}
	t.viewport.SetSize(height)
	t.mounted = true
	t.list.Mount()
	if !t.loaded {
		t.request(feed.Older, "")
	}
}

func (t *feedTab) unmount() {
	if !t.mounted {
		return
	}
	t.mounted = false
	t.list.Unmount()
}

// visibleKeys returns the keys of the mounted posts that overlap the window
func (t *feedTab) visibleKeys() []string {
	rect, ok := t.viewport.RelativeToRoot()
	if !ok {
		return nil
	}
	var keys []string
	for _, m := range t.projection.Mounted {
		if m.Rect().Overlaps(rect) {
			keys = append(keys, m.Data.Key)
		}
	}
	return keys
}
