package virtual

import (
	"log"
	"time"

	"github.com/HamStudy/feedview/internal/components/performance"
	"k8s.io/utils/clock"
)

// Update reasons used by the controller
const (
	ReasonMount          performance.Reason = "mount"
	ReasonScroll         performance.Reason = "scroll"
	ReasonScrollEnd      performance.Reason = "scroll-end"
	ReasonResize         performance.Reason = "resize"
	ReasonListMutated    performance.Reason = "list-mutated"
	ReasonRemeasure      performance.Reason = "remeasure"
	ReasonScrollToNewest performance.Reason = "scroll-to-newest"
	ReasonConfig         performance.Reason = "config"
)

// DefaultScrollEndDelay is the quiet period after which scrolling is
// considered finished.
const DefaultScrollEndDelay = 150 * time.Millisecond

// Options configures a Controller.
type Options[T any] struct {
	Viewport Viewport
	Config   Config
	Queue    performance.QueueOptions

	// Store and RestorationKey enable restoring the scroll position across
	// remounts. Either may be empty.
	Store          RestorationStore
	RestorationKey string

	// Render is called after every pass with the slice to mount.
	Render func(Projection[T])

	// OnFetchNextPage is called with the last key when the mounted slice gets
	// within EdgeThreshold items of the end of the list and HasNextPage is set.
	OnFetchNextPage func(lastKey string)
	// OnFetchPrevPage is the same for the start of the list.
	OnFetchPrevPage func(firstKey string)
	// EdgeThreshold defaults to Config.Overscan.
	EdgeThreshold int

	ScrollEndDelay time.Duration
}

// Controller wires a viewport, the task queue and the projection functions
// together. All methods must be called from the goroutine that owns the
// list; timer work reaches it through Options.Queue.Post.
type Controller[T any] struct {
	opts     Options[T]
	viewport Viewport
	queue    *performance.TaskQueue
	clock    clock.PassiveClock

	state      State[T]
	items      []DataItem[T]
	keys       []string
	projection Projection[T]
	lastChange Change
	probes     map[string]HeightProbe

	hasNext       bool
	hasPrev       bool
	requestedNext string
	requestedPrev string

	pendingRestore *RestorationRecord
	lastScroll     time.Time
	unsubscribe    []func()
	mounted        bool
}

// NewController creates an unmounted controller
func NewController[T any](opts Options[T]) *Controller[T] {
	if opts.Queue.Clock == nil {
		opts.Queue.Clock = clock.RealClock{}
	}
	if opts.ScrollEndDelay <= 0 {
		opts.ScrollEndDelay = DefaultScrollEndDelay
	}
	if opts.EdgeThreshold <= 0 {
		opts.EdgeThreshold = max(opts.Config.Overscan, 1)
	}
	c := &Controller[T]{
		opts:     opts,
		viewport: opts.Viewport,
		clock:    opts.Queue.Clock,
		state:    NewState[T](opts.Config),
		probes:   make(map[string]HeightProbe),
	}
	c.queue = performance.NewTaskQueue(opts.Queue, c.Update)
	return c
}

// Mount restores the previous position if one was stored, subscribes to the
// viewport and schedules the first pass.
func (c *Controller[T]) Mount() {
	if c.mounted {
		return
	}
	c.mounted = true
	c.queue.Resume()

	if c.opts.Store != nil && c.opts.RestorationKey != "" {
		if ms, ok := c.opts.Store.(MeasurementStore); ok {
			if snapshot, ok := ms.GetMeasurements(c.opts.RestorationKey); ok {
				c.state.Heights.Restore(snapshot)
			}
		}
		if rec, ok := c.opts.Store.GetItem(c.opts.RestorationKey); ok {
			c.pendingRestore = &rec
			c.tryRestore()
		}
	}

	c.unsubscribe = append(c.unsubscribe,
		c.viewport.AddScrollListener(c.onScroll),
		c.viewport.AddResizeListener(c.onResize),
	)
	c.queue.Schedule(performance.Immediate, ReasonMount)
}

// Unmount persists the anchor in view, detaches from the viewport and drops
// pending work.
func (c *Controller[T]) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false

	if c.opts.Store != nil && c.opts.RestorationKey != "" {
		if recs := c.RestorationItems(); len(recs) > 0 {
			c.opts.Store.SetItem(c.opts.RestorationKey, recs[0])
		}
		if ms, ok := c.opts.Store.(MeasurementStore); ok {
			ms.SetMeasurements(c.opts.RestorationKey, c.state.Heights.Snapshot())
		}
	}

	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
	c.queue.Stop()
}

// SetItems replaces the item list. Keys that disappeared are evicted from the
// height cache.
func (c *Controller[T]) SetItems(items []DataItem[T]) {
	keys := Keys(items)
	change := Diff(c.keys, keys)
	for _, k := range change.Removed {
		c.state.Heights.Remove(k)
		delete(c.probes, k)
	}

	wasEmpty := len(c.items) == 0
	c.items = items
	c.keys = keys
	c.lastChange = change

	if c.pendingRestore != nil {
		c.tryRestore()
	}

	if wasEmpty {
		c.queue.Schedule(performance.Immediate, ReasonListMutated)
		return
	}
	c.queue.Schedule(performance.Debounced, ReasonListMutated)
}

// SetPaging updates whether more items exist past either end of the list
func (c *Controller[T]) SetPaging(hasNext, hasPrev bool) {
	if hasNext && !c.hasNext {
		c.requestedNext = ""
	}
	if hasPrev && !c.hasPrev {
		c.requestedPrev = ""
	}
	c.hasNext = hasNext
	c.hasPrev = hasPrev
}

// SetConfig applies new layout parameters and recomputes
func (c *Controller[T]) SetConfig(cfg Config) {
	if cfg.PrefetchRatio <= 0 {
		cfg.PrefetchRatio = c.state.Config.PrefetchRatio
	}
	c.state.Config = cfg
	c.state.Heights.SetEstimate(cfg.EstimatedHeight)
	c.opts.Config = cfg
	c.queue.Schedule(performance.Immediate, ReasonConfig)
}

// SetScheduling changes the coalescing windows of later updates
func (c *Controller[T]) SetScheduling(throttle, debounce time.Duration) {
	c.queue.SetThrottleInterval(throttle)
	c.queue.SetDebounceDelay(debounce)
}

// RegisterProbe attaches the height probe of a mounted item
func (c *Controller[T]) RegisterProbe(p HeightProbe) {
	c.probes[p.Key()] = p
}

// UnregisterProbe detaches the probe of key
func (c *Controller[T]) UnregisterProbe(key string) {
	delete(c.probes, key)
}

// Measure reads all attached probes and schedules a pass if a height changed
func (c *Controller[T]) Measure() bool {
	if c.measure() {
		c.queue.Schedule(performance.Immediate, ReasonRemeasure)
		return true
	}
	return false
}

// Update runs one projection pass against live state. It is the run
// function of the task queue and may also be called directly.
func (c *Controller[T]) Update(reason performance.Reason) {
	rect, ok := c.viewport.RelativeToRoot()
	if !ok {
		return
	}

	if c.state.IsScrolling && c.clock.Since(c.lastScroll) >= c.opts.ScrollEndDelay {
		c.state.IsScrolling = false
	}

	c.measure()

	anchor, _ := CommonProjectionItem(c.state, rect, c.items)
	c.state, c.projection = UpdateProjection(c.state, anchor, rect, c.items)

	if c.projection.Correction != 0 {
		c.viewport.ScrollBy(-c.projection.Correction)
	}

	if c.opts.Render != nil {
		c.opts.Render(c.projection)
	}
	c.pruneProbes()

	if c.measure() {
		c.queue.Schedule(performance.Immediate, ReasonRemeasure)
	}
	c.checkEdges()

	if c.state.IsScrolling {
		c.queue.Schedule(performance.Debounced, ReasonScrollEnd)
	}
}

// ScrollToNewest jumps to the head of the list
func (c *Controller[T]) ScrollToNewest() {
	c.viewport.ScrollToTop()
	c.queue.Schedule(performance.Immediate, ReasonScrollToNewest)
}

// IsAtNewest reports whether the head of the list is mounted at the top of
// the viewport and nothing newer is known to exist
func (c *Controller[T]) IsAtNewest() bool {
	if c.hasPrev || len(c.items) == 0 || !c.viewport.IsAtTop() {
		return false
	}
	if len(c.projection.Mounted) == 0 {
		return false
	}
	return c.projection.Mounted[0].Data.Key == c.items[0].Key
}

// RestorationItems returns a record for each mounted item in the viewport
func (c *Controller[T]) RestorationItems() []RestorationRecord {
	rect, ok := c.viewport.RelativeToRoot()
	if !ok {
		return nil
	}
	return RestorationItems(c.projection.Mounted, rect)
}

// Projection returns the result of the last pass
func (c *Controller[T]) Projection() Projection[T] {
	return c.projection
}

// State returns the engine state after the last pass
func (c *Controller[T]) State() State[T] {
	return c.state
}

// Items returns the current item list
func (c *Controller[T]) Items() []DataItem[T] {
	return c.items
}

// LastChange returns the diff computed by the last SetItems
func (c *Controller[T]) LastChange() Change {
	return c.lastChange
}

// Placement returns the mounted placement of key
func (c *Controller[T]) Placement(key string) (MountedItem[T], bool) {
	for _, m := range c.projection.Mounted {
		if m.Data.Key == key {
			return m, true
		}
	}
	for _, it := range c.state.Items {
		if it.Key == key {
			return MountedItem[T]{Start: it.Start, Height: it.Height}, true
		}
	}
	return MountedItem[T]{}, false
}

func (c *Controller[T]) onScroll() {
	c.lastScroll = c.clock.Now()
	c.state.IsScrolling = true
	c.queue.Schedule(performance.Throttled, ReasonScroll)
	c.queue.Schedule(performance.Debounced, ReasonScrollEnd)
}

func (c *Controller[T]) onResize() {
	c.queue.Schedule(performance.Immediate, ReasonResize)
}

func (c *Controller[T]) tryRestore() {
	if len(c.state.Mounted) > 0 {
		// still positioned from an earlier mount
		c.pendingRestore = nil
		return
	}
	if len(c.items) == 0 {
		return
	}
	initial := ComputeInitialProjection(c.state, *c.pendingRestore, c.items, c.viewport.DocumentViewportHeight())
	if len(initial) == 0 {
		return
	}
	c.pendingRestore = nil
	c.state.Mounted = initial
	c.projection = Projection[T]{Mounted: initial}
	if c.opts.Render != nil {
		c.opts.Render(c.projection)
	}
}

func (c *Controller[T]) measure() bool {
	if len(c.probes) == 0 {
		return false
	}
	probes := make([]HeightProbe, 0, len(c.probes))
	for _, m := range c.projection.Mounted {
		if p, ok := c.probes[m.Data.Key]; ok {
			probes = append(probes, p)
		}
	}
	return MeasureItemHeights(c.state, probes)
}

func (c *Controller[T]) pruneProbes() {
	if len(c.probes) == 0 {
		return
	}
	live := make(map[string]struct{}, len(c.projection.Mounted))
	for _, m := range c.projection.Mounted {
		live[m.Data.Key] = struct{}{}
	}
	for k := range c.probes {
		if _, ok := live[k]; !ok {
			delete(c.probes, k)
		}
	}
}

func (c *Controller[T]) checkEdges() {
	n := len(c.items)
	if n == 0 || c.projection.Slice.Empty() {
		return
	}
	threshold := c.opts.EdgeThreshold

	if c.hasNext && c.opts.OnFetchNextPage != nil && c.projection.Slice.End >= n-threshold {
		last := c.items[n-1].Key
		if last != c.requestedNext {
			c.requestedNext = last
			log.Printf("virtual: requesting next page after %s", last)
			c.opts.OnFetchNextPage(last)
		}
	}
	if c.hasPrev && c.opts.OnFetchPrevPage != nil && c.projection.Slice.Start <= threshold {
		first := c.items[0].Key
		if first != c.requestedPrev {
			c.requestedPrev = first
			log.Printf("virtual: requesting previous page before %s", first)
			c.opts.OnFetchPrevPage(first)
		}
	}
}
