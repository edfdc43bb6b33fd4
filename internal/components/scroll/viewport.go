package scroll

import (
	"time"

	"github.com/HamStudy/feedview/internal/components/virtual"
	"k8s.io/utils/clock"
)

// Viewport is a line-based scrollable window over a virtual list. It is the
// terminal implementation of virtual.Viewport and must be driven from the
// bubbletea update loop.
type Viewport struct {
	height        int
	contentHeight int
	scrollTop     int

	// Performance tracking
	clock          clock.PassiveClock
	lastScrollTime time.Time
	scrollVelocity float64

	scrollListeners map[int]func()
	resizeListeners map[int]func()
	nextListenerID  int
}

// NewViewport creates a viewport showing height lines
func NewViewport(height int) *Viewport {
	return NewViewportWithClock(height, clock.RealClock{})
}

// NewViewportWithClock creates a viewport that tracks scroll velocity on c
func NewViewportWithClock(height int, c clock.PassiveClock) *Viewport {
	return &Viewport{
		height:          max(height, 0),
		clock:           c,
		scrollListeners: make(map[int]func()),
		resizeListeners: make(map[int]func()),
	}
}

var _ virtual.Viewport = (*Viewport)(nil)

// RelativeToRoot returns the visible span of the list
func (v *Viewport) RelativeToRoot() (virtual.Rect, bool) {
	if v.height <= 0 {
		return virtual.Rect{}, false
	}
	return virtual.Rect{Top: v.scrollTop, Height: v.height}, true
}

// ScrollBy shifts the scroll position silently. Only the top edge is
// clamped because the content height is updated after the correction.
func (v *Viewport) ScrollBy(delta int) {
	v.scrollTop = max(v.scrollTop+delta, 0)
}

// ScrollTo scrolls the minimum amount that brings [top, top+height) into view
func (v *Viewport) ScrollTo(top, height int) {
	target := v.scrollTop
	switch {
	case top < v.scrollTop || height >= v.height:
		target = top
	case top+height > v.scrollTop+v.height:
		target = top + height - v.height
	}
	v.setScrollTop(target)
}

// ScrollToTop jumps to the first line
func (v *Viewport) ScrollToTop() {
	v.setScrollTop(0)
}

// ScrollToBottom jumps to the last page
func (v *Viewport) ScrollToBottom() {
	v.setScrollTop(v.maxScrollTop())
}

// ScrollLines scrolls by delta lines as a user action
func (v *Viewport) ScrollLines(delta int) {
	v.setScrollTop(v.scrollTop + delta)
}

// PageDown scrolls one page forward
func (v *Viewport) PageDown() {
	v.ScrollLines(max(v.height-1, 1))
}

// PageUp scrolls one page back
func (v *Viewport) PageUp() {
	v.ScrollLines(-max(v.height-1, 1))
}

// AddScrollListener registers fn for user and programmatic scrolls
func (v *Viewport) AddScrollListener(fn func()) func() {
	id := v.nextListenerID
	v.nextListenerID++
	v.scrollListeners[id] = fn
	return func() { delete(v.scrollListeners, id) }
}

// AddResizeListener registers fn for size changes
func (v *Viewport) AddResizeListener(fn func()) func() {
	id := v.nextListenerID
	v.nextListenerID++
	v.resizeListeners[id] = fn
	return func() { delete(v.resizeListeners, id) }
}

// IsAtTop reports whether the first line is at the top of the window
func (v *Viewport) IsAtTop() bool {
	return v.scrollTop <= 0
}

// IsAtBottom reports whether the last line of content is visible
func (v *Viewport) IsAtBottom() bool {
	return v.scrollTop >= v.maxScrollTop()
}

// DocumentViewportHeight returns the window height in lines
func (v *Viewport) DocumentViewportHeight() int {
	return v.height
}

// SetSize updates the window height and notifies resize listeners
func (v *Viewport) SetSize(height int) {
	height = max(height, 0)
	if height == v.height {
		return
	}
	v.height = height
	for _, fn := range v.resizeListeners {
		fn()
	}
}

// SetContentHeight records the list height and clamps the scroll position
func (v *Viewport) SetContentHeight(h int) {
	v.contentHeight = max(h, 0)
	if v.scrollTop > v.maxScrollTop() {
		v.scrollTop = v.maxScrollTop()
	}
}

// ScrollTop returns the first visible line
func (v *Viewport) ScrollTop() int {
	return v.scrollTop
}

// ScrollVelocity returns the last measured scroll rate in lines per second
func (v *Viewport) ScrollVelocity() float64 {
	return v.scrollVelocity
}

// GetStats returns viewport statistics for the debug status line
func (v *Viewport) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"scroll_top":      v.scrollTop,
		"viewport_height": v.height,
		"content_height":  v.contentHeight,
		"scroll_velocity": v.scrollVelocity,
	}
}

func (v *Viewport) maxScrollTop() int {
	return max(v.contentHeight-v.height, 0)
}

func (v *Viewport) setScrollTop(top int) {
	top = min(top, v.maxScrollTop())
	top = max(top, 0)
	if top == v.scrollTop {
		return
	}
	delta := top - v.scrollTop
	v.scrollTop = top
	v.trackScrolling(delta)
	for _, fn := range v.scrollListeners {
		fn()
	}
}

// trackScrolling updates the scroll velocity
func (v *Viewport) trackScrolling(delta int) {
	now := v.clock.Now()
	if !v.lastScrollTime.IsZero() {
		if dt := now.Sub(v.lastScrollTime).Seconds(); dt > 0 {
			if delta < 0 {
				delta = -delta
			}
			v.scrollVelocity = float64(delta) / dt
		}
	}
	v.lastScrollTime = now
}
