package virtual

// Viewport abstracts the scrollable root that hosts a virtual list.
//
// All coordinates are list content coordinates: 0 is the top edge of the first
// item. Implementations must be used from the owner goroutine only.
type Viewport interface {
	// RelativeToRoot returns the visible span of the list. The second result is
	// false while the root is not measurable (not mounted, zero size).
	RelativeToRoot() (Rect, bool)

	// ScrollBy moves the scroll position without notifying scroll listeners.
	// It is the channel for anchor corrections and must not cause a visible jump.
	ScrollBy(delta int)

	// ScrollTo brings the span [top, top+height) into view.
	ScrollTo(top, height int)

	// ScrollToTop jumps to the first line of the list.
	ScrollToTop()

	AddScrollListener(fn func()) (unsubscribe func())
	AddResizeListener(fn func()) (unsubscribe func())

	IsAtTop() bool
	DocumentViewportHeight() int
}
