package scroll

import (
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

func TestViewportCreation(t *testing.T) {
	v := NewViewport(10)

	if v.DocumentViewportHeight() != 10 {
		t.Errorf("Expected viewport height 10, got %d", v.DocumentViewportHeight())
	}

	if !v.IsAtTop() {
		t.Error("Expected new viewport to be at top")
	}

	rect, ok := v.RelativeToRoot()
	if !ok {
		t.Fatal("Expected viewport with height to be visible")
	}
	if rect.Top != 0 || rect.Height != 10 {
		t.Errorf("Expected rect {0 10}, got %+v", rect)
	}
}

func TestViewportHidden(t *testing.T) {
	v := NewViewport(0)

	if _, ok := v.RelativeToRoot(); ok {
		t.Error("Expected zero-height viewport to report not visible")
	}
}

func TestViewportScrolling(t *testing.T) {
	v := NewViewport(5)
	v.SetContentHeight(20)

	v.ScrollLines(3)
	if v.ScrollTop() != 3 {
		t.Errorf("Expected scroll top 3, got %d", v.ScrollTop())
	}

	// Test scrolling beyond bounds
	v.ScrollLines(100)
	if v.ScrollTop() != 15 {
		t.Errorf("Expected scroll top 15 after scroll beyond bounds, got %d", v.ScrollTop())
	}
	if !v.IsAtBottom() {
		t.Error("Expected viewport to be at bottom")
	}

	// Test scrolling to negative
	v.ScrollLines(-100)
	if v.ScrollTop() != 0 {
		t.Errorf("Expected scroll top 0 after scroll to negative, got %d", v.ScrollTop())
	}

	v.PageDown()
	if v.ScrollTop() != 4 {
		t.Errorf("Expected scroll top 4 after page down, got %d", v.ScrollTop())
	}
	v.PageUp()
	if v.ScrollTop() != 0 {
		t.Errorf("Expected scroll top 0 after page up, got %d", v.ScrollTop())
	}

	v.ScrollToBottom()
	if v.ScrollTop() != 15 {
		t.Errorf("Expected scroll top 15 at bottom, got %d", v.ScrollTop())
	}
	v.ScrollToTop()
	if !v.IsAtTop() {
		t.Error("Expected viewport to be at top")
	}
}

func TestViewportScrollTo(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		top     int
		height  int
		wantTop int
	}{
		{"already visible", 10, 12, 2, 10},
		{"above window", 10, 4, 2, 4},
		{"below window", 10, 18, 3, 16},
		{"taller than window", 10, 30, 8, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(5)
			v.SetContentHeight(100)
			v.ScrollLines(tt.start)

			v.ScrollTo(tt.top, tt.height)
			if v.ScrollTop() != tt.wantTop {
				t.Errorf("Expected scroll top %d, got %d", tt.wantTop, v.ScrollTop())
			}
		})
	}
}

func TestViewportScrollByIsSilent(t *testing.T) {
	v := NewViewport(5)
	v.SetContentHeight(50)

	calls := 0
	v.AddScrollListener(func() { calls++ })

	v.ScrollBy(12)
	if v.ScrollTop() != 12 {
		t.Errorf("Expected scroll top 12, got %d", v.ScrollTop())
	}
	v.ScrollBy(-40)
	if v.ScrollTop() != 0 {
		t.Errorf("Expected scroll top clamped to 0, got %d", v.ScrollTop())
	}
	if calls != 0 {
		t.Errorf("Expected no scroll notifications from ScrollBy, got %d", calls)
	}

	// Corrections may run ahead of the content height
	v.ScrollBy(80)
	if v.ScrollTop() != 80 {
		t.Errorf("Expected scroll top 80 before content height update, got %d", v.ScrollTop())
	}
	v.SetContentHeight(60)
	if v.ScrollTop() != 55 {
		t.Errorf("Expected scroll top clamped to 55, got %d", v.ScrollTop())
	}
}

func TestViewportListeners(t *testing.T) {
	v := NewViewport(5)
	v.SetContentHeight(50)

	scrolls, resizes := 0, 0
	unsubscribeScroll := v.AddScrollListener(func() { scrolls++ })
	unsubscribeResize := v.AddResizeListener(func() { resizes++ })

	v.ScrollLines(1)
	v.ScrollLines(0)
	v.SetSize(8)
	v.SetSize(8)

	if scrolls != 1 {
		t.Errorf("Expected 1 scroll notification, got %d", scrolls)
	}
	if resizes != 1 {
		t.Errorf("Expected 1 resize notification, got %d", resizes)
	}

	unsubscribeScroll()
	unsubscribeResize()
	v.ScrollLines(1)
	v.SetSize(9)

	if scrolls != 1 || resizes != 1 {
		t.Errorf("Expected no notifications after unsubscribe, got %d scrolls and %d resizes", scrolls, resizes)
	}
}

func TestViewportVelocity(t *testing.T) {
	clock := clocktesting.NewFakePassiveClock(time.Unix(0, 0))
	v := NewViewportWithClock(5, clock)
	v.SetContentHeight(100)

	v.ScrollLines(1)
	clock.SetTime(clock.Now().Add(500 * time.Millisecond))
	v.ScrollLines(10)

	if v.ScrollVelocity() != 20 {
		t.Errorf("Expected velocity 20 lines/s, got %f", v.ScrollVelocity())
	}

	stats := v.GetStats()
	if stats["scroll_top"] != 11 {
		t.Errorf("Expected scroll_top 11 in stats, got %v", stats["scroll_top"])
	}
}
