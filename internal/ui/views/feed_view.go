package views

import (
	"strings"

	"github.com/HamStudy/feedview/internal/components/style"
	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/HamStudy/feedview/internal/feed"
	"github.com/charmbracelet/lipgloss"
)

// FeedView paints the mounted cards of a virtual list into a fixed-size
// window of terminal lines
type FeedView struct {
	styles   *style.Manager
	renderer *feed.Renderer
	width    int
	height   int
}

// NewFeedView creates a feed view drawing cards with renderer
func NewFeedView(styles *style.Manager, renderer *feed.Renderer) *FeedView {
	return &FeedView{
		styles:   styles,
		renderer: renderer,
	}
}

// SetSize sets the window size in cells
func (v *FeedView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.renderer.SetWidth(width)
}

// Height returns the window height in lines
func (v *FeedView) Height() int {
	return v.height
}

// Render draws every mounted item overlapping [scrollTop, scrollTop+height).
// Cards are placed at their projected start, so a card that is taller than
// its cached height overlaps the next one until the following pass.
func (v *FeedView) Render(p virtual.Projection[feed.Post], scrollTop int, selectedKey string, empty string) string {
	if v.height <= 0 {
		return ""
	}

	lines := make([]string, v.height)
	window := virtual.Rect{Top: scrollTop, Height: v.height}
	painted := false

	for _, m := range p.Mounted {
		if !m.Rect().Overlaps(window) {
			continue
		}
		card := v.renderer.Render(m.Data.Payload, m.Data.Key == selectedKey)
		for i, line := range strings.Split(card, "\n") {
			row := m.Start + i - scrollTop
			if row < 0 {
				continue
			}
			if row >= v.height {
				break
			}
			lines[row] = line
			painted = true
		}
	}

	if !painted && empty != "" {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			v.styles.Meta().Render(empty))
	}
	return strings.Join(lines, "\n")
}
