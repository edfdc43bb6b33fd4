package views

import (
	"fmt"
	"strings"

	"github.com/HamStudy/feedview/internal/components/style"
	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// StatusInfo is everything the status line shows about the current feed
type StatusInfo struct {
	Feed       string
	Slice      virtual.Slice
	Total      int
	ListHeight int
	ScrollTop  int
	// NotAtNewest shows the jump-to-newest hint
	NotAtNewest bool
	// NewPosts reports that the source has posts newer than the list head
	NewPosts bool
	Fetching bool
	Spinner  string
	Message  string
	Level    string
	// Debug is appended when debug mode is on
	Debug string
}

// StatusView renders the title bar and the status line
type StatusView struct {
	styles *style.Manager
	width  int
}

// NewStatusView creates a status view
func NewStatusView(styles *style.Manager) *StatusView {
	return &StatusView{styles: styles}
}

// SetWidth sets the line width
func (v *StatusView) SetWidth(width int) {
	v.width = width
}

// RenderHeader draws the feed tabs with the current one highlighted
func (v *StatusView) RenderHeader(feeds []string, current string) string {
	tabs := make([]string, 0, len(feeds))
	for _, name := range feeds {
		if name == current {
			tabs = append(tabs, v.styles.Author(true).Render("["+name+"]"))
			continue
		}
		tabs = append(tabs, v.styles.Meta().Render(" "+name+" "))
	}
	title := "feedview  " + strings.Join(tabs, " ")
	return v.styles.Header(v.width).Render(truncate.StringWithTail(title, uint(max(v.width, 1)), "…"))
}

// Render draws the status line
func (v *StatusView) Render(info StatusInfo) string {
	var parts []string

	if info.Fetching {
		parts = append(parts, info.Spinner+" loading")
	}
	if info.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d-%d of %d", info.Slice.Start+1, info.Slice.End, info.Total))
	} else {
		parts = append(parts, "empty")
	}
	if info.NewPosts {
		parts = append(parts, v.styles.Message("warning").Render("● new posts (g)"))
	} else if info.NotAtNewest {
		parts = append(parts, v.styles.Message("info").Render("↑ newest (g)"))
	}
	if info.Message != "" {
		parts = append(parts, v.styles.Message(info.Level).Render(info.Message))
	}
	if info.Debug != "" {
		parts = append(parts, fmt.Sprintf("top=%d height=%d %s", info.ScrollTop, info.ListHeight, info.Debug))
	}

	line := strings.Join(parts, " │ ")
	return v.styles.StatusBar(v.width).Render(truncate.StringWithTail(line, uint(max(v.width, 1)), "…"))
}

// Height returns the lines taken by the header and the status line together
func (v *StatusView) Height() int {
	return lipgloss.Height(v.RenderHeader(nil, "")) + 1
}
