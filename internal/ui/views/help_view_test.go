package views

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestHelpViewInit(t *testing.T) {
	view := NewHelpView()
	if view == nil {
		t.Fatal("NewHelpView returned nil")
	}
	if cmd := view.Init(); cmd != nil {
		t.Error("Init should return nil command")
	}
}

func TestHelpViewWindowResize(t *testing.T) {
	view := NewHelpView()

	msg := tea.WindowSizeMsg{Width: 100, Height: 50}
	model, _ := view.Update(msg)
	view = model.(*HelpView)

	if view.width != 100 || view.height != 50 {
		t.Errorf("size = (%d, %d), want (100, 50)", view.width, view.height)
	}
}

func TestHelpViewContent(t *testing.T) {
	view := NewHelpView()
	view.SetSize(80, 40)
	view.SetContent("feedview - Feed Help", map[string][]HelpEntry{
		"General":    {{Keys: "q", Description: "Quit"}, {Keys: "?", Description: "Toggle help"}},
		"Navigation": {{Keys: "↓/j", Description: "Next post"}},
		"Extra":      {{Keys: "x", Description: "Something else"}},
	})

	output := view.View()

	for _, expected := range []string{"feedview - Feed Help", "Navigation", "Next post", "↓/j", "General", "Quit", "Extra", "Press ? or Esc"} {
		if !strings.Contains(output, expected) {
			t.Errorf("help should contain %q", expected)
		}
	}

	// Known sections come first, unknown ones after
	nav := strings.Index(output, "Navigation")
	general := strings.Index(output, "General")
	extra := strings.Index(output, "Extra")
	if !(nav < general && general < extra) {
		t.Errorf("unexpected section order: Navigation=%d General=%d Extra=%d", nav, general, extra)
	}
}
