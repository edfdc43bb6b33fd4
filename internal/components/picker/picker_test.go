package picker

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func feeds() []Item {
	return []Item{
		{Name: "home", Detail: "generated"},
		{Name: "mentions", Detail: "generated"},
		{Name: "archive", Detail: "fixture"},
	}
}

func TestPickerBasics(t *testing.T) {
	model := New("Feeds", feeds())

	if model.IsOpen() {
		t.Error("Picker should be closed initially")
	}
	if model.View() != "" {
		t.Error("View should be empty when picker is closed")
	}
	if got := model.Selected().Name; got != "home" {
		t.Errorf("Expected first item selected, got %q", got)
	}

	model.Open("archive")
	if !model.IsOpen() {
		t.Error("Picker should be open")
	}
	if got := model.Selected().Name; got != "archive" {
		t.Errorf("Expected archive selected on open, got %q", got)
	}
}

func TestPickerNavigation(t *testing.T) {
	model := New("Feeds", feeds())
	model.Open("home")

	tests := []struct {
		msg      tea.KeyMsg
		expected string
	}{
		{tea.KeyMsg{Type: tea.KeyDown}, "mentions"},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, "archive"},
		{tea.KeyMsg{Type: tea.KeyDown}, "home"},
		{tea.KeyMsg{Type: tea.KeyUp}, "archive"},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "mentions"},
	}
	for i, tt := range tests {
		model, _ = model.Update(tt.msg)
		if got := model.Selected().Name; got != tt.expected {
			t.Errorf("step %d (%s): expected %q, got %q", i, tt.msg.String(), tt.expected, got)
		}
	}
}

func TestPickerChooseAndCancel(t *testing.T) {
	model := New("Feeds", feeds())
	model.Open("home")
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.IsOpen() {
		t.Error("Picker should close after enter")
	}
	if cmd == nil {
		t.Fatal("Expected a command after enter")
	}
	picked, ok := cmd().(PickedMsg)
	if !ok || picked.Item.Name != "mentions" {
		t.Errorf("Expected PickedMsg for mentions, got %#v", cmd())
	}

	model.Open("home")
	model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.IsOpen() {
		t.Error("Picker should close after escape")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Error("Expected CancelledMsg after escape")
	}
}

func TestPickerIgnoresKeysWhenClosed(t *testing.T) {
	model := New("Feeds", feeds())
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Closed picker should not pick")
	}
	if model.Selected().Name != "home" {
		t.Error("Closed picker should not move")
	}
}

func TestPickerSetItemsKeepsSelection(t *testing.T) {
	model := New("Feeds", feeds())
	model.Open("archive")
	model.SetItems([]Item{{Name: "archive"}, {Name: "home"}})
	if got := model.Selected().Name; got != "archive" {
		t.Errorf("Expected archive to stay selected, got %q", got)
	}
	model.SetItems([]Item{{Name: "other"}})
	if got := model.Selected().Name; got != "other" {
		t.Errorf("Expected first item when selection vanished, got %q", got)
	}
}

func TestPickerViewFitsSize(t *testing.T) {
	var items []Item
	for i := 0; i < 30; i++ {
		items = append(items, Item{Name: fmt.Sprintf("feed-%02d", i), Detail: "generated with a long description"})
	}
	model := New("Feeds", items)
	model.SetSize(30, 10)
	model.Open("feed-15")

	view := model.View()
	if w := lipgloss.Width(view); w > 30 {
		t.Errorf("Expected width <= 30, got %d", w)
	}
	if h := lipgloss.Height(view); h > 10 {
		t.Errorf("Expected height <= 10, got %d", h)
	}
	if !strings.Contains(view, "↑") || !strings.Contains(view, "↓") {
		t.Error("Expected scroll hints in both directions")
	}
	if !strings.Contains(view, "feed-15") {
		t.Error("Expected the selected item to be visible")
	}
}
