package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// TestModeInitialization tests that all modes are properly initialized
func TestModeInitialization(t *testing.T) {
	tests := []struct {
		name          string
		createMode    func() ScreenMode
		expectedType  ScreenModeType
		expectedTitle string
	}{
		{
			name:          "FeedMode",
			createMode:    func() ScreenMode { return NewFeedMode() },
			expectedType:  ModeFeed,
			expectedTitle: "feedview - Feed",
		},
		{
			name:          "HelpMode",
			createMode:    func() ScreenMode { return NewHelpMode() },
			expectedType:  ModeHelp,
			expectedTitle: "feedview - Help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := tt.createMode()

			if mode.GetType() != tt.expectedType {
				t.Errorf("Expected mode type %v, got %v", tt.expectedType, mode.GetType())
			}
			if mode.GetTitle() != tt.expectedTitle {
				t.Errorf("Expected title %q, got %q", tt.expectedTitle, mode.GetTitle())
			}
			if len(mode.GetKeyBindings()) == 0 {
				t.Error("Key bindings should not be empty")
			}
		})
	}
}

// TestFeedModeKeyBindings checks that every key reaches the intended binding
func TestFeedModeKeyBindings(t *testing.T) {
	bindings := NewFeedMode().GetKeyBindings()

	tests := []struct {
		binding string
		msg     tea.KeyMsg
	}{
		{"down", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}},
		{"down", tea.KeyMsg{Type: tea.KeyDown}},
		{"up", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}},
		{"pagedown", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}},
		{"pageup", tea.KeyMsg{Type: tea.KeyCtrlU}},
		{"linedown", tea.KeyMsg{Type: tea.KeyCtrlE}},
		{"newest", tea.KeyMsg{Type: tea.KeyHome}},
		{"oldest", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")}},
		{"nextfeed", tea.KeyMsg{Type: tea.KeyTab}},
		{"prevfeed", tea.KeyMsg{Type: tea.KeyShiftTab}},
		{"remove", tea.KeyMsg{Type: tea.KeyDelete}},
		{"quit", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.binding+"/"+tt.msg.String(), func(t *testing.T) {
			b, ok := bindings[tt.binding]
			if !ok {
				t.Fatalf("Missing binding %q", tt.binding)
			}
			if !key.Matches(tt.msg, b.Key) {
				t.Errorf("Expected %q to match %s", tt.msg.String(), tt.binding)
			}
		})
	}
}

// TestHelpSections tests that every binding shows up in its help section
func TestHelpSections(t *testing.T) {
	mode := NewFeedMode()
	sections := helpSections(mode)

	total := 0
	for name, entries := range sections {
		if name == "" {
			t.Error("Binding without a section")
		}
		total += len(entries)
	}
	if total != len(mode.GetKeyBindings()) {
		t.Errorf("Expected %d help entries, got %d", len(mode.GetKeyBindings()), total)
	}
	if len(sections["Navigation"]) == 0 {
		t.Error("Navigation section should not be empty")
	}
}

// TestHelpModeReturnsToFeed tests leaving help with either close key
func TestHelpModeReturnsToFeed(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("?")},
	} {
		h := newAppHarness(t)
		h.app.setMode(ModeHelp)

		handled, cmd := h.app.mode.HandleKey(msg, h.app)
		if !handled || cmd != nil {
			t.Errorf("%q: expected handled without command, got %v %v", msg.String(), handled, cmd)
		}
		if h.app.mode.GetType() != ModeFeed {
			t.Errorf("%q: expected feed mode, got %v", msg.String(), h.app.mode.GetType())
		}
	}
}
