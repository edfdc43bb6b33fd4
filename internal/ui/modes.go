package ui

import (
	"github.com/HamStudy/feedview/internal/ui/views"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ScreenModeType represents different screen modes
type ScreenModeType int

const (
	ModeFeed ScreenModeType = iota
	ModeHelp
	ModePicker
)

// KeyBinding represents a key binding with help text
type KeyBinding struct {
	Key         key.Binding
	Description string
	Section     string // For grouping in help
}

// ScreenMode defines the interface for different screen modes
type ScreenMode interface {
	// GetType returns the mode type
	GetType() ScreenModeType

	// GetKeyBindings returns the key bindings for this mode
	GetKeyBindings() map[string]KeyBinding

	// HandleKey processes a key message and returns whether it was handled
	HandleKey(msg tea.KeyMsg, app *App) (handled bool, cmd tea.Cmd)

	// GetTitle returns the title for this mode (used in help)
	GetTitle() string
}

// BaseMode provides common functionality for screen modes
type BaseMode struct {
	modeType ScreenModeType
	title    string
}

func (m *BaseMode) GetType() ScreenModeType {
	return m.modeType
}

func (m *BaseMode) GetTitle() string {
	return m.title
}

// Helper function to create key bindings
func NewKeyBinding(keys []string, help string, description string, section string) KeyBinding {
	return KeyBinding{
		Key: key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(help, description),
		),
		Description: description,
		Section:     section,
	}
}

// helpSections groups the bindings of a mode for the help view
func helpSections(m ScreenMode) map[string][]views.HelpEntry {
	sections := make(map[string][]views.HelpEntry)
	for _, binding := range m.GetKeyBindings() {
		sections[binding.Section] = append(sections[binding.Section], views.HelpEntry{
			Keys:        binding.Key.Help().Key,
			Description: binding.Description,
		})
	}
	return sections
}

// FeedMode handles the feed list
type FeedMode struct {
	BaseMode
	bindings map[string]KeyBinding
}

func NewFeedMode() *FeedMode {
	return &FeedMode{
		BaseMode: BaseMode{
			modeType: ModeFeed,
			title:    "feedview - Feed",
		},
		bindings: map[string]KeyBinding{
			"up":       NewKeyBinding([]string{"up", "k"}, "↑/k", "Previous post", "Navigation"),
			"down":     NewKeyBinding([]string{"down", "j"}, "↓/j", "Next post", "Navigation"),
			"pageup":   NewKeyBinding([]string{"pgup", "b", "ctrl+u"}, "PgUp/b", "Page up", "Navigation"),
			"pagedown": NewKeyBinding([]string{"pgdown", "f", " ", "ctrl+d"}, "PgDn/f", "Page down", "Navigation"),
			"lineup":   NewKeyBinding([]string{"ctrl+y"}, "C-y", "Scroll up one line", "Navigation"),
			"linedown": NewKeyBinding([]string{"ctrl+e"}, "C-e", "Scroll down one line", "Navigation"),
			"newest":   NewKeyBinding([]string{"g", "home"}, "Home/g", "Jump to newest", "Navigation"),
			"oldest":   NewKeyBinding([]string{"G", "end"}, "End/G", "Jump to oldest loaded", "Navigation"),
			"nextfeed": NewKeyBinding([]string{"tab"}, "Tab", "Next feed", "Feeds"),
			"prevfeed": NewKeyBinding([]string{"shift+tab"}, "S-Tab", "Previous feed", "Feeds"),
			"refresh":  NewKeyBinding([]string{"r", "ctrl+r"}, "r", "Load newer posts", "Feeds"),
			"remove":   NewKeyBinding([]string{"x", "delete"}, "x", "Hide selected post", "Feeds"),
			"markdown": NewKeyBinding([]string{"m"}, "m", "Toggle markdown", "Display"),
			"debug":    NewKeyBinding([]string{"D"}, "D", "Toggle debug status", "Display"),
			"help":     NewKeyBinding([]string{"?"}, "?", "Toggle help", "General"),
			"quit":     NewKeyBinding([]string{"q", "ctrl+c"}, "q", "Quit", "General"),
		},
	}
}

func (m *FeedMode) GetKeyBindings() map[string]KeyBinding {
	return m.bindings
}

func (m *FeedMode) HandleKey(msg tea.KeyMsg, app *App) (bool, tea.Cmd) {
	bindings := m.bindings

	switch {
	case key.Matches(msg, bindings["quit"].Key):
		return true, tea.Quit

	case key.Matches(msg, bindings["help"].Key):
		app.setMode(ModeHelp)
		return true, nil

	case key.Matches(msg, bindings["up"].Key):
		app.moveSelection(-1)
		return true, nil

	case key.Matches(msg, bindings["down"].Key):
		app.moveSelection(1)
		return true, nil

	case key.Matches(msg, bindings["pageup"].Key):
		if tab := app.currentTab(); tab != nil {
			tab.viewport.PageUp()
		}
		return true, nil

	case key.Matches(msg, bindings["pagedown"].Key):
		if tab := app.currentTab(); tab != nil {
			tab.viewport.PageDown()
		}
		return true, nil

	case key.Matches(msg, bindings["lineup"].Key):
		if tab := app.currentTab(); tab != nil {
			tab.viewport.ScrollLines(-1)
		}
		return true, nil

	case key.Matches(msg, bindings["linedown"].Key):
		if tab := app.currentTab(); tab != nil {
			tab.viewport.ScrollLines(1)
		}
		return true, nil

	case key.Matches(msg, bindings["newest"].Key):
		return true, app.jumpToNewest()

	case key.Matches(msg, bindings["oldest"].Key):
		app.jumpToOldest()
		return true, nil

	case key.Matches(msg, bindings["nextfeed"].Key):
		return true, app.switchFeed(app.state.NextFeed())

	case key.Matches(msg, bindings["prevfeed"].Key):
		return true, app.switchFeed(app.state.PrevFeed())

	case key.Matches(msg, bindings["refresh"].Key):
		return true, app.refresh()

	case key.Matches(msg, bindings["remove"].Key):
		app.removeSelected()
		return true, nil

	case key.Matches(msg, bindings["markdown"].Key):
		app.toggleMarkdown()
		return true, nil

	case key.Matches(msg, bindings["debug"].Key):
		app.state.Debug = !app.state.Debug
		return true, nil
	}

	return false, nil
}

// HelpMode handles the help view
type HelpMode struct {
	BaseMode
}

func NewHelpMode() *HelpMode {
	return &HelpMode{
		BaseMode: BaseMode{
			modeType: ModeHelp,
			title:    "feedview - Help",
		},
	}
}

func (m *HelpMode) GetKeyBindings() map[string]KeyBinding {
	return map[string]KeyBinding{
		"help":   NewKeyBinding([]string{"?"}, "?", "Close help", "General"),
		"quit":   NewKeyBinding([]string{"q", "ctrl+c"}, "q", "Quit application", "General"),
		"escape": NewKeyBinding([]string{"esc"}, "Esc", "Close help", "General"),
	}
}

func (m *HelpMode) HandleKey(msg tea.KeyMsg, app *App) (bool, tea.Cmd) {
	bindings := m.GetKeyBindings()

	switch {
	case key.Matches(msg, bindings["quit"].Key):
		return true, tea.Quit

	case key.Matches(msg, bindings["help"].Key), key.Matches(msg, bindings["escape"].Key):
		app.setMode(ModeFeed)
		return true, nil
	}

	return false, nil
}

// PickerMode lets the user choose a feed by name
type PickerMode struct {
	BaseMode
}

func NewPickerMode() *PickerMode {
	return &PickerMode{
		BaseMode: BaseMode{
			modeType: ModePicker,
			title:    "feedview - Feeds",
		},
	}
}

func (m *PickerMode) GetKeyBindings() map[string]KeyBinding {
	return map[string]KeyBinding{
		"move":   NewKeyBinding([]string{"up", "down", "k", "j"}, "↑↓/jk", "Move", "General"),
		"select": NewKeyBinding([]string{"enter"}, "Enter", "Show feed", "General"),
		"escape": NewKeyBinding([]string{"esc", "q"}, "Esc", "Close", "General"),
	}
}

func (m *PickerMode) HandleKey(msg tea.KeyMsg, app *App) (bool, tea.Cmd) {
	var cmd tea.Cmd
	app.picker, cmd = app.picker.Update(msg)
	if !app.picker.IsOpen() {
		app.setMode(ModeFeed)
	}
	return true, cmd
}
