package style

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Manager handles styling and theming for the application
type Manager struct {
	theme *Theme
	cache map[string]lipgloss.Style
	mu    sync.RWMutex
}

// Theme defines color schemes and styling
type Theme struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Colors      *ColorScheme `yaml:"colors"`
}

// ColorScheme defines the color palette
type ColorScheme struct {
	// Base colors
	Background lipgloss.Color `yaml:"background"`
	Foreground lipgloss.Color `yaml:"foreground"`

	// Selection colors
	Selection *SelectionColors `yaml:"selection"`

	// Post card colors
	Post *PostColors `yaml:"post"`

	// UI element colors
	UI *UIColors `yaml:"ui"`
}

// SelectionColors for the selected card
type SelectionColors struct {
	Border     lipgloss.Color `yaml:"border"`
	Foreground lipgloss.Color `yaml:"foreground"`
}

// PostColors for the parts of a post card
type PostColors struct {
	Author lipgloss.Color `yaml:"author"`
	Handle lipgloss.Color `yaml:"handle"`
	Meta   lipgloss.Color `yaml:"meta"`
	Body   lipgloss.Color `yaml:"body"`
	Counts lipgloss.Color `yaml:"counts"`
}

// UIColors for interface elements
type UIColors struct {
	Border  lipgloss.Color `yaml:"border"`
	Header  lipgloss.Color `yaml:"header"`
	Info    lipgloss.Color `yaml:"info"`
	Warning lipgloss.Color `yaml:"warning"`
	Error   lipgloss.Color `yaml:"error"`
	Success lipgloss.Color `yaml:"success"`
}

// NewManager creates a new style manager with the default theme
func NewManager() *Manager {
	return &Manager{
		theme: getDefaultTheme(),
		cache: make(map[string]lipgloss.Style),
	}
}

// SetTheme sets the current theme
func (m *Manager) SetTheme(theme *Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.theme = theme
	m.cache = make(map[string]lipgloss.Style) // Clear cache
}

// GetTheme returns the current theme
func (m *Manager) GetTheme() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// cached returns the style stored under key, building it on first use
func (m *Manager) cached(key string, build func(*Theme) lipgloss.Style) lipgloss.Style {
	m.mu.RLock()
	style, ok := m.cache[key]
	theme := m.theme
	m.mu.RUnlock()
	if ok {
		return style
	}

	style = build(theme)

	m.mu.Lock()
	m.cache[key] = style
	m.mu.Unlock()
	return style
}

// Card returns the frame of a post card that is width columns wide,
// borders included. Selection only changes colors so card height is stable.
func (m *Manager) Card(width int, selected bool) lipgloss.Style {
	return m.cached(fmt.Sprintf("card_%d_%t", width, selected), func(t *Theme) lipgloss.Style {
		border := t.Colors.UI.Border
		if selected {
			border = t.Colors.Selection.Border
		}
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(max(width-2, 1))
	})
}

// CardContentWidth returns the text width inside a card of width columns
func CardContentWidth(width int) int {
	return max(width-4, 1)
}

// Author returns the style for post author names
func (m *Manager) Author(selected bool) lipgloss.Style {
	return m.cached(fmt.Sprintf("author_%t", selected), func(t *Theme) lipgloss.Style {
		color := t.Colors.Post.Author
		if selected {
			color = t.Colors.Selection.Foreground
		}
		return lipgloss.NewStyle().Bold(true).Foreground(color)
	})
}

// Handle returns the style for @handles
func (m *Manager) Handle() lipgloss.Style {
	return m.cached("handle", func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(t.Colors.Post.Handle)
	})
}

// Meta returns the style for timestamps and separators
func (m *Manager) Meta() lipgloss.Style {
	return m.cached("meta", func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(t.Colors.Post.Meta)
	})
}

// Body returns the style for plain post text
func (m *Manager) Body() lipgloss.Style {
	return m.cached("body", func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(t.Colors.Post.Body)
	})
}

// Counts returns the style for the like and repost line
func (m *Manager) Counts() lipgloss.Style {
	return m.cached("counts", func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(t.Colors.Post.Counts)
	})
}

// Header returns the style of the title bar
func (m *Manager) Header(width int) lipgloss.Style {
	return m.cached(fmt.Sprintf("header_%d", width), func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().
			Width(width).
			Bold(true).
			Foreground(t.Colors.UI.Header).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(t.Colors.UI.Border)
	})
}

// StatusBar returns the style of the bottom status line
func (m *Manager) StatusBar(width int) lipgloss.Style {
	return m.cached(fmt.Sprintf("status_%d", width), func(t *Theme) lipgloss.Style {
		return lipgloss.NewStyle().
			Width(width).
			Foreground(t.Colors.Post.Meta)
	})
}

// Message returns the style for a status message of the given level:
// "info", "warning", "error" or "success"
func (m *Manager) Message(level string) lipgloss.Style {
	return m.cached("message_"+level, func(t *Theme) lipgloss.Style {
		var color lipgloss.Color
		switch strings.ToLower(level) {
		case "warning":
			color = t.Colors.UI.Warning
		case "error":
			color = t.Colors.UI.Error
		case "success":
			color = t.Colors.UI.Success
		default:
			color = t.Colors.UI.Info
		}
		return lipgloss.NewStyle().Foreground(color)
	})
}

// ThemeByName returns one of the built-in themes
func ThemeByName(name string) (*Theme, error) {
	switch strings.ToLower(name) {
	case "", "default", "dark":
		return getDefaultTheme(), nil
	case "light":
		return GetLightTheme(), nil
	case "high-contrast":
		return GetHighContrastTheme(), nil
	default:
		return nil, fmt.Errorf("unknown theme %q", name)
	}
}

// getDefaultTheme returns the default dark theme
func getDefaultTheme() *Theme {
	return &Theme{
		Name:        "default",
		Description: "Default dark theme",
		Colors: &ColorScheme{
			Background: lipgloss.Color("#1e1e1e"),
			Foreground: lipgloss.Color("#d4d4d4"),
			Selection: &SelectionColors{
				Border:     lipgloss.Color("#569cd6"),
				Foreground: lipgloss.Color("#ffffff"),
			},
			Post: &PostColors{
				Author: lipgloss.Color("#dcdcaa"),
				Handle: lipgloss.Color("#4ec9b0"),
				Meta:   lipgloss.Color("#808080"),
				Body:   lipgloss.Color("#d4d4d4"),
				Counts: lipgloss.Color("#c586c0"),
			},
			UI: &UIColors{
				Border:  lipgloss.Color("#3c3c3c"),
				Header:  lipgloss.Color("#cccccc"),
				Info:    lipgloss.Color("#569cd6"),
				Warning: lipgloss.Color("#dcdcaa"),
				Error:   lipgloss.Color("#f44747"),
				Success: lipgloss.Color("#4ec9b0"),
			},
		},
	}
}

// GetLightTheme returns a light theme
func GetLightTheme() *Theme {
	return &Theme{
		Name:        "light",
		Description: "Light theme",
		Colors: &ColorScheme{
			Background: lipgloss.Color("#ffffff"),
			Foreground: lipgloss.Color("#000000"),
			Selection: &SelectionColors{
				Border:     lipgloss.Color("#0078d4"),
				Foreground: lipgloss.Color("#0078d4"),
			},
			Post: &PostColors{
				Author: lipgloss.Color("#323130"),
				Handle: lipgloss.Color("#107c10"),
				Meta:   lipgloss.Color("#605e5c"),
				Body:   lipgloss.Color("#000000"),
				Counts: lipgloss.Color("#881798"),
			},
			UI: &UIColors{
				Border:  lipgloss.Color("#d1d1d1"),
				Header:  lipgloss.Color("#323130"),
				Info:    lipgloss.Color("#0078d4"),
				Warning: lipgloss.Color("#ffb900"),
				Error:   lipgloss.Color("#d13438"),
				Success: lipgloss.Color("#107c10"),
			},
		},
	}
}

// GetHighContrastTheme returns a high contrast theme for accessibility
func GetHighContrastTheme() *Theme {
	return &Theme{
		Name:        "high-contrast",
		Description: "High contrast theme for accessibility",
		Colors: &ColorScheme{
			Background: lipgloss.Color("#000000"),
			Foreground: lipgloss.Color("#ffffff"),
			Selection: &SelectionColors{
				Border:     lipgloss.Color("#ffff00"),
				Foreground: lipgloss.Color("#ffff00"),
			},
			Post: &PostColors{
				Author: lipgloss.Color("#ffffff"),
				Handle: lipgloss.Color("#00ffff"),
				Meta:   lipgloss.Color("#c0c0c0"),
				Body:   lipgloss.Color("#ffffff"),
				Counts: lipgloss.Color("#ff00ff"),
			},
			UI: &UIColors{
				Border:  lipgloss.Color("#ffffff"),
				Header:  lipgloss.Color("#ffffff"),
				Info:    lipgloss.Color("#00ffff"),
				Warning: lipgloss.Color("#ffff00"),
				Error:   lipgloss.Color("#ff0000"),
				Success: lipgloss.Color("#00ff00"),
			},
		},
	}
}
