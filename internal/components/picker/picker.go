package picker

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// Item is one choice of the picker
type Item struct {
	Name string
	// Detail is shown dimmed after the name
	Detail string
}

// Styles draws the picker
type Styles struct {
	Frame    lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Detail   lipgloss.Style
}

// DefaultStyles returns plain styles for use without a theme
func DefaultStyles() Styles {
	return Styles{
		Frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Selected: lipgloss.NewStyle().Reverse(true),
		Normal:   lipgloss.NewStyle(),
		Detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Model is a modal list that picks one item by name
type Model struct {
	items    []Item
	selected int
	open     bool
	width    int
	height   int
	title    string
	styles   Styles
	keyMap   KeyMap
}

// KeyMap defines the key bindings for the picker
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Escape key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "shift+tab"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "tab"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// New creates a closed picker over items
func New(title string, items []Item) Model {
	return Model{
		items:  items,
		width:  40,
		height: 12,
		title:  title,
		styles: DefaultStyles(),
		keyMap: DefaultKeyMap(),
	}
}

// SetItems replaces the items, keeping the selected name when it survives
func (m *Model) SetItems(items []Item) {
	name := m.Selected().Name
	m.items = items
	m.selected = 0
	m.Select(name)
}

// SetStyles changes how the picker is drawn
func (m *Model) SetStyles(styles Styles) {
	m.styles = styles
}

// SetSize sets the outer size of the picker
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Open shows the picker with name selected
func (m *Model) Open(name string) {
	m.Select(name)
	m.open = true
}

// Close hides the picker
func (m *Model) Close() {
	m.open = false
}

// IsOpen returns whether the picker is shown
func (m *Model) IsOpen() bool {
	return m.open
}

// Selected returns the highlighted item
func (m *Model) Selected() Item {
	if m.selected >= 0 && m.selected < len(m.items) {
		return m.items[m.selected]
	}
	return Item{}
}

// Select highlights the item called name, if any
func (m *Model) Select(name string) {
	for i, it := range m.items {
		if it.Name == name {
			m.selected = i
			return
		}
	}
}

// Init initializes the picker
func (m Model) Init() tea.Cmd {
	return nil
}

// Update moves the highlight. Enter and Escape close the picker and report
// the outcome as a PickedMsg or CancelledMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.open || len(m.items) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keyMap.Up):
		m.selected = (m.selected - 1 + len(m.items)) % len(m.items)

	case key.Matches(keyMsg, m.keyMap.Down):
		m.selected = (m.selected + 1) % len(m.items)

	case key.Matches(keyMsg, m.keyMap.Enter):
		m.open = false
		picked := m.Selected()
		return m, func() tea.Msg { return PickedMsg{Item: picked} }

	case key.Matches(keyMsg, m.keyMap.Escape):
		m.open = false
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// View renders the picker, or nothing when it is closed
func (m Model) View() string {
	if !m.open {
		return ""
	}

	frameW := m.styles.Frame.GetHorizontalFrameSize()
	inner := max(m.width-frameW, 4)

	var content strings.Builder
	if m.title != "" {
		content.WriteString(m.styles.Title.Render(truncate.StringWithTail(m.title, uint(inner), "…")))
		content.WriteString("\n")
	}

	start, end := m.window()
	for i := start; i < end; i++ {
		it := m.items[i]
		name := truncate.StringWithTail(it.Name, uint(inner), "…")
		line := name
		if it.Detail != "" && lipgloss.Width(name)+2 < inner {
			detail := truncate.StringWithTail(it.Detail, uint(inner-lipgloss.Width(name)-2), "…")
			line = name + "  " + m.styles.Detail.Render(detail)
		}

		if i == m.selected {
			line = m.styles.Selected.Width(inner).Render(line)
		} else {
			line = m.styles.Normal.Width(inner).Render(line)
		}
		content.WriteString(line)
		if i < end-1 {
			content.WriteString("\n")
		}
	}

	if start > 0 || end < len(m.items) {
		var more string
		if start > 0 {
			more += "↑ "
		}
		if end < len(m.items) {
			more += "↓"
		}
		content.WriteString("\n")
		content.WriteString(m.styles.Detail.Render(more))
	}

	return m.styles.Frame.Width(inner + m.styles.Frame.GetHorizontalPadding()).Render(content.String())
}

// window returns the range of items that fit, keeping the selection centered
func (m Model) window() (int, int) {
	rows := m.height - m.styles.Frame.GetVerticalFrameSize()
	if m.title != "" {
		rows--
	}
	rows = max(rows, 1)
	if len(m.items) <= rows {
		return 0, len(m.items)
	}
	// leave a line for the scroll hint
	rows = max(rows-1, 1)

	start := max(m.selected-rows/2, 0)
	end := start + rows
	if end > len(m.items) {
		end = len(m.items)
		start = max(end-rows, 0)
	}
	return start, end
}

// PickedMsg is sent when an item is chosen
type PickedMsg struct {
	Item Item
}

// CancelledMsg is sent when the picker is dismissed
type CancelledMsg struct{}
