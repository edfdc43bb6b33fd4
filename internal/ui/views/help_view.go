package views

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpEntry is one key binding line of the help screen
type HelpEntry struct {
	Keys        string
	Description string
}

// sectionOrder lists the known sections first; others follow alphabetically
var sectionOrder = []string{"Navigation", "Feeds", "Display", "General"}

// HelpView displays help information
type HelpView struct {
	width    int
	height   int
	title    string
	sections map[string][]HelpEntry
}

// NewHelpView creates a new help view
func NewHelpView() *HelpView {
	return &HelpView{title: "feedview - Help"}
}

// SetContent sets the title and key binding sections to show
func (v *HelpView) SetContent(title string, sections map[string][]HelpEntry) {
	v.title = title
	v.sections = sections
}

// SetSize sets the screen size
func (v *HelpView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Init initializes the view
func (v *HelpView) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (v *HelpView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	}
	return v, nil
}

// View renders the help screen
func (v *HelpView) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("229")).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var help strings.Builder

	help.WriteString(titleStyle.Render(v.title))
	help.WriteString("\n")

	for _, name := range v.sectionNames() {
		entries := append([]HelpEntry(nil), v.sections[name]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Keys < entries[j].Keys })

		help.WriteString(sectionStyle.Render(name))
		help.WriteString("\n")
		for _, e := range entries {
			help.WriteString(keyStyle.Render(e.Keys) + descStyle.Render(e.Description) + "\n")
		}
	}

	help.WriteString("\n")
	help.WriteString(descStyle.Render("Press ? or Esc to close help"))

	return lipgloss.Place(
		v.width,
		v.height,
		lipgloss.Center,
		lipgloss.Center,
		help.String(),
	)
}

func (v *HelpView) sectionNames() []string {
	var names []string
	known := make(map[string]bool, len(sectionOrder))
	for _, name := range sectionOrder {
		known[name] = true
		if len(v.sections[name]) > 0 {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range v.sections {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
