package feed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/HamStudy/feedview/internal/components/style"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/groupcache/lru"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"k8s.io/utils/clock"
)

// DefaultCardCacheSize bounds the number of rendered cards kept per renderer
const DefaultCardCacheSize = 512

// RenderOptions configures a Renderer
type RenderOptions struct {
	Width    int
	Markdown bool
	// GlamourStyle is a glamour standard style name, or "auto"
	GlamourStyle string
	Clock        clock.PassiveClock
	CacheSize    int
}

// Renderer turns posts into bordered cards. Card height depends on the
// width and the post only, never on selection.
type Renderer struct {
	styles       *style.Manager
	width        int
	markdown     bool
	glamourStyle string
	glamour      *glamour.TermRenderer
	clock        clock.PassiveClock
	cache        *lru.Cache
}

type cardKey struct {
	id       string
	width    int
	selected bool
	markdown bool
	age      string
}

// NewRenderer creates a renderer drawing with styles
func NewRenderer(styles *style.Manager, opts RenderOptions) *Renderer {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCardCacheSize
	}
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = "auto"
	}
	return &Renderer{
		styles:       styles,
		width:        max(opts.Width, 8),
		markdown:     opts.Markdown,
		glamourStyle: opts.GlamourStyle,
		clock:        opts.Clock,
		cache:        lru.New(opts.CacheSize),
	}
}

// SetWidth changes the card width
func (r *Renderer) SetWidth(width int) {
	width = max(width, 8)
	if width == r.width {
		return
	}
	r.width = width
	r.glamour = nil
	r.cache.Clear()
}

// Invalidate drops every cached card, e.g. after a theme change
func (r *Renderer) Invalidate() {
	r.cache.Clear()
}

// Width returns the card width
func (r *Renderer) Width() int {
	return r.width
}

// SetMarkdown toggles markdown rendering of post bodies
func (r *Renderer) SetMarkdown(on bool) {
	r.markdown = on
}

// Markdown reports whether bodies are rendered as markdown
func (r *Renderer) Markdown() bool {
	return r.markdown
}

// Render returns the card for p
func (r *Renderer) Render(p Post, selected bool) string {
	key := cardKey{id: p.ID, width: r.width, selected: selected, markdown: r.markdown, age: FormatAge(r.clock.Since(p.CreatedAt))}
	if card, ok := r.cache.Get(key); ok {
		return card.(string)
	}

	inner := style.CardContentWidth(r.width)
	var b strings.Builder
	b.WriteString(r.header(p, key.age, inner, selected))
	b.WriteByte('\n')
	b.WriteString(r.body(p.Body, inner))
	b.WriteByte('\n')
	b.WriteString(r.styles.Counts().Render(truncate.StringWithTail(
		fmt.Sprintf("♥ %d  ⇄ %d  ↩ %d", p.Likes, p.Reposts, p.Replies), uint(inner), "…")))

	card := r.styles.Card(r.width, selected).Render(b.String())
	r.cache.Add(key, card)
	return card
}

// Height returns the rendered height of p in lines
func (r *Renderer) Height(p Post) int {
	return lipgloss.Height(r.Render(p, false))
}

func (r *Renderer) header(p Post, age string, width int, selected bool) string {
	author := truncate.StringWithTail(p.Author, uint(max(width/2, 1)), "…")
	line := r.styles.Author(selected).Render(author)
	if p.Handle != "" {
		line += " " + r.styles.Handle().Render("@"+p.Handle)
	}
	line += r.styles.Meta().Render(" · " + age)
	return truncate.StringWithTail(line, uint(width), "…")
}

func (r *Renderer) body(text string, width int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return r.styles.Meta().Render("(no text)")
	}
	if r.markdown {
		if out, err := r.renderMarkdown(text, width); err == nil {
			return out
		}
	}
	wrapped := wordwrap.String(text, width)
	// Long words survive word wrapping; cut them so the card keeps its width
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = truncate.StringWithTail(line, uint(width), "…")
	}
	return r.styles.Body().Render(strings.Join(lines, "\n"))
}

func (r *Renderer) renderMarkdown(text string, width int) (string, error) {
	if r.glamour == nil {
		styleOpt := glamour.WithStandardStyle(r.glamourStyle)
		if r.glamourStyle == "auto" {
			styleOpt = glamour.WithAutoStyle()
		}
		g, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
		if err != nil {
			log.Printf("feed: markdown renderer unavailable: %v", err)
			r.markdown = false
			return "", err
		}
		r.glamour = g
	}
	out, err := r.glamour.Render(text)
	if err != nil {
		return "", err
	}
	// glamour pads with blank lines and a left margin
	out = strings.Trim(out, "\n")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = truncate.String(strings.TrimRight(line, " "), uint(width))
	}
	return strings.Join(lines, "\n"), nil
}

// FormatAge returns a compact age such as "45s", "3m", "2h" or "5d"
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	} else if d < 30*24*time.Hour {
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	} else if d < 365*24*time.Hour {
		return fmt.Sprintf("%dmo", int(d.Hours()/24/30))
	}
	return fmt.Sprintf("%dy", int(d.Hours()/24/365))
}
