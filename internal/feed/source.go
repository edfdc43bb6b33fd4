package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/utils/clock"
)

// archive holds every post of a source, oldest first, and serves pages
// relative to a post ID.
type archive struct {
	posts []Post
	index map[string]int
}

func newArchive() *archive {
	return &archive{index: make(map[string]int)}
}

func (a *archive) add(p Post) {
	a.index[p.ID] = len(a.posts)
	a.posts = append(a.posts, p)
}

func (a *archive) page(cursor string, dir Direction, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var start, end int
	switch dir {
	case Newer:
		if cursor == "" {
			return Page{}, nil
		}
		idx, ok := a.index[cursor]
		if !ok {
			return Page{}, fmt.Errorf("%w: %s", ErrUnknownCursor, cursor)
		}
		start = idx + 1
		end = min(start+limit, len(a.posts))
	default:
		end = len(a.posts)
		if cursor != "" {
			idx, ok := a.index[cursor]
			if !ok {
				return Page{}, fmt.Errorf("%w: %s", ErrUnknownCursor, cursor)
			}
			end = idx
		}
		start = max(end-limit, 0)
	}

	posts := make([]Post, 0, end-start)
	for i := end - 1; i >= start; i-- {
		posts = append(posts, a.posts[i])
	}

	hasMore := start > 0
	if dir == Newer {
		hasMore = end < len(a.posts)
	}
	return Page{Posts: posts, HasMore: hasMore}, nil
}

// GeneratedOptions configures a GeneratedSource
type GeneratedOptions struct {
	Seed  int64
	Count int
	// Clock stamps generated posts. Defaults to the real clock.
	Clock clock.PassiveClock
	// Latency delays every fetch to mimic a network round trip.
	Latency time.Duration
}

// GeneratedSource is a deterministic synthetic feed. The same seed always
// produces the same posts, IDs included.
type GeneratedSource struct {
	mu      sync.Mutex
	rng     *rand.Rand
	clock   clock.PassiveClock
	latency time.Duration
	archive *archive
}

var (
	_ Source    = (*GeneratedSource)(nil)
	_ Publisher = (*GeneratedSource)(nil)
)

// NewGeneratedSource creates a source with opts.Count posts spread over the
// past few days
func NewGeneratedSource(opts GeneratedOptions) *GeneratedSource {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	s := &GeneratedSource{
		rng:     rand.New(rand.NewSource(opts.Seed)),
		clock:   opts.Clock,
		latency: opts.Latency,
		archive: newArchive(),
	}

	now := opts.Clock.Now()
	stamps := make([]time.Time, opts.Count)
	at := now
	for i := range stamps {
		at = at.Add(-time.Duration(1+s.rng.Intn(90)) * time.Minute)
		stamps[i] = at
	}
	for i := len(stamps) - 1; i >= 0; i-- {
		s.archive.add(s.generate(stamps[i]))
	}
	return s
}

// FetchPage returns up to limit posts on the dir side of cursor
func (s *GeneratedSource) FetchPage(ctx context.Context, cursor string, dir Direction, limit int) (Page, error) {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-time.After(s.latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archive.page(cursor, dir, limit)
}

// Publish appends n new posts at the head of the feed
func (s *GeneratedSource) Publish(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for i := 0; i < n; i++ {
		s.archive.add(s.generate(now))
	}
	return n
}

// Len returns the number of posts the source holds
func (s *GeneratedSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.archive.posts)
}

var (
	authors = []struct{ name, handle string }{
		{"Ada Park", "ada"},
		{"Bruno Costa", "bcosta"},
		{"Chidi Okafor", "chidi"},
		{"Dana Whitfield", "dana.w"},
		{"Emil Sørensen", "emil"},
		{"Farah Haddad", "farah"},
		{"Goran Ilić", "goran"},
		{"Hana Mori", "hmori"},
	}

	words = strings.Fields(`the a terminal feed scroll anchor list window height measure
		render frame cache buffer page cursor post reply thread release patch build deploy
		latency queue timer throttle debounce rust go lipgloss bubble tea config yaml
		morning coffee train weekend garden bicycle river mountain library concert
		shipped fixed broke tested reviewed merged rewrote profiled benchmarked`)

	snippets = []string{
		"`go test ./...`",
		"**finally**",
		"_again_",
		"https://example.com/notes",
	}
)

// generate creates one post stamped at. The caller holds s.mu.
func (s *GeneratedSource) generate(at time.Time) Post {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	author := authors[s.rng.Intn(len(authors))]

	var body strings.Builder
	paragraphs := 1 + s.rng.Intn(3)
	if s.rng.Intn(4) == 0 {
		paragraphs = 1
	}
	for p := 0; p < paragraphs; p++ {
		if p > 0 {
			body.WriteString("\n\n")
		}
		n := 3 + s.rng.Intn(40)
		for w := 0; w < n; w++ {
			if w > 0 {
				body.WriteByte(' ')
			}
			if s.rng.Intn(25) == 0 {
				body.WriteString(snippets[s.rng.Intn(len(snippets))])
				continue
			}
			body.WriteString(words[s.rng.Intn(len(words))])
		}
		body.WriteByte('.')
	}

	return Post{
		ID:        id.String(),
		Author:    author.name,
		Handle:    author.handle,
		Body:      body.String(),
		CreatedAt: at,
		Likes:     s.rng.Intn(500),
		Reposts:   s.rng.Intn(80),
		Replies:   s.rng.Intn(40),
	}
}

// FixtureSource serves posts loaded from a JSON file
type FixtureSource struct {
	archive *archive
}

var _ Source = (*FixtureSource)(nil)

// fixtureFile is the layout of a fixture: {"posts": [...]}, any order
type fixtureFile struct {
	Posts []Post `json:"posts"`
}

// LoadFixture reads a fixture file. Comments and trailing commas are allowed.
func LoadFixture(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture builds a source from fixture contents
func ParseFixture(data []byte) (*FixtureSource, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	var file fixtureFile
	if err := json.Unmarshal(standardized, &file); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	var errs []error
	ids := make(map[string]int, len(file.Posts))
	for i, p := range file.Posts {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("posts[%d]: missing id", i))
			continue
		}
		if prev, dup := ids[p.ID]; dup {
			errs = append(errs, fmt.Errorf("posts[%d]: duplicate id %q (first at posts[%d])", i, p.ID, prev))
			continue
		}
		ids[p.ID] = i
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	posts := append([]Post(nil), file.Posts...)
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})

	a := newArchive()
	for _, p := range posts {
		a.add(p)
	}
	return &FixtureSource{archive: a}, nil
}

// FetchPage returns up to limit posts on the dir side of cursor
func (s *FixtureSource) FetchPage(ctx context.Context, cursor string, dir Direction, limit int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	return s.archive.page(cursor, dir, limit)
}
