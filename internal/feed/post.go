// Package feed holds the post model, the sources posts are paged from and
// the card renderer.
package feed

import (
	"context"
	"errors"
	"time"
)

// DefaultPageSize is used when a fetch does not ask for a size
const DefaultPageSize = 25

// ErrUnknownCursor is returned when a page is requested relative to a post
// the source does not know.
var ErrUnknownCursor = errors.New("unknown cursor")

// Post is a single feed entry
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Handle    string    `json:"handle"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	Replies   int       `json:"replies"`
}

// Direction selects which side of the cursor a page is read from
type Direction int

const (
	// Older pages run from the cursor towards the oldest post
	Older Direction = iota
	// Newer pages run from the cursor towards the newest post
	Newer
)

func (d Direction) String() string {
	if d == Newer {
		return "newer"
	}
	return "older"
}

// Page is one batch of posts, newest first
type Page struct {
	Posts []Post
	// HasMore reports whether more posts exist past this page in the
	// requested direction
	HasMore bool
}

// Source pages posts relative to a cursor. An empty cursor with Older
// returns the newest posts.
type Source interface {
	FetchPage(ctx context.Context, cursor string, dir Direction, limit int) (Page, error)
}

// Publisher is implemented by sources that grow new posts over time
type Publisher interface {
	// Publish adds up to n newer posts and returns how many were added
	Publish(n int) int
}
