package feed

import (
	"github.com/HamStudy/feedview/internal/components/virtual"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Timeline is the loaded part of a feed, newest first. Pages are merged at
// either end and duplicate posts are dropped.
type Timeline struct {
	posts    []Post
	seen     sets.Set[string]
	hasOlder bool
	hasNewer bool
}

// NewTimeline creates an empty timeline that expects a first page
func NewTimeline() *Timeline {
	return &Timeline{
		seen:     sets.New[string](),
		hasOlder: true,
	}
}

// Apply merges a page fetched in dir and returns how many posts were new
func (t *Timeline) Apply(dir Direction, page Page) int {
	fresh := make([]Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		if p.ID == "" || t.seen.Has(p.ID) {
			continue
		}
		t.seen.Insert(p.ID)
		fresh = append(fresh, p)
	}

	switch dir {
	case Newer:
		t.posts = append(fresh, t.posts...)
		t.hasNewer = page.HasMore
	default:
		t.posts = append(t.posts, fresh...)
		t.hasOlder = page.HasMore
	}
	return len(fresh)
}

// Remove drops the post with id
func (t *Timeline) Remove(id string) bool {
	if !t.seen.Has(id) {
		return false
	}
	for i, p := range t.posts {
		if p.ID == id {
			t.posts = append(t.posts[:i:i], t.posts[i+1:]...)
			t.seen.Delete(id)
			return true
		}
	}
	return false
}

// MarkNewer records that the source has posts newer than the head
func (t *Timeline) MarkNewer() {
	t.hasNewer = true
}

// Posts returns the loaded posts, newest first
func (t *Timeline) Posts() []Post {
	return t.posts
}

// Len returns the number of loaded posts
func (t *Timeline) Len() int {
	return len(t.posts)
}

// Newest returns the ID of the first post
func (t *Timeline) Newest() string {
	if len(t.posts) == 0 {
		return ""
	}
	return t.posts[0].ID
}

// Oldest returns the ID of the last post
func (t *Timeline) Oldest() string {
	if len(t.posts) == 0 {
		return ""
	}
	return t.posts[len(t.posts)-1].ID
}

// HasOlder reports whether older posts may still be fetched
func (t *Timeline) HasOlder() bool {
	return t.hasOlder
}

// HasNewer reports whether newer posts are known to exist
func (t *Timeline) HasNewer() bool {
	return t.hasNewer
}

// Post returns the post with id
func (t *Timeline) Post(id string) (Post, bool) {
	if !t.seen.Has(id) {
		return Post{}, false
	}
	for _, p := range t.posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

// Items returns the timeline as virtual list items. Every post may anchor
// the scroll position.
func (t *Timeline) Items() []virtual.DataItem[Post] {
	items := make([]virtual.DataItem[Post], len(t.posts))
	for i, p := range t.posts {
		items[i] = virtual.DataItem[Post]{Key: p.ID, Payload: p, MaybeRef: true}
	}
	return items
}
