package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func newTestSource(seed int64, count int) *GeneratedSource {
	return NewGeneratedSource(GeneratedOptions{
		Seed:  seed,
		Count: count,
		Clock: clocktesting.NewFakePassiveClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestGeneratedSourceIsDeterministic(t *testing.T) {
	a := newTestSource(7, 40)
	b := newTestSource(7, 40)

	pa, err := a.FetchPage(context.Background(), "", Older, 40)
	require.NoError(t, err)
	pb, err := b.FetchPage(context.Background(), "", Older, 40)
	require.NoError(t, err)

	if diff := cmp.Diff(pa, pb); diff != "" {
		t.Errorf("same seed produced different feeds (-a +b):\n%s", diff)
	}

	for _, p := range pa.Posts {
		_, err := uuid.Parse(p.ID)
		assert.NoError(t, err, "post id %q", p.ID)
		assert.NotEmpty(t, p.Body)
	}

	c := newTestSource(8, 40)
	pc, _ := c.FetchPage(context.Background(), "", Older, 40)
	assert.NotEqual(t, pa.Posts[0].ID, pc.Posts[0].ID)
}

func TestGeneratedSourcePaging(t *testing.T) {
	src := newTestSource(1, 60)
	ctx := context.Background()

	head, err := src.FetchPage(ctx, "", Older, 25)
	require.NoError(t, err)
	require.Len(t, head.Posts, 25)
	assert.True(t, head.HasMore)
	for i := 1; i < len(head.Posts); i++ {
		assert.False(t, head.Posts[i].CreatedAt.After(head.Posts[i-1].CreatedAt), "pages are newest first")
	}

	tl := NewTimeline()
	tl.Apply(Older, head)
	for tl.HasOlder() {
		page, err := src.FetchPage(ctx, tl.Oldest(), Older, 25)
		require.NoError(t, err)
		tl.Apply(Older, page)
	}
	assert.Equal(t, 60, tl.Len())

	newer, err := src.FetchPage(ctx, tl.Newest(), Newer, 10)
	require.NoError(t, err)
	assert.Empty(t, newer.Posts)
	assert.False(t, newer.HasMore)

	assert.Equal(t, 12, src.Publish(12))
	newer, err = src.FetchPage(ctx, tl.Newest(), Newer, 10)
	require.NoError(t, err)
	assert.Len(t, newer.Posts, 10)
	assert.True(t, newer.HasMore)

	tl.Apply(Newer, newer)
	rest, err := src.FetchPage(ctx, tl.Newest(), Newer, 10)
	require.NoError(t, err)
	assert.Len(t, rest.Posts, 2)
	assert.False(t, rest.HasMore)
	assert.Equal(t, 72, src.Len())
}

func TestGeneratedSourceErrors(t *testing.T) {
	src := newTestSource(1, 5)

	_, err := src.FetchPage(context.Background(), "nope", Older, 5)
	assert.True(t, errors.Is(err, ErrUnknownCursor))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchPage(ctx, "", Older, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixtureSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.jsonc")
	content := `{
  // newest last on purpose
  "posts": [
    {"id": "a", "author": "Ada", "body": "first", "createdAt": "2024-01-01T10:00:00Z"},
    {"id": "c", "author": "Cy", "body": "third", "createdAt": "2024-01-01T12:00:00Z"},
    {"id": "b", "author": "Bo", "body": "second", "createdAt": "2024-01-01T11:00:00Z",},
  ],
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := LoadFixture(path)
	require.NoError(t, err)

	page, err := src.FetchPage(context.Background(), "", Older, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(page.Posts))
	assert.True(t, page.HasMore)

	page, err = src.FetchPage(context.Background(), "b", Older, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(page.Posts))
	assert.False(t, page.HasMore)
}

func TestFixtureValidation(t *testing.T) {
	_, err := ParseFixture([]byte(`{"posts": [{"id": "a"}, {"id": ""}, {"id": "a"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "posts[1]: missing id")
	assert.Contains(t, err.Error(), `posts[2]: duplicate id "a"`)

	_, err = ParseFixture([]byte(`{"posts": `))
	assert.Error(t, err)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
