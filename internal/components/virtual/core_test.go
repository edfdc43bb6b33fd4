package virtual

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(prefix string, n int) []DataItem[int] {
	items := make([]DataItem[int], n)
	for i := range items {
		items[i] = DataItem[int]{Key: fmt.Sprintf("%s-%d", prefix, i), Payload: i, MaybeRef: true}
	}
	return items
}

func measureAll(s State[int], items []DataItem[int], height int) {
	for _, it := range items {
		s.Heights.Set(it.Key, height)
	}
}

// pass runs one projection the way the controller does and applies the
// correction to scrollTop.
func pass(s State[int], items []DataItem[int], scrollTop *int, viewportHeight int) (State[int], Projection[int]) {
	rect := Rect{Top: *scrollTop, Height: viewportHeight}
	anchor, _ := CommonProjectionItem(s, rect, items)
	next, proj := UpdateProjection(s, anchor, rect, items)
	*scrollTop -= proj.Correction
	return next, proj
}

func TestInitialSliceAndJump(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ItemSpacing = 8
	s := NewState[int](cfg)
	items := makeItems("item", 100)

	scrollTop := 0
	s, proj := pass(s, items, &scrollTop, 800)

	assert.Equal(t, Slice{Start: 0, End: 13}, proj.Slice)
	assert.Equal(t, 10792, proj.ListHeight)
	assert.Equal(t, 0, proj.Correction)
	assert.False(t, proj.MustMeasure, "estimated items are not ready to measure")
	assert.True(t, s.Initial)

	scrollTop = 2000
	_, proj = pass(s, items, &scrollTop, 800)
	assert.Equal(t, Slice{Start: 13, End: 31}, proj.Slice)
	assert.Equal(t, 2000, scrollTop)
}

func TestHeightSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ItemSpacing = 3
	s := NewState[int](cfg)
	items := makeItems("item", 30)
	for i, it := range items {
		s.Heights.Set(it.Key, 10+i%7)
	}

	scrollTop := 0
	s, proj := pass(s, items, &scrollTop, 100)

	sum := 0
	for i, it := range items {
		require.Equal(t, sum, s.Items[i].Start, "start of %s", it.Key)
		sum += s.Heights.Get(it.Key)
		if i < len(items)-1 {
			sum += cfg.ItemSpacing
		}
	}
	assert.Equal(t, sum, proj.ListHeight)
}

func TestAnchorStableUnderPrepend(t *testing.T) {
	s := NewState[int](DefaultConfig())
	items := makeItems("item", 50)
	measureAll(s, items, 100)

	scrollTop := 1000
	s, proj := pass(s, items, &scrollTop, 800)
	require.Equal(t, 0, proj.Correction)
	require.True(t, proj.MustMeasure)
	require.False(t, s.Initial)

	anchorKey := "item-10"
	before := findMounted(t, proj, anchorKey).Start - scrollTop

	newer := makeItems("new", 5)
	measureAll(s, newer, 120)
	items = append(newer, items...)

	s, proj = pass(s, items, &scrollTop, 800)
	assert.Equal(t, -600, proj.Correction)
	assert.Equal(t, 1600, scrollTop)
	after := findMounted(t, proj, anchorKey).Start - scrollTop
	assert.InDelta(t, before, after, 1)
	assert.Equal(t, Slice{Start: 10, End: 28}, proj.Slice)

	// Another pass over unchanged input is a no-op
	_, again := pass(s, items, &scrollTop, 800)
	assert.Equal(t, 0, again.Correction)
	assert.Equal(t, proj.Slice, again.Slice)
	assert.Equal(t, proj.ListHeight, again.ListHeight)
	assert.Equal(t, proj.Placements(), again.Placements())
}

func findMounted(t *testing.T, proj Projection[int], key string) MountedItem[int] {
	t.Helper()
	for _, m := range proj.Mounted {
		if m.Data.Key == key {
			return m
		}
	}
	t.Fatalf("%s is not mounted", key)
	return MountedItem[int]{}
}

func TestSliceBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overscan = 3
	s := NewState[int](cfg)
	items := makeItems("item", 200)
	for i, it := range items {
		s.Heights.Set(it.Key, 20+(i*37)%90)
	}

	viewportHeight := 300
	scrollTop := 0
	for step := 0; step < 60; step++ {
		var proj Projection[int]
		s, proj = pass(s, items, &scrollTop, viewportHeight)

		view := Rect{Top: scrollTop, Height: viewportHeight}
		visible := 0
		for i, info := range s.Items {
			if info.Rect().Overlaps(view) {
				visible++
				assert.True(t, i >= proj.Slice.Start && i < proj.Slice.End,
					"step %d: visible item %d outside slice %v", step, i, proj.Slice)
			}
		}
		assert.LessOrEqual(t, proj.Slice.Len(), visible+2*cfg.Overscan, "step %d", step)

		scrollTop += 97 * (step%5 + 1)
		if scrollTop > proj.ListHeight-viewportHeight {
			scrollTop = 0
		}
	}
}

func TestComputeInitialProjection(t *testing.T) {
	s := NewState[int](DefaultConfig())
	items := makeItems("item", 100)
	measureAll(s, items, 100)

	mounted := ComputeInitialProjection(s, RestorationRecord{Key: "item-42", OffsetTop: 320}, items, 800)

	require.NotEmpty(t, mounted)
	assert.Equal(t, "item-38", mounted[0].Data.Key)
	assert.Equal(t, -80, mounted[0].Start)
	assert.Equal(t, "item-46", mounted[len(mounted)-1].Data.Key)
	assert.Equal(t, 320, findMounted(t, Projection[int]{Mounted: mounted}, "item-42").Start)

	for i := 1; i < len(mounted); i++ {
		assert.Equal(t, mounted[i-1].Start+mounted[i-1].Height, mounted[i].Start)
	}
}

func TestComputeInitialProjectionStopsAtUnmeasured(t *testing.T) {
	s := NewState[int](DefaultConfig())
	items := makeItems("item", 10)
	for _, i := range []int{3, 4, 5} {
		s.Heights.Set(items[i].Key, 100)
	}

	mounted := ComputeInitialProjection(s, RestorationRecord{Key: "item-4", OffsetTop: 300}, items, 800)
	assert.Equal(t, []string{"item-3", "item-4", "item-5"}, mountedKeys(mounted))

	assert.Nil(t, ComputeInitialProjection(s, RestorationRecord{Key: "item-7"}, items, 800), "unmeasured record")
	assert.Nil(t, ComputeInitialProjection(s, RestorationRecord{Key: "gone"}, items, 800), "missing record")
}

func mountedKeys(mounted []MountedItem[int]) []string {
	out := make([]string, len(mounted))
	for i, m := range mounted {
		out[i] = m.Data.Key
	}
	return out
}

func TestCommonProjectionItem(t *testing.T) {
	items := makeItems("item", 10)

	t.Run("empty list", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		_, ok := CommonProjectionItem(s, Rect{Top: 0, Height: 100}, []DataItem[int]{})
		assert.False(t, ok)
	})

	t.Run("head when nothing is known", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		anchor, ok := CommonProjectionItem(s, Rect{Top: 0, Height: 100}, items)
		require.True(t, ok)
		assert.Equal(t, "item-0", anchor.Key)
		assert.Equal(t, 0, anchor.Start)
	})

	t.Run("most visible mounted item", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		s.Mounted = []MountedItem[int]{
			{Start: 0, Height: 100, Data: items[0]},
			{Start: 100, Height: 100, Data: items[1]},
			{Start: 200, Height: 100, Data: items[2]},
		}
		anchor, ok := CommonProjectionItem(s, Rect{Top: 150, Height: 120}, items)
		require.True(t, ok)
		assert.Equal(t, "item-2", anchor.Key, "the larger visible share wins")
		assert.Equal(t, 200, anchor.Start)
		assert.True(t, anchor.Visible)
	})

	t.Run("ties go to the lower index", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		s.Mounted = []MountedItem[int]{
			{Start: 0, Height: 100, Data: items[0]},
			{Start: 100, Height: 100, Data: items[1]},
		}
		anchor, _ := CommonProjectionItem(s, Rect{Top: 0, Height: 500}, items)
		assert.Equal(t, "item-0", anchor.Key)
	})

	t.Run("top of list holds the last mounted item", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		s.Initial = false
		s.Mounted = []MountedItem[int]{
			{Start: 0, Height: 100, Data: items[0]},
			{Start: 100, Height: 100, Data: items[1]},
		}
		anchor, _ := CommonProjectionItem(s, Rect{Top: 0, Height: 500}, items)
		assert.Equal(t, "item-1", anchor.Key)
		assert.Equal(t, 100, anchor.Start)
	})

	t.Run("neighbour of a removed anchor", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		s.Anchor = "item-4"
		for i := 0; i < 6; i++ {
			s.Items = append(s.Items, ItemInfo{Key: items[i].Key, Start: i * 100, Height: 100})
		}
		remaining := append(append([]DataItem[int]{}, items[:4]...), items[5:]...)

		anchor, ok := CommonProjectionItem(s, Rect{Top: 450, Height: 100}, remaining)
		require.True(t, ok)
		assert.Equal(t, "item-5", anchor.Key)
		assert.Equal(t, 500, anchor.Start)
	})

	t.Run("measured reference item", func(t *testing.T) {
		s := NewState[int](DefaultConfig())
		s.Heights.Set("item-3", 40)
		anchor, _ := CommonProjectionItem(s, Rect{Top: 300, Height: 100}, items)
		assert.Equal(t, "item-3", anchor.Key)
		assert.Equal(t, 120, anchor.Start, "three items at the 40 unit mean")
	})
}

func TestUpdateProjectionEmpty(t *testing.T) {
	s := NewState[int](DefaultConfig())
	s.Mounted = []MountedItem[int]{{Start: 0, Height: 10, Data: DataItem[int]{Key: "a"}}}

	next, proj := UpdateProjection(s, ItemInfo{}, Rect{Height: 100}, nil)
	assert.Empty(t, proj.Mounted)
	assert.Equal(t, 0, proj.ListHeight)
	assert.Empty(t, next.Mounted)
	assert.True(t, next.Slice.Empty())
}

func TestUpdateProjectionShrunkList(t *testing.T) {
	s := NewState[int](DefaultConfig())
	items := makeItems("item", 3)
	measureAll(s, items, 100)

	// Viewport far past the end of a short list
	_, proj := UpdateProjection(s, ItemInfo{Key: "item-0"}, Rect{Top: 5000, Height: 200}, items)
	require.NotEmpty(t, proj.Mounted)
	assert.Equal(t, "item-2", proj.Mounted[len(proj.Mounted)-1].Data.Key)
}

func TestMeasureItemHeights(t *testing.T) {
	s := NewState[int](DefaultConfig())
	s.Heights.Set("a", 10)

	probes := []HeightProbe{
		ProbeFunc{ItemKey: "a", Measure: func() (int, error) { return 10, nil }},
		ProbeFunc{ItemKey: "b", Measure: func() (int, error) { return 0, errors.New("detached") }},
		ProbeFunc{ItemKey: "c", Measure: func() (int, error) { return -4, nil }},
		ProbeFunc{ItemKey: "d", Measure: func() (int, error) { panic("boom") }},
	}
	assert.False(t, MeasureItemHeights(s, probes), "failing probes keep the previous heights")
	assert.False(t, s.Heights.Has("b"))
	assert.False(t, s.Heights.Has("c"))
	assert.False(t, s.Heights.Has("d"))

	probes = append(probes, ProbeFunc{ItemKey: "e", Measure: func() (int, error) { return 0, nil }})
	assert.True(t, MeasureItemHeights(s, probes))
	assert.True(t, s.Heights.Has("e"), "zero is a valid height")
}

func TestRestorationItems(t *testing.T) {
	items := makeItems("item", 4)
	mounted := []MountedItem[int]{
		{Start: 0, Height: 100, Data: items[0]},
		{Start: 100, Height: 100, Data: items[1]},
		{Start: 200, Height: 100, Data: items[2]},
		{Start: 300, Height: 100, Data: items[3]},
	}

	recs := RestorationItems(mounted, Rect{Top: 150, Height: 100})
	assert.Equal(t, []RestorationRecord{
		{Key: "item-1", OffsetTop: -50},
		{Key: "item-2", OffsetTop: 50},
	}, recs)
}
