package virtual

import (
	"fmt"
	"log"
	"math"
)

// ItemHeight returns the measured or estimated height of key
func ItemHeight[T any](s State[T], key string) int {
	return s.Heights.Get(key)
}

// HasMeasuredHeight reports whether key has been measured
func HasMeasuredHeight[T any](s State[T], key string) bool {
	return s.Heights.Has(key)
}

// DistanceFromTop returns the offset of key from the top edge of the first
// item, counting spacing. The second result is false when key is not listed.
func DistanceFromTop[T any](s State[T], key string, items []DataItem[T]) (int, bool) {
	d := 0
	for _, it := range items {
		if it.Key == key {
			return d, true
		}
		d += s.Heights.Get(it.Key) + s.Config.ItemSpacing
	}
	return 0, false
}

// ComputeInitialProjection places the items around a restoration record so a
// remounted list can paint its previous position before anything is measured.
//
// Placements are in viewport coordinates (the viewport top is 0). The walk
// only uses items with a measured height and stops at the first unknown one.
// It returns nil when the record's item is missing or was never measured.
func ComputeInitialProjection[T any](s State[T], rec RestorationRecord, items []DataItem[T], viewportHeight int) []MountedItem[T] {
	idx := -1
	for i, it := range items {
		if it.Key == rec.Key {
			idx = i
			break
		}
	}
	if idx < 0 || !s.Heights.Has(rec.Key) {
		return nil
	}

	spacing := s.Config.ItemSpacing

	var forward []MountedItem[T]
	start := rec.OffsetTop
	for i := idx; i < len(items); i++ {
		if i > idx && start >= viewportHeight {
			break
		}
		key := items[i].Key
		if !s.Heights.Has(key) {
			break
		}
		h := s.Heights.Get(key)
		forward = append(forward, MountedItem[T]{Start: start, Height: h, Data: items[i]})
		start += h + spacing
	}

	var backward []MountedItem[T]
	top := rec.OffsetTop
	for i := idx - 1; i >= 0 && top-spacing > 0; i-- {
		key := items[i].Key
		if !s.Heights.Has(key) {
			break
		}
		h := s.Heights.Get(key)
		top = top - spacing - h
		backward = append(backward, MountedItem[T]{Start: top, Height: h, Data: items[i]})
	}

	out := make([]MountedItem[T], 0, len(backward)+len(forward))
	for i := len(backward) - 1; i >= 0; i-- {
		out = append(out, backward[i])
	}
	return append(out, forward...)
}

// anchorCandidate is a mounted item ranked by how much of it is on screen.
type anchorCandidate struct {
	info     ItemInfo
	index    int
	fraction float64
	visible  int
}

// moreVisible is a total order: larger visible fraction, then more visible
// units, then lower list index.
func moreVisible(a, b anchorCandidate) bool {
	if a.fraction != b.fraction {
		return a.fraction > b.fraction
	}
	if a.visible != b.visible {
		return a.visible > b.visible
	}
	return a.index < b.index
}

// CommonProjectionItem selects the anchor for the next pass. The anchor keeps
// its current start while everything else is laid out around it.
func CommonProjectionItem[T any](s State[T], rect Rect, items []DataItem[T]) (ItemInfo, bool) {
	if len(items) == 0 {
		return ItemInfo{}, false
	}
	index := indexByKey(items)

	if rect.Top <= 0 && !s.Initial {
		// Scrolled to the very top: hold the bottom of the mounted block still
		// so newer items land above it.
		for i := len(s.Mounted) - 1; i >= 0; i-- {
			m := s.Mounted[i]
			if _, ok := index[m.Data.Key]; ok {
				return ItemInfo{
					Key:      m.Data.Key,
					Start:    m.Start,
					Height:   m.Height,
					Visible:  m.Rect().Overlaps(rect),
					MaybeRef: true,
				}, true
			}
		}
		if len(s.Mounted) == 0 {
			return headAnchor(s, items), true
		}
	}

	var best *anchorCandidate
	for _, m := range s.Mounted {
		idx, ok := index[m.Data.Key]
		if !ok {
			continue
		}
		r := m.Rect()
		c := anchorCandidate{
			info: ItemInfo{
				Key:      m.Data.Key,
				Start:    m.Start,
				Height:   m.Height,
				Visible:  r.Overlaps(rect),
				MaybeRef: true,
			},
			index:    idx,
			fraction: r.VisibleFraction(rect),
			visible:  r.VisibleHeight(rect),
		}
		if best == nil || moreVisible(c, *best) {
			best = &c
		}
	}
	if best != nil {
		return best.info, true
	}

	if info, ok := neighbourAnchor(s, index); ok {
		return info, true
	}

	for _, it := range items {
		if it.MaybeRef && s.Heights.Has(it.Key) {
			d, _ := DistanceFromTop(s, it.Key, items)
			return ItemInfo{Key: it.Key, Start: d, Height: s.Heights.Get(it.Key), MaybeRef: true}, true
		}
	}

	return headAnchor(s, items), true
}

func headAnchor[T any](s State[T], items []DataItem[T]) ItemInfo {
	return ItemInfo{
		Key:      items[0].Key,
		Start:    0,
		Height:   s.Heights.Get(items[0].Key),
		MaybeRef: items[0].MaybeRef,
	}
}

// neighbourAnchor finds the surviving item closest to the previous anchor in
// the previous pass's order and keeps it at its previous start.
func neighbourAnchor[T any](s State[T], index map[string]int) (ItemInfo, bool) {
	if s.Anchor == "" || len(s.Items) == 0 {
		return ItemInfo{}, false
	}
	prev := -1
	for i, it := range s.Items {
		if it.Key == s.Anchor {
			prev = i
			break
		}
	}
	if prev < 0 {
		return ItemInfo{}, false
	}
	for d := 0; d < len(s.Items); d++ {
		for _, i := range []int{prev + d, prev - d} {
			if i < 0 || i >= len(s.Items) {
				continue
			}
			if _, ok := index[s.Items[i].Key]; ok {
				info := s.Items[i]
				info.MaybeRef = true
				return info, true
			}
		}
	}
	return ItemInfo{}, false
}

// UpdateProjection lays out every item around anchor, chooses the slice to
// mount for rect and reports the scroll correction that keeps the anchor
// visually fixed. It returns the next state and the projection to render.
func UpdateProjection[T any](s State[T], anchor ItemInfo, rect Rect, items []DataItem[T]) (State[T], Projection[T]) {
	next := s
	n := len(items)
	if n == 0 {
		next.Slice = Slice{}
		next.Mounted = nil
		next.Items = nil
		next.ListHeight = 0
		next.Anchor = ""
		return next, Projection[T]{}
	}

	spacing := s.Config.ItemSpacing
	overscan := s.Config.Overscan

	anchorIdx := -1
	for i, it := range items {
		if it.Key == anchor.Key {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		anchorIdx = 0
		anchor = headAnchor(s, items)
	}

	heights := make([]int, n)
	for i, it := range items {
		heights[i] = s.Heights.Get(it.Key)
	}

	dist := 0
	for i := 0; i < anchorIdx; i++ {
		dist += heights[i] + spacing
	}
	// With the anchor held at its start, the first item lands at origin.
	// Rebasing the list to 0 is compensated by scrolling the same amount.
	correction := anchor.Start - dist

	all := make([]ItemInfo, n)
	pos := 0
	for i, it := range items {
		all[i] = ItemInfo{Key: it.Key, Start: pos, Height: heights[i], MaybeRef: it.MaybeRef}
		pos += heights[i] + spacing
	}
	listHeight := all[n-1].Start + all[n-1].Height - all[0].Start

	view := rect.Offset(-correction)
	for i := range all {
		all[i].Visible = all[i].Rect().Overlaps(view)
	}

	visible, ok := rangeOverlapping(all, view)
	if !ok {
		visible = nearestSlice(all, view)
	}
	margin := int(math.Round(float64(rect.Height) * s.Config.PrefetchRatio))
	prefetch, ok := rangeOverlapping(all, view.Expand(margin))
	if !ok {
		prefetch = visible
	}
	prefetch.Start = min(prefetch.Start, visible.Start)
	prefetch.End = max(prefetch.End, visible.End)

	budget := Slice{Start: max(0, visible.Start-overscan), End: min(n, visible.End+overscan)}
	target := Slice{Start: max(prefetch.Start, budget.Start), End: min(prefetch.End, budget.End)}

	current := remapSlice(s.Mounted, items)
	var slice Slice
	switch {
	case current.Empty():
		slice = target
	case current.Contains(target) && current.Len() <= visible.Len()+2*overscan:
		slice = current
	case current.Disjoint(target):
		slice = target
	default:
		slice = Slice{Start: min(current.Start, target.Start), End: max(current.End, target.End)}
		slice.Start = max(slice.Start, budget.Start)
		slice.End = min(slice.End, budget.End)
	}
	slice.Start = max(slice.Start, 0)
	slice.End = min(slice.End, n)

	mounted := make([]MountedItem[T], 0, slice.Len())
	measured := true
	for i := slice.Start; i < slice.End; i++ {
		mounted = append(mounted, MountedItem[T]{Start: all[i].Start, Height: all[i].Height, Data: items[i]})
		if !s.Heights.Has(items[i].Key) {
			measured = false
		}
	}
	mustMeasure := measured && (!s.IsScrolling || s.Initial)

	next.Slice = slice
	next.Mounted = mounted
	next.Items = all
	next.ListHeight = listHeight
	next.Anchor = anchor.Key
	if mustMeasure {
		next.Initial = false
	}

	return next, Projection[T]{
		Mounted:     mounted,
		ListHeight:  listHeight,
		Correction:  correction,
		MustMeasure: mustMeasure,
		Slice:       slice,
	}
}

// MeasureItemHeights reads every probe and stores heights that changed.
// A probe that panics, fails or reports a negative height is skipped for this
// tick and the previous value is kept.
func MeasureItemHeights[T any](s State[T], probes []HeightProbe) bool {
	changed := false
	for _, p := range probes {
		h, err := measure(p)
		if err != nil {
			log.Printf("virtual: skipping height probe %q: %v", p.Key(), err)
			continue
		}
		if s.Heights.Set(p.Key(), h) {
			changed = true
		}
	}
	return changed
}

func measure(p HeightProbe) (h int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	h, err = p.MeasureHeight()
	if err != nil {
		return 0, err
	}
	if h < 0 {
		return 0, fmt.Errorf("negative height %d", h)
	}
	return h, nil
}

func indexByKey[T any](items []DataItem[T]) map[string]int {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.Key] = i
	}
	return index
}

// rangeOverlapping returns the contiguous range of items overlapping r.
func rangeOverlapping(all []ItemInfo, r Rect) (Slice, bool) {
	start := -1
	end := -1
	for i, it := range all {
		if it.Start >= r.Bottom() {
			break
		}
		if it.Rect().Overlaps(r) {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	if start < 0 {
		return Slice{}, false
	}
	return Slice{Start: start, End: end}, true
}

// nearestSlice returns the single item closest to r when nothing overlaps it,
// e.g. when the viewport sits past the end of a list that just shrank.
func nearestSlice(all []ItemInfo, r Rect) Slice {
	n := len(all)
	if r.Top >= all[n-1].Start {
		return Slice{Start: n - 1, End: n}
	}
	for i, it := range all {
		if it.Start >= r.Top {
			return Slice{Start: i, End: i + 1}
		}
	}
	return Slice{Start: n - 1, End: n}
}

// remapSlice recovers the index range of the previously mounted block in the
// new item list by key, so inserts and removals elsewhere do not shift it.
func remapSlice[T any](mounted []MountedItem[T], items []DataItem[T]) Slice {
	if len(mounted) == 0 {
		return Slice{}
	}
	first, last := -1, -1
	firstKey := mounted[0].Data.Key
	lastKey := mounted[len(mounted)-1].Data.Key
	for i, it := range items {
		if it.Key == firstKey {
			first = i
		}
		if it.Key == lastKey {
			last = i
		}
	}
	if first < 0 || last < first {
		return Slice{}
	}
	return Slice{Start: first, End: last + 1}
}
