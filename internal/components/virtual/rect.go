package virtual

// Rect is a vertical span in list content coordinates.
type Rect struct {
	Top    int
	Height int
}

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() int {
	return r.Top + r.Height
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Height <= 0
}

// Overlaps reports whether the two rects share at least one unit
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Top < o.Bottom() && o.Top < r.Bottom()
}

// Contains reports whether o lies entirely within r
func (r Rect) Contains(o Rect) bool {
	return o.Top >= r.Top && o.Bottom() <= r.Bottom()
}

// Intersect returns the overlapping span, or an empty rect when there is none
func (r Rect) Intersect(o Rect) Rect {
	top := max(r.Top, o.Top)
	bottom := min(r.Bottom(), o.Bottom())
	if bottom <= top {
		return Rect{Top: top}
	}
	return Rect{Top: top, Height: bottom - top}
}

// VisibleHeight returns how much of r is inside the viewport
func (r Rect) VisibleHeight(viewport Rect) int {
	return r.Intersect(viewport).Height
}

// VisibleFraction returns the share of r that is inside the viewport, in [0, 1].
// Zero-height rects are never visible.
func (r Rect) VisibleFraction(viewport Rect) float64 {
	if r.Height <= 0 {
		return 0
	}
	return float64(r.VisibleHeight(viewport)) / float64(r.Height)
}

// Expand grows the rect by margin above and below
func (r Rect) Expand(margin int) Rect {
	return Rect{Top: r.Top - margin, Height: r.Height + 2*margin}
}

// Offset moves the rect by delta
func (r Rect) Offset(delta int) Rect {
	return Rect{Top: r.Top + delta, Height: r.Height}
}
