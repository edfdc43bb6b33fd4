package virtual

// DataItem is one entry of the ordered item list supplied by the data layer.
type DataItem[T any] struct {
	Key     string
	Payload T
	// MaybeRef marks items whose on-screen position is authoritative and that
	// may therefore serve as the scroll anchor.
	MaybeRef bool
}

// ItemInfo is the computed placement of one item for a single pass.
type ItemInfo struct {
	Key      string
	Start    int
	Height   int
	Visible  bool
	MaybeRef bool
}

// Rect returns the vertical span covered by the item
func (i ItemInfo) Rect() Rect {
	return Rect{Top: i.Start, Height: i.Height}
}

// MountedItem is an item that is attached to the rendering layer.
type MountedItem[T any] struct {
	Start  int
	Height int
	Data   DataItem[T]
}

// Rect returns the vertical span covered by the mounted item
func (m MountedItem[T]) Rect() Rect {
	return Rect{Top: m.Start, Height: m.Height}
}

// Slice is a half-open index range [Start, End) into the item list.
type Slice struct {
	Start int
	End   int
}

// Len returns the number of items in the slice
func (s Slice) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Empty reports whether the slice holds no items
func (s Slice) Empty() bool {
	return s.Len() == 0
}

// Contains reports whether o lies entirely within s
func (s Slice) Contains(o Slice) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Disjoint reports whether s and o share no index
func (s Slice) Disjoint(o Slice) bool {
	return o.End <= s.Start || o.Start >= s.End
}

// Config holds the layout parameters of a virtual list.
type Config struct {
	EstimatedHeight int
	Overscan        int
	ItemSpacing     int
	// PrefetchRatio is the share of the viewport height added above and below
	// the visible rect when selecting items to mount.
	PrefetchRatio   float64
	HeightCacheSize int
}

// DefaultConfig returns the layout defaults
func DefaultConfig() Config {
	return Config{
		EstimatedHeight: 100,
		Overscan:        5,
		ItemSpacing:     0,
		PrefetchRatio:   1.5,
		HeightCacheSize: DefaultHeightCacheSize,
	}
}

// State is the explicit state threaded through the projection functions.
// Every field except Heights is replaced wholesale by UpdateProjection.
type State[T any] struct {
	Config  Config
	Heights *HeightCache

	Slice      Slice
	Mounted    []MountedItem[T]
	Items      []ItemInfo
	ListHeight int

	// Anchor is the key the last pass was anchored on.
	Anchor string

	IsScrolling bool
	// Initial stays true until a pass produced a fully measured projection.
	Initial bool
}

// NewState creates the state of a list that has never been projected
func NewState[T any](cfg Config) State[T] {
	if cfg.PrefetchRatio <= 0 {
		cfg.PrefetchRatio = 1.5
	}
	if cfg.Overscan < 0 {
		cfg.Overscan = 0
	}
	return State[T]{
		Config:  cfg,
		Heights: NewHeightCache(cfg.EstimatedHeight, cfg.HeightCacheSize),
		Initial: true,
	}
}

// Projection is the output of one UpdateProjection pass.
type Projection[T any] struct {
	Mounted    []MountedItem[T]
	ListHeight int
	// Correction is the shift applied to every placement of this pass. The host
	// must call Viewport.ScrollBy(-Correction) before painting.
	Correction  int
	MustMeasure bool
	Slice       Slice
}

// Placement positions one mounted item for the rendering layer.
type Placement struct {
	Key             string
	TransformOffset int
}

// Placements returns the key and offset of each mounted item in list order
func (p Projection[T]) Placements() []Placement {
	out := make([]Placement, len(p.Mounted))
	for i, m := range p.Mounted {
		out[i] = Placement{Key: m.Data.Key, TransformOffset: m.Start}
	}
	return out
}

// HeightProbe reports the current rendered height of one mounted item.
type HeightProbe interface {
	Key() string
	MeasureHeight() (int, error)
}

// ProbeFunc adapts a function to the HeightProbe interface.
type ProbeFunc struct {
	ItemKey string
	Measure func() (int, error)
}

func (p ProbeFunc) Key() string { return p.ItemKey }

func (p ProbeFunc) MeasureHeight() (int, error) { return p.Measure() }
