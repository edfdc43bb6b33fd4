package virtual

// RestorationRecord is the persisted anchor of a list: the key of the item
// that was at the top of the viewport and its offset from the viewport top.
type RestorationRecord struct {
	Key       string `json:"key"`
	OffsetTop int    `json:"offsetTop"`
}

// RestorationStore persists restoration records under an application key
// such as "feed:home".
type RestorationStore interface {
	GetItem(key string) (RestorationRecord, bool)
	SetItem(key string, rec RestorationRecord)
}

// MeasurementStore is implemented by stores that can also keep a height
// cache snapshot, which lets a remounted list paint restored items at once.
type MeasurementStore interface {
	GetMeasurements(key string) (map[string]int, bool)
	SetMeasurements(key string, heights map[string]int)
}

// RestorationItems returns a record for every mounted item that overlaps the
// live viewport, in list order. OffsetTop is relative to the viewport top.
func RestorationItems[T any](mounted []MountedItem[T], rect Rect) []RestorationRecord {
	var out []RestorationRecord
	for _, m := range mounted {
		if !m.Rect().Overlaps(rect) {
			continue
		}
		out = append(out, RestorationRecord{Key: m.Data.Key, OffsetTop: m.Start - rect.Top})
	}
	return out
}
