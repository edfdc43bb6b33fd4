package virtual

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ChangeKind classifies the difference between two key sequences.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Prepend
	Append
	Insert
	Remove
	Mixed
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Prepend:
		return "prepend"
	case Append:
		return "append"
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Mixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Change describes how an item list moved from one snapshot to the next.
type Change struct {
	Kind     ChangeKind
	Inserted []string
	Removed  []string
	// Moved holds keys present in both snapshots whose relative order changed.
	Moved []string
	// InsertPoint is the index in the new list of the first inserted key when
	// all inserted keys form one contiguous block, and -1 otherwise.
	InsertPoint int
}

// Diff compares two snapshots of unique keys. The kept sequence is the longest
// run of shared keys that preserves their relative order; everything else is
// reported as inserted, removed or moved.
func Diff(prev, next []string) Change {
	prevSet := sets.New(prev...)
	nextSet := sets.New(next...)

	change := Change{InsertPoint: -1}
	for _, k := range prev {
		if !nextSet.Has(k) {
			change.Removed = append(change.Removed, k)
		}
	}

	prevPos := make(map[string]int, len(prev))
	for i, k := range prev {
		prevPos[k] = i
	}

	// Positions (in prev) of shared keys, in next order.
	var shared []string
	var positions []int
	insertedAt := make([]int, 0)
	for i, k := range next {
		if prevSet.Has(k) {
			shared = append(shared, k)
			positions = append(positions, prevPos[k])
		} else {
			change.Inserted = append(change.Inserted, k)
			insertedAt = append(insertedAt, i)
		}
	}

	keep := longestIncreasing(positions)
	for i, k := range shared {
		if !keep[i] {
			change.Moved = append(change.Moved, k)
		}
	}

	contiguous := len(insertedAt) > 0 && insertedAt[len(insertedAt)-1]-insertedAt[0] == len(insertedAt)-1
	if contiguous {
		change.InsertPoint = insertedAt[0]
	}

	switch {
	case len(change.Inserted) == 0 && len(change.Removed) == 0 && len(change.Moved) == 0:
		change.Kind = Unchanged
	case len(change.Removed) > 0 || len(change.Moved) > 0:
		if len(change.Inserted) == 0 && len(change.Moved) == 0 {
			change.Kind = Remove
		} else {
			change.Kind = Mixed
		}
	case !contiguous:
		change.Kind = Mixed
	case change.InsertPoint == 0:
		change.Kind = Prepend
	case change.InsertPoint+len(change.Inserted) == len(next):
		change.Kind = Append
	default:
		change.Kind = Insert
	}
	return change
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq (patience sorting, O(n log n)).
func longestIncreasing(seq []int) []bool {
	keep := make([]bool, len(seq))
	if len(seq) == 0 {
		return keep
	}
	tails := make([]int, 0, len(seq)) // indexes into seq
	parent := make([]int, len(seq))
	for i, v := range seq {
		j := sort.Search(len(tails), func(t int) bool { return seq[tails[t]] >= v })
		if j > 0 {
			parent[i] = tails[j-1]
		} else {
			parent[i] = -1
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = parent[i] {
		keep[i] = true
	}
	return keep
}

// Keys returns the keys of items in order
func Keys[T any](items []DataItem[T]) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}
