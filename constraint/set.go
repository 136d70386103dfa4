// Package constraint implements the ordered, disjoint union of integer
// intervals over [0, 2^64) used throughout the solver core: ConstraintSet
// in spec §4.1. Every exported mutator restores the documented invariants
// before returning: intervals strictly ascending, pairwise disjoint,
// non-adjacent, and the cached Size() in sync with CalculateSize().
package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Set is a normalised union of Intervals. The zero value is a valid empty
// set.
type Set struct {
	intervals []Interval
	size      uint64
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// FromRanges builds a Set from an arbitrary list of (possibly overlapping,
// unordered) intervals.
func FromRanges(ranges ...[2]uint64) (*Set, error) {
	s := New()
	for _, r := range ranges {
		if err := s.AddRange(r[0], r[1]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	out := &Set{size: s.size}
	if len(s.intervals) > 0 {
		out.intervals = append([]Interval(nil), s.intervals...)
	}
	return out
}

// IsEmpty reports whether the set has no elements.
func (s *Set) IsEmpty() bool {
	return len(s.intervals) == 0
}

// Size returns the cached cardinality, O(1) (spec §4.1).
func (s *Set) Size() uint64 {
	return s.size
}

// CalculateSize recomputes the cardinality from scratch. It is used only
// in debug-mode equality checks (spec §4.1) and by Invariant.
func (s *Set) CalculateSize() uint64 {
	return sumSizes(s.intervals)
}

// Intervals returns the normalised intervals in ascending order. The
// returned slice must not be mutated by the caller.
func (s *Set) Intervals() []Interval {
	return s.intervals
}

func (s *Set) setIntervals(ivs []Interval) {
	s.intervals = ivs
	s.size = sumSizes(ivs)
}

// Invariant reports an InvariantViolation *forceerr.Error if the set is
// not sorted, not disjoint, not adjacency-merged, or its size cache has
// drifted. It is intended for use in tests and debug assertions (spec §8
// property 2-3).
func (s *Set) Invariant() error {
	for i := 1; i < len(s.intervals); i++ {
		prev, cur := s.intervals[i-1], s.intervals[i]
		if prev.Hi >= cur.Lo {
			return forceerr.New(forceerr.InvariantViolation, "Set.Invariant", "intervals out of order or overlapping")
		}
		if cur.Lo-prev.Hi <= 1 {
			return forceerr.New(forceerr.InvariantViolation, "Set.Invariant", "adjacent intervals were not merged")
		}
	}
	for _, iv := range s.intervals {
		if iv.Lo > iv.Hi {
			return forceerr.New(forceerr.InvariantViolation, "Set.Invariant", "empty interval stored")
		}
	}
	if s.CalculateSize() != s.size {
		return forceerr.New(forceerr.InvariantViolation, "Set.Invariant", "size cache out of sync")
	}
	return nil
}

// String renders the set the way spec §8's scenarios write it:
// "lo-hi,value,lo-hi,...".
func (s *Set) String() string {
	if len(s.intervals) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.intervals))
	for _, iv := range s.intervals {
		if iv.Lo == iv.Hi {
			parts = append(parts, fmt.Sprintf("0x%x", iv.Lo))
		} else {
			parts = append(parts, fmt.Sprintf("0x%x-0x%x", iv.Lo, iv.Hi))
		}
	}
	return strings.Join(parts, ",")
}

// locate returns the index of the first interval whose Hi is >= v, i.e.
// the interval that would contain v if any does. It is the O(log N)
// membership primitive spec §4.1 requires.
func (s *Set) locate(v uint64) int {
	return sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].Hi >= v
	})
}
