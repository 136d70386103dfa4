package constraint

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// AddValue unions a single point into the set.
func (s *Set) AddValue(v uint64) {
	s.AddRange(v, v) //nolint:errcheck // lo==hi can never be malformed
}

// AddRange unions [lo, hi] into the set. Adjacent or overlapping intervals
// are merged (spec §4.1).
func (s *Set) AddRange(lo, hi uint64) error {
	if lo > hi {
		return forceerr.New(forceerr.ConstraintMalformed, "Set.AddRange", "lo > hi")
	}
	s.setIntervals(mergeLists(s.intervals, []Interval{{Lo: lo, Hi: hi}}))
	return nil
}

// SubValue removes a single point from the set.
func (s *Set) SubValue(v uint64) {
	s.SubRange(v, v) //nolint:errcheck
}

// SubRange removes [lo, hi] from the set, splitting an interval into two
// halves when the removed range falls strictly inside one.
func (s *Set) SubRange(lo, hi uint64) error {
	if lo > hi {
		return forceerr.New(forceerr.ConstraintMalformed, "Set.SubRange", "lo > hi")
	}
	s.setIntervals(subtractLists(s.intervals, []Interval{{Lo: lo, Hi: hi}}))
	return nil
}

// Merge unions other into s in place (whole-set union, O(N+M)).
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	s.setIntervals(mergeLists(s.intervals, other.intervals))
}

// Apply intersects s with other in place. Apply is the spec's name for
// whole-set intersection (spec §4.1: "apply (= intersect)").
func (s *Set) Apply(other *Set) {
	if other == nil {
		s.setIntervals(nil)
		return
	}
	s.setIntervals(intersectLists(s.intervals, other.intervals))
}

// Intersect returns a new Set holding s ∩ other without mutating either
// operand; a convenience wrapper kept alongside the in-place Apply because
// most callers in the solver need the result without disturbing s.
func (s *Set) Intersect(other *Set) *Set {
	out := s.Clone()
	out.Apply(other)
	return out
}

// Subtract removes every element of other from s in place (whole-set
// subtraction, O(N+M)).
func (s *Set) Subtract(other *Set) {
	if other == nil {
		return
	}
	s.setIntervals(subtractLists(s.intervals, other.intervals))
}

// ContainsValue is an O(log N) membership predicate.
func (s *Set) ContainsValue(v uint64) bool {
	idx := s.locate(v)
	return idx < len(s.intervals) && s.intervals[idx].Contains(v)
}

// ContainsRange reports whether [lo, hi] is entirely covered by a single
// stored interval (since the set is normalised, coverage can never span
// more than one interval without a gap).
func (s *Set) ContainsRange(lo, hi uint64) bool {
	if lo > hi {
		return false
	}
	idx := s.locate(lo)
	if idx >= len(s.intervals) {
		return false
	}
	return s.intervals[idx].Lo <= lo && s.intervals[idx].Hi >= hi
}

// ContainsSet reports whether every element of other is also in s.
func (s *Set) ContainsSet(other *Set) bool {
	if other == nil || other.IsEmpty() {
		return true
	}
	for _, iv := range other.intervals {
		if !s.ContainsRange(iv.Lo, iv.Hi) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share at least one element.
func (s *Set) Intersects(other *Set) bool {
	if other == nil {
		return false
	}
	i, j := 0, 0
	for i < len(s.intervals) && j < len(other.intervals) {
		a, b := s.intervals[i], other.intervals[j]
		lo := a.Lo
		if b.Lo > lo {
			lo = b.Lo
		}
		hi := a.Hi
		if b.Hi < hi {
			hi = b.Hi
		}
		if lo <= hi {
			return true
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return false
}

// ReplaceInRange is specified as the atomic composition of
// SubRange(lo, hi) followed by Merge(other) (spec §4.1); it is expressed
// directly in terms of those two primitives since neither individually
// has to observe any intermediate state.
func (s *Set) ReplaceInRange(lo, hi uint64, other *Set) error {
	if err := s.SubRange(lo, hi); err != nil {
		return err
	}
	s.Merge(other)
	return nil
}

// CopyInRange extracts s ∩ [lo, hi] into out, replacing out's contents.
func (s *Set) CopyInRange(lo, hi uint64, out *Set) error {
	if lo > hi {
		return forceerr.New(forceerr.ConstraintMalformed, "Set.CopyInRange", "lo > hi")
	}
	window := &Set{intervals: []Interval{{Lo: lo, Hi: hi}}, size: hi - lo + 1}
	out.setIntervals(intersectLists(s.intervals, window.intervals))
	return nil
}
