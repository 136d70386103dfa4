package constraint

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// ChooseValueFromFront returns the k-th element (0-indexed) when the set's
// elements are enumerated in ascending order. k == 0 is the stable lower
// bound anchor (spec §4.1).
func (s *Set) ChooseValueFromFront(k uint64) (uint64, error) {
	if k >= s.size {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.ChooseValueFromFront", "index out of range")
	}
	remaining := k
	for _, iv := range s.intervals {
		n := iv.Size()
		if remaining < n {
			return iv.Lo + remaining, nil
		}
		remaining -= n
	}
	return 0, forceerr.New(forceerr.InvariantViolation, "Set.ChooseValueFromFront", "size cache inconsistent with intervals")
}

// ChooseValueFromBack returns the k-th element counting from the top of
// the set, where size is the set's cardinality (the spec's signature
// threads it through explicitly rather than recomputing it). k == 0 is
// the stable upper bound anchor.
func (s *Set) ChooseValueFromBack(k, size uint64) (uint64, error) {
	if size == 0 || k >= size {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.ChooseValueFromBack", "index out of range")
	}
	return s.ChooseValueFromFront(size - 1 - k)
}

// ChooseValue samples uniformly over the set's elements, weighted by
// interval cardinality (spec §4.1). It fails with EmptyConstraint if s is
// empty.
func (s *Set) ChooseValue(r *rand.Rand) (uint64, error) {
	if s.IsEmpty() {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.ChooseValue", "empty set")
	}
	k := r.Uint64N(s.size)
	return s.ChooseValueFromFront(k)
}

// LowerBound returns the smallest element. Fails on an empty set.
func (s *Set) LowerBound() (uint64, error) {
	if s.IsEmpty() {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.LowerBound", "empty set")
	}
	return s.intervals[0].Lo, nil
}

// UpperBound returns the largest element. Fails on an empty set.
func (s *Set) UpperBound() (uint64, error) {
	if s.IsEmpty() {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.UpperBound", "empty set")
	}
	return s.intervals[len(s.intervals)-1].Hi, nil
}

// OnlyValue returns the set's single element, failing if the set is empty
// or holds more than one element.
func (s *Set) OnlyValue() (uint64, error) {
	if s.size != 1 {
		return 0, forceerr.New(forceerr.EmptyConstraint, "Set.OnlyValue", "set does not hold exactly one value")
	}
	return s.intervals[0].Lo, nil
}
