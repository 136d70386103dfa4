package resource

import "github.com/openhwgroup/force-riscv-sub004/constraint"

// Stage is one cycle's record: for each resource Type, the set of register
// indices read (Sources) and written (Destinations) (spec.md §3).
type Stage struct {
	Sources      map[Type]*constraint.Set
	Destinations map[Type]*constraint.Set
}

// NewStage returns an empty Stage with no recorded accesses.
func NewStage() *Stage {
	return &Stage{Sources: make(map[Type]*constraint.Set), Destinations: make(map[Type]*constraint.Set)}
}

// Record unions index into the stage's set for (t, dir), creating the set
// if this is the first access of that (type, direction) this stage.
func (s *Stage) Record(t Type, dir Direction, index uint64) {
	m := s.Sources
	if dir == Destination {
		m = s.Destinations
	}
	set, ok := m[t]
	if !ok {
		set = constraint.New()
		m[t] = set
	}
	set.AddValue(index)
}

func (s *Stage) set(t Type, dir Direction) *constraint.Set {
	m := s.Sources
	if dir == Destination {
		m = s.Destinations
	}
	if set, ok := m[t]; ok {
		return set
	}
	return constraint.New()
}

// indices returns every (type, direction, index) touched this stage, for
// the queue's age-table bookkeeping.
func (s *Stage) indices() []touchedIndex {
	var out []touchedIndex
	for t, set := range s.Sources {
		for _, iv := range set.Intervals() {
			for v := iv.Lo; ; v++ {
				out = append(out, touchedIndex{Type: t, Dir: Source, Index: v})
				if v == iv.Hi {
					break
				}
			}
		}
	}
	for t, set := range s.Destinations {
		for _, iv := range set.Intervals() {
			for v := iv.Lo; ; v++ {
				out = append(out, touchedIndex{Type: t, Dir: Destination, Index: v})
				if v == iv.Hi {
					break
				}
			}
		}
	}
	return out
}

type touchedIndex struct {
	Type  Type
	Dir   Direction
	Index uint64
}
