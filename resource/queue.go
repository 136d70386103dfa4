package resource

import "github.com/openhwgroup/force-riscv-sub004/constraint"

type ageKey struct {
	Type  Type
	Index uint64
}

type ageRecord struct {
	age uint64
	typ Type
	dir Direction
}

// Queue is the fixed-capacity ring buffer of Stages (spec.md §4.4's
// ResourceAccessQueue). Committing a stage retires the oldest one once the
// ring is full, and maintains an AccessAge table so the same index
// recorded in two different stages contributes to the entropy counters
// only once — its most recent recording wins.
type Queue struct {
	capacity int
	ring     []*Stage
	baseAge  uint64 // age assigned to ring[0]

	ages    map[ageKey]ageRecord
	entropy map[Type]map[Direction]*entropyCounter

	onThreshold, offThreshold uint64
}

// NewQueue returns an empty Queue with the given ring capacity and
// shared on/off entropy thresholds applied uniformly to every (type,
// direction) counter.
func NewQueue(capacity int, onThreshold, offThreshold uint64) *Queue {
	return &Queue{
		capacity:     capacity,
		ages:         make(map[ageKey]ageRecord),
		entropy:      make(map[Type]map[Direction]*entropyCounter),
		onThreshold:  onThreshold,
		offThreshold: offThreshold,
	}
}

func (q *Queue) counter(t Type, dir Direction) *entropyCounter {
	byDir, ok := q.entropy[t]
	if !ok {
		byDir = make(map[Direction]*entropyCounter)
		q.entropy[t] = byDir
	}
	c, ok := byDir[dir]
	if !ok {
		c = newEntropyCounter(q.onThreshold, q.offThreshold)
		byDir[dir] = c
	}
	return c
}

// Entropy returns the live distinct-index count for (t, dir).
func (q *Queue) Entropy(t Type, dir Direction) uint64 {
	return q.counter(t, dir).value
}

// EntropyState returns the hysteresis band for (t, dir).
func (q *Queue) EntropyState(t Type, dir Direction) State {
	return q.counter(t, dir).state
}

// EntropyStable reports whether (t, dir) is in the Stable band: the gate
// the solver consults before spending budget chasing a dependency slot.
func (q *Queue) EntropyStable(t Type, dir Direction) bool {
	return q.counter(t, dir).state == Stable
}

// Len returns the number of stages currently retained.
func (q *Queue) Len() int { return len(q.ring) }

// Commit retires the oldest stage if the ring is full, then appends stage,
// updating the AccessAge table and entropy counters (spec.md §4.4).
func (q *Queue) Commit(stage *Stage) {
	if len(q.ring) == q.capacity {
		q.retireOldest()
	}
	age := q.baseAge + uint64(len(q.ring))
	for _, t := range stage.indices() {
		key := ageKey{Type: t.Type, Index: t.Index}
		if old, ok := q.ages[key]; ok {
			q.counter(old.typ, old.dir).remove()
		}
		q.ages[key] = ageRecord{age: age, typ: t.Type, dir: t.Dir}
		q.counter(t.Type, t.Dir).add()
	}
	q.ring = append(q.ring, stage)
}

func (q *Queue) retireOldest() {
	oldest := q.ring[0]
	oldestAge := q.baseAge
	for _, t := range oldest.indices() {
		key := ageKey{Type: t.Type, Index: t.Index}
		rec, ok := q.ages[key]
		if !ok || rec.age != oldestAge {
			continue // superseded by a later commit already
		}
		q.counter(t.Type, t.Dir).remove()
		delete(q.ages, key)
	}
	q.ring = q.ring[1:]
	q.baseAge++
}

// LookUpNear walks the ring from the most recent stage backward toward the
// oldest, returning the first stage's constraint set recorded for the
// history direction dep implies on resource type t.
func (q *Queue) LookUpNear(t Type, dep DependencyType) (*constraint.Set, bool) {
	dir := dep.historyDirection()
	for i := len(q.ring) - 1; i >= 0; i-- {
		if set, ok := nonEmptySet(q.ring[i], t, dir); ok {
			return set, true
		}
	}
	return nil, false
}

// LookUpFar walks the ring from the oldest stage forward toward the most
// recent, returning the first match.
func (q *Queue) LookUpFar(t Type, dep DependencyType) (*constraint.Set, bool) {
	dir := dep.historyDirection()
	for i := 0; i < len(q.ring); i++ {
		if set, ok := nonEmptySet(q.ring[i], t, dir); ok {
			return set, true
		}
	}
	return nil, false
}

func nonEmptySet(s *Stage, t Type, dir Direction) (*constraint.Set, bool) {
	set := s.set(t, dir)
	if set.IsEmpty() {
		return nil, false
	}
	return set, true
}

// GetRandomResourceConstraint returns the union of the (t, dir) sets over
// ring positions [lo, hi] (0 == oldest currently retained stage), for
// callers that want any index touched in that window rather than the
// first match.
func (q *Queue) GetRandomResourceConstraint(t Type, dir Direction, lo, hi int) *constraint.Set {
	out := constraint.New()
	if lo < 0 {
		lo = 0
	}
	if hi >= len(q.ring) {
		hi = len(q.ring) - 1
	}
	for i := lo; i <= hi; i++ {
		out.Merge(q.ring[i].set(t, dir))
	}
	return out
}
