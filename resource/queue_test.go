package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageWith(t Type, dir Direction, indices ...uint64) *Stage {
	s := NewStage()
	for _, idx := range indices {
		s.Record(t, dir, idx)
	}
	return s
}

func TestCommitRetiresOldestAtCapacity(t *testing.T) {
	q := NewQueue(2, 2, 0)
	q.Commit(stageWith(GPR, Source, 1))
	q.Commit(stageWith(GPR, Source, 2))
	assert.Equal(t, 2, q.Len())

	q.Commit(stageWith(GPR, Source, 3))
	assert.Equal(t, 2, q.Len())
}

func TestEntropyBookkeepingDedupesRepeatedIndex(t *testing.T) {
	q := NewQueue(4, 2, 0)
	q.Commit(stageWith(GPR, Source, 5))
	q.Commit(stageWith(GPR, Source, 5)) // same index again: must not double count
	assert.Equal(t, uint64(1), q.Entropy(GPR, Source))

	q.Commit(stageWith(GPR, Source, 6))
	assert.Equal(t, uint64(2), q.Entropy(GPR, Source))
}

func TestEntropyHysteresisBands(t *testing.T) {
	q := NewQueue(10, 3, 1)
	assert.Equal(t, WarmUp, q.EntropyState(GPR, Source))

	q.Commit(stageWith(GPR, Source, 1, 2, 3))
	assert.Equal(t, Stable, q.EntropyState(GPR, Source))
	assert.True(t, q.EntropyStable(GPR, Source))

	// Drop below the off threshold by retiring stages until entropy falls.
	q2 := NewQueue(1, 3, 1)
	q2.Commit(stageWith(GPR, Source, 1, 2, 3))
	require.Equal(t, Stable, q2.EntropyState(GPR, Source))
	q2.Commit(stageWith(GPR, Source, 9)) // retires the first stage (cap=1)
	assert.Equal(t, CoolDown, q2.EntropyState(GPR, Source))
}

func TestLookUpNearAndFar(t *testing.T) {
	q := NewQueue(5, 1, 0)
	q.Commit(stageWith(GPR, Destination, 1))
	q.Commit(NewStage())
	q.Commit(stageWith(GPR, Destination, 2))

	near, ok := q.LookUpNear(GPR, ReadAfterWrite)
	require.True(t, ok)
	assert.True(t, near.ContainsValue(2))

	far, ok := q.LookUpFar(GPR, ReadAfterWrite)
	require.True(t, ok)
	assert.True(t, far.ContainsValue(1))
}

func TestLookUpMissReturnsFalse(t *testing.T) {
	q := NewQueue(5, 1, 0)
	q.Commit(stageWith(GPR, Source, 1))
	_, ok := q.LookUpNear(FPR, ReadAfterRead)
	assert.False(t, ok)
}

func TestGetRandomResourceConstraintUnionsWindow(t *testing.T) {
	q := NewQueue(5, 1, 0)
	q.Commit(stageWith(GPR, Source, 1))
	q.Commit(stageWith(GPR, Source, 2))
	q.Commit(stageWith(GPR, Source, 3))

	union := q.GetRandomResourceConstraint(GPR, Source, 0, 1)
	assert.True(t, union.ContainsValue(1))
	assert.True(t, union.ContainsValue(2))
	assert.False(t, union.ContainsValue(3))
}
