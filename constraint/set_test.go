package constraint

import (
	"math/rand/v2"
	"testing"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSet(t *testing.T, ranges ...[2]uint64) *Set {
	t.Helper()
	s, err := FromRanges(ranges...)
	require.NoError(t, err)
	return s
}

func TestMergeScenario(t *testing.T) {
	a := mustSet(t,
		[2]uint64{0x1000, 0x3fff0},
		[2]uint64{0x40000, 0x7ffff},
		[2]uint64{0x80100, 0x80100},
		[2]uint64{0x90001, 0x90003},
		[2]uint64{0x91000, 0x91000},
	)
	b := mustSet(t, [2]uint64{0x100, 0x3fff7})

	a.Merge(b)
	require.NoError(t, a.Invariant())

	want := mustSet(t,
		[2]uint64{0x100, 0x3fff7},
		[2]uint64{0x40000, 0x7ffff},
		[2]uint64{0x80100, 0x80100},
		[2]uint64{0x90001, 0x90003},
		[2]uint64{0x91000, 0x91000},
	)
	assert.Equal(t, want.Intervals(), a.Intervals())
	assert.Equal(t, uint64(0x7fefd), a.Size())
}

func TestAlignWithPage(t *testing.T) {
	s := mustSet(t,
		[2]uint64{0x1000, 0x2000},
		[2]uint64{0x4000, 0x4000},
		[2]uint64{0x8000, 0x10000},
	)
	s.AlignWithPage(0xffff)
	require.NoError(t, s.Invariant())
	assert.Equal(t, []Interval{{Lo: 0, Hi: 1}}, s.Intervals())
}

func TestAlignWithPageIdempotent(t *testing.T) {
	s := mustSet(t, [2]uint64{0x1000, 0x20000})
	s.AlignWithPage(0xffff)
	once := append([]Interval(nil), s.Intervals()...)
	s.AlignWithPage(0xffff)
	assert.Equal(t, once, s.Intervals())
}

func TestTranslate(t *testing.T) {
	s := mustSet(t,
		[2]uint64{0x1, 0x2},
		[2]uint64{0x4, 0x4},
		[2]uint64{0x8, 0x10},
	)
	s.Translate(0xfff, 0x5A5A5A000)
	require.NoError(t, s.Invariant())
	want := mustSet(t,
		[2]uint64{0x5A5A5A001, 0x5A5A5A002},
		[2]uint64{0x5A5A5A004, 0x5A5A5A004},
		[2]uint64{0x5A5A5A008, 0x5A5A5A010},
	)
	assert.Equal(t, want.Intervals(), s.Intervals())
}

func TestSubtractDuality(t *testing.T) {
	a := mustSet(t, [2]uint64{0, 100})
	b := mustSet(t, [2]uint64{40, 60})

	union := a.Clone()
	union.Merge(b)
	union.Subtract(b)

	require.True(t, a.ContainsSet(union))
}

func TestAddSubRangeSplits(t *testing.T) {
	s := mustSet(t, [2]uint64{0, 100})
	require.NoError(t, s.SubRange(40, 60))
	require.NoError(t, s.Invariant())
	want := mustSet(t, [2]uint64{0, 39}, [2]uint64{61, 100})
	assert.Equal(t, want.Intervals(), s.Intervals())
}

func TestSizeCacheConsistency(t *testing.T) {
	s := New()
	require.NoError(t, s.AddRange(10, 20))
	require.NoError(t, s.AddRange(25, 30))
	s.SubValue(15)
	s.Merge(mustSet(t, [2]uint64{100, 200}))
	assert.Equal(t, s.CalculateSize(), s.Size())
	require.NoError(t, s.Invariant())
}

func TestSemilatticeProperties(t *testing.T) {
	a := mustSet(t, [2]uint64{0, 10}, [2]uint64{20, 30})
	b := mustSet(t, [2]uint64{5, 25})

	selfUnion := a.Clone()
	selfUnion.Merge(a)
	assert.Equal(t, a.Intervals(), selfUnion.Intervals())

	selfInter := a.Clone()
	selfInter.Apply(a)
	assert.Equal(t, a.Intervals(), selfInter.Intervals())

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)
	assert.Equal(t, ab.Intervals(), ba.Intervals())
}

func TestChooseValueAnchorsAndEmpty(t *testing.T) {
	s := mustSet(t, [2]uint64{10, 12}, [2]uint64{20, 20})
	lo, err := s.ChooseValueFromFront(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), lo)

	hi, err := s.ChooseValueFromBack(0, s.Size())
	require.NoError(t, err)
	assert.Equal(t, uint64(20), hi)

	empty := New()
	_, err = empty.ChooseValue(rand.New(rand.NewPCG(1, 2)))
	require.Error(t, err)
	kind, ok := forceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, forceerr.EmptyConstraint, kind)
}

func TestChooseValueDistributionStaysInSet(t *testing.T) {
	s := mustSet(t, [2]uint64{10, 12}, [2]uint64{100, 100})
	r := rand.New(rand.NewPCG(7, 9))
	for i := 0; i < 50; i++ {
		v, err := s.ChooseValue(r)
		require.NoError(t, err)
		assert.True(t, s.ContainsValue(v))
	}
}

func TestAlignWithSize(t *testing.T) {
	s := mustSet(t, [2]uint64{0, 31})
	s.AlignWithSize(^uint64(3), 4) // 4-byte aligned, 4-byte access
	require.NoError(t, s.Invariant())
	want := mustSet(t, [2]uint64{0, 0}, [2]uint64{4, 4}, [2]uint64{8, 8}, [2]uint64{12, 12}, [2]uint64{16, 16}, [2]uint64{20, 20}, [2]uint64{24, 24}, [2]uint64{28, 28})
	assert.Equal(t, want.Intervals(), s.Intervals())
}

func TestParseRoundTrip(t *testing.T) {
	s, err := Parse("0x10-0x1f,0x20,0x30-0x40")
	require.NoError(t, err)
	want := mustSet(t, [2]uint64{0x10, 0x1f}, [2]uint64{0x20, 0x20}, [2]uint64{0x30, 0x40})
	assert.Equal(t, want.Intervals(), s.Intervals())
}
