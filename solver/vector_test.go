package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/page"
)

func TestVectorStridedSolvesAlignedElements(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x2000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(30)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 4, ^uint64(3), nil, 0, 0, nil, r))

	base := newRegister(t, "v0base", 64, 0x1000, true)
	stride := newRegister(t, "v0stride", 64, 4, true)

	vs := NewVectorStridedSolvingShared(ws, base, stride, 4, 8)
	va, err := vs.Solve(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), va)
	assert.Equal(t, Accept, vs.State)
}

func TestVectorStridedRejectsMisalignedStride(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x2000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(31)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 4, ^uint64(3), nil, 0, 0, nil, r))

	base := newRegister(t, "v0base", 64, 0x1000, true)
	stride := newRegister(t, "v0stride", 64, 3, true) // not a multiple of EltBytes

	vs := NewVectorStridedSolvingShared(ws, base, stride, 4, 4)
	_, err := vs.Solve(r)
	require.Error(t, err)
	assert.Equal(t, Reject, vs.State)
}

func TestVectorIndexedSolvesEachOffset(t *testing.T) {
	mapper := newDirectMapper(0x2000, 0x3000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(32)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 2, ^uint64(1), nil, 0, 0, nil, r))

	base := newRegister(t, "v0base", 64, 0x2000, true)
	offsets := []int64{0, 2, 4, 100}

	vi := NewVectorIndexedSolvingShared(ws, base, offsets, 2)
	va, err := vi.Solve(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), va)
	assert.Equal(t, Accept, vi.State)
}

func TestVectorIndexedRejectsMisalignedOffset(t *testing.T) {
	mapper := newDirectMapper(0x2000, 0x3000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(33)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 2, ^uint64(1), nil, 0, 0, nil, r))

	base := newRegister(t, "v0base", 64, 0x2000, true)
	offsets := []int64{0, 3} // 3 is not a multiple of EltBytes=2

	vi := NewVectorIndexedSolvingShared(ws, base, offsets, 2)
	_, err := vi.Solve(r)
	require.Error(t, err)
	assert.Equal(t, Reject, vi.State)
}
