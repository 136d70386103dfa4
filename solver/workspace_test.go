package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

func TestAddressSolvingSharedSolveFreeWithinPool(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x2FFF)
	ws := NewAddressSolvingShared(mapper)
	r := rng(1)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 0x10, ^uint64(0xF), nil, 0, 0, nil, r))

	va, err := ws.Solve(r)
	require.NoError(t, err)
	assert.True(t, va >= 0x1000 && va <= 0x2FFF)
	assert.Equal(t, Accept, ws.State)
}

func TestAddressSolvingSharedTargetConstraintNarrowsPool(t *testing.T) {
	mapper := newDirectMapper(0, 0xFFFF)
	ws := NewAddressSolvingShared(mapper)
	r := rng(2)
	target := fullRange(0x2000, 0x20FF)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 0x10, ^uint64(0xF), target, 0, 0, nil, r))

	va, err := ws.Solve(r)
	require.NoError(t, err)
	assert.True(t, va >= 0x2000 && va <= 0x20FF)
}

func TestAddressSolvingSharedPCSpacingExcludesWindow(t *testing.T) {
	mapper := newDirectMapper(0, 0xFF)
	ws := NewAddressSolvingShared(mapper)
	r := rng(3)
	// Entire usable range minus a PC spacing window covering everything
	// except a single aligned slot leaves exactly that slot.
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 0x10, ^uint64(0xF), nil, 0x10, 0xF0, nil, r))

	assert.False(t, ws.Pool.ContainsValue(0x20))
	assert.True(t, ws.Pool.ContainsValue(0x0))
}

func TestAddressSolvingSharedExhaustionIsNoAddressSolution(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x100F) // exactly one 16-byte aligned slot
	ws := NewAddressSolvingShared(mapper)
	r := rng(4)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 0x10, ^uint64(0xF), nil, 0, 0, nil, r))

	_, err := ws.Solve(r)
	require.NoError(t, err)

	ws2 := NewAddressSolvingShared(mapper)
	require.NoError(t, ws2.Setup(&page.GenPageRequest{}, false, 0x10, ^uint64(0xF), nil, 0, 0, nil, r))
	_, err = ws2.Solve(r)
	require.Error(t, err)
	kind, ok := forceerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, forceerr.NoAddressSolution, kind)
	assert.Equal(t, Reject, ws2.State)
}

func TestTagReplacesTopByte(t *testing.T) {
	tagged := Tag(0x0123456789ABCDEF, 0x42)
	assert.Equal(t, uint64(0x4223456789ABCDEF), tagged)
}
