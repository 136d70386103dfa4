package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/page"
	"github.com/openhwgroup/force-riscv-sub004/register"
)

func TestBaseIndexSolvesWithInitializedCandidate(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x2000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(20)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 1, ^uint64(0), nil, 0, 0, nil, r))

	base := newRegister(t, "x1", 64, 0x1000, true)
	idx := newRegister(t, "x2", 64, 0x100, true)
	bi := NewBaseIndexSolvingShared(ws, base, []*register.Register{idx}, LSL, 0, false)

	va, winner, err := bi.Solve(r)
	require.NoError(t, err)
	assert.Equal(t, idx, winner)
	assert.Equal(t, uint64(0x1100), va)
	assert.Equal(t, Accept, bi.State)
}

func TestBaseIndexRejectsBaseAsItsOwnIndex(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x2000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(21)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 1, ^uint64(0), nil, 0, 0, nil, r))

	base := newRegister(t, "x1", 64, 0x1000, true)
	bi := NewBaseIndexSolvingShared(ws, base, []*register.Register{base}, LSL, 0, false)

	_, _, err := bi.Solve(r)
	require.Error(t, err)
}

func TestBaseIndexAmountBitSelectsShift(t *testing.T) {
	mapper := newDirectMapper(0x1000, 0x3000)
	ws := NewAddressSolvingShared(mapper)
	r := rng(22)
	require.NoError(t, ws.Setup(&page.GenPageRequest{}, false, 1, ^uint64(0), nil, 0, 0, nil, r))

	base := newRegister(t, "x1", 64, 0x1000, true)
	idx := newRegister(t, "x2", 64, 0x100, true)

	bitPhys := register.NewPhysicalRegister("amt", 1)
	bitPhys.Write(0, 0, 1)
	bitField, err := register.NewRegisterField("amt", register.BitSlice{Reg: bitPhys, Lo: 0, Hi: 0})
	require.NoError(t, err)

	bi := NewBaseIndexAmountBitSolvingShared(ws, base, []*register.Register{idx}, LSL, bitField, false)
	va, _, err := bi.Solve(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1200), va) // index<<1 with the amount bit set to 1
}
