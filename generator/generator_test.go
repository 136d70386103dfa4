package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/choice"
	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/iss"
	"github.com/openhwgroup/force-riscv-sub004/page"
	"github.com/openhwgroup/force-riscv-sub004/register"
	"github.com/openhwgroup/force-riscv-sub004/resource"
	"github.com/openhwgroup/force-riscv-sub004/solver"
	"github.com/openhwgroup/force-riscv-sub004/vm"
)

func fullRange(t *testing.T, lo, hi uint64) *constraint.Set {
	s, err := constraint.FromRanges([2]uint64{lo, hi})
	require.NoError(t, err)
	return s
}

func readyModel(t *testing.T) *iss.Model {
	m := iss.NewModel()
	require.NoError(t, m.Initialise(iss.Options{NumHarts: 1}))
	return m
}

func newRegister(t *testing.T, name string, bits uint8, value uint64) *register.Register {
	phys := register.NewPhysicalRegister(name, bits)
	phys.Write(0, bits-1, value)
	field, err := register.NewRegisterField(name, register.BitSlice{Reg: phys, Lo: 0, Hi: bits - 1})
	require.NoError(t, err)
	reg, err := register.NewRegister(name, field)
	require.NoError(t, err)
	return reg
}

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotZero(t, cfg.RingCapacity)
	assert.NotNil(t, cfg.Logger)
	assert.Greater(t, cfg.EntropyOnThreshold, cfg.EntropyOffThreshold)
}

func TestGenerateAddressSolvesWithinUsableRange(t *testing.T) {
	mapper := vm.NewDirectMapper(fullRange(t, 0x1000, 0x2000), fullRange(t, 0x1000, 0x2000))
	model := readyModel(t)
	g := New(nil, mapper, model, 0)

	va, err := g.GenerateAddress(AddressRequest{
		Req:       &page.GenPageRequest{},
		IsInstr:   false,
		Size:      8,
		AlignMask: ^uint64(7),
		Target:    fullRange(t, 0x1000, 0x1FFF),
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, va, uint64(0x1000))
	assert.LessOrEqual(t, va, uint64(0x1FF8))
}

func TestGenerateAddressRejectsWhenPoolExhausted(t *testing.T) {
	mapper := vm.NewDirectMapper(fullRange(t, 0x1000, 0x1007), fullRange(t, 0x1000, 0x1007))
	model := readyModel(t)
	g := New(nil, mapper, model, 0)

	_, err := g.GenerateAddress(AddressRequest{
		Req:       &page.GenPageRequest{},
		Size:      8,
		AlignMask: ^uint64(7),
		Target:    fullRange(t, 0x9000, 0x9FFF), // disjoint from the usable range
	})
	require.Error(t, err)
}

func TestReuseConstraintGatedByEntropyStability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntropyOnThreshold = 2
	cfg.EntropyOffThreshold = 1
	mapper := vm.NewDirectMapper(fullRange(t, 0, ^uint64(0)), fullRange(t, 0, ^uint64(0)))
	model := readyModel(t)
	g := New(cfg, mapper, model, 0)

	// Below the on-threshold: still WarmUp, reuse lookups stay gated off.
	g.BeginCycle()
	g.RecordAccess(resource.GPR, resource.Destination, 5)
	g.CommitCycle()
	_, ok := g.ReuseConstraint(resource.GPR, resource.ReadAfterWrite)
	assert.False(t, ok)

	// Cross the on-threshold: Stable, the same index now resolves.
	g.BeginCycle()
	g.RecordAccess(resource.GPR, resource.Destination, 6)
	g.CommitCycle()
	set, ok := g.ReuseConstraint(resource.GPR, resource.ReadAfterWrite)
	require.True(t, ok)
	assert.True(t, set.ContainsValue(6))
}

func TestGenerateAddressReusesPreviouslyWrittenAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntropyOnThreshold = 1
	cfg.EntropyOffThreshold = 1
	mapper := vm.NewDirectMapper(fullRange(t, 0x1000, 0x1FFF), fullRange(t, 0x1000, 0x1FFF))
	model := readyModel(t)
	g := New(cfg, mapper, model, 0)

	g.BeginCycle()
	stored, err := g.GenerateAddress(AddressRequest{
		Req:       &page.GenPageRequest{},
		Size:      8,
		AlignMask: ^uint64(7),
		Direction: resource.Destination,
	})
	require.NoError(t, err)
	g.CommitCycle()

	// ReadAfterWrite hunts a past Destination (resource.DependencyType's
	// historyDirection), so the only live history entry is the address
	// just stored; every subsequent pick must land on it.
	reuseOnly, err := choice.New(choice.Choice{Name: "ReadAfterWrite", Weight: 1})
	require.NoError(t, err)

	g.BeginCycle()
	va, err := g.GenerateAddress(AddressRequest{
		Req:          &page.GenPageRequest{},
		Size:         8,
		AlignMask:    ^uint64(7),
		ReuseChoices: reuseOnly,
		Direction:    resource.Source,
	})
	require.NoError(t, err)
	g.CommitCycle()
	assert.Equal(t, stored, va)
}

func TestSolveMulAddThroughGenerator(t *testing.T) {
	model := readyModel(t)
	mapper := vm.NewDirectMapper(fullRange(t, 0, ^uint64(0)), fullRange(t, 0, ^uint64(0)))
	g := New(nil, mapper, model, 0)

	cM := fullRange(t, 0x2, 0x2)
	cN := fullRange(t, 0x64, 0x64)
	cA := fullRange(t, 0x1200, 0x1200)

	m, n, a, err := g.SolveMulAdd(MulAddRequest{
		Target:      fullRange(t, 0x1200, 0x12FF),
		ConstraintM: cM,
		ConstraintN: cN,
		ConstraintA: cA,
		Free:        solver.Addend,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2), m)
	assert.Equal(t, uint64(0x64), n)
	assert.Equal(t, uint64(0x1200), a)
}

func TestSolveMulAddRejectsSharedRegisterOperands(t *testing.T) {
	model := readyModel(t)
	mapper := vm.NewDirectMapper(fullRange(t, 0, ^uint64(0)), fullRange(t, 0, ^uint64(0)))
	g := New(nil, mapper, model, 0)
	reg := newRegister(t, "x4", 64, 0x3)

	_, _, _, err := g.SolveMulAdd(MulAddRequest{
		Target:      fullRange(t, 0x1000, 0x1FFF),
		RegM:        reg,
		RegN:        reg,
		ConstraintA: fullRange(t, 0, 0xFF),
		Free:        solver.Addend,
	})
	require.Error(t, err)
}
