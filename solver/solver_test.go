package solver

import (
	"math/rand/v2"
	"testing"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/iss"
	"github.com/openhwgroup/force-riscv-sub004/register"
	"github.com/openhwgroup/force-riscv-sub004/vm"
)

func rng(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func fullRange(lo, hi uint64) *constraint.Set {
	s, err := constraint.FromRanges([2]uint64{lo, hi})
	if err != nil {
		panic(err)
	}
	return s
}

func newDirectMapper(lo, hi uint64) *vm.DirectMapper {
	return vm.NewDirectMapper(fullRange(lo, hi), fullRange(lo, hi))
}

func newRegister(t testingTB, name string, bits uint8, value uint64, init bool) *register.Register {
	phys := register.NewPhysicalRegister(name, bits)
	if init {
		phys.Write(0, bits-1, value)
	}
	field, err := register.NewRegisterField(name, register.BitSlice{Reg: phys, Lo: 0, Hi: bits - 1})
	if err != nil {
		t.Fatalf("NewRegisterField: %v", err)
	}
	reg, err := register.NewRegister(name, field)
	if err != nil {
		t.Fatalf("NewRegister: %v", err)
	}
	return reg
}

// testingTB lets newRegister be shared by *testing.T without importing
// testing in a way that leaks into non-test builds.
type testingTB interface {
	Fatalf(format string, args ...any)
}

func readyModel(t testingTB) *iss.Model {
	m := iss.NewModel()
	if err := m.Initialise(iss.Options{NumHarts: 1}); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	return m
}
