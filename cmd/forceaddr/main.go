// forceaddr is a thin end-to-end demonstration of one address-generation
// step (SPEC_FULL.md §4): it wires a generator.Generator over a
// vm.DirectMapper and an iss.Model fake, solves one base+offset VA against
// a hand-built register pair, and prints the result. It is not a
// replacement for the catalog loading, ELF emission, or real ISS bridge
// this module leaves out of scope.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/generator"
	"github.com/openhwgroup/force-riscv-sub004/internal/corelog"
	"github.com/openhwgroup/force-riscv-sub004/iss"
	"github.com/openhwgroup/force-riscv-sub004/page"
	"github.com/openhwgroup/force-riscv-sub004/register"
	"github.com/openhwgroup/force-riscv-sub004/vm"
)

func main() {
	seed := flag.Uint64("seed", 1, "random seed")
	size := flag.Uint64("size", 8, "access size in bytes")
	base := flag.Uint64("base", 0x8000, "base register value")
	offset := flag.Uint64("offset", 0x100, "offset register value")
	usableLo := flag.Uint64("usable-lo", 0x1000, "low bound of the usable virtual address range")
	usableHi := flag.Uint64("usable-hi", 0xFFFF, "high bound of the usable virtual address range")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := corelog.New(os.Stdout, slog.LevelInfo, *debug)

	usable, err := constraint.FromRanges([2]uint64{*usableLo, *usableHi})
	if err != nil {
		log.Fatalf("usable range: %v", err)
	}
	mapper := vm.NewDirectMapper(usable, usable)

	sim := iss.NewModel()
	if err := sim.Initialise(iss.Options{NumHarts: 1, Seed: *seed}); err != nil {
		log.Fatalf("iss init: %v", err)
	}
	defer sim.Terminate() //nolint:errcheck // best-effort on exit

	cfg := generator.DefaultConfig()
	cfg.Seed = *seed
	cfg.Logger = logger
	gen := generator.New(cfg, mapper, sim, 0)

	baseReg := buildRegister("x1", *base)
	offsetReg := buildRegister("x2", *offset)

	target, err := baseAndOffsetTarget(baseReg, offsetReg)
	if err != nil {
		log.Fatalf("target: %v", err)
	}

	va, err := gen.GenerateAddress(generator.AddressRequest{
		Req:       &page.GenPageRequest{},
		Size:      *size,
		AlignMask: ^uint64(0),
		Target:    target,
	})
	if err != nil {
		log.Fatalf("generate address: %v", err)
	}
	logger.Info("generated address", "va", va, "base", *base, "offset", *offset)
}

func buildRegister(name string, value uint64) *register.Register {
	phys := register.NewPhysicalRegister(name, 64)
	phys.Write(0, 63, value)
	field, err := register.NewRegisterField(name, register.BitSlice{Reg: phys, Lo: 0, Hi: 63})
	if err != nil {
		log.Fatalf("register field %s: %v", name, err)
	}
	reg, err := register.NewRegister(name, field)
	if err != nil {
		log.Fatalf("register %s: %v", name, err)
	}
	return reg
}

// baseAndOffsetTarget pins the generation target to exactly base+offset,
// standing in for the catalog's operand-shape descriptor this demo omits.
func baseAndOffsetTarget(base, offset *register.Register) (*constraint.Set, error) {
	b, err := base.Read()
	if err != nil {
		return nil, err
	}
	o, err := offset.Read()
	if err != nil {
		return nil, err
	}
	return constraint.FromRanges([2]uint64{b + o, b + o})
}
