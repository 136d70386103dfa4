package generator

import (
	"log/slog"
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/choice"
	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/iss"
	"github.com/openhwgroup/force-riscv-sub004/page"
	"github.com/openhwgroup/force-riscv-sub004/register"
	"github.com/openhwgroup/force-riscv-sub004/resource"
	"github.com/openhwgroup/force-riscv-sub004/solver"
	"github.com/openhwgroup/force-riscv-sub004/vm"
)

// Generator is the single-owner session spec.md §5 describes: one vm.Mapper,
// one iss.ISS, one resource.Queue, and one math/rand/v2 stream, all driven
// from a single goroutine — no locking inside this package, the same
// discipline compile.Pipeline applies to a compilation run sharing nothing
// across calls to Pipeline.
type Generator struct {
	cfg    *Config
	mapper vm.Mapper
	sim    iss.ISS
	cpu    iss.CPUID
	queue  *resource.Queue
	rng    *rand.Rand
	logger *slog.Logger

	stage *resource.Stage
}

// New wires mapper and sim into a Generator under cfg. cfg may be nil, in
// which case DefaultConfig is used.
func New(cfg *Config, mapper vm.Mapper, sim iss.ISS, cpu iss.CPUID) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cfg:    cfg,
		mapper: mapper,
		sim:    sim,
		cpu:    cpu,
		queue:  resource.NewQueue(cfg.RingCapacity, cfg.EntropyOnThreshold, cfg.EntropyOffThreshold),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger: logger,
	}
}

// BeginCycle opens a new resource.Stage to record this instruction's
// operand accesses into (spec.md §4.4). Must be followed by CommitCycle.
func (g *Generator) BeginCycle() {
	g.stage = resource.NewStage()
}

// RecordAccess records one operand access against the open stage.
// RecordAccess is a no-op, logged at Debug, if BeginCycle was never called.
func (g *Generator) RecordAccess(t resource.Type, dir resource.Direction, index uint64) {
	if g.stage == nil {
		g.logger.Debug("RecordAccess with no open cycle", "type", t, "direction", dir, "index", index)
		return
	}
	g.stage.Record(t, dir, index)
}

// CommitCycle closes the open stage into the dependency-history queue.
func (g *Generator) CommitCycle() {
	if g.stage == nil {
		return
	}
	g.queue.Commit(g.stage)
	g.stage = nil
}

// ReuseConstraint returns the dependency-history constraint for (t, dep),
// gated by the entropy hysteresis band: the solver only pays to chase a
// dependency slot once (t, dep's history direction) is Stable (spec.md
// §4.4). ok is false when the band is not Stable or no history exists yet.
func (g *Generator) ReuseConstraint(t resource.Type, dep resource.DependencyType) (set *constraint.Set, ok bool) {
	dir := dependencyDirection(dep)
	if !g.queue.EntropyStable(t, dir) {
		return nil, false
	}
	return g.queue.LookUpNear(t, dep)
}

func dependencyDirection(dep resource.DependencyType) resource.Direction {
	switch dep {
	case resource.ReadAfterWrite, resource.WriteAfterWrite:
		return resource.Destination
	default:
		return resource.Source
	}
}

// AddressRequest is one call to GenerateAddress's input (spec.md §4.5).
type AddressRequest struct {
	Req           *page.GenPageRequest
	IsInstr       bool
	Size          uint64
	AlignMask     uint64
	Target        *constraint.Set
	PC            uint64
	PCSpacingSize uint64
	ReuseChoices  *choice.Tree

	// Direction marks whether this is a load (Source, the default) or a
	// store (Destination) access, for address-reuse history recording
	// (spec.md Glossary's "policy governing whether a data address
	// previously read/written may be reused").
	Direction resource.Direction
}

// GenerateAddress drives one AddressSolvingShared Setup->Solve cycle
// (spec.md §4.5), converting any recovered forceerr.Panic into a fatal
// *forceerr.Error instead of letting it escape as a bare panic (spec.md
// §7's top-level recover boundary; compile.Pipeline's per-stage error
// return is the grounding shape, adapted here to a recover/classify
// boundary since this module's invariant violations are signalled via
// panic rather than a stage's returned error).
func (g *Generator) GenerateAddress(req AddressRequest) (va uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pv := forceerr.Recover(r); pv != nil {
				err = pv
				g.logger.Error("fatal invariant violation", "op", pv.Op, "kind", pv.Kind.String(), "msg", pv.Msg)
				return
			}
			panic(r)
		}
	}()

	ws := solver.NewAddressSolvingShared(g.mapper)
	ws.ReuseLookup = func(dep resource.DependencyType) (*constraint.Set, bool) {
		return g.ReuseConstraint(resource.Mem, dep)
	}
	if err := ws.Setup(req.Req, req.IsInstr, req.Size, req.AlignMask, req.Target, req.PC, req.PCSpacingSize, req.ReuseChoices, g.rng); err != nil {
		return 0, g.classify(err)
	}
	va, err = ws.Solve(g.rng)
	if err != nil {
		return 0, g.classify(err)
	}
	g.RecordAccess(resource.Mem, req.Direction, va)
	g.logger.Debug("address solved", "va", va, "reuse", ws.ReuseSet, "dependency", ws.Reuse)
	return va, nil
}

// classify logs err at the severity its forceerr.Kind implies and returns
// it unchanged, so callers keep the normal Go error-handling shape even
// though logging happens centrally here.
func (g *Generator) classify(err error) error {
	switch {
	case forceerr.Fatal(err):
		g.logger.Error("generation step failed fatally", "err", err)
	case forceerr.Recoverable(err):
		g.logger.Info("generation step failed, caller may relax and retry", "err", err)
	default:
		g.logger.Warn("generation step failed", "err", err)
	}
	return err
}

// MulAddRequest is one call to SolveMulAdd's input: the three operands'
// registers (nil for an immediate operand) and constraints, which operand
// is unknown, and the target the µop's result must land in.
type MulAddRequest struct {
	Target                                *constraint.Set
	RegM, RegN, RegA                      *register.Register
	ConstraintM, ConstraintN, ConstraintA *constraint.Set
	Free                                  solver.MulAddOperand
	FactorWindow                          uint64
}

// SolveMulAdd inverts a MulAdd µop against req.Target (spec.md §4.5),
// forward-verifying the guess through the ISS before returning it.
func (g *Generator) SolveMulAdd(req MulAddRequest) (m, n, a uint64, err error) {
	d := solver.NewDataProcessingSolvingShared(g.sim, g.cpu, req.Target)
	window := req.FactorWindow
	if window == 0 {
		window = g.cfg.FactorWindow
	}
	m, n, a, err = d.SolveMulAdd(g.rng, req.RegM, req.RegN, req.RegA, req.ConstraintM, req.ConstraintN, req.ConstraintA, req.Free, window)
	if err != nil {
		return 0, 0, 0, g.classify(err)
	}
	return m, n, a, nil
}
