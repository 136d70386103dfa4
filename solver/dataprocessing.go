package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/iss"
	"github.com/openhwgroup/force-riscv-sub004/register"
)

// MulAddOperand names which of MulAdd's three register operands the
// strategy is solving for; the other two are sampled from their own
// constraints (spec.md §4.5's data-processing strategies).
type MulAddOperand uint8

const (
	Multiplicand MulAddOperand = iota
	Multiplier
	Addend
)

// DataProcessingSolvingShared inverts a data-processing µop (spec.md
// §4.5): given a fixed target-address constraint and the constraints on
// two of the three operands, it finds a value for the remaining operand
// such that the µop's forward result lies in the target, always executing
// the forward µop via the ISS to validate the final guess against the
// reference semantics (spec.md §4.5 step 4, §6).
type DataProcessingSolvingShared struct {
	ISS    iss.ISS
	CPU    iss.CPUID
	Target *constraint.Set
}

func NewDataProcessingSolvingShared(sim iss.ISS, cpu iss.CPUID, target *constraint.Set) *DataProcessingSolvingShared {
	return &DataProcessingSolvingShared{ISS: sim, CPU: cpu, Target: target}
}

// factorWindow picks a bounded, inclusive [f, f+window] slice, with f drawn
// from [0, d-window), used
// to keep the multiplier/multiplicand search space tractable (spec.md
// §4.5: "a bounded factor-range window [f, f+W] picked uniformly in
// [0, d-W-1]").
func factorWindow(r *rand.Rand, d, window uint64) (lo, hi uint64) {
	if window == 0 || window >= d {
		return 0, d
	}
	f := r.Uint64N(d - window)
	return f, f + window
}

func sameRegister(a, b *register.Register) bool {
	return a != nil && b != nil && a == b
}

// sampleOperand returns the register's current value if initialised
// (treated as a fixed singleton per spec.md §4.5 step 2), otherwise
// samples uniformly from the supplied constraint.
func sampleOperand(r *rand.Rand, reg *register.Register, c *constraint.Set, op string) (uint64, error) {
	if reg != nil && reg.Initialized() {
		return reg.Read()
	}
	if c == nil || c.IsEmpty() {
		return 0, forceerr.New(forceerr.NoAddressSolution, op, "operand has neither an initialised register nor a usable constraint")
	}
	v, err := c.ChooseValue(r)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample operand", err)
	}
	return v, nil
}

func (d *DataProcessingSolvingShared) verifyForward(code iss.UopCode, inputs []uint64, signed bool) (uint64, error) {
	const op = "DataProcessingSolvingShared.verifyForward"
	params := make([]iss.UopParam, len(inputs))
	for i, v := range inputs {
		params[i] = iss.UopParam{UInt64: v}
	}
	if code == iss.UopDiv {
		params = append(params, iss.UopParam{IsBool: true, Bool: signed})
	}
	out, err := d.ISS.ExecuteUop(d.CPU, code, params)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, forceerr.New(forceerr.IssMismatch, op, "uop did not return exactly one output")
	}
	result := out[0].UInt64
	if d.Target != nil && !d.Target.ContainsValue(result) {
		return 0, forceerr.New(forceerr.IssMismatch, op, "ISS forward result does not lie in the target constraint")
	}
	return result, nil
}

// SolveMulAdd solves target = m*n + a for the operand named free,
// sampling the other two from their own registers/constraints. regM,
// regN, regA may be nil for an operand with no register identity (an
// immediate); cM, cN, cA are the corresponding legal-value constraints.
func (d *DataProcessingSolvingShared) SolveMulAdd(r *rand.Rand, regM, regN, regA *register.Register, cM, cN, cA *constraint.Set, free MulAddOperand, window uint64) (m, n, a uint64, err error) {
	const op = "DataProcessingSolvingShared.SolveMulAdd"
	if sameRegister(regM, regN) || sameRegister(regM, regA) || sameRegister(regN, regA) {
		return 0, 0, 0, forceerr.New(forceerr.ConstraintMalformed, op, "MulAdd operands must be distinct registers")
	}

	switch free {
	case Addend:
		if m, err = sampleOperand(r, regM, cM, op); err != nil {
			return 0, 0, 0, err
		}
		if n, err = sampleOperand(r, regN, cN, op); err != nil {
			return 0, 0, 0, err
		}
		candidate := d.Target.Clone()
		candidate.SubtractFromElements(m * n)
		candidate.Apply(cA)
		if candidate.IsEmpty() {
			return 0, 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "no addend satisfies target - m*n")
		}
		if a, err = candidate.ChooseValue(r); err != nil {
			return 0, 0, 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample addend", err)
		}

	case Multiplier, Multiplicand:
		if a, err = sampleOperand(r, regA, cA, op); err != nil {
			return 0, 0, 0, err
		}
		var fixedFactor uint64
		var fixedConstraint *constraint.Set
		if free == Multiplier {
			// n is the unknown; m is already fixed.
			if fixedFactor, err = sampleOperand(r, regM, cM, op); err != nil {
				return 0, 0, 0, err
			}
			fixedConstraint = cN
		} else {
			// m is the unknown; n is already fixed.
			if fixedFactor, err = sampleOperand(r, regN, cN, op); err != nil {
				return 0, 0, 0, err
			}
			fixedConstraint = cM
		}
		if fixedFactor == 0 {
			// m*n collapses to 0 regardless of the free factor: the
			// equation reduces to a pure equality on a (spec.md §9's
			// resolved open question). Accept only if a already lies in
			// the target; otherwise this configuration cannot solve.
			if !d.Target.ContainsValue(a) {
				return 0, 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "fixed factor is zero and addend is outside target")
			}
			degenerate, err := fixedConstraint.ChooseValue(r)
			if err != nil {
				return 0, 0, 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample degenerate free factor", err)
			}
			if free == Multiplier {
				m, n = fixedFactor, degenerate
			} else {
				m, n = degenerate, fixedFactor
			}
			break
		}
		product := d.Target.Clone()
		product.SubtractFromElements(a)
		lo, hi := factorWindow(r, ^uint64(0)/fixedFactor+1, window)
		if err := product.DivideElementsWithFactorRangeUnionedWithZero(fixedFactor, lo, hi); err != nil {
			return 0, 0, 0, forceerr.Wrap(forceerr.ConstraintMalformed, op, "factor division failed", err)
		}
		product.Apply(fixedConstraint)
		if product.IsEmpty() {
			return 0, 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "no free factor in window satisfies target - a")
		}
		freeVal, err := product.ChooseValue(r)
		if err != nil {
			return 0, 0, 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample free factor", err)
		}
		if free == Multiplier {
			m, n = fixedFactor, freeVal
		} else {
			m, n = freeVal, fixedFactor
		}
	}

	if _, err := d.verifyForward(iss.UopMulAdd, []uint64{m, n, a}, false); err != nil {
		return 0, 0, 0, err
	}
	return m, n, a, nil
}

// SolveMul is SolveMulAdd with the addend fixed at 0 (spec.md §4.5:
// "identical to MulAdd with a = 0").
func (d *DataProcessingSolvingShared) SolveMul(r *rand.Rand, regM, regN *register.Register, cM, cN *constraint.Set, free MulAddOperand, window uint64) (m, n uint64, err error) {
	zero := constraint.New()
	zero.AddValue(0)
	m, n, _, err = d.SolveMulAdd(r, regM, regN, nil, cM, cN, zero, free, window)
	return m, n, err
}

// SolveDiv picks a dividend and divisor from their constraints (rejecting
// a zero divisor, spec.md §4.5), forward-executes, and verifies the
// quotient lies in the target.
func (d *DataProcessingSolvingShared) SolveDiv(r *rand.Rand, cDividend, cDivisor *constraint.Set, signed bool) (dividend, divisor, quotient uint64, err error) {
	const op = "DataProcessingSolvingShared.SolveDiv"
	divisors := cDivisor.Clone()
	divisors.SubValue(0)
	if divisors.IsEmpty() {
		return 0, 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "no nonzero divisor available")
	}
	divisor, err = divisors.ChooseValue(r)
	if err != nil {
		return 0, 0, 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample divisor", err)
	}
	dividend, err = cDividend.ChooseValue(r)
	if err != nil {
		return 0, 0, 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample dividend", err)
	}
	quotient, err = d.verifyForward(iss.UopDiv, []uint64{dividend, divisor}, signed)
	if err != nil {
		return 0, 0, 0, err
	}
	return dividend, divisor, quotient, nil
}

// SolveAddWithCarry solves target = dependent + independent + carry for
// dependent, given independent and carry are already fixed (spec.md
// §4.5): subtract independent+carry from target, intersect with the
// dependent operand's constraint, pick a point.
func (d *DataProcessingSolvingShared) SolveAddWithCarry(r *rand.Rand, independent, carry uint64, cDependent *constraint.Set) (dependent uint64, err error) {
	const op = "DataProcessingSolvingShared.SolveAddWithCarry"
	candidate := d.Target.Clone()
	candidate.SubtractFromElements(independent + carry)
	candidate.Apply(cDependent)
	if candidate.IsEmpty() {
		return 0, forceerr.New(forceerr.NoAddressSolution, op, "no dependent operand satisfies target - independent - carry")
	}
	dependent, err = candidate.ChooseValue(r)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample dependent operand", err)
	}
	if _, err := d.verifyForward(iss.UopAddWithCarry, []uint64{dependent, independent, carry}, false); err != nil {
		return 0, err
	}
	return dependent, nil
}

// SolveSubWithCarry mirrors SolveAddWithCarry for target = minuend +
// ^subtrahend + carry (spec.md §9's resolved two's-complement semantics).
// solveForMinuend selects whether the dependent operand being solved is
// the minuend (true) or the subtrahend (false).
func (d *DataProcessingSolvingShared) SolveSubWithCarry(r *rand.Rand, fixed, carry uint64, cDependent *constraint.Set, solveForMinuend bool) (dependent uint64, err error) {
	const op = "DataProcessingSolvingShared.SolveSubWithCarry"
	candidate := d.Target.Clone()
	if solveForMinuend {
		// target = dependent + ^fixed + carry  =>  dependent = target - ^fixed - carry
		candidate.SubtractFromElements(^fixed + carry)
	} else {
		// target = fixed + ^dependent + carry  =>  ^dependent = target - fixed - carry
		// => dependent = ^(target - fixed - carry)
		candidate.SubtractFromElements(fixed + carry)
		candidate.NotElements()
	}
	candidate.Apply(cDependent)
	if candidate.IsEmpty() {
		return 0, forceerr.New(forceerr.NoAddressSolution, op, "no dependent operand satisfies the carry-subtract equation")
	}
	dependent, err = candidate.ChooseValue(r)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample dependent operand", err)
	}
	var minuend, subtrahend uint64
	if solveForMinuend {
		minuend, subtrahend = dependent, fixed
	} else {
		minuend, subtrahend = fixed, dependent
	}
	if _, err := d.verifyForward(iss.UopSubWithCarry, []uint64{minuend, subtrahend, carry}, false); err != nil {
		return 0, err
	}
	return dependent, nil
}
