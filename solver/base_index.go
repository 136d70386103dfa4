package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/register"
)

// Extension is the index-register extension mode spec.md §4.5 names for
// BaseIndexSolvingShared (UXTW, SXTW, plain LSL on the full register, ...).
type Extension uint8

const (
	UXTW Extension = iota
	SXTW
	LSL
	SXTX
)

func (e Extension) String() string {
	switch e {
	case UXTW:
		return "UXTW"
	case SXTW:
		return "SXTW"
	case LSL:
		return "LSL"
	case SXTX:
		return "SXTX"
	default:
		return "Unknown"
	}
}

// extend applies e to the low bits of raw before the caller left-shifts
// by the index's scale.
func extend(raw uint64, e Extension) int64 {
	switch e {
	case UXTW:
		return int64(uint32(raw))
	case SXTW:
		return int64(int32(uint32(raw)))
	default: // LSL, SXTX: the full 64-bit register value, already signed
		return int64(raw)
	}
}

// BaseIndexSolvingShared solves a base register plus an index register
// (extended and shifted) operand (spec.md §4.5). Candidates enumerates
// the index-register operand-choice table; only registers that are
// initialised with a valid value are eligible, unless IssCoSim is set, in
// which case any register other than the base is eligible as well. Solve
// only tries initialised candidates: an uninitialised register has no value
// to try, and nothing here obtains one from the ISS.
type BaseIndexSolvingShared struct {
	*AddressSolvingShared
	BaseRegister *register.Register
	Candidates   []*register.Register
	Ext          Extension
	ShiftAmount  uint8
	IssCoSim     bool
}

func NewBaseIndexSolvingShared(ws *AddressSolvingShared, base *register.Register, candidates []*register.Register, ext Extension, shift uint8, issCoSim bool) *BaseIndexSolvingShared {
	return &BaseIndexSolvingShared{AddressSolvingShared: ws, BaseRegister: base, Candidates: candidates, Ext: ext, ShiftAmount: shift, IssCoSim: issCoSim}
}

// eligible returns candidates usable as the index register: initialised
// ones always qualify; under ISS co-simulation an uninitialised register
// also qualifies as long as it is not the base register itself (spec.md
// §4.5: "reject configurations with repeated registers").
func (s *BaseIndexSolvingShared) eligible() []*register.Register {
	var out []*register.Register
	for _, c := range s.Candidates {
		if c == s.BaseRegister {
			continue
		}
		if c.Initialized() || s.IssCoSim {
			out = append(out, c)
		}
	}
	return out
}

// Solve tries each initialised eligible index register (in a randomly
// shuffled order) with its current value, skipping uninitialised ones; the
// first candidate whose resulting VA maps and verifies is accepted.
func (s *BaseIndexSolvingShared) Solve(r *rand.Rand) (uint64, *register.Register, error) {
	const op = "BaseIndexSolvingShared.Solve"
	if s.State != Setup {
		return 0, nil, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	s.State = SolveConstrained

	baseVal, err := s.BaseRegister.Read()
	if err != nil {
		s.State = Reject
		return 0, nil, err
	}

	candidates := s.eligible()
	order := r.Perm(len(candidates))
	for _, i := range order {
		idxReg := candidates[i]
		if !idxReg.Initialized() {
			continue // ISS co-sim would drive this; nothing to try without a value
		}
		idxVal, err := idxReg.Read()
		if err != nil {
			continue
		}
		offset := extend(idxVal, s.Ext) << s.ShiftAmount
		va := uint64(int64(baseVal) + offset)
		ok, err := s.mapTargetAddressRange(r, va)
		if err != nil {
			if forceerr.Recoverable(err) {
				continue
			}
			return 0, nil, err
		}
		if ok {
			s.State = Accept
			s.VA = va
			return va, idxReg, nil
		}
	}
	s.State = Reject
	return 0, nil, forceerr.New(forceerr.NoAddressSolution, op, "no eligible index register produced a verified address")
}

// BaseIndexAmountBitSolvingShared is BaseIndexSolvingShared where the
// extension's shift amount is itself chosen between 0 and 1 based on a
// bit-valued operand constraint (spec.md §4.5), rather than a fixed
// ShiftAmount.
type BaseIndexAmountBitSolvingShared struct {
	*BaseIndexSolvingShared
	AmountBit *register.RegisterField // a single-bit field selecting 0 or 1
}

func NewBaseIndexAmountBitSolvingShared(ws *AddressSolvingShared, base *register.Register, candidates []*register.Register, ext Extension, amountBit *register.RegisterField, issCoSim bool) *BaseIndexAmountBitSolvingShared {
	inner := NewBaseIndexSolvingShared(ws, base, candidates, ext, 0, issCoSim)
	return &BaseIndexAmountBitSolvingShared{BaseIndexSolvingShared: inner, AmountBit: amountBit}
}

// Solve reads AmountBit to fix ShiftAmount to 0 or 1 and then delegates to
// BaseIndexSolvingShared.Solve.
func (s *BaseIndexAmountBitSolvingShared) Solve(r *rand.Rand) (uint64, *register.Register, error) {
	const op = "BaseIndexAmountBitSolvingShared.Solve"
	if s.AmountBit == nil || !s.AmountBit.Initialized() {
		return 0, nil, forceerr.New(forceerr.NoAddressSolution, op, "amount-bit operand is not initialised")
	}
	bit := s.AmountBit.Read()
	if bit > 1 {
		forceerr.Panic(forceerr.InvariantViolation, op, "amount-bit field is wider than one bit")
	}
	s.ShiftAmount = uint8(bit)
	return s.BaseIndexSolvingShared.Solve(r)
}
