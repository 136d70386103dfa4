package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/register"
)

// VectorStridedSolvingShared solves a vector load/store that visits
// EltCount elements of EltBytes width, spaced by the signed value in a
// stride register (spec.md §4.5). The addressed range must respect the
// element size/count/stride layout multiples: every element's address
// must stay aligned to EltBytes.
type VectorStridedSolvingShared struct {
	*AddressSolvingShared
	BaseRegister   *register.Register
	StrideRegister *register.Register
	EltBytes       uint64
	EltCount       uint64
}

func NewVectorStridedSolvingShared(ws *AddressSolvingShared, base, stride *register.Register, eltBytes, eltCount uint64) *VectorStridedSolvingShared {
	return &VectorStridedSolvingShared{AddressSolvingShared: ws, BaseRegister: base, StrideRegister: stride, EltBytes: eltBytes, EltCount: eltCount}
}

// Solve reads Base and Stride, computes every element address, and
// verifies each one individually (each element is its own EltBytes-wide
// access, so each must independently satisfy alignment and the VM
// constraints already baked into the workspace's Pool).
func (s *VectorStridedSolvingShared) Solve(r *rand.Rand) (uint64, error) {
	const op = "VectorStridedSolvingShared.Solve"
	if s.State != Setup {
		return 0, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	if s.EltBytes == 0 || s.EltCount == 0 {
		return 0, forceerr.New(forceerr.ConstraintMalformed, op, "EltBytes and EltCount must be nonzero")
	}
	s.State = SolveConstrained

	base, err := s.BaseRegister.Read()
	if err != nil {
		s.State = Reject
		return 0, err
	}
	strideRaw, err := s.StrideRegister.Read()
	if err != nil {
		s.State = Reject
		return 0, err
	}
	stride := int64(strideRaw)

	for elt := uint64(0); elt < s.EltCount; elt++ {
		addr := uint64(int64(base) + stride*int64(elt))
		if addr%s.EltBytes != 0 {
			s.State = Reject
			return 0, forceerr.New(forceerr.NoAddressSolution, op, "stride produces a misaligned element address")
		}
		ok, err := s.mapTargetAddressRange(r, addr)
		if err != nil {
			s.State = Reject
			return 0, err
		}
		if !ok {
			s.State = Reject
			return 0, forceerr.New(forceerr.NoAddressSolution, op, "strided element address failed verification after mapping")
		}
	}
	s.State = Accept
	s.VA = base
	return base, nil
}

// VectorIndexedSolvingShared solves a vector load/store whose per-element
// offsets come from a vector-of-offsets register rather than a uniform
// stride (spec.md §4.5).
type VectorIndexedSolvingShared struct {
	*AddressSolvingShared
	BaseRegister *register.Register
	Offsets      []int64 // one signed byte offset per element, already extracted
	EltBytes     uint64
}

func NewVectorIndexedSolvingShared(ws *AddressSolvingShared, base *register.Register, offsets []int64, eltBytes uint64) *VectorIndexedSolvingShared {
	return &VectorIndexedSolvingShared{AddressSolvingShared: ws, BaseRegister: base, Offsets: offsets, EltBytes: eltBytes}
}

func (s *VectorIndexedSolvingShared) Solve(r *rand.Rand) (uint64, error) {
	const op = "VectorIndexedSolvingShared.Solve"
	if s.State != Setup {
		return 0, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	if s.EltBytes == 0 || len(s.Offsets) == 0 {
		return 0, forceerr.New(forceerr.ConstraintMalformed, op, "EltBytes and Offsets must be nonempty")
	}
	s.State = SolveConstrained

	base, err := s.BaseRegister.Read()
	if err != nil {
		s.State = Reject
		return 0, err
	}

	for _, off := range s.Offsets {
		addr := uint64(int64(base) + off)
		if addr%s.EltBytes != 0 {
			s.State = Reject
			return 0, forceerr.New(forceerr.NoAddressSolution, op, "indexed element address is misaligned")
		}
		ok, err := s.mapTargetAddressRange(r, addr)
		if err != nil {
			s.State = Reject
			return 0, err
		}
		if !ok {
			s.State = Reject
			return 0, forceerr.New(forceerr.NoAddressSolution, op, "indexed element address failed verification after mapping")
		}
	}
	s.State = Accept
	s.VA = base
	return base, nil
}
