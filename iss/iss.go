// Package iss defines the narrow callback bridge to a functional
// instruction-set simulator (spec.md §6): register and physical-memory
// access, single-step execution, and the µop-level arithmetic the solver
// uses to invert data-processing targets. The package exposes an
// interface rather than a concrete FFI binding — the real shared-object
// bridge is out of scope (spec.md §1/§6's "Non-goals") — plus a
// deterministic in-memory Model used by this module's own tests and by
// cmd/forceaddr.
package iss

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// CPUID identifies one hart in a (potentially multi-hart) ISS instance.
type CPUID uint32

// Options configures an ISS session at Initialise.
type Options struct {
	// NumHarts is the number of harts the simulator should bring up.
	NumHarts int
	// Seed feeds any pseudo-randomness the simulator itself performs
	// (e.g. undefined-behaviour fill patterns). It is independent of the
	// solver's own math/rand/v2 streams.
	Seed uint64
}

// RegisterUpdate is one callback-reported register change.
type RegisterUpdate struct {
	CPU       CPUID
	Name      string
	LoBit     uint8
	HiBit     uint8
	Value     uint64
	AccessType MemAccessType
}

// MemAccessType mirrors the read/write distinction spec.md §3 uses for
// page requests and dependency-queue recording.
type MemAccessType uint8

const (
	AccessRead MemAccessType = iota
	AccessWrite
)

// MemoryUpdate is one callback-reported physical memory write.
type MemoryUpdate struct {
	CPU   CPUID
	Bank  uint8
	Addr  uint64
	Bytes []byte
}

// MMUEvent is a raw report of a paging-related event the simulator
// observed during a step (TLB fill, permission check, ...); the solver
// does not interpret these beyond logging them at Debug.
type MMUEvent struct {
	CPU  CPUID
	Kind string
	Addr uint64
}

// ExceptionEvent reports a trap the simulator took during a step.
type ExceptionEvent struct {
	CPU  CPUID
	Code uint64
	PC   uint64
}

// VectorElementUpdate is a per-element callback from a vector-register
// write; the bridge aggregates these per step into whole physical-register
// RegisterUpdates keyed on the bit interval the element occupies
// (spec.md §6).
type VectorElementUpdate struct {
	CPU          CPUID
	Name         string
	VRegIndex    int
	EltIndex     int
	EltByteWidth int
	Value        uint64
	AccessType   MemAccessType
}

// StepResult is what one Step call reports back.
type StepResult struct {
	RegisterUpdates []RegisterUpdate
	MemoryUpdates   []MemoryUpdate
	MMUEvents       []MMUEvent
	Exceptions      []ExceptionEvent
}

// UopCode names one of the fixed data-processing µops spec.md §4.5/§6
// lists; the solver inverts these, the ISS always executes the forward
// direction to validate a guess (spec.md §4.5 step 4).
type UopCode uint8

const (
	UopAddWithCarry UopCode = iota
	UopSubWithCarry
	UopMulAdd
	UopMul
	UopDiv
)

// UopParam is one typed input/output slot of execute_uop. Bool selects
// whether Div is signed/unsigned; every other slot is UInt64.
type UopParam struct {
	IsBool  bool
	Bool    bool
	UInt64  uint64
}

// ISS is the bridge contract spec.md §6 describes. A real implementation
// wraps the simulator's shared-object FFI; Model below is the in-memory
// stand-in used for tests.
type ISS interface {
	Initialise(opts Options) error
	Terminate() error

	ReadRegister(cpu CPUID, name string) (value, mask uint64, err error)
	WriteRegister(cpu CPUID, name string, value, mask uint64) error
	PartialReadLargeRegister(cpu CPUID, name string, byteOffset, byteLen int) ([]byte, error)
	PartialWriteLargeRegister(cpu CPUID, name string, byteOffset int, data []byte) error

	ReadPhysicalMemory(cpu CPUID, bank uint8, addr uint64, length int) ([]byte, error)
	WritePhysicalMemory(cpu CPUID, bank uint8, addr uint64, data []byte) error

	Step(cpu CPUID) (StepResult, error)

	ExecuteUop(cpu CPUID, code UopCode, inputs []UopParam) (outputs []UopParam, err error)
}

// notInitialisedErr builds the error Model returns for op before Initialise.
func notInitialisedErr(op string) error {
	return forceerr.New(forceerr.VmContextInvalid, op, "iss session not initialised")
}
