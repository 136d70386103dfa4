// Package page implements the physical-frame bookkeeping spec.md §4.2
// describes: PhysicalPage identity and attribute records, and the
// PhysicalPageManager that allocates, merges, and aliases them.
package page

import "github.com/openhwgroup/force-riscv-sub004/constraint"

// PrivilegeLevel is the requested access's privilege ring.
type PrivilegeLevel uint8

const (
	PrivilegeUser PrivilegeLevel = iota
	PrivilegeSupervisor
	PrivilegeMachine
)

// MemAccessType distinguishes instruction fetch from data read/write.
type MemAccessType uint8

const (
	AccessRead MemAccessType = iota
	AccessWrite
	AccessInstruction
)

// BankType selects which memory bank (address space partition) a request
// targets; banks are managed independently, each by its own
// PhysicalPageManager.
type BankType uint8

const (
	BankDefault BankType = iota
	BankSecure
)

// SizeInfo carries the access width and required alignment for one
// mapping request: AlignMask is the set-bits mask of addresses considered
// aligned (x & AlignMask == x), mirroring ConstraintSet.AlignWithSize's
// contract.
type SizeInfo struct {
	Size      uint64
	AlignMask uint64
}

// GenPageRequest is configuration-as-data for one requested mapping (spec
// §3's GenPageRequest). One instance is built per generation act and
// consumed by both the solver and the PhysicalPageManager.
type GenPageRequest struct {
	InstrAddr        bool
	FlatMap          bool
	ForceAlias       bool
	ForceMemAttrs    bool
	CanAlias         bool
	ForceNewAddr     bool
	NoInstrPageFault bool
	NoDataPageFault  bool
	NoDataAbort      bool
	SharedMemory     bool

	Privilege  PrivilegeLevel
	Access     MemAccessType
	Bank       BankType

	PA            *uint64
	AliasPageID   *uint64

	MemAttrImplConstraint      *constraint.Set
	MemAttrArchConstraint      *constraint.Set
	TargetAliasAttrsConstraint *constraint.Set
}

// AliasRef is a non-owning reference to a virtual page aliased onto a
// PhysicalPage: (address-space id, virtual page base). Using value tuples
// instead of pointers avoids the cyclic Page/PhysicalPage/VmAddressSpace
// ownership the source expressed with raw pointers (spec.md §9).
type AliasRef struct {
	SpaceID string
	VALo    uint64
}

// PhysicalPage is one physical frame: identity, attribute set, and the
// virtual pages currently aliased onto it. ID is assigned by a
// monotonically increasing counter starting at 1; 0 is never a valid ID.
type PhysicalPage struct {
	ID             uint64
	PALo, PAHi     uint64
	CanAlias       bool
	MemAttrs       map[uint64]bool
	VirtualAliases []AliasRef
}

// Contains reports whether pa lies within this physical page.
func (p *PhysicalPage) Contains(pa uint64) bool {
	return pa >= p.PALo && pa <= p.PAHi
}

// Overlaps reports whether [lo, hi] intersects this physical page's range.
func (p *PhysicalPage) Overlaps(lo, hi uint64) bool {
	return lo <= p.PAHi && hi >= p.PALo
}

// Page is a virtual page: a VA range mapped through one address space into
// a physical page, referenced non-owning by ID (spec.md §3, §9).
type Page struct {
	VALo, VAHi uint64
	Bank       BankType
	PTELevel   uint8
	SpaceID    string
	PhysPageID uint64
}
