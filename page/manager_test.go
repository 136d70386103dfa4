package page

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

func usableRange(lo, hi uint64) *constraint.Set {
	s, err := constraint.FromRanges([2]uint64{lo, hi})
	if err != nil {
		panic(err)
	}
	return s
}

func TestInitialiseCoverageInvariant(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFF), constraint.New())

	allocated := m.Usable().Clone()
	allocated.Subtract(m.Free())
	union := allocated.Clone()
	union.Merge(m.Free())
	assert.True(t, union.ContainsSet(m.Usable()))
	assert.True(t, m.Usable().ContainsSet(union))
}

func TestNewAllocationShrinksFree(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFF), constraint.New())
	r := rand.New(rand.NewPCG(1, 1))

	p, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ID)
	assert.False(t, m.Free().ContainsRange(p.PALo, p.PAHi))
}

func TestNewAllocationFailsWhenFull(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFF), constraint.New())
	r := rand.New(rand.NewPCG(2, 2))

	_, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, nil)
	require.NoError(t, err)

	_, err = m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, nil)
	require.Error(t, err)
	assert.True(t, forceerr.Recoverable(err))
}

func TestAliasRefusalWithoutForceMemAttrs(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFFF), constraint.New())
	r := rand.New(rand.NewPCG(3, 3))

	attrA := constraint.New()
	attrA.AddValue(0xA)
	p1, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{MemAttrImplConstraint: attrA})
	require.NoError(t, err)

	attrB := constraint.New()
	attrB.AddValue(0xB)
	req := &GenPageRequest{PA: &p1.PALo, MemAttrImplConstraint: attrB}
	_, err = m.AliasAllocation(r, 0, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, req)
	require.Error(t, err)
	assert.True(t, forceerr.Recoverable(err))

	// Widen the alias request past p1's upper bound so this hits the
	// merge (not the contained-subset) branch, where ForceMemAttrs
	// bypassing the compatibility check actually has an effect.
	req.ForceMemAttrs = true
	merged, err := m.AliasAllocation(r, 0, SizeInfo{Size: 0x2000, AlignMask: ^uint64(0xFFF)}, req)
	require.NoError(t, err)
	assert.True(t, merged.MemAttrs[0xA])
	assert.True(t, merged.MemAttrs[0xB])
}

func TestAliasAllocationContainedInExistingPagePreservesID(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFFF), constraint.New())
	r := rand.New(rand.NewPCG(6, 6))

	p1, err := m.NewAllocation(r, SizeInfo{Size: 0x2000, AlignMask: ^uint64(0xFFF)}, nil)
	require.NoError(t, err)
	require.NoError(t, m.CommitPage(Page{VALo: 0x40000, VAHi: 0x40FFF, SpaceID: "ctx0", PhysPageID: p1.ID}))

	// Alias a sub-range fully contained within p1: the original page must
	// stay in place under its original PageId, not be replaced by a
	// freshly merged page, or the committed Page.PhysPageID above would
	// point at nothing.
	sub := p1.PALo
	got, err := m.AliasAllocation(r, 0, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{PA: &sub})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)
	assert.Len(t, m.Pages(), 1)
}

func TestAliasAllocationRefusesNonAliasablePageEvenWithForceMemAttrs(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFFF), constraint.New())
	r := rand.New(rand.NewPCG(7, 7))

	p1, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, nil)
	require.NoError(t, err)
	p1.CanAlias = false

	sub := p1.PALo
	_, err = m.AliasAllocation(r, 0, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{PA: &sub, ForceMemAttrs: true})
	require.Error(t, err)
	assert.True(t, forceerr.Recoverable(err))
}

func TestAliasMergeOfMultipleOverlappedPages(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFFF), constraint.New())
	r := rand.New(rand.NewPCG(4, 4))

	pa1 := uint64(0x1000)
	pa2 := uint64(0x3000)
	_, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{PA: &pa1})
	require.NoError(t, err)
	_, err = m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{PA: &pa2})
	require.NoError(t, err)

	wide := uint64(0x1000)
	merged, err := m.AliasAllocation(r, 0, SizeInfo{Size: 0x3000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{PA: &wide})
	require.NoError(t, err)
	assert.Len(t, m.Pages(), 1)
	assert.Equal(t, uint64(0x1000), merged.PALo)
	assert.Equal(t, uint64(0x3FFF), merged.PAHi)
}

func TestCommitPagePublishesAttrRanges(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFFF), constraint.New())
	r := rand.New(rand.NewPCG(5, 5))

	attr := constraint.New()
	attr.AddValue(7)
	p, err := m.NewAllocation(r, SizeInfo{Size: 0x1000, AlignMask: ^uint64(0xFFF)}, &GenPageRequest{MemAttrImplConstraint: attr})
	require.NoError(t, err)

	require.NoError(t, m.CommitPage(Page{VALo: 0x40000, VAHi: 0x40FFF, SpaceID: "ctx0", PhysPageID: p.ID}))
	assert.Len(t, p.VirtualAliases, 1)
}

func TestSubAndAddToBoundary(t *testing.T) {
	m := NewManager()
	m.Initialise(usableRange(0, 0xFFFF), constraint.New())
	reserved := usableRange(0x8000, 0x8FFF)
	m.SubFromBoundary(reserved)
	assert.False(t, m.Free().Intersects(reserved))
	m.AddToBoundary(reserved)
	assert.False(t, m.Free().Intersects(reserved))
}
