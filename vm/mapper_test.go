package vm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

func rng(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func fullRange(lo, hi uint64) *constraint.Set {
	s, err := constraint.FromRanges([2]uint64{lo, hi})
	if err != nil {
		panic(err)
	}
	return s
}

func newTestSpace(contextID string) *AddressSpace {
	usable := fullRange(0, 0xFFFFF)
	return NewAddressSpace(contextID, usable, usable, usable.Clone(), constraint.New(), constraint.New(), fullRange(0, 0xFFFFF), constraint.New())
}

func TestPagedMapperMapAndTranslate(t *testing.T) {
	m := NewPagedMapper(^uint64(0xFFF))
	m.EnsureContext("ctx0", func() *AddressSpace { return newTestSpace("ctx0") })

	r := rng(1)
	req := &page.GenPageRequest{}
	require.NoError(t, m.MapAddressRange(r, 0x10000, 0x1000, false, req))

	pa, _, result := m.TranslateVAToPA(0x10000, false)
	assert.Equal(t, Mapped, result)
	assert.NotZero(t, pa)

	_, _, result = m.TranslateVAToPA(0x90000, false)
	assert.Equal(t, NotMapped, result)
}

func TestPagedMapperTimestampBumpsOnMap(t *testing.T) {
	m := NewPagedMapper(^uint64(0xFFF))
	m.EnsureContext("ctx0", func() *AddressSpace { return newTestSpace("ctx0") })
	before := m.Timestamp()

	r := rng(2)
	require.NoError(t, m.MapAddressRange(r, 0x20000, 0x1000, false, &page.GenPageRequest{}))
	assert.Greater(t, m.Timestamp(), before)
}

func TestPagedMapperContextSwitchPreservesState(t *testing.T) {
	m := NewPagedMapper(^uint64(0xFFF))
	m.EnsureContext("ctx0", func() *AddressSpace { return newTestSpace("ctx0") })
	r := rng(3)
	require.NoError(t, m.MapAddressRange(r, 0x30000, 0x1000, false, &page.GenPageRequest{}))

	m.EnsureContext("ctx1", func() *AddressSpace { return newTestSpace("ctx1") })
	_, _, result := m.TranslateVAToPA(0x30000, false)
	assert.Equal(t, NotMapped, result) // ctx1 never mapped this VA

	m.EnsureContext("ctx0", func() *AddressSpace { panic("should not rebuild") })
	_, _, result = m.TranslateVAToPA(0x30000, false)
	assert.Equal(t, Mapped, result)
}

func TestVerifyVirtualAddressRejectsPrivilegedForUser(t *testing.T) {
	m := NewPagedMapper(^uint64(0xFFF))
	space := newTestSpace("ctx0")
	space.privileged = fullRange(0x5000, 0x5FFF)
	m.EnsureContext("ctx0", func() *AddressSpace { return space })

	req := &page.GenPageRequest{Privilege: page.PrivilegeUser}
	assert.False(t, m.VerifyVirtualAddress(0x5000, 0x100, false, req))
	assert.True(t, m.VerifyVirtualAddress(0x6000, 0x100, false, req))
}

func TestDirectMapperFlatIdentity(t *testing.T) {
	m := NewDirectMapper(fullRange(0, 0xFFFF), fullRange(0, 0xFFFF))
	r := rng(4)
	require.NoError(t, m.MapAddressRange(r, 0x1000, 0x100, false, &page.GenPageRequest{}))

	pa, _, result := m.TranslateVAToPA(0x1050, false)
	assert.Equal(t, Mapped, result)
	assert.Equal(t, uint64(0x1050), pa)
}
