package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegisterReadsBackWrittenValue(t *testing.T) {
	reg := buildRegister("x9", 0x1234)
	v, err := reg.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), v)
}

func TestBaseAndOffsetTargetIsExactSum(t *testing.T) {
	base := buildRegister("x1", 0x8000)
	offset := buildRegister("x2", 0x100)

	target, err := baseAndOffsetTarget(base, offset)
	require.NoError(t, err)
	assert.True(t, target.ContainsValue(0x8100))
	assert.False(t, target.ContainsValue(0x8101))
}
