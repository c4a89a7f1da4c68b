package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionContains(t *testing.T) {
	r := region{addr: 0x1000, size: 0x10}
	assert.True(t, r.Contains(0x1000))
	assert.True(t, r.Contains(0x100f))
	assert.False(t, r.Contains(0x1010))
	assert.False(t, r.Contains(0x0fff))
}

func TestIsStackAndHeapAddress(t *testing.T) {
	assert.True(t, IsStackAddress(StackLow+1))
	assert.False(t, IsStackAddress(HeapLow+1))
	assert.True(t, IsHeapAddress(HeapLow+1))
	assert.False(t, IsHeapAddress(StackLow+1))
}
