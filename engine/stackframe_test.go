package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackframeAccessGapDefaultsToBoundaries(t *testing.T) {
	f := NewStackframe(0x7000, 0x20)
	lo, hi := f.AccessGap(0x10)
	assert.Equal(t, uint64(0), lo)
	assert.Equal(t, uint64(0x20), hi)
}

func TestStackframeAccessGapNarrowsAroundRecordedAccesses(t *testing.T) {
	f := NewStackframe(0x7000, 0x40)
	f.AddAccess(0x08)
	f.AddAccess(0x20)

	lo, hi := f.AccessGap(0x10)
	assert.Equal(t, uint64(0x08), lo)
	assert.Equal(t, uint64(0x20), hi)
}

func TestStackframeAddAccessDeduplicates(t *testing.T) {
	f := NewStackframe(0x7000, 0x10)
	f.AddAccess(0x04)
	f.AddAccess(0x04)
	assert.Len(t, f.accesses, 3) // 0, size, and the one distinct access
}

func TestStackframeResetReseedsBoundaries(t *testing.T) {
	f := NewStackframe(0x7000, 0x10)
	f.AddAccess(0x04)
	f.reset(0x6ff0, 0x20)
	assert.Equal(t, uint64(0x6ff0), f.Addr())
	assert.Equal(t, uint64(0x20), f.Size())
	assert.Equal(t, []uint64{0, 0x20}, f.accesses)
}

func TestStackframeExtendGrowsSizeAndSeedsBoundary(t *testing.T) {
	f := NewStackframe(0x7000, 0x10)
	f.Extend(0x10)
	assert.Equal(t, uint64(0x20), f.Size())
	lo, hi := f.AccessGap(0x18)
	assert.Equal(t, uint64(0x10), lo)
	assert.Equal(t, uint64(0x20), hi)
}
