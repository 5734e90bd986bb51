package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenMarksOnFirstUse(t *testing.T) {
	c := New(10, time.Hour)

	assert.False(t, c.Seen(42))
	assert.True(t, c.Seen(42))
	assert.True(t, c.Seen(42))
	assert.False(t, c.Seen(43))
}

func TestEntriesExpire(t *testing.T) {
	c := New(10, 20*time.Millisecond)

	assert.False(t, c.Seen(1))
	assert.True(t, c.Seen(1))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, c.Seen(1))
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := New(3, time.Hour)

	for id := int64(1); id <= 4; id++ {
		assert.False(t, c.Seen(id))
	}

	// Key 1 was evicted to make room for 4.
	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Seen(1))
	assert.True(t, c.Seen(4))
}

func TestForgetRearms(t *testing.T) {
	c := New(10, time.Hour)

	assert.False(t, c.Seen(7))
	c.Forget(7)
	assert.False(t, c.Seen(7))
}
