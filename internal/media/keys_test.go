package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopwave/motionscript/internal/media"
)

func TestKeyQueue_FIFO(t *testing.T) {
	t.Parallel()
	q := media.NewKeyQueue()
	assert.True(t, q.Push('a'))
	assert.True(t, q.Push('b'))

	assert.Equal(t, 'a', q.Poll())
	assert.Equal(t, 'b', q.Poll())
	assert.Equal(t, rune(0), q.Poll())
}

func TestKeyQueue_DropsNewestOnOverflow(t *testing.T) {
	t.Parallel()
	q := media.NewKeyQueue()
	for i := 0; i < media.KeyQueueCapacity; i++ {
		assert.True(t, q.Push('x'))
	}
	assert.False(t, q.Push('q'), "overflow must drop the newest event")

	for i := 0; i < media.KeyQueueCapacity; i++ {
		assert.Equal(t, 'x', q.Poll())
	}
	assert.Equal(t, rune(0), q.Poll(), "the dropped event must not surface")
}

func TestFrameToTimestamp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "00:00:00.000", media.FrameToTimestamp(0, 30))
	assert.Equal(t, "00:00:01.000", media.FrameToTimestamp(30, 30))
	assert.Equal(t, "00:01:00.000", media.FrameToTimestamp(1800, 30))
	assert.Equal(t, "01:00:00.000", media.FrameToTimestamp(108000, 30))
	assert.Equal(t, "00:00:00.500", media.FrameToTimestamp(15, 30))
}

func TestFrameToMs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(0), media.FrameToMs(0, 30))
	assert.Equal(t, int64(1000), media.FrameToMs(30, 30))
	assert.Equal(t, int64(500), media.FrameToMs(15, 30))
	assert.Equal(t, int64(100000), media.FrameToMs(100, 1))
}
