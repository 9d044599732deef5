package chunker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	chunks := Split("one two three four five", 2, 10*time.Millisecond)
	require.Len(t, chunks, 3)
	assert.Equal(t, "one two", chunks[0].Text)
	assert.Equal(t, "three four", chunks[1].Text)
	assert.Equal(t, "five", chunks[2].Text)
	assert.True(t, chunks[1].ReadyAt.After(chunks[0].ReadyAt))
}

func TestSplitEmptyAndSmallSize(t *testing.T) {
	assert.Nil(t, Split("   ", 4, time.Millisecond))

	chunks := Split("a b", 0, time.Millisecond)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Text)
}

func TestEmitterReleasesInOrder(t *testing.T) {
	emitter := NewEmitter()
	now := time.Now()
	emitter.Push(
		Chunk{Text: "first", ReadyAt: now.Add(-time.Second)},
		Chunk{Text: "second", ReadyAt: now.Add(-time.Millisecond)},
	)

	assert.Equal(t, 2, emitter.Size())
	first := emitter.Pop()
	require.NotNil(t, first)
	assert.Equal(t, "first", first.Text)
	second := emitter.Pop()
	require.NotNil(t, second)
	assert.Equal(t, "second", second.Text)
	assert.Nil(t, emitter.Pop())
}

func TestEmitterHoldsFutureChunks(t *testing.T) {
	emitter := NewEmitter()
	emitter.Push(Chunk{Text: "later", ReadyAt: time.Now().Add(time.Hour)})

	assert.Nil(t, emitter.Peek())
	assert.Nil(t, emitter.Pop())
	assert.Equal(t, 1, emitter.Size())
}

func TestEmitterPeekKeepsChunk(t *testing.T) {
	emitter := NewEmitter()
	emitter.Push(Chunk{Text: "due", ReadyAt: time.Now().Add(-time.Second)})

	require.NotNil(t, emitter.Peek())
	assert.Equal(t, 1, emitter.Size())
	require.NotNil(t, emitter.Pop())
	assert.Equal(t, 0, emitter.Size())
}
