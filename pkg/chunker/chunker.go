package chunker

import (
	"strings"
	"sync"
	"time"
)

// Chunk is one display-sized piece of an assistant reply.
type Chunk struct {
	Text    string
	ReadyAt time.Time
}

// Emitter splits assistant replies into word chunks released on a fixed
// cadence, so the chat screen can render a typing effect without the core
// engine knowing about it. Pop returns nil until the next chunk is due.
type Emitter struct {
	chunks []Chunk
	mu     sync.Mutex
}

func NewEmitter() *Emitter {
	return &Emitter{chunks: make([]Chunk, 0)}
}

// Split breaks text into chunks of at most size words, each due delay
// after the previous one, starting now.
func Split(text string, size int, delay time.Duration) []Chunk {
	if size < 1 {
		size = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []Chunk
	readyAt := time.Now()
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Text:    strings.Join(words[start:end], " "),
			ReadyAt: readyAt,
		})
		readyAt = readyAt.Add(delay)
	}
	return chunks
}

func (e *Emitter) Push(chunks ...Chunk) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = append(e.chunks, chunks...)
}

// Pop removes and returns the first chunk that is due, or nil.
func (e *Emitter) Pop() *Chunk {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for i, c := range e.chunks {
		if c.ReadyAt.Before(now) || c.ReadyAt.Equal(now) {
			e.chunks = append(e.chunks[:i], e.chunks[i+1:]...)
			return &c
		}
	}
	return nil
}

// Peek returns the first due chunk without removing it.
func (e *Emitter) Peek() *Chunk {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for _, c := range e.chunks {
		if c.ReadyAt.Before(now) || c.ReadyAt.Equal(now) {
			return &c
		}
	}
	return nil
}

func (e *Emitter) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.chunks)
}
