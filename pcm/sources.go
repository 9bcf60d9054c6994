package pcm

import (
	"context"
	"io"
	"math"
	"sync"

	"github.com/go-audio/audio"
)

// ---- Tone ----

const sineSteps = 256

// Tone is an infinite sine generator. Each Next returns a fresh block.
type Tone struct {
	frames int
	amp    int
	step   uint32 // phase increment, 24.8 fixed point over sineSteps
	phase  uint32
	table  [sineSteps]int16
}

// NewTone returns a stereo sine at freqHz with peak amplitude amp.
func NewTone(freqHz int, amp int16, frames int) *Tone {
	if frames <= 0 {
		frames = DefaultFrames
	}
	t := &Tone{
		frames: frames,
		amp:    int(amp),
		step:   uint32(uint64(freqHz) * sineSteps * 256 / SampleRate),
	}
	for i := range t.table {
		t.table[i] = int16(math.Sin(2*math.Pi*float64(i)/sineSteps) * 32767)
	}
	return t
}

func (t *Tone) Next(ctx context.Context) (*audio.IntBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := NewBlock(t.frames)
	for i := 0; i < t.frames; i++ {
		v := int(t.table[(t.phase>>8)%sineSteps]) * t.amp / 32767
		buf.Data[2*i] = v
		buf.Data[2*i+1] = v
		t.phase += t.step
	}
	return buf, nil
}

// ---- Slice ----

// Slice hands out queued blocks in order, then io.EOF until more are pushed.
type Slice struct {
	mu     sync.Mutex
	blocks []*audio.IntBuffer
}

// NewSlice queues the given blocks.
func NewSlice(blocks ...*audio.IntBuffer) *Slice {
	return &Slice{blocks: append([]*audio.IntBuffer(nil), blocks...)}
}

// Push appends blocks; safe to call while a consumer is pulling.
func (s *Slice) Push(blocks ...*audio.IntBuffer) {
	s.mu.Lock()
	s.blocks = append(s.blocks, blocks...)
	s.mu.Unlock()
}

// Len returns the number of queued blocks.
func (s *Slice) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

func (s *Slice) Next(ctx context.Context) (*audio.IntBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		return nil, io.EOF
	}
	b := s.blocks[0]
	s.blocks[0] = nil
	s.blocks = s.blocks[1:]
	return b, nil
}
