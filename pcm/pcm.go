// Package pcm defines the sample supplier consumed by the codec feed loop and
// a handful of concrete suppliers.
//
// Blocks are go-audio IntBuffers holding interleaved signed 16-bit samples.
// A supplier is pulled continuously; when it has nothing to hand out it
// returns ErrNoData (or io.EOF) and the caller retries later.
package pcm

import (
	"context"
	"errors"
	"io"

	"audiosink-go/errcode"

	"github.com/go-audio/audio"
)

// Reference stream format.
const (
	SampleRate    = 44100
	Channels      = 2
	BitDepth      = 16
	DefaultFrames = 512
)

// ErrNoData means no block is available right now; retry later.
var ErrNoData error = errcode.NoData

// Supplier produces PCM blocks. Next may block until a block is ready or ctx
// is done. Implementations need not be restartable.
type Supplier interface {
	Next(ctx context.Context) (*audio.IntBuffer, error)
}

// SupplierFunc adapts a function to Supplier.
type SupplierFunc func(ctx context.Context) (*audio.IntBuffer, error)

func (f SupplierFunc) Next(ctx context.Context) (*audio.IntBuffer, error) { return f(ctx) }

// Exhausted reports whether err means "nothing right now" rather than a fault.
func Exhausted(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, io.EOF)
}

// Format returns the reference 44.1 kHz stereo format.
func Format() *audio.Format {
	return &audio.Format{NumChannels: Channels, SampleRate: SampleRate}
}

// NewBlock allocates a zeroed stereo block of the given number of frames.
func NewBlock(frames int) *audio.IntBuffer {
	if frames <= 0 {
		frames = DefaultFrames
	}
	return &audio.IntBuffer{
		Format:         Format(),
		Data:           make([]int, frames*Channels),
		SourceBitDepth: BitDepth,
	}
}

// PackStereo converts buf into I2S stereo words (left in the high half-word,
// right in the low half-word) and returns the number of frames written to
// dst. Mono blocks are duplicated to both channels; extra channels beyond
// two are dropped. Samples are clipped to int16.
func PackStereo(dst []uint32, buf *audio.IntBuffer) int {
	if buf == nil || len(buf.Data) == 0 {
		return 0
	}
	ch := Channels
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		ch = buf.Format.NumChannels
	}
	frames := len(buf.Data) / ch
	if frames > len(dst) {
		frames = len(dst)
	}
	for i := 0; i < frames; i++ {
		l := clip16(buf.Data[i*ch])
		r := l
		if ch > 1 {
			r = clip16(buf.Data[i*ch+1])
		}
		dst[i] = uint32(uint16(l))<<16 | uint32(uint16(r))
	}
	return frames
}

// FrameCount returns the number of frames in buf.
func FrameCount(buf *audio.IntBuffer) int {
	if buf == nil {
		return 0
	}
	ch := Channels
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		ch = buf.Format.NumChannels
	}
	return len(buf.Data) / ch
}

func clip16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
