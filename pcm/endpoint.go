package pcm

import (
	"context"
	"encoding/binary"
	"io"

	"audiosink-go/stream"

	"github.com/go-audio/audio"
)

// EndpointReader assembles raw interleaved 16-bit little-endian stereo bytes
// read from a stream.Endpoint into fixed-size blocks. Partial blocks are kept
// across calls; a block is handed out only once complete.
type EndpointReader struct {
	ep     stream.Endpoint
	frames int
	raw    []byte
	fill   int
	eof    bool
}

// FromEndpoint wraps an already-open endpoint.
func FromEndpoint(ep stream.Endpoint, frames int) *EndpointReader {
	if frames <= 0 {
		frames = DefaultFrames
	}
	return &EndpointReader{ep: ep, frames: frames, raw: make([]byte, frames*Channels*2)}
}

// Next returns ErrNoData while the endpoint has nothing new, and io.EOF once
// the endpoint reported EOF and no complete block remains.
func (r *EndpointReader) Next(ctx context.Context) (*audio.IntBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for r.fill < len(r.raw) {
		if r.eof {
			return nil, io.EOF
		}
		n, err := r.ep.Read(r.raw[r.fill:])
		r.fill += n
		if err == io.EOF {
			r.eof = true
			continue
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNoData
		}
	}
	buf := NewBlock(r.frames)
	for i := range buf.Data {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(r.raw[2*i:])))
	}
	r.fill = 0
	return buf, nil
}
