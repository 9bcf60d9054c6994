package pcm

import (
	"context"
	"io"

	"audiosink-go/errcode"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVLoop decodes a 16-bit PCM WAV stream and replays it forever.
// Mono files are handed out as mono blocks; PackStereo duplicates them.
type WAVLoop struct {
	dec    *wav.Decoder
	frames int
	ch     int
}

// NewWAVLoop validates the header and positions the decoder at the PCM data.
func NewWAVLoop(rs io.ReadSeeker, frames int) (*WAVLoop, error) {
	if frames <= 0 {
		frames = DefaultFrames
	}
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "pcm.wav", Msg: "not a valid wav file"}
	}
	if dec.BitDepth != BitDepth {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "pcm.wav", Msg: "only 16-bit PCM is supported"}
	}
	if dec.NumChans == 0 || dec.NumChans > 2 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "pcm.wav", Msg: "only mono or stereo is supported"}
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "pcm.wav", Err: err}
	}
	return &WAVLoop{dec: dec, frames: frames, ch: int(dec.NumChans)}, nil
}

// SampleRate reports the file's sample rate.
func (w *WAVLoop) SampleRate() int { return int(w.dec.SampleRate) }

func (w *WAVLoop) Next(ctx context.Context) (*audio.IntBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.ch, SampleRate: int(w.dec.SampleRate)},
		Data:           make([]int, w.frames*w.ch),
		SourceBitDepth: BitDepth,
	}
	n, err := w.dec.PCMBuffer(buf)
	if n == 0 {
		// End of data: rewind once and try again.
		if rerr := w.dec.Rewind(); rerr != nil {
			return nil, ErrNoData
		}
		n, err = w.dec.PCMBuffer(buf)
	}
	if n == 0 {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrNoData
	}
	buf.Data = buf.Data[:n-n%w.ch]
	return buf, nil
}
