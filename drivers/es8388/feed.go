package es8388

import (
	"context"
	"sync/atomic"
	"time"

	"audiosink-go/pcm"
)

// Stats are feed loop counters.
type Stats struct {
	Running        bool
	Blocks         uint64 // blocks fully handed to the bus
	Frames         uint64
	Underruns      uint64 // supplier had nothing; bus auto-clears meanwhile
	ShortWrites    uint64 // bus accepted part of a block
	WriteErrors    uint64
	SupplierErrors uint64
}

type feeder struct {
	out   I2S
	src   pcm.Supplier
	retry time.Duration
	words []uint32

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	running     atomic.Bool
	blocks      atomic.Uint64
	frames      atomic.Uint64
	underruns   atomic.Uint64
	shortWrites atomic.Uint64
	writeErrs   atomic.Uint64
	srcErrs     atomic.Uint64
}

func newFeeder(out I2S, src pcm.Supplier, cfg Config) *feeder {
	ctx, cancel := context.WithCancel(context.Background())
	return &feeder{
		out:    out,
		src:    src,
		retry:  cfg.RetryInterval,
		words:  make([]uint32, cfg.I2S.DMABufLen),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (f *feeder) start() {
	f.running.Store(true)
	go f.run()
}

// stop signals the loop and waits for it to leave. The loop checks between
// bus transfers, so a blocked WriteStereo delays the return.
func (f *feeder) stop() {
	f.cancel()
	<-f.done
}

func (f *feeder) stats() Stats {
	return Stats{
		Running:        f.running.Load(),
		Blocks:         f.blocks.Load(),
		Frames:         f.frames.Load(),
		Underruns:      f.underruns.Load(),
		ShortWrites:    f.shortWrites.Load(),
		WriteErrors:    f.writeErrs.Load(),
		SupplierErrors: f.srcErrs.Load(),
	}
}

func (f *feeder) run() {
	defer close(f.done)
	defer f.running.Store(false)

	for f.ctx.Err() == nil {
		buf, err := f.src.Next(f.ctx)
		if err != nil {
			if f.ctx.Err() != nil {
				return
			}
			if pcm.Exhausted(err) {
				f.underruns.Add(1)
			} else {
				f.srcErrs.Add(1)
			}
			f.wait()
			continue
		}

		if n := pcm.FrameCount(buf); n > len(f.words) {
			f.words = make([]uint32, n)
		}
		n := pcm.PackStereo(f.words, buf)
		if n == 0 {
			// empty block: same as nothing to hand out
			f.underruns.Add(1)
			f.wait()
			continue
		}
		if f.push(f.words[:n]) {
			f.blocks.Add(1)
		}
	}
}

// push hands frames to the bus, retrying partial writes. It returns false if
// the block was abandoned on a bus error or stop.
func (f *feeder) push(frames []uint32) bool {
	for off := 0; off < len(frames); {
		if f.ctx.Err() != nil {
			return false
		}
		k, err := f.out.WriteStereo(frames[off:])
		if k > 0 {
			f.frames.Add(uint64(k))
			off += k
		}
		if err != nil {
			f.writeErrs.Add(1)
			f.wait()
			return false
		}
		if off < len(frames) {
			f.shortWrites.Add(1)
			if k == 0 {
				f.wait()
			}
		}
	}
	return true
}

func (f *feeder) wait() {
	t := time.NewTimer(f.retry)
	defer t.Stop()
	select {
	case <-f.ctx.Done():
	case <-t.C:
	}
}
