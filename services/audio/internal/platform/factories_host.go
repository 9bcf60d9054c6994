//go:build !tinygo

package platform

import (
	"sync"
	"time"

	"audiosink-go/drivers/es8388"
	"audiosink-go/errcode"
	"audiosink-go/x/mathx"
	"audiosink-go/x/timex"

	"tinygo.org/x/drivers"
)

// ----------------------------- I²C (host) ------------------------------------

// HostI2C implements tinygo drivers.I2C over an in-memory register file.
// Writes are [reg, val...] with auto-increment; a read after a one-byte
// write returns from that register.
type HostI2C struct {
	mu     sync.Mutex
	regs   map[uint16]*[256]byte
	writes []HostWrite
	cfg    *es8388.I2CConfig

	// Fail, when set, is consulted before every transaction.
	Fail func(addr uint16, w []byte) error
}

// HostWrite is one recorded write transaction.
type HostWrite struct {
	Addr uint16
	W    []byte
}

var (
	_ drivers.I2C          = (*HostI2C)(nil)
	_ es8388.I2CConfigurer = (*HostI2C)(nil)
)

func (h *HostI2C) Configure(cfg es8388.I2CConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = &cfg
	return nil
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Fail != nil {
		if err := h.Fail(addr, w); err != nil {
			return err
		}
	}
	if h.regs == nil {
		h.regs = make(map[uint16]*[256]byte)
	}
	file, ok := h.regs[addr]
	if !ok {
		file = new([256]byte)
		h.regs[addr] = file
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	if len(w) > 1 {
		h.writes = append(h.writes, HostWrite{Addr: addr, W: append([]byte(nil), w...)})
		for i, b := range w[1:] {
			file[reg+byte(i)] = b
		}
	}
	for i := range r {
		r[i] = file[reg+byte(i)]
	}
	return nil
}

// Reg returns the last value written to reg at addr.
func (h *HostI2C) Reg(addr uint16, reg byte) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.regs[addr]; ok {
		return f[reg]
	}
	return 0
}

// Writes returns a copy of the recorded write transactions.
func (h *HostI2C) Writes() []HostWrite {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HostWrite(nil), h.writes...)
}

// Configured returns the last bus configuration, or nil.
func (h *HostI2C) Configured() *es8388.I2CConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// ----------------------------- I²S (host) ------------------------------------

// HostI2S emulates a DMA-fed transmitter: a queue of DMABufCount×DMABufLen
// frames drained in real time at the configured sample rate. WriteStereo
// blocks while the queue is full.
type HostI2S struct {
	mu      sync.Mutex
	cfg     es8388.I2SConfig
	ready   bool
	enabled bool
	queued  int
	last    time.Time
	played  uint64
	written uint64
	keep    []uint32

	// Keep bounds how many of the most recent frames are retained for
	// inspection. Zero keeps none.
	Keep int

	now   func() time.Time
	sleep func(time.Duration)
}

var _ es8388.I2S = (*HostI2S)(nil)

func NewHostI2S() *HostI2S {
	return &HostI2S{now: time.Now, sleep: time.Sleep}
}

func (h *HostI2S) Configure(cfg es8388.I2SConfig) error {
	if !cfg.SampleRate.Valid() {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2s.configure", Msg: "sample rate"}
	}
	if cfg.DMABufCount == 0 || cfg.DMABufLen == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2s.configure", Msg: "dma buffers"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
	h.ready = true
	h.queued = 0
	return nil
}

func (h *HostI2S) Enable(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drainLocked()
	h.enabled = on
	h.last = h.now()
}

// drainLocked retires frames the hardware would have shifted out since the
// last call.
func (h *HostI2S) drainLocked() {
	now := h.now()
	if !h.enabled || h.last.IsZero() {
		h.last = now
		return
	}
	n := timex.FramesIn(now.Sub(h.last), uint32(h.cfg.SampleRate))
	if n <= 0 {
		return
	}
	// on underflow TxAutoClear hardware plays silence; no catch-up
	n = mathx.Min(n, h.queued)
	h.queued -= n
	h.played += uint64(n)
	h.last = now
}

func (h *HostI2S) capacity() int { return int(h.cfg.DMABufCount) * int(h.cfg.DMABufLen) }

func (h *HostI2S) WriteStereo(frames []uint32) (int, error) {
	for {
		h.mu.Lock()
		if !h.ready || !h.enabled {
			h.mu.Unlock()
			return 0, &errcode.E{C: errcode.Busy, Op: "i2s.write", Msg: "not enabled"}
		}
		h.drainLocked()
		space := h.capacity() - h.queued
		if space > 0 {
			n := mathx.Min(len(frames), space)
			h.queued += n
			h.written += uint64(n)
			h.retainLocked(frames[:n])
			h.mu.Unlock()
			return n, nil
		}
		// wait roughly one DMA buffer
		wait := timex.FrameTime(int(h.cfg.DMABufLen), uint32(h.cfg.SampleRate))
		h.mu.Unlock()
		h.sleep(wait)
	}
}

func (h *HostI2S) retainLocked(frames []uint32) {
	if h.Keep <= 0 {
		return
	}
	h.keep = append(h.keep, frames...)
	if over := len(h.keep) - h.Keep; over > 0 {
		h.keep = append(h.keep[:0], h.keep[over:]...)
	}
}

// HostI2SStats is a snapshot of the emulated transmitter.
type HostI2SStats struct {
	Enabled bool
	Queued  int
	Written uint64
	Played  uint64
}

func (h *HostI2S) Stats() HostI2SStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drainLocked()
	return HostI2SStats{Enabled: h.enabled, Queued: h.queued, Written: h.written, Played: h.played}
}

// Recent returns the retained frames, oldest first.
func (h *HostI2S) Recent() []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint32(nil), h.keep...)
}

// Host bundles the emulated buses for tests and the demo.
type Host struct {
	I2C *HostI2C
	I2S *HostI2S
}

// NewHost builds a registry over fresh emulated buses.
func NewHost(timeout time.Duration) (*Registry, Host) {
	h := Host{I2C: &HostI2C{}, I2S: NewHostI2S()}
	r := NewRegistry(timeout)
	r.AddI2C(I2C0, h.I2C)
	r.AddI2S(I2S0, h.I2S)
	return r, h
}

// Default returns the platform registry.
func Default(timeout time.Duration) *Registry {
	r, _ := NewHost(timeout)
	return r
}
