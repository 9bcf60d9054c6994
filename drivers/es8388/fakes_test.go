package es8388

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// Compile-time checks.
var (
	_ drivers.I2C   = (*fakeI2C)(nil)
	_ I2CConfigurer = (*fakeI2C)(nil)
	_ I2S           = (*fakeI2S)(nil)
)

var errNACK = errors.New("nack")

type txRec struct {
	Addr uint16
	Reg  byte
	Val  byte
}

// fakeI2C records every write and fails the transactions listed in failAt
// (0-based attempt index). blockReg makes writes to that register hang
// until release is closed.
type fakeI2C struct {
	mu       sync.Mutex
	log      *eventLog
	writes   []txRec
	failAt   map[int]bool
	failAll  bool
	cfgErr   error
	cfg      *I2CConfig
	closed   int
	blockReg int
	release  chan struct{}
}

func newFakeI2C(log *eventLog) *fakeI2C {
	return &fakeI2C{log: log, failAt: map[int]bool{}, blockReg: -1, release: make(chan struct{})}
}

func (f *fakeI2C) Configure(cfg I2CConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = &cfg
	f.log.add("i2c.configure")
	return f.cfgErr
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if len(w) == 2 && int(w[0]) == f.blockReg {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.writes)
	f.writes = append(f.writes, txRec{Addr: addr, Reg: w[0], Val: w[1]})
	f.log.add("write")
	if f.failAll || f.failAt[idx] {
		return errNACK
	}
	return nil
}

func (f *fakeI2C) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeI2C) snapshot() []txRec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]txRec(nil), f.writes...)
}

func (f *fakeI2C) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeI2S accepts at most perCall frames per WriteStereo (0 = unlimited).
type fakeI2S struct {
	mu      sync.Mutex
	log     *eventLog
	cfgErr  error
	cfg     *I2SConfig
	enabled bool
	frames  []uint32
	calls   int
	perCall int
	closed  int
}

func newFakeI2S(log *eventLog) *fakeI2S { return &fakeI2S{log: log} }

func (f *fakeI2S) Configure(cfg I2SConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = &cfg
	f.log.add("i2s.configure")
	return f.cfgErr
}

func (f *fakeI2S) Enable(on bool) {
	f.mu.Lock()
	f.enabled = on
	f.mu.Unlock()
	if on {
		f.log.add("i2s.enable")
	} else {
		f.log.add("i2s.disable")
	}
}

func (f *fakeI2S) WriteStereo(frames []uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	n := len(frames)
	if f.perCall > 0 && n > f.perCall {
		n = f.perCall
	}
	f.frames = append(f.frames, frames[:n]...)
	return n, nil
}

func (f *fakeI2S) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	f.log.add("i2s.close")
	return nil
}

func (f *fakeI2S) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeI2S) isEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// eventLog records cross-bus ordering.
type eventLog struct {
	mu sync.Mutex
	ev []string
}

func (l *eventLog) add(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ev = append(l.ev, s)
	l.mu.Unlock()
}

func (l *eventLog) events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ev...)
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Quiet = true
	return cfg
}
