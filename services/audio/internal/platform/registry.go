// Package platform owns the board's control and streaming buses and hands
// them out exclusively.
package platform

import (
	"sync"
	"sync/atomic"
	"time"

	"audiosink-go/drivers/es8388"
	"audiosink-go/errcode"
	"audiosink-go/services/audio/internal/ctrlbus"

	"tinygo.org/x/drivers"
)

// Bus ids used by every board.
const (
	I2C0 = "i2c0"
	I2S0 = "i2s0"
)

type i2cSlot struct {
	owner  *ctrlbus.Owner
	holder string
}

type i2sSlot struct {
	hw     es8388.I2S
	holder string
}

// Registry tracks which device holds which bus.
type Registry struct {
	mu      sync.Mutex
	timeout time.Duration // per-transaction bound on control bus views
	i2c     map[string]*i2cSlot
	i2s     map[string]*i2sSlot
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout: timeout,
		i2c:     make(map[string]*i2cSlot),
		i2s:     make(map[string]*i2sSlot),
	}
}

// AddI2C registers a control bus and starts its worker.
func (r *Registry) AddI2C(id string, hw drivers.I2C) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.i2c[id]; ok {
		old.owner.Stop()
	}
	r.i2c[id] = &i2cSlot{owner: ctrlbus.NewOwner(id, hw)}
}

func (r *Registry) AddI2S(id string, hw es8388.I2S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.i2s[id] = &i2sSlot{hw: hw}
}

// ClaimI2C hands devID a serialised view of bus id.
func (r *Registry) ClaimI2C(id, devID string) (drivers.I2C, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.i2c[id]
	if !ok {
		return nil, errcode.UnknownBus
	}
	if s.holder != "" && s.holder != devID {
		return nil, &errcode.E{C: errcode.BusInUse, Op: "claim " + id, Msg: s.holder}
	}
	s.holder = devID
	return s.owner.Bus(r.timeout), nil
}

func (r *Registry) ReleaseI2C(id, devID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.i2c[id]
	if !ok {
		return errcode.UnknownBus
	}
	if s.holder == devID {
		s.holder = ""
	}
	return nil
}

// ClaimI2S hands devID the streaming bus id. Closing the returned handle
// detaches it without touching the hardware.
func (r *Registry) ClaimI2S(id, devID string) (es8388.I2S, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.i2s[id]
	if !ok {
		return nil, errcode.UnknownBus
	}
	if s.holder != "" && s.holder != devID {
		return nil, &errcode.E{C: errcode.BusInUse, Op: "claim " + id, Msg: s.holder}
	}
	s.holder = devID
	return &i2sView{hw: s.hw}, nil
}

func (r *Registry) ReleaseI2S(id, devID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.i2s[id]
	if !ok {
		return errcode.UnknownBus
	}
	if s.holder == devID {
		s.holder = ""
	}
	return nil
}

// Close stops every control bus worker.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.i2c {
		s.owner.Stop()
	}
}

type i2sView struct {
	hw     es8388.I2S
	closed atomic.Bool
}

func (v *i2sView) Configure(cfg es8388.I2SConfig) error {
	if v.closed.Load() {
		return errcode.Closed
	}
	return v.hw.Configure(cfg)
}

func (v *i2sView) WriteStereo(frames []uint32) (int, error) {
	if v.closed.Load() {
		return 0, errcode.Closed
	}
	return v.hw.WriteStereo(frames)
}

func (v *i2sView) Enable(on bool) {
	if v.closed.Load() {
		return
	}
	v.hw.Enable(on)
}

func (v *i2sView) Close() error {
	v.closed.Store(true)
	return nil
}
