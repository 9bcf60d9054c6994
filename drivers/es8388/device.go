package es8388

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"audiosink-go/errcode"
	"audiosink-go/pcm"
	"audiosink-go/x/conv"

	"tinygo.org/x/drivers"
)

// State is the driver lifecycle position.
type State uint8

const (
	StateUninitialized State = iota
	StateBusConfiguring
	StateProgramming
	StateReady // programmed, feed not running
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBusConfiguring:
		return "bus_configuring"
	case StateProgramming:
		return "programming"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	default:
		return "closed"
	}
}

var (
	ErrNotReady      = &errcode.E{C: errcode.Busy, Op: "es8388.start", Msg: "bring-up has not run"}
	ErrAlreadyActive = &errcode.E{C: errcode.Busy, Op: "es8388.start", Msg: "feed already running"}
)

// Device is one ES8388 with exclusively owned control and streaming buses.
type Device struct {
	i2c  drivers.I2C
	i2s  I2S
	cfg  Config
	addr uint16
	tx   chan struct{} // one control transaction in flight

	state atomic.Uint32
	phase atomic.Uint32

	mu     sync.Mutex // serialises BringUp, Start and Close
	report *Report
	feed   *feeder
	closed bool
}

// New binds a driver to its buses. It performs no I/O; call BringUp next.
func New(ctrl drivers.I2C, stream I2S, cfg Config) *Device {
	cfg = cfg.withDefaults()
	return &Device{
		i2c:  ctrl,
		i2s:  stream,
		cfg:  cfg,
		addr: cfg.I2C.Address,
		tx:   make(chan struct{}, 1),
	}
}

// Config returns the effective configuration.
func (d *Device) Config() Config { return d.cfg }

func (d *Device) State() State { return State(d.state.Load()) }

// Phase is the program phase of the most recent register write.
func (d *Device) Phase() Phase { return Phase(d.phase.Load()) }

func (d *Device) setState(s State) { d.state.Store(uint32(s)) }

// BringUp configures the streaming bus (the codec wants clocks present while
// it is programmed), then the control bus, then runs the register program in
// order. Every failure is recorded and logged; nothing aborts the sequence
// except ctx cancellation, which marks the remaining writes as not attempted.
// BringUp runs once; later calls return the first report.
func (d *Device) BringUp(ctx context.Context) *Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.report != nil {
		return d.report
	}
	rep := &Report{}
	if d.closed {
		rep.add(Step{Name: "bringup", Err: errcode.Closed})
		return rep
	}
	d.report = rep

	d.setState(StateBusConfiguring)
	d.record(rep, Step{Name: "i2s.configure", Err: setupErr("i2s.configure", d.i2s.Configure(d.cfg.I2S))})
	d.i2s.Enable(true)
	if c, ok := d.i2c.(I2CConfigurer); ok {
		d.record(rep, Step{Name: "i2c.configure", Err: setupErr("i2c.configure", c.Configure(d.cfg.I2C))})
	}

	d.setState(StateProgramming)
	for _, w := range program {
		s := Step{Name: RegName(w.Reg), Phase: w.Phase, Reg: w.Reg, Value: w.Value}
		if err := ctx.Err(); err != nil {
			s.Err = &errcode.E{C: errcode.RegisterWrite, Op: "es8388.write", Msg: "not attempted", Err: err}
		} else {
			d.phase.Store(uint32(w.Phase))
			s.Err = d.writeRegister(w.Reg, w.Value)
		}
		d.record(rep, s)
	}

	d.setState(StateReady)
	if !d.cfg.Quiet {
		ok, failed := rep.Writes()
		println("Info: es8388: bring-up", rep.Status().String(),
			conv.Dec(uint64(ok)), "ok", conv.Dec(uint64(failed)), "failed")
	}
	return rep
}

func setupErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &errcode.E{C: errcode.BusSetup, Op: op, Err: err}
}

func (d *Device) record(rep *Report, s Step) {
	rep.add(s)
	if s.Err == nil || d.cfg.Quiet {
		return
	}
	if s.IsWrite() {
		println("Error: es8388:", s.Phase.String(), s.Name, conv.Hex8(s.Reg), "<-", conv.Hex8(s.Value), s.Err.Error())
	} else {
		println("Error: es8388:", s.Name, s.Err.Error())
	}
}

// Report returns the bring-up report, or nil before BringUp.
func (d *Device) Report() *Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report
}

// Start launches the feed goroutine pulling from src. The feed never touches
// the control bus.
func (d *Device) Start(src pcm.Supplier) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return errcode.Closed
	case d.report == nil:
		return ErrNotReady
	case d.feed != nil:
		return ErrAlreadyActive
	}
	d.feed = newFeeder(d.i2s, src, d.cfg)
	d.feed.start()
	d.setState(StateStreaming)
	return nil
}

// Stats returns feed counters; zero before Start.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	f := d.feed
	d.mu.Unlock()
	if f == nil {
		return Stats{}
	}
	return f.stats()
}

// Close stops the feed, mutes the DAC, disables the streaming bus and
// releases both buses. The mute is skipped if BringUp never ran, since the
// control bus was never configured. Later calls are no-ops.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if d.feed != nil {
		d.feed.stop()
	}

	var errs []error
	if d.report != nil {
		mw := MuteWrite()
		d.phase.Store(uint32(mw.Phase))
		if err := d.writeRegister(mw.Reg, mw.Value); err != nil {
			errs = append(errs, err)
			if !d.cfg.Quiet {
				println("Error: es8388: teardown mute", err.Error())
			}
		}
	}
	d.i2s.Enable(false)
	if c, ok := d.i2s.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := d.i2c.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.setState(StateClosed)
	return errors.Join(errs...)
}
