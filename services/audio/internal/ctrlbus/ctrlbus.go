// Package ctrlbus serialises access to one I²C control bus through a single
// worker goroutine and hands out drivers.I2C views with bounded waits.
package ctrlbus

import (
	"sync"
	"sync/atomic"
	"time"

	"audiosink-go/drivers/es8388"
	"audiosink-go/errcode"

	"tinygo.org/x/drivers"
)

// request posted to the per-bus worker
type req struct {
	run  func() error
	done chan error // buffered(1); worker replies best-effort
}

// Owner hosts the worker for one bus.
type Owner struct {
	id   string
	hw   drivers.I2C
	reqs chan req
	quit chan struct{}
	once sync.Once
	exit chan struct{}
}

func NewOwner(id string, hw drivers.I2C) *Owner {
	o := &Owner{
		id:   id,
		hw:   hw,
		reqs: make(chan req, 16),
		quit: make(chan struct{}),
		exit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Owner) ID() string { return o.id }

func (o *Owner) loop() {
	defer close(o.exit)
	for {
		select {
		case r := <-o.reqs:
			err := r.run()
			// best-effort reply; do not block the worker
			select {
			case r.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

// Stop ends the worker after any in-flight transaction. Pending requests
// fail with errcode.Closed. Safe to call more than once.
func (o *Owner) Stop() {
	o.once.Do(func() { close(o.quit) })
	<-o.exit
}

// Bus returns a new drivers.I2C view. A zero timeout waits indefinitely.
func (o *Owner) Bus(timeout time.Duration) *Bus {
	return &Bus{o: o, timeout: timeout}
}

// Bus adapts the owner to tinygo.org/x/drivers.I2C.
// It posts a request and optionally enforces a per-call timeout.
type Bus struct {
	o       *Owner
	timeout time.Duration
	closed  atomic.Bool
}

var (
	_ drivers.I2C          = (*Bus)(nil)
	_ es8388.I2CConfigurer = (*Bus)(nil)
)

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.post(func() error { return b.o.hw.Tx(addr, w, r) })
}

// Configure forwards to the hardware when it accepts bus settings.
func (b *Bus) Configure(cfg es8388.I2CConfig) error {
	c, ok := b.o.hw.(es8388.I2CConfigurer)
	if !ok {
		return nil
	}
	return b.post(func() error { return c.Configure(cfg) })
}

// Close detaches this view; the owner keeps running for the next claimant.
func (b *Bus) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *Bus) post(run func() error) error {
	if b.closed.Load() {
		return errcode.Closed
	}
	rq := req{run: run, done: make(chan error, 1)}

	var expire <-chan time.Time
	if b.timeout > 0 {
		t := time.NewTimer(b.timeout)
		defer t.Stop()
		expire = t.C
	}

	// Enqueue
	select {
	case b.o.reqs <- rq:
	case <-b.o.quit:
		return errcode.Closed
	case <-expire:
		return errcode.Busy
	}

	// Completion
	select {
	case err := <-rq.done:
		return err
	case <-b.o.quit:
		// the worker may still finish this one; prefer its answer
		select {
		case err := <-rq.done:
			return err
		default:
			return errcode.Closed
		}
	case <-expire:
		return errcode.Timeout
	}
}
