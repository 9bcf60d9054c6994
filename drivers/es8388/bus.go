package es8388

import (
	"time"

	"audiosink-go/errcode"
)

// I2S is the streaming bus. The method set follows TinyGo's machine.I2S so a
// thin platform wrapper is enough on hardware.
type I2S interface {
	Configure(cfg I2SConfig) error
	// WriteStereo queues frames (left in the high half-word) and returns how
	// many were accepted. It may block while the DMA queue is full.
	WriteStereo(frames []uint32) (int, error)
	Enable(enabled bool)
}

// I2CConfigurer is implemented by control buses that accept wiring and clock
// settings. Buses without it are assumed to be configured already.
type I2CConfigurer interface {
	Configure(cfg I2CConfig) error
}

var (
	// Error kinds recorded in bring-up reports and feed stats.
	ErrBusSetup       error = errcode.BusSetup
	ErrRegisterWrite  error = errcode.RegisterWrite
	ErrStreamUnderrun error = errcode.StreamUnderrun
)

// writeRegister performs one START, addr+W, reg, value, STOP transaction
// bounded by the register timeout. A timed-out transaction is abandoned but
// keeps the bus slot until it returns; the next write waits for the slot
// within its own timeout and fails with Busy, so transactions never overlap
// on the wire.
func (d *Device) writeRegister(reg, val byte) error {
	t := time.NewTimer(d.cfg.RegisterTimeout)
	defer t.Stop()

	select {
	case d.tx <- struct{}{}:
	case <-t.C:
		return &errcode.E{C: errcode.RegisterWrite, Op: "es8388.write", Msg: RegName(reg), Err: errcode.Busy}
	}

	w := []byte{reg, val}
	done := make(chan error, 1)
	go func() {
		err := d.i2c.Tx(d.addr, w, nil)
		<-d.tx
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return &errcode.E{C: errcode.RegisterWrite, Op: "es8388.write", Msg: RegName(reg), Err: err}
		}
		return nil
	case <-t.C:
		return &errcode.E{C: errcode.RegisterWrite, Op: "es8388.write", Msg: RegName(reg), Err: errcode.Timeout}
	}
}
