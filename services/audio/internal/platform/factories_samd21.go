//go:build sam && atsamd21

package platform

import (
	"machine"
	"time"

	"audiosink-go/drivers/es8388"
)

// ----------------------------- I²C (SAMD21) ----------------------------------

type samdI2C struct{ hw *machine.I2C }

func (b *samdI2C) Tx(addr uint16, w, r []byte) error { return b.hw.Tx(addr, w, r) }

func (b *samdI2C) Configure(cfg es8388.I2CConfig) error {
	return b.hw.Configure(machine.I2CConfig{
		SDA:       machine.Pin(cfg.SDA),
		SCL:       machine.Pin(cfg.SCL),
		Frequency: uint32(cfg.Frequency),
	})
}

// ----------------------------- I²S (SAMD21) ----------------------------------

type samdI2S struct{ hw *machine.I2S }

func pinOrNone(p es8388.Pin) machine.Pin {
	if p == es8388.NoPin {
		return machine.NoPin
	}
	return machine.Pin(p)
}

func (s *samdI2S) Configure(cfg es8388.I2SConfig) error {
	std := machine.I2SStandardMSB
	switch cfg.Standard {
	case es8388.StandardPhilips:
		std = machine.I2StandardPhilips
	case es8388.StandardLSB:
		std = machine.I2SStandardLSB
	}
	return s.hw.Configure(machine.I2SConfig{
		SCK:             pinOrNone(cfg.SCK),
		WS:              pinOrNone(cfg.WS),
		SDO:             pinOrNone(cfg.SDO),
		SDI:             pinOrNone(cfg.SDI),
		Mode:            machine.I2SModeSource,
		Standard:        std,
		ClockSource:     machine.I2SClockSourceInternal,
		DataFormat:      machine.I2SDataFormat(cfg.BitsPerSample),
		AudioFrequency:  uint32(cfg.SampleRate),
		MainClockOutput: true,
		Stereo:          cfg.Stereo,
	})
}

func (s *samdI2S) WriteStereo(frames []uint32) (int, error) { return s.hw.WriteStereo(frames) }
func (s *samdI2S) Enable(on bool)                            { s.hw.Enable(on) }

// Default returns the platform registry over the SAMD21 peripherals.
func Default(timeout time.Duration) *Registry {
	r := NewRegistry(timeout)
	r.AddI2C(I2C0, &samdI2C{hw: machine.I2C0})
	r.AddI2S(I2S0, &samdI2S{hw: &machine.I2S0})
	return r
}
