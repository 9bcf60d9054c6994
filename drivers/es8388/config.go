package es8388

import (
	"time"

	"audiosink-go/errcode"
	"audiosink-go/x/mathx"
)

// Pin is a GPIO number. NoPin marks an unused signal.
type Pin int16

const (
	NoPin  Pin = -1
	MaxPin Pin = 63
)

func (p Pin) Valid() bool { return mathx.Between(p, 0, MaxPin) }

// Hz is a bus clock frequency.
type Hz uint32

const KHz Hz = 1000

// SampleRate is an audio frame rate in Hz.
type SampleRate uint32

// Valid accepts the rates the codec's 256·Fs MCLK mode supports.
func (r SampleRate) Valid() bool {
	switch r {
	case 8000, 11025, 16000, 22050, 32000, 44100, 48000, 96000:
		return true
	}
	return false
}

// BitDepth is bits per sample on the serial audio bus.
type BitDepth uint8

func (b BitDepth) Valid() bool { return b == 16 || b == 24 || b == 32 }

// Standard is the serial audio frame format.
type Standard uint8

const (
	StandardPhilips Standard = iota
	StandardMSB
	StandardLSB
)

// I2CConfig describes the control bus. The driver is always the controller.
type I2CConfig struct {
	SDA, SCL  Pin
	PullUp    bool
	Frequency Hz
	Address   uint16 // 7-bit
}

// I2SConfig describes the streaming bus. The driver is controller and
// transmit-only; SDI is normally NoPin.
type I2SConfig struct {
	SCK, WS, SDO, SDI Pin
	SampleRate        SampleRate
	BitsPerSample     BitDepth
	Stereo            bool
	Standard          Standard
	IntrPriority      uint8
	DMABufCount       uint16
	DMABufLen         uint16 // frames per DMA buffer
	UseAPLL           bool
	MCLKMultiple      uint16 // MCLK = MCLKMultiple × SampleRate
	TxAutoClear       bool   // output silence on underflow
}

// MCLK returns the fixed master clock in Hz.
func (c I2SConfig) MCLK() uint32 { return uint32(c.SampleRate) * uint32(c.MCLKMultiple) }

// Config is the full driver configuration.
type Config struct {
	I2C I2CConfig
	I2S I2SConfig
	// RegisterTimeout bounds each control-bus transaction. Default 1 s.
	RegisterTimeout time.Duration
	// RetryInterval is the feed loop back-off when the supplier or the
	// streaming bus has nothing to give. Default 5 ms, clamped to [1 ms, 1 s].
	RetryInterval time.Duration
	// Quiet suppresses per-step error logging.
	Quiet bool
}

// DefaultConfig returns the reference wiring: ESP32 audio board pins,
// 100 kHz control bus, 44.1 kHz 16-bit stereo, 8×512 DMA, APLL, MCLK 256·Fs.
func DefaultConfig() Config {
	return Config{
		I2C: I2CConfig{
			SDA:       33,
			SCL:       32,
			PullUp:    true,
			Frequency: 100 * KHz,
			Address:   AddressDefault,
		},
		I2S: I2SConfig{
			SCK:           27,
			WS:            25,
			SDO:           26,
			SDI:           NoPin,
			SampleRate:    44100,
			BitsPerSample: 16,
			Stereo:        true,
			Standard:      StandardMSB,
			IntrPriority:  0,
			DMABufCount:   8,
			DMABufLen:     512,
			UseAPLL:       true,
			MCLKMultiple:  256,
			TxAutoClear:   true,
		},
		RegisterTimeout: time.Second,
		RetryInterval:   5 * time.Millisecond,
	}
}

// withDefaults fills zero values from DefaultConfig. Pins are left alone.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.I2C.Frequency == 0 {
		c.I2C.Frequency = def.I2C.Frequency
	}
	if c.I2C.Address == 0 {
		c.I2C.Address = def.I2C.Address
	}
	if c.I2S.SampleRate == 0 {
		c.I2S.SampleRate = def.I2S.SampleRate
	}
	if c.I2S.BitsPerSample == 0 {
		c.I2S.BitsPerSample = def.I2S.BitsPerSample
	}
	if c.I2S.DMABufCount == 0 {
		c.I2S.DMABufCount = def.I2S.DMABufCount
	}
	if c.I2S.DMABufLen == 0 {
		c.I2S.DMABufLen = def.I2S.DMABufLen
	}
	if c.I2S.MCLKMultiple == 0 {
		c.I2S.MCLKMultiple = def.I2S.MCLKMultiple
	}
	if c.RegisterTimeout <= 0 {
		c.RegisterTimeout = def.RegisterTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = def.RetryInterval
	}
	c.RetryInterval = mathx.Clamp(c.RetryInterval, time.Millisecond, time.Second)
	return c
}

func invalid(field string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "es8388.config", Msg: field}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	i2c, i2s := c.I2C, c.I2S
	switch {
	case !i2c.SDA.Valid():
		return invalid("i2c sda pin")
	case !i2c.SCL.Valid():
		return invalid("i2c scl pin")
	case i2c.SDA == i2c.SCL:
		return invalid("i2c sda and scl share a pin")
	case !mathx.Between(i2c.Frequency, 10*KHz, 400*KHz):
		return invalid("i2c frequency outside 10..400 kHz")
	case i2c.Address == 0 || i2c.Address > 0x7F:
		return invalid("i2c address must be 7-bit non-zero")
	case !i2s.SCK.Valid():
		return invalid("i2s sck pin")
	case !i2s.WS.Valid():
		return invalid("i2s ws pin")
	case !i2s.SDO.Valid():
		return invalid("i2s sdo pin")
	case i2s.SDI != NoPin && !i2s.SDI.Valid():
		return invalid("i2s sdi pin")
	case i2s.SCK == i2s.WS || i2s.SCK == i2s.SDO || i2s.WS == i2s.SDO:
		return invalid("i2s pins overlap")
	case !i2s.SampleRate.Valid():
		return invalid("i2s sample rate")
	case !i2s.BitsPerSample.Valid():
		return invalid("i2s bits per sample")
	case i2s.Standard > StandardLSB:
		return invalid("i2s standard")
	case !mathx.Between(i2s.DMABufCount, 2, 128):
		return invalid("i2s dma buffer count outside 2..128")
	case !mathx.Between(i2s.DMABufLen, 8, 1024):
		return invalid("i2s dma buffer length outside 8..1024")
	}
	switch i2s.MCLKMultiple {
	case 128, 256, 384, 512:
	default:
		return invalid("i2s mclk multiple")
	}
	if c.RegisterTimeout <= 0 {
		return invalid("register timeout")
	}
	return nil
}
