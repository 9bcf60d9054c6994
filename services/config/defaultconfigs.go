package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Host build: emulated buses, 440 Hz test tone.
const cfgHost = `{
  "audio": {
    "i2c_bus": "i2c0",
    "i2s_bus": "i2s0",
    "source": {"kind": "tone", "freq_hz": 440, "amp": 8000},
    "stats_every_ms": 1000
  }
}`

// ESP32 audio board wiring, PCM pushed over TCP from the LAN.
const cfgAudioKit = `{
  "audio": {
    "sda": 33, "scl": 32, "i2c_khz": 100, "addr": 16,
    "sck": 27, "ws": 25, "sdo": 26,
    "sample_rate": 44100, "bits": 16,
    "dma_buf_count": 8, "dma_buf_len": 512,
    "register_timeout_ms": 1000,
    "source": {"kind": "endpoint", "address": "tcp://192.168.1.10:7000"}
  }
}`

// SAMD21 boards: I2S0 on the fixed SERCOM pins.
const cfgSAMD21 = `{
  "audio": {
    "sda": 8, "scl": 9,
    "sck": 10, "ws": 11, "sdo": 7,
    "sample_rate": 22050,
    "dma_buf_count": 4, "dma_buf_len": 256,
    "source": {"kind": "tone", "freq_hz": 1000, "amp": 6000}
  }
}`

var embeddedConfigs = map[string][]byte{
	"host":     []byte(cfgHost),
	"audiokit": []byte(cfgAudioKit),
	"samd21":   []byte(cfgSAMD21),
}
