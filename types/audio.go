package types

// ---- Codec status (retained, "audio/codec/status") ----

// CodecState mirrors the driver lifecycle.
type CodecState string

const (
	CodecInitialising CodecState = "initialising"
	CodecReady        CodecState = "ready"
	CodecStreaming    CodecState = "streaming"
	CodecClosed       CodecState = "closed"
	CodecError        CodecState = "error"
)

// StepResult is one failed bring-up step.
type StepResult struct {
	Name  string `json:"name"`
	Phase string `json:"phase,omitempty"`
	Reg   uint8  `json:"reg,omitempty"`
	Value uint8  `json:"value,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type CodecStatus struct {
	State    CodecState   `json:"state"`
	Bringup  string       `json:"bringup,omitempty"` // ok | partial | failed
	WritesOK int          `json:"writes_ok"`
	WritesKO int          `json:"writes_failed"`
	Failed   []StepResult `json:"failed,omitempty"`
	Source   string       `json:"source,omitempty"`
	Error    string       `json:"error,omitempty"`
	TS       int64        `json:"ts_ms"`
}

// ---- Feed telemetry ("audio/codec/feed") ----

type FeedStats struct {
	Running        bool   `json:"running"`
	Blocks         uint64 `json:"blocks"`
	Frames         uint64 `json:"frames"`
	Underruns      uint64 `json:"underruns"`
	ShortWrites    uint64 `json:"short_writes"`
	WriteErrors    uint64 `json:"write_errors"`
	SupplierErrors uint64 `json:"supplier_errors"`
	TS             int64  `json:"ts_ms"`
}

// ---- Configuration ("config/audio") ----

// AudioConfig is the "audio" section of a device config. Zero fields take
// the driver defaults.
type AudioConfig struct {
	I2CBus string `json:"i2c_bus,omitempty"` // default "i2c0"
	I2SBus string `json:"i2s_bus,omitempty"` // default "i2s0"

	SDA       *int   `json:"sda,omitempty"`
	SCL       *int   `json:"scl,omitempty"`
	FreqKHz   uint32 `json:"i2c_khz,omitempty"`
	Address   uint16 `json:"addr,omitempty"`
	SCK       *int   `json:"sck,omitempty"`
	WS        *int   `json:"ws,omitempty"`
	SDO       *int   `json:"sdo,omitempty"`
	SDI       *int   `json:"sdi,omitempty"`
	Rate      uint32 `json:"sample_rate,omitempty"`
	Bits      uint8  `json:"bits,omitempty"`
	DMACount  uint16 `json:"dma_buf_count,omitempty"`
	DMALen    uint16 `json:"dma_buf_len,omitempty"`
	TimeoutMS int    `json:"register_timeout_ms,omitempty"`

	Source       SourceConfig `json:"source"`
	StatsEveryMS int          `json:"stats_every_ms,omitempty"` // default 1000
}

// SourceConfig selects the sample supplier.
type SourceConfig struct {
	Kind    string `json:"kind"`              // tone | wav | endpoint
	FreqHz  int    `json:"freq_hz,omitempty"` // tone
	Amp     int    `json:"amp,omitempty"`     // tone
	Path    string `json:"path,omitempty"`    // wav
	Address string `json:"address,omitempty"` // endpoint: tcp://, ws://, pipe://
	Frames  int    `json:"frames,omitempty"`
}
