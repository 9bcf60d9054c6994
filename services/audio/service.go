// Package audio runs one ES8388 codec: it claims the buses, brings the chip
// up, feeds it from the configured source and reports over the bus.
package audio

import (
	"context"
	"io"
	"os"
	"time"

	"audiosink-go/bus"
	"audiosink-go/drivers/es8388"
	"audiosink-go/errcode"
	"audiosink-go/pcm"
	"audiosink-go/services/audio/internal/platform"
	"audiosink-go/services/config"
	"audiosink-go/stream"
	"audiosink-go/types"
	"audiosink-go/x/mathx"
	"audiosink-go/x/strx"
	"audiosink-go/x/timex"

	"github.com/google/uuid"
)

var (
	topicConfigAudio = config.Topic("audio")

	TopicStatus = bus.T("audio", "codec", "status")
	TopicFeed   = bus.T("audio", "codec", "feed")
)

const (
	defaultDevID      = "es8388"
	defaultStatsEvery = time.Second
	defaultToneHz     = 440
	defaultToneAmp    = 8000
)

type Service struct {
	// Registry supplies the buses; nil means platform.Default.
	Registry *platform.Registry
	// DevID is the claimant name on the buses. Empty picks a fresh
	// "es8388-<uuid>" so two services never share a claim.
	DevID string
	// Config, when set, is used instead of waiting for "config/audio".
	Config *types.AudioConfig
	// Dial returns an unopened endpoint for a source address, or nil when
	// no transport serves it. The default picks WebSocket for ws:// and
	// wss://, TCP otherwise; TinyGo builds have no default transport.
	Dial func(address string) stream.Endpoint
	// OpenFile opens WAV sources; default os.Open.
	OpenFile func(path string) (io.ReadSeekCloser, error)
}

// Start the audio service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) devID() string {
	if s.DevID == "" {
		return defaultDevID + "-" + uuid.NewString()
	}
	return s.DevID
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	ac, ok := s.awaitConfig(ctx, conn)
	if !ok {
		return
	}

	cfg := Apply(ac, es8388.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		s.fail(conn, err)
		return
	}

	reg := s.Registry
	if reg == nil {
		reg = platform.Default(cfg.RegisterTimeout)
		defer reg.Close()
	}
	id := s.devID()
	i2cID, i2sID := busIDs(ac)
	ctrl, err := reg.ClaimI2C(i2cID, id)
	if err != nil {
		s.fail(conn, err)
		return
	}
	defer reg.ReleaseI2C(i2cID, id)
	i2s, err := reg.ClaimI2S(i2sID, id)
	if err != nil {
		s.fail(conn, err)
		return
	}
	defer reg.ReleaseI2S(i2sID, id)

	publishStatus(conn, types.CodecStatus{State: types.CodecInitialising})

	dev := es8388.New(ctrl, i2s, cfg)
	rep := dev.BringUp(ctx)
	st := statusFromReport(rep)
	st.State = types.CodecReady
	st.Source = ac.Source.Kind
	publishStatus(conn, st)

	src, srcCloser, err := s.openSource(ac.Source, cfg)
	if err != nil {
		println("Error: audio: source:", err.Error())
		st.Error = err.Error()
		publishStatus(conn, st)
	} else if err := dev.Start(src); err != nil {
		println("Error: audio: start:", err.Error())
		st.Error = err.Error()
		publishStatus(conn, st)
	} else {
		st.State = types.CodecStreaming
		publishStatus(conn, st)
		println("Info: audio: streaming from", ac.Source.Kind)
	}

	every := defaultStatsEvery
	if ac.StatsEveryMS > 0 {
		every = time.Duration(ac.StatsEveryMS) * time.Millisecond
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: audio service stopping")
			if err := dev.Close(); err != nil {
				println("Error: audio: close:", err.Error())
			}
			if srcCloser != nil {
				_ = srcCloser.Close()
			}
			st.State = types.CodecClosed
			publishStatus(conn, st)
			return
		case <-tick.C:
			publishFeed(conn, dev.Stats())
		}
	}
}

func (s *Service) awaitConfig(ctx context.Context, conn *bus.Connection) (types.AudioConfig, bool) {
	if s.Config != nil {
		return *s.Config, true
	}
	sub := conn.Subscribe(topicConfigAudio)
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return types.AudioConfig{}, false
		case msg := <-sub.Channel():
			var ac types.AudioConfig
			if err := config.Decode(msg.Payload, &ac); err != nil {
				println("Error: audio: bad config:", err.Error())
				continue
			}
			return ac, true
		}
	}
}

func (s *Service) fail(conn *bus.Connection, err error) {
	println("Error: audio:", err.Error())
	publishStatus(conn, types.CodecStatus{State: types.CodecError, Error: err.Error()})
}

func busIDs(ac types.AudioConfig) (string, string) {
	return strx.Coalesce(ac.I2CBus, platform.I2C0), strx.Coalesce(ac.I2SBus, platform.I2S0)
}

// Apply overlays the set fields of ac onto base.
func Apply(ac types.AudioConfig, base es8388.Config) es8388.Config {
	pin := func(dst *es8388.Pin, v *int) {
		if v != nil {
			*dst = es8388.Pin(*v)
		}
	}
	pin(&base.I2C.SDA, ac.SDA)
	pin(&base.I2C.SCL, ac.SCL)
	pin(&base.I2S.SCK, ac.SCK)
	pin(&base.I2S.WS, ac.WS)
	pin(&base.I2S.SDO, ac.SDO)
	pin(&base.I2S.SDI, ac.SDI)
	if ac.FreqKHz != 0 {
		base.I2C.Frequency = es8388.Hz(ac.FreqKHz) * es8388.KHz
	}
	if ac.Address != 0 {
		base.I2C.Address = ac.Address
	}
	if ac.Rate != 0 {
		base.I2S.SampleRate = es8388.SampleRate(ac.Rate)
	}
	if ac.Bits != 0 {
		base.I2S.BitsPerSample = es8388.BitDepth(ac.Bits)
	}
	if ac.DMACount != 0 {
		base.I2S.DMABufCount = ac.DMACount
	}
	if ac.DMALen != 0 {
		base.I2S.DMABufLen = ac.DMALen
	}
	if ac.TimeoutMS > 0 {
		base.RegisterTimeout = time.Duration(ac.TimeoutMS) * time.Millisecond
	}
	return base
}

func (s *Service) openSource(sc types.SourceConfig, cfg es8388.Config) (pcm.Supplier, io.Closer, error) {
	frames := sc.Frames
	if frames <= 0 {
		frames = int(cfg.I2S.DMABufLen)
	}
	switch sc.Kind {
	case "", "tone":
		hz, amp := sc.FreqHz, sc.Amp
		if hz <= 0 {
			hz = defaultToneHz
		}
		if amp == 0 {
			amp = defaultToneAmp
		}
		amp = mathx.Clamp(amp, 0, 32767)
		return pcm.NewTone(hz, int16(amp), frames), nil, nil

	case "wav":
		open := s.OpenFile
		if open == nil {
			open = func(p string) (io.ReadSeekCloser, error) { return os.Open(p) }
		}
		f, err := open(sc.Path)
		if err != nil {
			return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: "audio.source", Msg: sc.Path, Err: err}
		}
		w, err := pcm.NewWAVLoop(f, frames)
		if err != nil {
			_ = f.Close()
			return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: "audio.source", Msg: sc.Path, Err: err}
		}
		if w.SampleRate() != int(cfg.I2S.SampleRate) {
			println("Info: audio: wav rate differs from bus rate; playing unresampled")
		}
		return w, f, nil

	case "endpoint":
		dial := s.Dial
		if dial == nil {
			dial = defaultDial
		}
		ep := dial(sc.Address)
		if ep == nil {
			return nil, nil, &errcode.E{C: errcode.Unsupported, Op: "audio.source", Msg: sc.Address}
		}
		if err := ep.Open(sc.Address); err != nil {
			return nil, nil, err
		}
		return pcm.FromEndpoint(ep, frames), ep, nil
	}
	return nil, nil, &errcode.E{C: errcode.Unsupported, Op: "audio.source", Msg: sc.Kind}
}

// ---- payloads ----

func statusFromReport(rep *es8388.Report) types.CodecStatus {
	ok, failed := rep.Writes()
	st := types.CodecStatus{
		Bringup:  rep.Status().String(),
		WritesOK: ok,
		WritesKO: failed,
	}
	for _, s := range rep.Failed() {
		r := types.StepResult{
			Name:  s.Name,
			Code:  string(errcode.Of(s.Err)),
			Error: s.Err.Error(),
		}
		if s.IsWrite() {
			r.Phase = s.Phase.String()
			r.Reg, r.Value = s.Reg, s.Value
		}
		st.Failed = append(st.Failed, r)
	}
	return st
}

func publishStatus(conn *bus.Connection, st types.CodecStatus) {
	st.TS = timex.NowMs()
	conn.Publish(conn.NewMessage(TopicStatus, st, true))
}

func publishFeed(conn *bus.Connection, s es8388.Stats) {
	conn.Publish(conn.NewMessage(TopicFeed, types.FeedStats{
		Running:        s.Running,
		Blocks:         s.Blocks,
		Frames:         s.Frames,
		Underruns:      s.Underruns,
		ShortWrites:    s.ShortWrites,
		WriteErrors:    s.WriteErrors,
		SupplierErrors: s.SupplierErrors,
		TS:             timex.NowMs(),
	}, false))
}
