package es8388

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"audiosink-go/errcode"
	"audiosink-go/pcm"

	"github.com/go-audio/audio"
)

// wire is the register program as the codec sees it on the bus.
var wire = [][2]byte{
	{0x19, 0x04}, {0x01, 0x50}, {0x02, 0x00}, {0x08, 0x00}, {0x04, 0x3E},
	{0x00, 0x12}, {0x17, 0x18}, {0x18, 0x02}, {0x26, 0x1B}, {0x27, 0x90},
	{0x2A, 0x90}, {0x2B, 0x80}, {0x2D, 0x00}, {0x1B, 0x00}, {0x1A, 0x00},
	{0x03, 0xFF}, {0x09, 0x88}, {0x0A, 0xF0}, {0x0B, 0x80}, {0x0C, 0x0E},
	{0x0D, 0x02}, {0x10, 0x20}, {0x11, 0x20}, {0x2E, 0x1E}, {0x2F, 0x1E},
	{0x30, 0x1E}, {0x31, 0x1E}, {0x04, 0x3C}, {0x19, 0x00}, {0x03, 0x00},
}

func newTestDevice(t *testing.T, cfg Config) (*Device, *fakeI2C, *fakeI2S, *eventLog) {
	t.Helper()
	log := &eventLog{}
	c, s := newFakeI2C(log), newFakeI2S(log)
	d := New(c, s, cfg)
	t.Cleanup(func() {
		select {
		case <-c.release:
		default:
			close(c.release)
		}
		_ = d.Close()
	})
	return d, c, s, log
}

func indexOf(ws []txRec, reg, val byte, from int) int {
	for i := from; i < len(ws); i++ {
		if ws[i].Reg == reg && ws[i].Val == val {
			return i
		}
	}
	return -1
}

func TestProgram_Table(t *testing.T) {
	p := Program()
	if len(p) != len(wire) {
		t.Fatalf("program length %d, want %d", len(p), len(wire))
	}
	for i, w := range p {
		if w.Reg != wire[i][0] || w.Value != wire[i][1] {
			t.Fatalf("write %d = %#02x<-%#02x, want %#02x<-%#02x", i, w.Reg, w.Value, wire[i][0], wire[i][1])
		}
		if w.Phase == PhaseNone || w.Phase == PhaseTeardown {
			t.Fatalf("write %d has phase %s", i, w.Phase)
		}
	}

	// Program returns a copy.
	p[0].Value = 0xAA
	if Program()[0].Value != 0x04 {
		t.Fatal("Program leaked internal table")
	}
}

func TestProgram_Phases(t *testing.T) {
	p := Program()
	if p[0].Phase != PhaseMuting {
		t.Fatalf("first phase %s", p[0].Phase)
	}
	last := p[len(p)-1]
	if last.Phase != PhasePoweringUpFinal {
		t.Fatalf("last phase %s", last.Phase)
	}
	mw := MuteWrite()
	if mw.Reg != 0x19 || mw.Value != 0x04 || mw.Phase != PhaseTeardown {
		t.Fatalf("mute write %+v", mw)
	}
}

func TestBringUp_WireOrder(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	rep := d.BringUp(context.Background())

	if rep.Status() != StatusOK {
		t.Fatalf("status %s: %v", rep.Status(), rep.Err())
	}
	if rep.Err() != nil {
		t.Fatalf("unexpected err %v", rep.Err())
	}
	ws := c.snapshot()
	if len(ws) != len(wire) {
		t.Fatalf("got %d writes, want %d", len(ws), len(wire))
	}
	for i, w := range ws {
		if w.Addr != 0x10 {
			t.Fatalf("write %d addressed %#x", i, w.Addr)
		}
		if w.Reg != wire[i][0] || w.Val != wire[i][1] {
			t.Fatalf("write %d = %#02x<-%#02x, want %#02x<-%#02x", i, w.Reg, w.Val, wire[i][0], wire[i][1])
		}
	}
	if ok, failed := rep.Writes(); ok != 30 || failed != 0 {
		t.Fatalf("writes ok=%d failed=%d", ok, failed)
	}
	if d.State() != StateReady {
		t.Fatalf("state %s", d.State())
	}
	if d.Phase() != PhasePoweringUpFinal {
		t.Fatalf("phase %s", d.Phase())
	}
}

func TestBringUp_MuteBracketsConfiguration(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	d.BringUp(context.Background())
	ws := c.snapshot()

	mute := indexOf(ws, 0x19, 0x04, 0)
	powerUp := indexOf(ws, 0x04, 0x3E, 0)
	if mute != 0 || powerUp < 0 || mute > powerUp {
		t.Fatalf("mute at %d, dac power at %d", mute, powerUp)
	}
	unmute := indexOf(ws, 0x19, 0x00, 0)
	for _, reg := range []byte{0x2E, 0x2F, 0x30, 0x31} {
		v := indexOf(ws, reg, 0x1E, 0)
		if v < 0 || v > unmute {
			t.Fatalf("volume %#02x at %d, unmute at %d", reg, v, unmute)
		}
	}
	if final := indexOf(ws, 0x04, 0x3C, 0); final > unmute {
		t.Fatalf("final dac power %d after unmute %d", final, unmute)
	}
}

func TestBringUp_StreamingBusFirst(t *testing.T) {
	d, c, s, log := newTestDevice(t, quietConfig())
	d.BringUp(context.Background())

	ev := log.events()
	want := []string{"i2s.configure", "i2s.enable", "i2c.configure", "write"}
	for i, w := range want {
		if ev[i] != w {
			t.Fatalf("event %d = %q, want %q (all: %v)", i, ev[i], w, ev[:len(want)])
		}
	}
	if s.cfg == nil || s.cfg.SampleRate != 44100 || s.cfg.MCLK() != 44100*256 {
		t.Fatalf("i2s config %+v", s.cfg)
	}
	if !s.isEnabled() {
		t.Fatal("i2s not enabled")
	}
	if c.cfg == nil || c.cfg.Frequency != 100*KHz || c.cfg.Address != 0x10 {
		t.Fatalf("i2c config %+v", c.cfg)
	}
}

func TestBringUp_ContinuesAfterFailure(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	c.failAt[5] = true // CONTROL1

	rep := d.BringUp(context.Background())
	if got := len(c.snapshot()); got != 30 {
		t.Fatalf("attempted %d writes, want 30", got)
	}
	if rep.Status() != StatusPartial {
		t.Fatalf("status %s", rep.Status())
	}
	f := rep.Failed()
	if len(f) != 1 || f[0].Reg != 0x00 || f[0].Value != 0x12 {
		t.Fatalf("failed steps %+v", f)
	}
	if !errors.Is(f[0].Err, ErrRegisterWrite) || !errors.Is(f[0].Err, errNACK) {
		t.Fatalf("err %v", f[0].Err)
	}
	if ok, failed := rep.Writes(); ok != 29 || failed != 1 {
		t.Fatalf("writes ok=%d failed=%d", ok, failed)
	}
	if d.State() != StateReady {
		t.Fatalf("state %s", d.State())
	}
}

func TestBringUp_AllWritesFail(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	c.failAll = true

	rep := d.BringUp(context.Background())
	if rep.Status() != StatusFailed {
		t.Fatalf("status %s", rep.Status())
	}
	if len(c.snapshot()) != 30 {
		t.Fatal("program did not run to completion")
	}
	if !errors.Is(rep.Err(), ErrRegisterWrite) {
		t.Fatalf("err %v", rep.Err())
	}
	if errcode.Of(rep.Failed()[0].Err) != errcode.RegisterWrite {
		t.Fatalf("code %s", errcode.Of(rep.Failed()[0].Err))
	}
}

func TestBringUp_BusSetupFailureIsRecorded(t *testing.T) {
	d, c, s, _ := newTestDevice(t, quietConfig())
	s.cfgErr = errors.New("no apll")
	c.cfgErr = errors.New("pins busy")

	rep := d.BringUp(context.Background())
	if len(c.snapshot()) != 30 {
		t.Fatal("program skipped after bus setup failure")
	}
	if rep.Status() != StatusPartial {
		t.Fatalf("status %s", rep.Status())
	}
	f := rep.Failed()
	if len(f) != 2 || f[0].Name != "i2s.configure" || f[1].Name != "i2c.configure" {
		t.Fatalf("failed %+v", f)
	}
	for _, st := range f {
		if st.IsWrite() || !errors.Is(st.Err, ErrBusSetup) {
			t.Fatalf("step %+v", st)
		}
	}
}

func TestBringUp_RegisterTimeout(t *testing.T) {
	cfg := quietConfig()
	cfg.RegisterTimeout = 50 * time.Millisecond
	d, c, _, _ := newTestDevice(t, cfg)
	c.blockReg = 0x08 // MASTERMODE hangs past its timeout, then completes
	time.AfterFunc(75*time.Millisecond, func() { close(c.release) })

	start := time.Now()
	rep := d.BringUp(context.Background())
	if time.Since(start) > 2*time.Second {
		t.Fatal("bring-up did not honour the register timeout")
	}
	f := rep.Failed()
	if len(f) != 1 || f[0].Reg != 0x08 {
		t.Fatalf("failed %+v", f)
	}
	if !errors.Is(f[0].Err, errcode.Timeout) || !errors.Is(f[0].Err, ErrRegisterWrite) {
		t.Fatalf("err %v", f[0].Err)
	}
	if ok, _ := rep.Writes(); ok != 29 {
		t.Fatalf("ok writes %d", ok)
	}

	// the late MASTERMODE write landed before the next one started
	ws := c.snapshot()
	if len(ws) != len(wire) {
		t.Fatalf("got %d writes, want %d", len(ws), len(wire))
	}
	for i, w := range ws {
		if w.Reg != wire[i][0] || w.Val != wire[i][1] {
			t.Fatalf("write %d = %#02x<-%#02x, want %#02x<-%#02x", i, w.Reg, w.Val, wire[i][0], wire[i][1])
		}
	}
}

func TestBringUp_StuckWriteHoldsBus(t *testing.T) {
	cfg := quietConfig()
	cfg.RegisterTimeout = 10 * time.Millisecond
	d, c, _, _ := newTestDevice(t, cfg)
	c.blockReg = 0x08

	rep := d.BringUp(context.Background())
	if rep.Status() != StatusPartial {
		t.Fatalf("status %s", rep.Status())
	}
	f := rep.Failed()
	if len(f) != len(wire)-3 || f[0].Reg != 0x08 || !errors.Is(f[0].Err, errcode.Timeout) {
		t.Fatalf("failed %+v", f)
	}
	for _, s := range f[1:] {
		if !errors.Is(s.Err, errcode.Busy) || !errors.Is(s.Err, ErrRegisterWrite) {
			t.Fatalf("%s: %v, want busy", s.Name, s.Err)
		}
	}
	if ws := c.snapshot(); len(ws) != 3 {
		t.Fatalf("writes overlapped the stuck transaction: %+v", ws)
	}

	close(c.release)
	waitFor(t, "stuck write", func() bool { return len(c.snapshot()) == 4 })
	if ws := c.snapshot(); ws[3].Reg != 0x08 {
		t.Fatalf("last write %+v", ws[3])
	}
}

func TestBringUp_Cancelled(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := d.BringUp(ctx)
	if len(c.snapshot()) != 0 {
		t.Fatal("writes issued after cancellation")
	}
	if rep.Status() != StatusFailed {
		t.Fatalf("status %s", rep.Status())
	}
	if !errors.Is(rep.Err(), context.Canceled) {
		t.Fatalf("err %v", rep.Err())
	}
}

func TestBringUp_RunsOnce(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	r1 := d.BringUp(context.Background())
	r2 := d.BringUp(context.Background())
	if r1 != r2 {
		t.Fatal("second bring-up built a new report")
	}
	if len(c.snapshot()) != 30 {
		t.Fatalf("program ran twice: %d writes", len(c.snapshot()))
	}
	if d.Report() != r1 {
		t.Fatal("Report mismatch")
	}
}

func TestStart_RequiresBringUp(t *testing.T) {
	d, _, _, _ := newTestDevice(t, quietConfig())
	if err := d.Start(pcm.NewSlice()); !errors.Is(err, errcode.Busy) || err != error(ErrNotReady) {
		t.Fatalf("err %v", err)
	}
	d.BringUp(context.Background())
	if err := d.Start(pcm.NewSlice()); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(pcm.NewSlice()); err != error(ErrAlreadyActive) {
		t.Fatalf("second start err %v", err)
	}
	if d.State() != StateStreaming {
		t.Fatalf("state %s", d.State())
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func block(frames int, l, r int) *pcm.Slice {
	b := pcm.NewBlock(frames)
	for i := 0; i < frames; i++ {
		b.Data[2*i] = l
		b.Data[2*i+1] = r
	}
	return pcm.NewSlice(b)
}

func TestFeed_DeliversPackedFrames(t *testing.T) {
	d, _, s, _ := newTestDevice(t, quietConfig())
	d.BringUp(context.Background())
	if err := d.Start(block(16, 0x1234, -1)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "frames", func() bool { return s.frameCount() >= 16 })

	s.mu.Lock()
	got := s.frames[0]
	s.mu.Unlock()
	if got != 0x1234FFFF {
		t.Fatalf("frame %#08x", got)
	}
	waitFor(t, "stats", func() bool { st := d.Stats(); return st.Blocks == 1 && st.Frames == 16 })
	if !d.Stats().Running {
		t.Fatal("feed not running")
	}
}

func TestFeed_ExhaustedSupplierKeepsRunning(t *testing.T) {
	cfg := quietConfig()
	cfg.RetryInterval = time.Millisecond
	d, _, s, _ := newTestDevice(t, cfg)
	d.BringUp(context.Background())

	src := pcm.NewSlice()
	if err := d.Start(src); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "underruns", func() bool { return d.Stats().Underruns >= 3 })
	if s.frameCount() != 0 {
		t.Fatal("frames written with no data")
	}

	src.Push(pcm.NewBlock(32))
	waitFor(t, "frames after push", func() bool { return s.frameCount() == 32 })
	st := d.Stats()
	if !st.Running || st.SupplierErrors != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestFeed_EmptyBlocksBackOff(t *testing.T) {
	cfg := quietConfig()
	cfg.RetryInterval = 5 * time.Millisecond
	d, _, s, _ := newTestDevice(t, cfg)
	d.BringUp(context.Background())

	var calls atomic.Int64
	err := d.Start(pcm.SupplierFunc(func(ctx context.Context) (*audio.IntBuffer, error) {
		if calls.Add(1)%2 == 0 {
			return nil, nil
		}
		return &audio.IntBuffer{}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "underruns", func() bool { return d.Stats().Underruns >= 4 })
	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n > 100 {
		t.Fatalf("supplier polled %d times without back-off", n)
	}
	if s.frameCount() != 0 {
		t.Fatal("frames written from empty blocks")
	}
}

func TestFeed_ShortWritesAreCompleted(t *testing.T) {
	d, _, s, _ := newTestDevice(t, quietConfig())
	s.perCall = 5
	d.BringUp(context.Background())
	if err := d.Start(block(12, 1, 2)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "block", func() bool { return d.Stats().Blocks == 1 })
	st := d.Stats()
	if st.Frames != 12 || st.ShortWrites != 2 {
		t.Fatalf("stats %+v", st)
	}
}

func TestFeed_SupplierErrorsCounted(t *testing.T) {
	cfg := quietConfig()
	cfg.RetryInterval = time.Millisecond
	d, _, _, _ := newTestDevice(t, cfg)
	d.BringUp(context.Background())
	boom := errors.New("boom")
	err := d.Start(pcm.SupplierFunc(func(ctx context.Context) (*audio.IntBuffer, error) { return nil, boom }))
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "supplier errors", func() bool { return d.Stats().SupplierErrors >= 2 })
	if d.Stats().Underruns != 0 {
		t.Fatal("fault counted as underrun")
	}
}

func TestClose_Teardown(t *testing.T) {
	d, c, s, log := newTestDevice(t, quietConfig())
	d.BringUp(context.Background())
	if err := d.Start(pcm.NewTone(440, 8000, 64)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "streaming", func() bool { return s.frameCount() > 0 })

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if d.Stats().Running {
		t.Fatal("feed still running")
	}
	ws := c.snapshot()
	if last := ws[len(ws)-1]; last.Reg != 0x19 || last.Val != 0x04 {
		t.Fatalf("last write %+v, want mute", last)
	}
	if s.isEnabled() {
		t.Fatal("i2s still enabled")
	}
	if c.closeCount() != 1 || s.closed != 1 {
		t.Fatalf("closes i2c=%d i2s=%d", c.closeCount(), s.closed)
	}
	if d.State() != StateClosed || d.Phase() != PhaseTeardown {
		t.Fatalf("state %s phase %s", d.State(), d.Phase())
	}

	ev := log.events()
	tail := ev[len(ev)-3:]
	if tail[0] != "write" || tail[1] != "i2s.disable" || tail[2] != "i2s.close" {
		t.Fatalf("teardown order %v", tail)
	}

	frames := s.frameCount()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if len(c.snapshot()) != len(ws) || c.closeCount() != 1 || s.frameCount() != frames {
		t.Fatal("second Close touched the buses")
	}
	if err := d.Start(pcm.NewSlice()); !errors.Is(err, errcode.Closed) {
		t.Fatalf("start after close %v", err)
	}
	if rep := d.BringUp(context.Background()); rep.Status() != StatusOK {
		// the first report survives Close
		t.Fatalf("report %s", rep.Status())
	}
}

func TestClose_BeforeBringUp(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if ws := c.snapshot(); len(ws) != 0 {
		t.Fatalf("unconfigured control bus written: %+v", ws)
	}
	rep := d.BringUp(context.Background())
	if rep.Status() != StatusFailed || !errors.Is(rep.Err(), errcode.Closed) {
		t.Fatalf("bring-up after close: %s %v", rep.Status(), rep.Err())
	}
}

func TestClose_MuteFailureReported(t *testing.T) {
	d, c, _, _ := newTestDevice(t, quietConfig())
	d.BringUp(context.Background())
	c.failAll = true
	err := d.Close()
	if !errors.Is(err, ErrRegisterWrite) {
		t.Fatalf("err %v", err)
	}
	if c.closeCount() != 1 {
		t.Fatal("bus not released after mute failure")
	}
}
