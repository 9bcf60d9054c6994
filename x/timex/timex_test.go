package timex

import (
	"testing"
	"time"
)

func TestFrameTime(t *testing.T) {
	if got := FrameTime(512, 44100); got != 11609977*time.Nanosecond {
		t.Fatalf("FrameTime(512, 44100) = %v", got)
	}
	if got := FrameTime(8, 8000); got != time.Millisecond {
		t.Fatalf("FrameTime(8, 8000) = %v", got)
	}
	if got := FrameTime(3, 0); got != 3*time.Second {
		t.Fatalf("zero rate = %v", got)
	}
}

func TestFramesIn(t *testing.T) {
	if got := FramesIn(time.Second, 44100); got != 44100 {
		t.Fatalf("1 s = %d", got)
	}
	if got := FramesIn(999*time.Microsecond, 1000); got != 0 {
		t.Fatalf("partial frame = %d", got)
	}
	if got := FramesIn(-time.Second, 1000); got != 0 {
		t.Fatalf("negative = %d", got)
	}
}
