package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// FrameTime is how long rate Hz takes to clock out frames.
// rate==0 is coerced to 1 to avoid division by zero.
func FrameTime(frames int, rate uint32) time.Duration {
	if rate == 0 {
		rate = 1
	}
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

// FramesIn is how many whole frames rate Hz clocks out in d.
func FramesIn(d time.Duration, rate uint32) int {
	if d <= 0 {
		return 0
	}
	return int(d * time.Duration(rate) / time.Second)
}
