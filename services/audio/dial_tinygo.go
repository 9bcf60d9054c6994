//go:build tinygo

package audio

import "audiosink-go/stream"

// Network transports are host-only; boards pass Service.Dial explicitly.
func defaultDial(string) stream.Endpoint { return nil }
