//go:build !tinygo

package audio

import (
	"strings"

	"audiosink-go/stream"
)

func defaultDial(address string) stream.Endpoint {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return &stream.WebSocket{}
	}
	return &stream.TCP{}
}
