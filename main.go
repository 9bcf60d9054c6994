package main

import (
	"context"
	"time"

	"audiosink-go/bus"
	"audiosink-go/services/audio"
	"audiosink-go/services/config"
	"audiosink-go/types"
	"audiosink-go/x/conv"
)

// deviceID selects the embedded config; override with -ldflags "-X main.deviceID=...".
var deviceID = "samd21"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)

	b := bus.NewBus(4)
	cfgConn := b.NewConnection("config")
	audioConn := b.NewConnection("audio")
	monConn := b.NewConnection("monitor")

	status := monConn.Subscribe(audio.TopicStatus)
	feed := monConn.Subscribe(audio.TopicFeed)

	config.NewConfigService().Start(ctx, cfgConn)
	_ = (&audio.Service{}).Start(ctx, audioConn)

	var a, c [20]byte
	for {
		select {
		case m := <-status.Channel():
			if st, ok := m.Payload.(types.CodecStatus); ok {
				println("Info: codec", string(st.State), st.Bringup, st.Error)
			}
		case m := <-feed.Channel():
			if fs, ok := m.Payload.(types.FeedStats); ok {
				println("Info: feed frames", string(conv.Utoa(a[:], fs.Frames)),
					"underruns", string(conv.Utoa(c[:], fs.Underruns)))
			}
		}
	}
}
