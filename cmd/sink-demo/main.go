//go:build !tinygo

// sink-demo runs the audio service on the host against emulated buses and
// prints codec status and feed counters.
//
// Settings come from the environment, optionally loaded from ./.env:
//
//	AUDIOSINK_DEVICE   embedded config to use (default "host")
//	AUDIOSINK_SOURCE   override the source, e.g. `tone 1000`,
//	                   `wav "/tmp/my song.wav"`, `endpoint tcp://10.0.0.2:7000`
//	AUDIOSINK_SECONDS  run time (default 3)
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"audiosink-go/bus"
	"audiosink-go/services/audio"
	"audiosink-go/services/config"
	"audiosink-go/types"
	"audiosink-go/x/conv"
	"audiosink-go/x/strx"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
)

func env(key, def string) string { return strx.Coalesce(os.Getenv(key), def) }

// parseSource turns a shell-quoted source line into a SourceConfig.
func parseSource(line string) (types.SourceConfig, bool) {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return types.SourceConfig{}, false
	}
	sc := types.SourceConfig{Kind: args[0]}
	if len(args) < 2 {
		return sc, true
	}
	switch sc.Kind {
	case "tone":
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return sc, false
		}
		sc.FreqHz = n
	case "wav":
		sc.Path = args[1]
	case "endpoint":
		sc.Address = args[1]
	}
	return sc, true
}

func loadAudioConfig(device string) (*types.AudioConfig, bool) {
	raw, ok := config.EmbeddedConfigLookup(device)
	if !ok {
		return nil, false
	}
	var doc struct {
		Audio types.AudioConfig `json:"audio"`
	}
	if err := config.Decode(raw, &doc); err != nil {
		println("Error: sink-demo: config:", err.Error())
		return nil, false
	}
	return &doc.Audio, true
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		println("Error: sink-demo: .env:", err.Error())
	}

	device := env("AUDIOSINK_DEVICE", "host")
	ac, ok := loadAudioConfig(device)
	if !ok {
		println("Error: sink-demo: no embedded config for", device)
		os.Exit(1)
	}
	if line := os.Getenv("AUDIOSINK_SOURCE"); line != "" {
		sc, ok := parseSource(line)
		if !ok {
			println("Error: sink-demo: bad AUDIOSINK_SOURCE:", line)
			os.Exit(2)
		}
		ac.Source = sc
	}
	secs, err := strconv.Atoi(env("AUDIOSINK_SECONDS", "3"))
	if err != nil || secs <= 0 {
		secs = 3
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(secs)*time.Second)
	defer cancel()

	b := bus.NewBus(8)
	conn := b.NewConnection("audio")
	mon := b.NewConnection("monitor")
	status := mon.Subscribe(audio.TopicStatus)
	feed := mon.Subscribe(audio.TopicFeed)

	_ = (&audio.Service{Config: ac}).Start(ctx, conn)

	for {
		select {
		case m := <-status.Channel():
			st, ok := m.Payload.(types.CodecStatus)
			if !ok {
				continue
			}
			println("Info: codec", string(st.State), st.Bringup, st.Error)
			for _, f := range st.Failed {
				println("Error: step", f.Name, f.Phase, conv.Hex8(f.Reg), f.Code)
			}
			if st.State == types.CodecClosed || st.State == types.CodecError {
				return
			}
		case m := <-feed.Channel():
			if fs, ok := m.Payload.(types.FeedStats); ok {
				println("Info: feed frames", conv.Dec(fs.Frames), "underruns", conv.Dec(fs.Underruns))
			}
		}
	}
}
