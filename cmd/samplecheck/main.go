// Command samplecheck plays every sample of the library once so a missing or
// badly trimmed file can be heard before a performance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/faiface/beep"

	"touchkeys/internal/audio"
	"touchkeys/internal/channels"
	"touchkeys/internal/keys"
	"touchkeys/internal/platform/config"
	"touchkeys/internal/platform/logger"
)

const holdTime = time.Second

// oneShotPlayer plays a sample once; the handle ends on its own when the
// sample does.
type oneShotPlayer interface {
	PlayOnce(k keys.Key) (channels.Handle, error)
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = config.Load()

	dir := config.GetEnv("SAMPLE_DIR", "./audio")
	rate := beep.SampleRate(config.GetEnvInt("AUDIO_SAMPLE_RATE", int(audio.DefaultSampleRate)))
	log := logger.New(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "text"))

	lib, err := audio.LoadLibrary(dir, rate)
	if err != nil {
		log.Error("load samples failed", "error", err)
		return 1
	}
	mixer := audio.NewMixer(lib, 2)
	if err := audio.Start(mixer, 50*time.Millisecond); err != nil {
		log.Error("audio start failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = audition(ctx, mixer, checkOrder(), holdTime, channels.ReleaseFade, func(k keys.Key) {
		log.Info("playing", "key", k.String(), "file", audio.SamplePath(dir, k))
	})
	if err != nil {
		log.Error("sample check failed", "error", err)
		return 1
	}
	if ctx.Err() == nil {
		log.Info("all samples played")
	}
	return 0
}

// audition plays each key once, lets it sound for hold and then fades it over
// fade. It stops early, without error, when ctx is cancelled.
func audition(ctx context.Context, p oneShotPlayer, order []keys.Key, hold, fade time.Duration, onPlay func(keys.Key)) error {
	for _, k := range order {
		if ctx.Err() != nil {
			return nil
		}
		h, err := p.PlayOnce(k)
		if err != nil {
			return fmt.Errorf("play %s: %w", k, err)
		}
		if onPlay != nil {
			onPlay(k)
		}
		sleep(ctx, hold)
		h.FadeOut(fade)
		sleep(ctx, fade)
	}
	return nil
}

// checkOrder walks notes alphabetically, then pitch levels upward.
func checkOrder() []keys.Key {
	notes := keys.Notes
	sort.Slice(notes[:], func(i, j int) bool { return notes[i] < notes[j] })
	out := make([]keys.Key, 0, len(notes)*keys.NumPitches)
	for _, n := range notes {
		for _, p := range keys.Pitches {
			out = append(out, keys.Key{Note: n, Pitch: p})
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
