package instrument

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/faiface/beep"

	"touchkeys/internal/audio"
	"touchkeys/internal/channels"
	"touchkeys/internal/fire"
	"touchkeys/internal/input"
	"touchkeys/internal/midiout"
	"touchkeys/internal/platform/metrics"
)

// speakerBuffer is the audio device latency.
const speakerBuffer = 50 * time.Millisecond

// Setup holds the opened input source and output engines.
type Setup struct {
	Source  input.Source
	Engines []Engine
	// Drain is how long outputs need after a final release, non-zero when
	// audio fades must be heard out.
	Drain time.Duration

	closers []io.Closer
}

// Close releases the devices opened by Open.
func (s *Setup) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Devices opens the hardware behind each source and output. Tests replace
// individual fields.
type Devices struct {
	Stdin      io.Reader
	OpenTouch  func(s Settings, log *slog.Logger) (*input.TouchSource, error)
	StartAudio func(m *audio.Mixer) error
	OpenMIDI   func(s Settings, log *slog.Logger) (channels.Player, error)
	DialFire   func(host string) (io.WriteCloser, error)
}

// SystemDevices returns the Devices of the real machine, reading cli input
// from stdin.
func SystemDevices(stdin io.Reader) Devices {
	return Devices{
		Stdin: stdin,
		OpenTouch: func(s Settings, log *slog.Logger) (*input.TouchSource, error) {
			return input.OpenTouch(s.TouchPort, s.TouchBaud, s.TouchPollInterval, log)
		},
		StartAudio: func(m *audio.Mixer) error { return audio.Start(m, speakerBuffer) },
		OpenMIDI: func(s Settings, log *slog.Logger) (channels.Player, error) {
			return midiout.Open(s.MIDIPort, s.MIDIBaseNote, log)
		},
		DialFire: func(host string) (io.WriteCloser, error) { return fire.Dial(host) },
	}
}

// Open validates s and opens its source and outputs. On error everything
// opened so far is closed again.
func Open(s Settings, dev Devices, log *slog.Logger, m *metrics.Metrics) (*Setup, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	setup := &Setup{}
	fail := func(err error) (*Setup, error) {
		setup.Close()
		return nil, err
	}

	src, err := openSource(s, dev, setup, log)
	if err != nil {
		return fail(err)
	}
	setup.Source = src

	for _, out := range s.Outputs {
		e, err := openEngine(out, s, dev, setup, log, m)
		if err != nil {
			return fail(err)
		}
		setup.Engines = append(setup.Engines, e)
		log.Info("output enabled", "engine", e.Name())
	}
	return setup, nil
}

func openSource(s Settings, dev Devices, setup *Setup, log *slog.Logger) (input.Source, error) {
	switch s.Input {
	case input.KindTouch:
		src, err := dev.OpenTouch(s, log)
		if err != nil {
			return nil, err
		}
		setup.closers = append(setup.closers, src)
		return src, nil
	case input.KindRandom:
		return input.NewRandomSource(nil, s.RandomInterval), nil
	default:
		return input.NewLineSource(dev.Stdin, log), nil
	}
}

func openEngine(out string, s Settings, dev Devices, setup *Setup, log *slog.Logger, m *metrics.Metrics) (Engine, error) {
	switch out {
	case OutputAudio:
		lib, err := audio.LoadLibrary(s.SampleDir, beep.SampleRate(s.SampleRate))
		if err != nil {
			return nil, err
		}
		mixer := audio.NewMixer(lib, s.AudioChannels)
		if err := dev.StartAudio(mixer); err != nil {
			return nil, err
		}
		log.Info("audio: samples loaded", "dir", s.SampleDir, "channels", s.AudioChannels)
		setup.Drain = channels.ReleaseFade
		return channels.NewReconciler(OutputAudio, mixer, log, m), nil

	case OutputMIDI:
		player, err := dev.OpenMIDI(s, log)
		if err != nil {
			return nil, err
		}
		return channels.NewReconciler(OutputMIDI, player, log, m), nil

	case OutputFire:
		conn, err := dev.DialFire(s.FireHost)
		if err != nil {
			return nil, err
		}
		setup.closers = append(setup.closers, conn)
		return fire.NewEncoder(conn, log, m), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownOutput, out)
}
