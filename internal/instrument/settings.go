// Package instrument wires an input source to the configured output engines and
// runs the polling loop.
package instrument

import (
	"errors"
	"fmt"
	"time"

	"touchkeys/internal/audio"
	"touchkeys/internal/fire"
	"touchkeys/internal/input"
	"touchkeys/internal/midiout"
	"touchkeys/internal/platform/config"
)

// Output names accepted in OUTPUTS.
const (
	OutputAudio = "audio"
	OutputFire  = "fire"
	OutputMIDI  = "midi"
)

var (
	ErrUnknownInput  = errors.New("unknown input")
	ErrUnknownOutput = errors.New("unknown output")
)

// Settings is the instrument configuration read from the environment.
type Settings struct {
	Input   input.Kind
	Outputs []string

	SampleDir     string
	AudioChannels int
	SampleRate    int

	FireHost string

	TouchPort         string
	TouchBaud         int
	TouchPollInterval time.Duration
	RandomInterval    time.Duration

	MIDIPort     string
	MIDIBaseNote int

	AdminAddr string
	LogLevel  string
	LogFormat string
}

// LoadSettings reads Settings from the environment, applying defaults. It does
// not validate; call Validate.
func LoadSettings() Settings {
	return Settings{
		Input:             input.Kind(config.GetEnv("INPUT", string(input.KindCLI))),
		Outputs:           dedupe(config.GetEnvList("OUTPUTS", OutputAudio)),
		SampleDir:         config.GetEnv("SAMPLE_DIR", "./audio"),
		AudioChannels:     config.GetEnvInt("AUDIO_CHANNELS", audio.DefaultChannels),
		SampleRate:        config.GetEnvInt("AUDIO_SAMPLE_RATE", int(audio.DefaultSampleRate)),
		FireHost:          config.GetEnv("FIRE_HOST", fire.DefaultHost),
		TouchPort:         config.GetEnv("TOUCH_PORT", "/dev/ttyACM0"),
		TouchBaud:         config.GetEnvInt("TOUCH_BAUD", 115200),
		TouchPollInterval: config.GetEnvDuration("TOUCH_POLL_INTERVAL", input.DefaultTouchPollInterval),
		RandomInterval:    config.GetEnvDuration("RANDOM_INTERVAL", input.DefaultRandomInterval),
		MIDIPort:          config.GetEnv("MIDI_PORT", ""),
		MIDIBaseNote:      config.GetEnvInt("MIDI_BASE_NOTE", midiout.DefaultBaseNote),
		AdminAddr:         config.LookupEnv("ADMIN_ADDR", ":9075"),
		LogLevel:          config.GetEnv("LOG_LEVEL", "info"),
		LogFormat:         config.GetEnv("LOG_FORMAT", "text"),
	}
}

// Validate rejects unknown input and output names.
func (s Settings) Validate() error {
	switch s.Input {
	case input.KindCLI, input.KindTouch, input.KindRandom:
	default:
		return fmt.Errorf("%w %q (want cli, touch or random)", ErrUnknownInput, s.Input)
	}
	for _, out := range s.Outputs {
		switch out {
		case OutputAudio, OutputFire, OutputMIDI:
		default:
			return fmt.Errorf("%w %q (want audio, fire or midi)", ErrUnknownOutput, out)
		}
	}
	if s.HasOutput(OutputMIDI) {
		if err := midiout.CheckBaseNote(s.MIDIBaseNote); err != nil {
			return fmt.Errorf("MIDI_BASE_NOTE: %w", err)
		}
	}
	if s.AudioChannels <= 0 {
		return fmt.Errorf("AUDIO_CHANNELS must be positive, got %d", s.AudioChannels)
	}
	return nil
}

// HasOutput reports whether name is among the configured outputs.
func (s Settings) HasOutput(name string) bool {
	for _, out := range s.Outputs {
		if out == name {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
