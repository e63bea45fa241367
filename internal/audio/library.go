// Package audio renders keys as looping samples through a fixed pool of mixer
// channels on top of faiface/beep.
package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"touchkeys/internal/keys"
)

const (
	// SampleExt is the extension of the per-key sample files.
	SampleExt = ".wav"

	// DefaultSampleRate is the mixer rate samples are resampled to.
	DefaultSampleRate = beep.SampleRate(44100)

	resampleQuality = 4
)

// Library holds one decoded sound per key, all at the same sample rate.
type Library struct {
	format beep.Format
	sounds map[keys.Key]*beep.Buffer
}

// SamplePath returns where the sample for k lives under dir, e.g. dir/c0.wav.
func SamplePath(dir string, k keys.Key) string {
	return filepath.Join(dir, k.String()+SampleExt)
}

// LoadLibrary decodes the sample for every key from dir and resamples it to
// rate. A missing or unreadable sample is an error naming the file.
func LoadLibrary(dir string, rate beep.SampleRate) (*Library, error) {
	lib := &Library{
		format: beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2},
		sounds: make(map[keys.Key]*beep.Buffer, len(keys.Notes)*keys.NumPitches),
	}
	for _, k := range keys.All() {
		buf, err := lib.load(SamplePath(dir, k))
		if err != nil {
			return nil, err
		}
		lib.sounds[k] = buf
	}
	return lib, nil
}

func (l *Library) load(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load sample: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode sample %s: %w", path, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != l.format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, l.format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(l.format)
	buf.Append(s)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("decode sample %s: %w", path, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("sample %s has no audio frames", path)
	}
	return buf, nil
}

// Format returns the format every sound in the library shares.
func (l *Library) Format() beep.Format { return l.format }

// Sound returns the buffered sound for k.
func (l *Library) Sound(k keys.Key) (*beep.Buffer, bool) {
	b, ok := l.sounds[k]
	return b, ok
}
