package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"touchkeys/internal/channels"
	"touchkeys/internal/keys"
)

// DefaultChannels is the size of the channel pool.
const DefaultChannels = 25

// ErrNoChannel is returned by Play when every channel is busy.
var ErrNoChannel = errors.New("audio: no free channel")

// Mixer is a beep.Streamer that sums a fixed pool of channels. Play and the
// channel handles may be used from the loop while the speaker goroutine
// streams; the slot table is guarded by mu.
type Mixer struct {
	lib  *Library
	rate beep.SampleRate

	mu      sync.Mutex
	slots   []*voice
	scratch [][2]float64
}

type voice struct {
	slot      int
	src       beep.Streamer
	fadeTotal int
	fadeLeft  int
	done      bool
}

// NewMixer returns a mixer over lib with n channels (DefaultChannels if n <= 0).
func NewMixer(lib *Library, n int) *Mixer {
	if n <= 0 {
		n = DefaultChannels
	}
	return &Mixer{
		lib:   lib,
		rate:  lib.Format().SampleRate,
		slots: make([]*voice, n),
	}
}

// Play starts the sound for k looping forever on a free channel.
func (m *Mixer) Play(k keys.Key) (channels.Handle, error) {
	c, err := m.start(k, true)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PlayOnce plays the sound for k a single time; the channel frees itself at
// the end of the sample.
func (m *Mixer) PlayOnce(k keys.Key) (channels.Handle, error) {
	c, err := m.start(k, false)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Mixer) start(k keys.Key, loop bool) (*Channel, error) {
	buf, ok := m.lib.Sound(k)
	if !ok {
		return nil, fmt.Errorf("audio: no sample for %s", k)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	slot := -1
	for i, v := range m.slots {
		if v == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, ErrNoChannel
	}

	var src beep.Streamer = buf.Streamer(0, buf.Len())
	if loop {
		src = beep.Loop(-1, buf.Streamer(0, buf.Len()))
	}
	v := &voice{slot: slot, src: src}
	m.slots[slot] = v
	return &Channel{m: m, v: v}, nil
}

// Busy returns how many channels are occupied, fading ones included.
func (m *Mixer) Busy() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.slots {
		if v != nil {
			n++
		}
	}
	return n
}

// Stream implements beep.Streamer. It never drains: with no channels busy it
// produces silence.
func (m *Mixer) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if cap(m.scratch) < len(samples) {
		m.scratch = make([][2]float64, len(samples))
	}
	tmp := m.scratch[:len(samples)]

	for _, v := range m.slots {
		if v == nil {
			continue
		}
		got, more := v.src.Stream(tmp)
		for j := 0; j < got; j++ {
			gain := 1.0
			if v.fadeTotal > 0 {
				if v.fadeLeft <= 0 {
					break
				}
				gain = float64(v.fadeLeft) / float64(v.fadeTotal)
				v.fadeLeft--
			}
			samples[j][0] += tmp[j][0] * gain
			samples[j][1] += tmp[j][1] * gain
		}
		if !more || got < len(tmp) || (v.fadeTotal > 0 && v.fadeLeft <= 0) {
			m.finishLocked(v)
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (m *Mixer) Err() error { return nil }

func (m *Mixer) finishLocked(v *voice) {
	if v.done {
		return
	}
	v.done = true
	if m.slots[v.slot] == v {
		m.slots[v.slot] = nil
	}
}

// Channel is the handle for one voice on the mixer.
type Channel struct {
	m *Mixer
	v *voice
}

// Playing reports whether the voice still occupies its channel.
func (c *Channel) Playing() bool {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return !c.v.done
}

// FadeOut ramps the voice linearly to silence over d, then frees the channel.
// It is a no-op on a finished or already fading voice.
func (c *Channel) FadeOut(d time.Duration) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.v.done || c.v.fadeTotal > 0 {
		return
	}
	n := c.m.rate.N(d)
	if n <= 0 {
		c.m.finishLocked(c.v)
		return
	}
	c.v.fadeTotal, c.v.fadeLeft = n, n
}

// Start opens the default audio device at the mixer's rate and plays m on it.
// buffer sets the device latency.
func Start(m *Mixer, buffer time.Duration) error {
	if err := speaker.Init(m.rate, m.rate.N(buffer)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m)
	return nil
}
