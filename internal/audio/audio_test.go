package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"touchkeys/internal/keys"
)

const testRate = beep.SampleRate(1000)

// buffers store 16-bit frames, so levels only survive approximately
func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

// constant returns a streamer of n frames at level v.
func constant(n int, v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if n <= 0 {
			return 0, false
		}
		k := len(samples)
		if k > n {
			k = n
		}
		for i := range samples[:k] {
			samples[i] = [2]float64{v, v}
		}
		n -= k
		return k, true
	})
}

func testLibrary(frames int) *Library {
	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	lib := &Library{format: format, sounds: make(map[keys.Key]*beep.Buffer)}
	for _, k := range keys.All() {
		buf := beep.NewBuffer(format)
		buf.Append(constant(frames, 0.5))
		lib.sounds[k] = buf
	}
	return lib
}

func stream(m *Mixer, n int) [][2]float64 {
	out := make([][2]float64, n)
	m.Stream(out)
	return out
}

func TestMixer_Play_loops_until_faded(t *testing.T) {
	m := NewMixer(testLibrary(100), 4)
	h, err := m.Play(keys.Key{Note: keys.C, Pitch: 0})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	out := stream(m, 250)
	if !near(out[0][0], 0.5) || !near(out[249][1], 0.5) {
		t.Errorf("looping voice should keep sounding, got %v and %v", out[0], out[249])
	}
	if !h.Playing() {
		t.Fatal("looping voice should still be playing")
	}

	h.FadeOut(10 * time.Millisecond) // 10 frames at 1 kHz
	out = stream(m, 20)
	if !near(out[0][0], 0.5) {
		t.Errorf("fade starts at full level, got %v", out[0][0])
	}
	if !(out[5][0] < out[4][0] && out[5][0] > 0) {
		t.Errorf("fade should ramp down, got %v then %v", out[4][0], out[5][0])
	}
	if out[10][0] != 0 || out[19][0] != 0 {
		t.Errorf("fade should reach silence after 10 frames, got %v", out[10][0])
	}
	if h.Playing() {
		t.Error("faded voice should stop playing")
	}
	if m.Busy() != 0 {
		t.Errorf("faded voice should free its channel, busy=%d", m.Busy())
	}
}

func TestMixer_Play_pool_exhausted(t *testing.T) {
	m := NewMixer(testLibrary(100), 2)
	for _, p := range []keys.PitchLevel{0, 1} {
		if _, err := m.Play(keys.Key{Note: keys.D, Pitch: p}); err != nil {
			t.Fatalf("Play: %v", err)
		}
	}
	h, err := m.Play(keys.Key{Note: keys.D, Pitch: 2})
	if !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
	if h != nil {
		t.Errorf("failed Play should return a nil handle, got %#v", h)
	}
}

func TestMixer_fading_voice_holds_channel(t *testing.T) {
	m := NewMixer(testLibrary(100), 1)
	k := keys.Key{Note: keys.E, Pitch: 3}
	h, _ := m.Play(k)
	h.FadeOut(500 * time.Millisecond)

	if _, err := m.Play(k); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("fading voice should still hold its channel, got %v", err)
	}
	stream(m, 500)
	if _, err := m.Play(k); err != nil {
		t.Errorf("channel should be free after the fade, got %v", err)
	}
}

func TestMixer_PlayOnce_ends_on_its_own(t *testing.T) {
	m := NewMixer(testLibrary(100), 2)
	c, err := m.PlayOnce(keys.Key{Note: keys.A, Pitch: 4})
	if err != nil {
		t.Fatalf("PlayOnce: %v", err)
	}
	out := stream(m, 150)
	if !near(out[99][0], 0.5) || out[100][0] != 0 {
		t.Errorf("one-shot should end after 100 frames, got %v / %v", out[99], out[100])
	}
	if c.Playing() {
		t.Error("one-shot should report not playing after its end")
	}
	c.FadeOut(time.Second) // no-op on a finished voice
	if m.Busy() != 0 {
		t.Errorf("busy=%d, want 0", m.Busy())
	}
}

func TestMixer_Stream_sums_voices(t *testing.T) {
	m := NewMixer(testLibrary(100), 4)
	m.Play(keys.Key{Note: keys.C, Pitch: 0})
	m.Play(keys.Key{Note: keys.C, Pitch: 1})
	out := stream(m, 4)
	if !near(out[2][0], 1.0) {
		t.Errorf("two voices at 0.5 should sum to 1.0, got %v", out[2][0])
	}
}

func writeWAV(t *testing.T, path string, rate beep.SampleRate, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, constant(frames, 0.25), format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestLoadLibrary_all_keys(t *testing.T) {
	dir := t.TempDir()
	for _, k := range keys.All() {
		writeWAV(t, SamplePath(dir, k), 22050, 441)
	}

	lib, err := LoadLibrary(dir, 44100)
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	buf, ok := lib.Sound(keys.Key{Note: keys.G, Pitch: 2})
	if !ok {
		t.Fatal("missing g2")
	}
	// 441 frames at 22.05 kHz is 20ms, about 882 frames after resampling
	if buf.Len() < 850 || buf.Len() > 900 {
		t.Errorf("resampled length %d, want about 882", buf.Len())
	}
	if lib.Format().SampleRate != 44100 {
		t.Errorf("library rate %v", lib.Format().SampleRate)
	}
}

func TestLoadLibrary_missing_sample(t *testing.T) {
	dir := t.TempDir()
	for _, k := range keys.All() {
		if k == (keys.Key{Note: keys.E, Pitch: 4}) {
			continue
		}
		writeWAV(t, SamplePath(dir, k), 44100, 100)
	}

	_, err := LoadLibrary(dir, 44100)
	if err == nil {
		t.Fatal("expected error for missing e4.wav")
	}
	if !errors.Is(err, os.ErrNotExist) || !strings.Contains(err.Error(), "e4.wav") {
		t.Errorf("error should name the missing file, got %v", err)
	}
}

func TestSamplePath(t *testing.T) {
	got := SamplePath("audio", keys.Key{Note: keys.A, Pitch: 1})
	if want := filepath.Join("audio", "a1.wav"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
