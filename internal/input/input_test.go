package input

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"

	"touchkeys/internal/keys"
	"touchkeys/internal/platform/logger"
)

func TestParseLine(t *testing.T) {
	notes, pitches := ParseLine("c e 0 4 x9f")
	if !reflect.DeepEqual(notes, keys.NewNoteSet(keys.C, keys.E)) {
		t.Errorf("notes: got %v", notes)
	}
	if !reflect.DeepEqual(pitches, keys.NewPitchSet(0, 4)) {
		t.Errorf("pitches: got %v", pitches)
	}
}

func TestParseLine_duplicates_collapse(t *testing.T) {
	notes, pitches := ParseLine("cc11")
	if len(notes) != 1 || len(pitches) != 1 {
		t.Errorf("expected one note and one pitch, got %v %v", notes, pitches)
	}
}

func TestLineSource_Sample_then_EOF(t *testing.T) {
	src := NewLineSource(strings.NewReader("c01\n\nag3\n"), logger.Discard())
	ctx := context.Background()

	notes, pitches, err := src.Sample(ctx)
	if err != nil {
		t.Fatalf("Sample 1: %v", err)
	}
	if got := keys.Build(notes, pitches).Strings(); !reflect.DeepEqual(got, []string{"c0", "c1"}) {
		t.Errorf("cycle 1: got %v", got)
	}

	notes, pitches, err = src.Sample(ctx)
	if err != nil {
		t.Fatalf("Sample 2: %v", err)
	}
	if keys.Build(notes, pitches).Len() != 0 {
		t.Error("blank line should release everything")
	}

	notes, pitches, err = src.Sample(ctx)
	if err != nil {
		t.Fatalf("Sample 3: %v", err)
	}
	if got := keys.Build(notes, pitches).Strings(); !reflect.DeepEqual(got, []string{"g3", "a3"}) {
		t.Errorf("cycle 3: got %v", got)
	}

	if _, _, err := src.Sample(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of input, got %v", err)
	}
}

func TestLineSource_Sample_honours_cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewLineSource(pr, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := src.Sample(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRandomSource_Sample_ranges(t *testing.T) {
	src := NewRandomSource(rand.New(rand.NewSource(7)), 0)
	sawEmpty, sawFull := false, false
	for i := 0; i < 500; i++ {
		notes, pitches, err := src.Sample(context.Background())
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if len(notes) > len(keys.Notes) || len(pitches) > keys.NumPitches {
			t.Fatalf("too many entries: %v %v", notes, pitches)
		}
		for p := range pitches {
			if !p.Valid() {
				t.Fatalf("invalid pitch %d", p)
			}
		}
		if len(notes) == 0 {
			sawEmpty = true
		}
		if len(notes) == len(keys.Notes) {
			sawFull = true
		}
	}
	if !sawEmpty || !sawFull {
		t.Errorf("expected both empty and full note sets over 500 samples (empty=%v full=%v)", sawEmpty, sawFull)
	}
}

func TestRandomSource_Sample_cancelled(t *testing.T) {
	src := NewRandomSource(nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	// first sample is immediate, the second would wait an hour
	if _, _, err := src.Sample(ctx); err != nil {
		t.Fatalf("first Sample: %v", err)
	}
	cancel()
	if _, _, err := src.Sample(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMaskToSets(t *testing.T) {
	// c (bit 0), g (bit 3), pitch 0 (bit 5), pitch 4 (bit 9), bit 11 unused
	notes, pitches := MaskToSets(1<<0 | 1<<3 | 1<<5 | 1<<9 | 1<<11)
	if !reflect.DeepEqual(notes, keys.NewNoteSet(keys.C, keys.G)) {
		t.Errorf("notes: got %v", notes)
	}
	if !reflect.DeepEqual(pitches, keys.NewPitchSet(0, 4)) {
		t.Errorf("pitches: got %v", pitches)
	}
}

func TestFrameDecoder_split_and_garbage(t *testing.T) {
	var dec frameDecoder
	stream := append([]byte{0x01, SOF0, 0x02}, EncodeTouchFrame(0x0021)...)
	stream = append(stream, EncodeTouchFrame(0x0300)...)

	var got []uint16
	for i := 0; i < len(stream); i += 3 {
		end := i + 3
		if end > len(stream) {
			end = len(stream)
		}
		got = append(got, dec.Feed(stream[i:end])...)
	}
	if want := []uint16{0x0021, 0x0300}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestFrameDecoder_bad_checksum_resyncs(t *testing.T) {
	var dec frameDecoder
	bad := EncodeTouchFrame(0x0001)
	bad[len(bad)-1] ^= 0xFF
	stream := append(bad, EncodeTouchFrame(0x0022)...)

	got := dec.Feed(stream)
	if want := []uint16{0x0022}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestTouchSource_Sample_latest_mask(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewTouchSource(pr, time.Millisecond, logger.Discard())
	defer src.Close()

	go pw.Write(append(EncodeTouchFrame(0x0001), EncodeTouchFrame(1<<1|1<<7)...))

	select {
	case <-src.ready:
	case <-time.After(time.Second):
		t.Fatal("touch source never became ready")
	}

	deadline := time.Now().Add(time.Second)
	for {
		notes, pitches, err := src.Sample(context.Background())
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		got := keys.Build(notes, pitches).Strings()
		if reflect.DeepEqual(got, []string{"d2"}) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("never observed d2, last %v", got)
		}
	}

	// a broken stream releases every key
	pw.CloseWithError(errors.New("unplugged"))
	deadline = time.Now().Add(time.Second)
	for {
		notes, pitches, _ := src.Sample(context.Background())
		if keys.Build(notes, pitches).Len() == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("keys stayed held after read failure")
		}
	}
}
