package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"touchkeys/internal/keys"
)

const (
	// DefaultTouchPollInterval is how often the touch register is sampled.
	DefaultTouchPollInterval = 5 * time.Millisecond

	// touchReadyTimeout bounds how long startup waits for the bridge's first frame.
	touchReadyTimeout = 2 * time.Second

	// Bits 0-4 of the touched register are notes, bits 5-9 are pitch levels.
	pitchBitOffset = 5
)

// ErrTouchNotReady is returned by OpenTouch when the sensor bridge sends no
// valid frame in time.
var ErrTouchNotReady = errors.New("touch sensor did not report")

// TouchSource samples the capacitive touch sensor through its serial bridge.
// A background reader keeps the most recent touched mask; Sample only reads it.
type TouchSource struct {
	port     io.ReadCloser
	log      *slog.Logger
	interval time.Duration
	ticker   *time.Ticker

	mask  atomic.Uint32
	ready chan struct{}
}

// OpenTouch opens the bridge's serial device and waits for the first frame.
// Any failure here is a startup failure.
func OpenTouch(device string, baud int, interval time.Duration, log *slog.Logger) (*TouchSource, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open touch bridge %s: %w", device, err)
	}
	log.Info("touch: serial port opened", "device", device, "baud", baud)

	src := NewTouchSource(port, interval, log)

	t := time.NewTimer(touchReadyTimeout)
	defer t.Stop()
	select {
	case <-src.ready:
		return src, nil
	case <-t.C:
		src.Close()
		return nil, fmt.Errorf("%s: %w after %v", device, ErrTouchNotReady, touchReadyTimeout)
	}
}

// NewTouchSource reads touch frames from port until it fails or is closed.
func NewTouchSource(port io.ReadCloser, interval time.Duration, log *slog.Logger) *TouchSource {
	s := &TouchSource{
		port:     port,
		log:      log,
		interval: interval,
		ready:    make(chan struct{}),
	}
	if interval > 0 {
		s.ticker = time.NewTicker(interval)
	}
	go s.readLoop()
	return s
}

func (s *TouchSource) readLoop() {
	var dec frameDecoder
	buf := make([]byte, 64)
	first := true

	for {
		n, err := s.port.Read(buf)
		for _, mask := range dec.Feed(buf[:n]) {
			s.mask.Store(uint32(mask))
			if first {
				close(s.ready)
				first = false
			}
		}
		if err != nil {
			// release everything rather than leave keys stuck down
			s.mask.Store(0)
			if !errors.Is(err, io.EOF) {
				s.log.Error("touch: serial read failed", "error", err)
			} else {
				s.log.Warn("touch: serial stream ended")
			}
			return
		}
	}
}

// Sample implements Source.
func (s *TouchSource) Sample(ctx context.Context) (keys.NoteSet, keys.PitchSet, error) {
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-s.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	notes, pitches := MaskToSets(uint16(s.mask.Load()))
	return notes, pitches, nil
}

// Close stops sampling and closes the serial port.
func (s *TouchSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	return s.port.Close()
}

// MaskToSets decodes a touched register value into notes and pitch levels.
func MaskToSets(mask uint16) (keys.NoteSet, keys.PitchSet) {
	notes := keys.NewNoteSet()
	for i, n := range keys.Notes {
		if mask&(1<<i) != 0 {
			notes[n] = struct{}{}
		}
	}
	pitches := keys.NewPitchSet()
	for i, p := range keys.Pitches {
		if mask&(1<<(i+pitchBitOffset)) != 0 {
			pitches[p] = struct{}{}
		}
	}
	return notes, pitches
}
