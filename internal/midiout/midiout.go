// Package midiout plays keys on an external synthesizer as MIDI notes.
package midiout

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"touchkeys/internal/channels"
	"touchkeys/internal/keys"
)

const (
	// DefaultBaseNote is the MIDI note of c0 (C3).
	DefaultBaseNote = 48

	defaultVelocity = 100

	// highestOffset is the semitone offset of the top note (a) above c.
	highestOffset = 9

	// MaxBaseNote is the highest base that keeps a4 a valid MIDI note.
	MaxBaseNote = 127 - 12*(keys.NumPitches-1) - highestOffset
)

// ErrNoteRange is returned for a base note that would push some key outside
// the MIDI note range 0-127.
var ErrNoteRange = errors.New("midi note out of range")

// semitone offset of each instrument note above the octave's c
var noteOffsets = map[keys.Note]uint8{
	keys.C: 0,
	keys.D: 2,
	keys.E: 4,
	keys.G: 7,
	keys.A: highestOffset,
}

// Ports matching any of these patterns are never picked automatically.
var excludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// CheckBaseNote reports whether every key lands on a valid MIDI note when c0
// is played as base.
func CheckBaseNote(base int) error {
	if base < 0 || base > MaxBaseNote {
		return fmt.Errorf("%w: base note %d (want 0-%d)", ErrNoteRange, base, MaxBaseNote)
	}
	return nil
}

// SendFunc writes one MIDI message to the output port.
type SendFunc func(msg midi.Message) error

// Player is a channels.Player that turns each held key into a sounding note.
type Player struct {
	send     SendFunc
	channel  uint8
	baseNote int
	log      *slog.Logger
}

// NewPlayer returns a player sending on MIDI channel ch (0-15).
func NewPlayer(send SendFunc, ch uint8, baseNote int, log *slog.Logger) *Player {
	return &Player{send: send, channel: ch, baseNote: baseNote, log: log}
}

// Open connects to the first output port whose name contains pattern
// (case-insensitive); an empty pattern takes the first usable port. The
// caller must have imported a driver, e.g. rtmididrv.
func Open(pattern string, baseNote int, log *slog.Logger) (*Player, error) {
	if err := CheckBaseNote(baseNote); err != nil {
		return nil, err
	}
	var names []string
	for _, out := range midi.GetOutPorts() {
		name := out.String()
		names = append(names, name)
		if excluded(name) || !containsCI(name, pattern) {
			continue
		}
		send, err := midi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open midi output %q: %w", name, err)
		}
		log.Info("midi: output connected", "device", name)
		return NewPlayer(send, 0, baseNote, log), nil
	}
	return nil, fmt.Errorf("no midi output matching %q (available: %s)", pattern, strings.Join(names, ", "))
}

// NoteNumber returns the MIDI note number played for k.
func (p *Player) NoteNumber(k keys.Key) uint8 {
	return uint8(p.baseNote + 12*int(k.Pitch) + int(noteOffsets[k.Note]))
}

// Play implements channels.Player by sending a note on.
func (p *Player) Play(k keys.Key) (channels.Handle, error) {
	n := p.NoteNumber(k)
	if err := p.send(midi.NoteOn(p.channel, n, defaultVelocity)); err != nil {
		return nil, fmt.Errorf("midi note on %s: %w", k, err)
	}
	return &Note{p: p, key: n}, nil
}

// Note is a sounding MIDI note. Synthesizers shape the release themselves, so
// FadeOut just sends the note off.
type Note struct {
	p   *Player
	key uint8

	mu       sync.Mutex
	released bool
}

// Playing reports whether the note off has not been sent yet.
func (n *Note) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.released
}

// FadeOut sends the note off. The fade length is left to the synthesizer.
func (n *Note) FadeOut(time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.released {
		return
	}
	n.released = true
	if err := n.p.send(midi.NoteOff(n.p.channel, n.key)); err != nil {
		n.p.log.Warn("midi: note off failed", "note", n.key, "error", err)
	}
}

func excluded(name string) bool {
	for _, pat := range excludedPatterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
