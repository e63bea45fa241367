package keys

import (
	"fmt"
	"sort"
)

// Note is one of the instrument's five pentatonic note identifiers.
type Note byte

// The notes in their fixed display order.
const (
	C Note = 'c'
	D Note = 'd'
	E Note = 'e'
	G Note = 'g'
	A Note = 'a'
)

// Notes is the fixed, ordered set of notes. Rows of the fire grid and bits 0-4
// of the touch register follow this order.
var Notes = [...]Note{C, D, E, G, A}

// NumPitches is the number of pitch levels per note.
const NumPitches = 5

// PitchLevel is an octave/offset index in [0, NumPitches).
type PitchLevel int

// Pitches enumerates every pitch level in ascending order.
var Pitches = [...]PitchLevel{0, 1, 2, 3, 4}

// ParseNote returns the note named by r, if any.
func ParseNote(r rune) (Note, bool) {
	for _, n := range Notes {
		if rune(n) == r {
			return n, true
		}
	}
	return 0, false
}

// ParsePitch returns the pitch level named by the digit r, if any.
func ParsePitch(r rune) (PitchLevel, bool) {
	if r < '0' || r >= '0'+NumPitches {
		return 0, false
	}
	return PitchLevel(r - '0'), true
}

// Index returns the position of n in Notes, or -1.
func (n Note) Index() int {
	for i, o := range Notes {
		if o == n {
			return i
		}
	}
	return -1
}

func (n Note) String() string { return string(rune(n)) }

// Valid reports whether p is inside the pitch range.
func (p PitchLevel) Valid() bool { return p >= 0 && p < NumPitches }

// Key is one addressable sound/light cell.
type Key struct {
	Note  Note
	Pitch PitchLevel
}

// String returns the key's short name, e.g. "c0". Sample files are named after it.
func (k Key) String() string {
	return fmt.Sprintf("%s%d", k.Note, k.Pitch)
}

// All returns the 25-key universe in note-major order.
func All() []Key {
	out := make([]Key, 0, len(Notes)*NumPitches)
	for _, n := range Notes {
		for _, p := range Pitches {
			out = append(out, Key{Note: n, Pitch: p})
		}
	}
	return out
}

func less(a, b Key) bool {
	if a.Note != b.Note {
		return a.Note.Index() < b.Note.Index()
	}
	return a.Pitch < b.Pitch
}

// SortKeys orders ks note-major, as in All.
func SortKeys(ks []Key) {
	sort.Slice(ks, func(i, j int) bool { return less(ks[i], ks[j]) })
}
