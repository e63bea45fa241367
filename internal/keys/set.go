package keys

// NoteSet is the set of notes reported by an input source for one cycle.
type NoteSet map[Note]struct{}

// PitchSet is the set of pitch levels reported by an input source for one cycle.
type PitchSet map[PitchLevel]struct{}

// NewNoteSet returns a set holding ns.
func NewNoteSet(ns ...Note) NoteSet {
	s := make(NoteSet, len(ns))
	for _, n := range ns {
		s[n] = struct{}{}
	}
	return s
}

// NewPitchSet returns a set holding ps.
func NewPitchSet(ps ...PitchLevel) PitchSet {
	s := make(PitchSet, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	return s
}

// KeySet is the set of keys that should be sounding in the current cycle.
// Output engines must treat a KeySet as read-only.
type KeySet map[Key]struct{}

// NewKeySet returns a set holding ks.
func NewKeySet(ks ...Key) KeySet {
	s := make(KeySet, len(ks))
	for _, k := range ks {
		s[k] = struct{}{}
	}
	return s
}

// Build expands notes × pitches into the cycle's key set. An empty notes or
// pitches set yields an empty key set.
func Build(notes NoteSet, pitches PitchSet) KeySet {
	ks := make(KeySet, len(notes)*len(pitches))
	for n := range notes {
		for p := range pitches {
			ks[Key{Note: n, Pitch: p}] = struct{}{}
		}
	}
	return ks
}

// Has reports whether k is in the set.
func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys in the set.
func (s KeySet) Len() int { return len(s) }

// Sorted returns the keys in note-major order.
func (s KeySet) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	SortKeys(out)
	return out
}

// Strings returns the sorted key names, mostly for logging.
func (s KeySet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, k := range sorted {
		out[i] = k.String()
	}
	return out
}
