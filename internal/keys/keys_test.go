package keys

import (
	"reflect"
	"testing"
)

func TestBuild_cross_product(t *testing.T) {
	ks := Build(NewNoteSet(C), NewPitchSet(0, 1))
	want := NewKeySet(Key{C, 0}, Key{C, 1})
	if !reflect.DeepEqual(ks, want) {
		t.Errorf("Build: got %v, want %v", ks.Strings(), want.Strings())
	}
}

func TestBuild_every_note_times_every_pitch(t *testing.T) {
	ks := Build(NewNoteSet(D, A, G), NewPitchSet(4, 2))
	if ks.Len() != 6 {
		t.Fatalf("expected 6 keys, got %d", ks.Len())
	}
	for _, n := range []Note{D, A, G} {
		for _, p := range []PitchLevel{2, 4} {
			if !ks.Has(Key{n, p}) {
				t.Errorf("missing key %s%d", n, p)
			}
		}
	}
}

func TestBuild_empty_inputs(t *testing.T) {
	if got := Build(NewNoteSet(), NewPitchSet(0, 1, 2)); got.Len() != 0 {
		t.Errorf("empty notes should give empty set, got %v", got.Strings())
	}
	if got := Build(NewNoteSet(C, E), NewPitchSet()); got.Len() != 0 {
		t.Errorf("empty pitches should give empty set, got %v", got.Strings())
	}
	if got := Build(nil, nil); got.Len() != 0 {
		t.Errorf("nil inputs should give empty set, got %v", got.Strings())
	}
}

func TestAll_universe(t *testing.T) {
	all := All()
	if len(all) != 25 {
		t.Fatalf("expected 25 keys, got %d", len(all))
	}
	if all[0] != (Key{C, 0}) || all[24] != (Key{A, 4}) {
		t.Errorf("unexpected order: first %v last %v", all[0], all[24])
	}
}

func TestKeySet_Sorted(t *testing.T) {
	ks := NewKeySet(Key{A, 0}, Key{C, 3}, Key{C, 1}, Key{E, 2})
	got := ks.Strings()
	want := []string{"c1", "c3", "e2", "a0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted: got %v, want %v", got, want)
	}
}

func TestParseNote_and_ParsePitch(t *testing.T) {
	if n, ok := ParseNote('g'); !ok || n != G {
		t.Errorf("ParseNote('g') = %v, %v", n, ok)
	}
	if _, ok := ParseNote('f'); ok {
		t.Error("'f' is not an instrument note")
	}
	if p, ok := ParsePitch('4'); !ok || p != 4 {
		t.Errorf("ParsePitch('4') = %v, %v", p, ok)
	}
	if _, ok := ParsePitch('5'); ok {
		t.Error("'5' is out of range")
	}
}

func TestKey_String(t *testing.T) {
	if s := (Key{D, 2}).String(); s != "d2" {
		t.Errorf("got %q, want d2", s)
	}
}
