package input

import (
	"context"
	"math/rand"
	"time"

	"touchkeys/internal/keys"
)

// DefaultRandomInterval paces the simulator so each random chord is audible.
const DefaultRandomInterval = 250 * time.Millisecond

// RandomSource simulates a player by picking a random number of distinct
// notes and pitch levels every interval.
type RandomSource struct {
	rng      *rand.Rand
	interval time.Duration
	next     time.Time
}

// NewRandomSource returns a simulator driven by rng. A nil rng is seeded from
// the clock; interval <= 0 disables pacing.
func NewRandomSource(rng *rand.Rand, interval time.Duration) *RandomSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomSource{rng: rng, interval: interval}
}

// Sample implements Source.
func (s *RandomSource) Sample(ctx context.Context) (keys.NoteSet, keys.PitchSet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, nil, err
	}

	notes := keys.NewNoteSet()
	for _, i := range s.rng.Perm(len(keys.Notes))[:s.rng.Intn(len(keys.Notes)+1)] {
		notes[keys.Notes[i]] = struct{}{}
	}
	pitches := keys.NewPitchSet()
	for _, i := range s.rng.Perm(len(keys.Pitches))[:s.rng.Intn(len(keys.Pitches)+1)] {
		pitches[keys.Pitches[i]] = struct{}{}
	}
	return notes, pitches, nil
}

func (s *RandomSource) wait(ctx context.Context) error {
	if s.interval <= 0 {
		return ctx.Err()
	}
	now := time.Now()
	if s.next.IsZero() {
		s.next = now
	}
	d := s.next.Sub(now)
	s.next = s.next.Add(s.interval)
	if s.next.Before(now) {
		s.next = now.Add(s.interval)
	}
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
