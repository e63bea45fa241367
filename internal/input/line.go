package input

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"touchkeys/internal/keys"
)

// LineSource reads one line per cycle. Note letters in the line select notes,
// digits 0-4 select pitch levels, and every other character is ignored, so
// "c 01" holds c0 and c1.
type LineSource struct {
	lines <-chan string
	done  <-chan struct{}
	err   error
}

// NewLineSource starts reading r line by line in the background. Reading runs
// ahead of Sample by at most one line.
func NewLineSource(r io.Reader, log *slog.Logger) *LineSource {
	lines := make(chan string)
	done := make(chan struct{})
	s := &LineSource{lines: lines, done: done}

	go func() {
		defer close(done)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			log.Error("input: line read failed", "error", err)
			s.err = err
			return
		}
		s.err = io.EOF
	}()

	return s
}

// Sample implements Source. It blocks until a line arrives, the reader ends
// (io.EOF or the read error), or ctx is cancelled.
func (s *LineSource) Sample(ctx context.Context) (keys.NoteSet, keys.PitchSet, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case line := <-s.lines:
		notes, pitches := ParseLine(line)
		return notes, pitches, nil
	case <-s.done:
		return nil, nil, s.err
	}
}

// ParseLine extracts the notes and pitch levels named in line.
func ParseLine(line string) (keys.NoteSet, keys.PitchSet) {
	notes := keys.NewNoteSet()
	pitches := keys.NewPitchSet()
	for _, r := range line {
		if n, ok := keys.ParseNote(r); ok {
			notes[n] = struct{}{}
		} else if p, ok := keys.ParsePitch(r); ok {
			pitches[p] = struct{}{}
		}
	}
	return notes, pitches
}
