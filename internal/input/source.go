// Package input provides the interchangeable input sources that report which
// notes and pitch levels are held on each cycle.
package input

import (
	"context"

	"touchkeys/internal/keys"
)

// Source reports the notes and pitch levels active for the current cycle.
// Sample is called once per loop iteration; it may block (line input) or
// return promptly (sensor, simulator). Implementations must return ctx.Err()
// once ctx is cancelled.
type Source interface {
	Sample(ctx context.Context) (keys.NoteSet, keys.PitchSet, error)
}

// Kind names a configured input source variant.
type Kind string

const (
	KindCLI    Kind = "cli"
	KindTouch  Kind = "touch"
	KindRandom Kind = "random"
)
