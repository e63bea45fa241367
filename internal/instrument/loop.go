package instrument

import (
	"context"
	"log/slog"
	"time"

	"touchkeys/internal/input"
	"touchkeys/internal/keys"
	"touchkeys/internal/platform/metrics"
	"touchkeys/internal/status"
)

// Engine renders the held keys of one cycle on an output. Render never fails;
// engines log and count their own errors.
type Engine interface {
	Name() string
	Render(ks keys.KeySet)
}

// Loop samples a source and fans each cycle's key set out to every engine.
type Loop struct {
	source  input.Source
	engines []Engine
	status  *status.Store
	log     *slog.Logger
	metrics *metrics.Metrics
	drain   time.Duration
}

// NewLoop returns a loop over src rendering to engines in order. st and m may
// be nil.
func NewLoop(src input.Source, engines []Engine, st *status.Store, log *slog.Logger, m *metrics.Metrics) *Loop {
	return &Loop{source: src, engines: engines, status: st, log: log, metrics: m}
}

// WithDrain makes Run wait d after releasing the outputs, long enough for
// release fades to finish before the process exits.
func (l *Loop) WithDrain(d time.Duration) *Loop {
	l.drain = d
	return l
}

// Run cycles until ctx is cancelled, returning nil, or the source fails,
// returning its error (io.EOF when cli input ends). Before returning, every
// engine is rendered an empty key set once and Run waits out the drain time.
func (l *Loop) Run(ctx context.Context) error {
	defer l.release()
	for {
		notes, pitches, err := l.source.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.cycle(keys.Build(notes, pitches))
	}
}

func (l *Loop) cycle(ks keys.KeySet) {
	l.metrics.ObserveCycle(ks.Len())
	if l.status != nil {
		l.status.Publish(ks)
	}
	for _, e := range l.engines {
		e.Render(ks)
	}
}

func (l *Loop) release() {
	empty := keys.NewKeySet()
	for _, e := range l.engines {
		e.Render(empty)
	}
	l.log.Debug("outputs released", "drain", l.drain)
	if l.drain > 0 {
		time.Sleep(l.drain)
	}
}
