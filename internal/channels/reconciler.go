// Package channels keeps the set of sounding channels in step with the keys
// held on the instrument.
package channels

import (
	"log/slog"
	"time"

	"touchkeys/internal/keys"
	"touchkeys/internal/platform/metrics"
)

// ReleaseFade is how long a released key takes to fade to silence.
const ReleaseFade = 500 * time.Millisecond

// Handle is an owned reference to one playing channel.
type Handle interface {
	// Playing reports whether the channel is still sounding. It turns false on
	// its own once playback ends.
	Playing() bool
	// FadeOut ramps the channel to silence over d and then frees it.
	FadeOut(d time.Duration)
}

// Player starts continuous playback of the sound for a key.
type Player interface {
	Play(k keys.Key) (Handle, error)
}

// Reconciler owns the key -> channel mapping for one output backend. It is not
// safe for concurrent use; successive Render calls must be serialised.
type Reconciler struct {
	name    string
	player  Player
	fade    time.Duration
	active  map[keys.Key]Handle
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewReconciler returns a reconciler named name (used in logs and metrics)
// that starts channels on player. m may be nil.
func NewReconciler(name string, player Player, log *slog.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		name:    name,
		player:  player,
		fade:    ReleaseFade,
		active:  make(map[keys.Key]Handle),
		log:     log.With("engine", name),
		metrics: m,
	}
}

// Name returns the engine name.
func (r *Reconciler) Name() string { return r.name }

// Render reconciles the active channels with ks.
func (r *Reconciler) Render(ks keys.KeySet) { r.Reconcile(ks) }

// Reconcile brings the active channels in line with ks:
//   - channels that finished on their own are forgotten,
//   - channels whose key is no longer held are faded out and forgotten,
//   - keys newly held get a channel; a key whose start fails is retried
//     next cycle,
//   - keys held in both cycles are left alone.
func (r *Reconciler) Reconcile(ks keys.KeySet) {
	for k, h := range r.active {
		if !h.Playing() {
			delete(r.active, k)
			r.log.Debug("channel finished", "key", k.String())
			continue
		}
		if !ks.Has(k) {
			h.FadeOut(r.fade)
			delete(r.active, k)
			r.metrics.IncChannelFades(r.name)
			r.log.Debug("key released", "key", k.String())
		}
	}

	for k := range ks {
		if _, ok := r.active[k]; ok {
			continue
		}
		h, err := r.player.Play(k)
		if err != nil {
			r.metrics.IncChannelStartFailures(r.name)
			r.log.Debug("channel start failed, retrying next cycle", "key", k.String(), "error", err)
			continue
		}
		r.active[k] = h
		r.metrics.IncChannelStarts(r.name)
		r.log.Debug("key pressed", "key", k.String())
	}
}

// Active returns the keys that currently own a channel, in note-major order.
func (r *Reconciler) Active() []keys.Key {
	out := make([]keys.Key, 0, len(r.active))
	for k := range r.active {
		out = append(out, k)
	}
	keys.SortKeys(out)
	return out
}
