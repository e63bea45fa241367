package fire

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"touchkeys/internal/keys"
	"touchkeys/internal/platform/metrics"
)

// MinInterval is the shortest gap between two datagrams.
const MinInterval = 100 * time.Millisecond

// Encoder sends the held keys to the display, at most once per MinInterval.
// Delivery is best effort: failed sends are dropped, never retried.
type Encoder struct {
	w        io.Writer
	now      func() time.Time
	lastSent time.Time
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

// NewEncoder returns an encoder writing one datagram per Write to w. The rate
// limit window starts at construction. m may be nil.
func NewEncoder(w io.Writer, log *slog.Logger, m *metrics.Metrics, opts ...Option) *Encoder {
	e := &Encoder{
		w:       w,
		now:     time.Now,
		log:     log.With("engine", "fire"),
		metrics: m,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastSent = e.now()
	return e
}

// Dial opens the UDP socket to the display at host.
func Dial(host string) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(Port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial fire display %s: %w", addr, err)
	}
	return conn, nil
}

// Name returns the engine name.
func (e *Encoder) Name() string { return "fire" }

// Render emits ks.
func (e *Encoder) Render(ks keys.KeySet) { e.Emit(ks) }

// Emit sends ks unless the previous send was less than MinInterval ago.
// It reports whether a datagram was attempted.
func (e *Encoder) Emit(ks keys.KeySet) bool {
	now := e.now()
	if now.Sub(e.lastSent) < MinInterval {
		e.metrics.IncDatagramsRateLimited()
		return false
	}
	e.lastSent = now

	if _, err := e.w.Write(Encode(ks)); err != nil {
		e.metrics.IncDatagramErrors()
		e.log.Debug("datagram dropped", "error", err)
		return true
	}
	e.metrics.IncDatagramsSent()
	return true
}
