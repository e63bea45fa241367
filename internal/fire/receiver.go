package fire

import (
	"context"
	"errors"
	"net"

	"touchkeys/internal/keys"
)

// Message is one datagram seen by a receiver. Err is non-nil, and Keys nil,
// when the datagram was rejected.
type Message struct {
	From net.Addr
	Raw  []byte
	Keys keys.KeySet
	Err  error
}

// Serve reads datagrams from conn and passes each, validated, to handle. A
// malformed datagram is reported to handle and the receiver keeps listening.
// Serve returns when ctx is done or conn fails.
func Serve(ctx context.Context, conn net.PacketConn, handle func(Message)) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	buf := make([]byte, MaxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		raw := append([]byte(nil), buf[:n]...)
		ks, err := Decode(raw)
		handle(Message{From: from, Raw: raw, Keys: ks, Err: err})
	}
}
