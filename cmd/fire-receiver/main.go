// Command fire-receiver stands in for the fire display: it listens for grid
// datagrams, validates them and draws accepted grids on the terminal.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"touchkeys/internal/fire"
	"touchkeys/internal/platform/config"
	"touchkeys/internal/platform/logger"
)

func main() {
	_ = config.Load()

	addr := config.GetEnv("FIRE_LISTEN", fmt.Sprintf(":%d", fire.Port))
	log := logger.New(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "text"))

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		log.Error("listen failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	log.Info("fire receiver listening", "addr", conn.LocalAddr().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = fire.Serve(ctx, conn, func(m fire.Message) {
		if m.Err != nil {
			log.Warn("datagram rejected", "from", m.From.String(), "error", m.Err)
			return
		}
		log.Info("datagram accepted", "from", m.From.String(), "held", m.Keys.Strings())
		fmt.Println(fire.RenderGrid(m.Keys))
	})
	if err != nil {
		log.Error("receive failed", "error", err)
		os.Exit(1)
	}
	log.Info("fire receiver stopped")
}
