package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"touchkeys/internal/instrument"
	"touchkeys/internal/platform/config"
	"touchkeys/internal/platform/logger"
	"touchkeys/internal/platform/metrics"
	"touchkeys/internal/status"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	_ = config.Load()

	settings := instrument.LoadSettings()
	log := logger.New(settings.LogLevel, settings.LogFormat)

	met := metrics.New()
	setup, err := instrument.Open(settings, instrument.SystemDevices(os.Stdin), log, met)
	if err != nil {
		log.Error("startup failed", "error", err)
		return 1
	}
	defer setup.Close()
	if settings.HasOutput(instrument.OutputMIDI) {
		defer midi.CloseDriver()
	}

	st := status.NewStore()

	var srv *http.Server
	if settings.AdminAddr != "" {
		r := chi.NewRouter()
		r.Use(logger.RequestLogger(log))
		r.Use(metrics.RequestMiddleware(met))
		r.Get("/metrics", met.Handler().ServeHTTP)
		status.NewHandler(st, log).Routes(r)

		srv = &http.Server{Addr: settings.AdminAddr, Handler: r}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("admin server error", "error", err)
			}
		}()
	}

	log.Info("instrument starting",
		"input", settings.Input,
		"outputs", settings.Outputs,
		"admin_addr", settings.AdminAddr,
		"log_level", settings.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	err = instrument.NewLoop(setup.Source, setup.Engines, st, log, met).
		WithDrain(setup.Drain).
		Run(ctx)
	switch {
	case err == nil:
		log.Info("shutdown signal received")
	case errors.Is(err, io.EOF):
		log.Info("input closed")
	default:
		log.Error("input failed", "error", err)
		code = 1
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("admin shutdown error", "error", err)
		}
	}

	log.Info("instrument stopped")
	return code
}
