package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// runWatch re-renderiza el breakdown de todas las cuentas a intervalos hasta
// que el contexto se cancele. El limiter marca el paso: un render inmediato
// y luego uno por intervalo.
func (a *app) runWatch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = a.cfg.WatchInterval()
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	slog.Info("watch mode", "interval", interval)

	for {
		if err := limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("watch stopped")
				return nil
			}
			return err
		}

		if err := a.runBalance(ctx, "all"); err != nil {
			// Un fault de integridad no debe tumbar el watch: se loggea y
			// se sigue observando.
			slog.Error("render failed", "err", err)
		}
	}
}
